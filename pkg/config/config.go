package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	AppName string
	Host    string
	Port    string
	Debug   bool

	DatabaseURL    string
	JwtSecret      string
	AccessTokenTTL time.Duration

	CORSOrigins     []string
	AllowedHosts    []string
	SecurityHeaders bool
	MaxUploadSize   int64

	RateLimitPerMinute        int
	RateLimitPerHour          int
	RateLimitPerDay           int
	EnforceLongRateWindows    bool
	VideoCreateLimitPerMinute int
	MaxLoginAttempts          int
	LoginLockout              time.Duration
	MinPasswordLength         int
	RequireUppercase          bool
	RequireLowercase          bool
	RequireDigits             bool
	RequireSpecialChars       bool

	ElevenLabsAPIKey string
	OpenAIAPIKey     string
	TTSTimeout       time.Duration

	AudioOutputDir    string
	VideoOutputDir    string
	VideoWorkDir      string
	FFmpegCandidates  []string
	FFprobeCandidates []string
	WorkerCount       int
	WorkerQueueSize   int

	RedisURL    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	GeminiAPIKey string
}

// Load reads the environment (and .env, when present) into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	cfg := &Config{
		AppName:        getEnv("APP_NAME", "VidFace API"),
		Host:           getEnv("HOST", "127.0.0.1"),
		Port:           getEnv("PORT", "8080"),
		Debug:          getBool("DEBUG", false),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JwtSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: time.Duration(getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		CORSOrigins: getList("CORS_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5500",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5500",
		}),
		AllowedHosts:    getList("ALLOWED_HOSTS", []string{"localhost", "127.0.0.1"}),
		SecurityHeaders: getBool("SECURITY_HEADERS", true),
		MaxUploadSize:   int64(getInt("MAX_UPLOAD_SIZE", 100*1024*1024)),

		RateLimitPerMinute:        getInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitPerHour:          getInt("RATE_LIMIT_PER_HOUR", 100),
		RateLimitPerDay:           getInt("RATE_LIMIT_PER_DAY", 1000),
		EnforceLongRateWindows:    getBool("RATE_LIMIT_ENFORCE_LONG_WINDOWS", false),
		VideoCreateLimitPerMinute: getInt("VIDEO_CREATE_LIMIT_PER_MINUTE", 5),
		MaxLoginAttempts:          getInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginLockout:              time.Duration(getInt("LOGIN_LOCKOUT_MINUTES", 15)) * time.Minute,
		MinPasswordLength:         getInt("MIN_PASSWORD_LENGTH", 8),
		RequireUppercase:          getBool("REQUIRE_UPPERCASE", false),
		RequireLowercase:          getBool("REQUIRE_LOWERCASE", false),
		RequireDigits:             getBool("REQUIRE_DIGITS", true),
		RequireSpecialChars:       getBool("REQUIRE_SPECIAL_CHARS", true),

		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TTSTimeout:       getDuration("TTS_TIMEOUT", 60*time.Second),

		AudioOutputDir: getEnv("AUDIO_OUTPUT_DIR", "static/audio"),
		VideoOutputDir: getEnv("VIDEO_OUTPUT_DIR", "static/videos"),
		VideoWorkDir:   getEnv("VIDEO_WORK_DIR", os.TempDir()),
		FFmpegCandidates: getList("FFMPEG_CANDIDATES", []string{
			"ffmpeg", "/usr/bin/ffmpeg", "/usr/local/bin/ffmpeg", "/opt/homebrew/bin/ffmpeg",
		}),
		FFprobeCandidates: getList("FFPROBE_CANDIDATES", []string{
			"ffprobe", "/usr/bin/ffprobe", "/usr/local/bin/ffprobe", "/opt/homebrew/bin/ffprobe",
		}),
		WorkerCount:     getInt("WORKER_COUNT", 2),
		WorkerQueueSize: getInt("WORKER_QUEUE_SIZE", 64),

		RedisURL:    os.Getenv("REDIS_URL"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    getEnv("S3_BUCKET", "vidface-videos"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3UseSSL:    getBool("S3_USE_SSL", true),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.JwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set. This is critical for authentication")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.WorkerQueueSize < 1 {
		cfg.WorkerQueueSize = 1
	}

	return cfg, nil
}

// LoadConfig is Load for process bootstrap: configuration errors are fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	return cfg
}

// ObjectStorageEnabled reports whether completed artifacts are mirrored to S3.
func (c *Config) ObjectStorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warnf("Ignoring invalid duration %s=%q", key, v)
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warnf("Ignoring invalid integer %s=%q", key, v)
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		var cleaned []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
