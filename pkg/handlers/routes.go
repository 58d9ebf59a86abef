package handlers

import (
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/middleware"
	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		allowAll = allowAll || o == "*"
	}
	if allowAll {
		// Browsers reject credentials with a wildcard origin.
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// NewRouter builds the engine with the cross-cutting middleware and every route.
func NewRouter(h *Handlers) *gin.Engine {
	cfg := h.Config
	router := gin.Default()

	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if cfg.SecurityHeaders {
		router.Use(middleware.SecurityHeaders())
	}
	if !cfg.Debug {
		router.Use(middleware.HostValidation(cfg.AllowedHosts))
	}
	router.Use(middleware.BodySizeLimit(cfg.MaxUploadSize))
	router.Use(middleware.RateLimit(h.Limiter, middleware.DefaultBudgets(
		cfg.RateLimitPerMinute, cfg.RateLimitPerHour, cfg.RateLimitPerDay, cfg.EnforceLongRateWindows)...))

	router.GET("/", h.Root)
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.LoginUser)
		authRoutes.POST("/login/form", h.LoginForm)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(h.Tokens), middleware.ActiveUser(h.Store))
	{
		userRoutes := protected.Group("/user")
		{
			userRoutes.GET("/profile", h.GetProfile)
			userRoutes.PUT("/profile", h.UpdateProfile)
			userRoutes.GET("/stats", h.GetStats)
		}

		avatarRoutes := protected.Group("/avatar")
		{
			avatarRoutes.GET("/list", h.ListAvatars)
			avatarRoutes.GET("/categories", h.ListAvatarCategories)
			avatarRoutes.GET("/popular", h.ListPopularAvatars)
			avatarRoutes.GET("/featured", h.ListFeaturedAvatars)
			avatarRoutes.GET("/:id", h.GetAvatar)
		}

		createBudget := middleware.Budget{Name: "video_create", Limit: cfg.VideoCreateLimitPerMinute, Window: time.Minute}
		videoRoutes := protected.Group("/video")
		{
			videoRoutes.POST("/create", middleware.RateLimit(h.Limiter, createBudget), h.CreateVideo)
			videoRoutes.GET("/list", h.ListVideos)
			videoRoutes.GET("/voices", h.ListVoices)
			videoRoutes.GET("/voices/:id", h.GetVoice)
			videoRoutes.POST("/script/draft", h.DraftScript)
			videoRoutes.GET("/:id", h.GetVideo)
			videoRoutes.PUT("/:id", h.UpdateVideo)
			videoRoutes.DELETE("/:id", h.DeleteVideo)
			videoRoutes.GET("/:id/download", h.DownloadVideo)
		}
	}

	return router
}
