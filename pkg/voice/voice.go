package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/config"
	"github.com/ASHISH26940/vidface-api/pkg/security"
	log "github.com/sirupsen/logrus"
)

var ErrNoProvider = errors.New("no speech provider configured")

// Voice describes a selectable narration voice.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Request is one text-to-speech job.
type Request struct {
	Text     string
	VoiceID  string
	Language string
	Speed    float64
}

// Provider turns text into an audio file at outPath.
type Provider interface {
	Name() string
	// Ext is the extension of the audio the provider writes, with the dot.
	Ext() string
	Synthesize(ctx context.Context, req Request, outPath string) error
}

// VoiceLister is implemented by providers with their own voice catalog.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]Voice, error)
}

// BuiltinVoices is the catalog offered when no provider lists its own voices.
var BuiltinVoices = []Voice{
	{ID: "default", Name: "Default Voice", Category: "general", Description: "Default text-to-speech voice", Language: "en"},
	{ID: "professional", Name: "Professional", Category: "business", Description: "Professional business voice", Language: "en"},
	{ID: "friendly", Name: "Friendly", Category: "casual", Description: "Warm and friendly voice", Language: "en"},
	{ID: "narrator", Name: "Narrator", Category: "storytelling", Description: "Deep narrator voice", Language: "en"},
}

// Synthesizer tries its providers in order and returns the first audio file
// produced.
type Synthesizer struct {
	providers []Provider
	outputDir string
	timeout   time.Duration
}

func NewSynthesizer(outputDir string, timeout time.Duration, providers ...Provider) *Synthesizer {
	return &Synthesizer{providers: providers, outputDir: outputDir, timeout: timeout}
}

// NewSynthesizerFromConfig builds the chain ElevenLabs, OpenAI from the
// configured keys. With no keys the chain is the local placeholder tone.
func NewSynthesizerFromConfig(cfg *config.Config) *Synthesizer {
	client := &http.Client{}
	var providers []Provider
	if cfg.ElevenLabsAPIKey != "" {
		providers = append(providers, NewElevenLabs(cfg.ElevenLabsAPIKey, client))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, NewOpenAI(cfg.OpenAIAPIKey, client))
	}
	if len(providers) == 0 {
		log.Warn("No TTS API keys configured, using placeholder audio.")
		providers = append(providers, Placeholder{})
	}
	return NewSynthesizer(cfg.AudioOutputDir, cfg.TTSTimeout, providers...)
}

// Providers returns the provider names in chain order.
func (s *Synthesizer) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// Synthesize writes the narration for req into the output directory and
// returns its path. When every provider fails the joined errors are returned.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (string, error) {
	if len(s.providers) == 0 {
		return "", ErrNoProvider
	}
	if req.Speed <= 0 {
		req.Speed = 1.0
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	var errs []error
	for _, p := range s.providers {
		name, err := security.GenerateSecureFilename(p.Ext())
		if err != nil {
			return "", err
		}
		outPath := filepath.Join(s.outputDir, p.Name()+"_"+name)

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		}
		err = p.Synthesize(callCtx, req, outPath)
		cancel()
		if err == nil {
			log.WithFields(log.Fields{"provider": p.Name(), "path": outPath}).Debug("Speech synthesized.")
			return outPath, nil
		}

		log.WithField("provider", p.Name()).Warnf("Speech provider failed: %v", err)
		_ = os.Remove(outPath)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("speech generation failed: %w", errors.Join(errs...))
}

// ListVoices returns the first provider catalog that can be fetched, falling
// back to BuiltinVoices.
func (s *Synthesizer) ListVoices(ctx context.Context) []Voice {
	for _, p := range s.providers {
		lister, ok := p.(VoiceLister)
		if !ok {
			continue
		}
		voices, err := lister.ListVoices(ctx)
		if err != nil {
			log.WithField("provider", p.Name()).Warnf("Listing voices failed: %v", err)
			continue
		}
		return voices
	}
	out := make([]Voice, len(BuiltinVoices))
	copy(out, BuiltinVoices)
	return out
}

// GetVoice looks id up in the ListVoices catalog.
func (s *Synthesizer) GetVoice(ctx context.Context, id string) (*Voice, bool) {
	for _, v := range s.ListVoices(ctx) {
		if v.ID == id {
			return &v, true
		}
	}
	return nil, false
}
