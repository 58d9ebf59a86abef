// pkg/llm/gemini.go

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// MaxScriptLength matches the limit on video scripts.
const MaxScriptLength = 5000

var ErrEmptyDraft = errors.New("gemini returned no script")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator holds the Gemini AI client.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator creates a new Gemini AI client.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: client.GenerativeModel("gemini-1.5-flash")}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Errorf("Error generating content: %v", err)
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn("Gemini returned no candidates or content.")
		return "", ErrEmptyDraft
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini API returned non-text content")
	}
	return sb.String(), nil
}

// Close gracefully closes the underlying Gemini client.
func (g *GeminiGenerator) Close() error {
	log.Info("Closing Gemini AI client.")
	return g.client.Close()
}

// ScriptWriter drafts narration scripts for videos.
type ScriptWriter struct {
	gen Generator
}

func NewScriptWriter(gen Generator) *ScriptWriter {
	return &ScriptWriter{gen: gen}
}

const draftPrompt = `Write a narration script for a short talking-avatar video.

Requirements:
1. Plain spoken text only. No markdown, headings, stage directions, emojis or speaker labels.
2. Write it in the language with ISO code "%s".
3. Keep it under 120 seconds when read aloud and under %d characters.
4. Address the viewer directly in a clear, friendly tone.

Topic: "%s"`

// DraftScript asks the model for a script about topic in language.
func (w *ScriptWriter) DraftScript(ctx context.Context, topic, language string) (string, error) {
	if language == "" {
		language = "en"
	}
	log.Debugf("Drafting script for topic: %s", topic)

	raw, err := w.gen.Generate(ctx, fmt.Sprintf(draftPrompt, language, MaxScriptLength, topic))
	if err != nil {
		return "", err
	}

	script := StripFences(raw)
	if script == "" {
		return "", ErrEmptyDraft
	}
	if utf8.RuneCountInString(script) > MaxScriptLength {
		script = truncateAtSentence(script, MaxScriptLength)
	}
	log.Infof("Drafted a %d character script.", utf8.RuneCountInString(script))
	return script, nil
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop a language tag such as ```text on the opening line.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], " \t") {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func truncateAtSentence(s string, limit int) string {
	runes := []rune(s)
	cut := string(runes[:limit])
	if i := strings.LastIndexAny(cut, ".!?"); i > 0 {
		return cut[:i+1]
	}
	return cut
}
