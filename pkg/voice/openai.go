package voice

import (
	"context"
	"fmt"
	"net/http"
)

const openAISpeechURL = "https://api.openai.com/v1/audio/speech"

var openAIVoices = map[string]string{
	"default":      "alloy",
	"professional": "onyx",
	"friendly":     "nova",
	"narrator":     "fable",
}

// OpenAI is the generic speech API provider.
type OpenAI struct {
	apiKey string
	url    string
	client *http.Client
}

func NewOpenAI(apiKey string, client *http.Client) *OpenAI {
	return &OpenAI{apiKey: apiKey, url: openAISpeechURL, client: client}
}

func (o *OpenAI) Name() string { return "openai" }
func (o *OpenAI) Ext() string  { return ".mp3" }

func (o *OpenAI) Synthesize(ctx context.Context, req Request, outPath string) error {
	voice := req.VoiceID
	if mapped, ok := openAIVoices[voice]; ok {
		voice = mapped
	} else if voice == "" {
		voice = openAIVoices["default"]
	}
	payload := map[string]interface{}{
		"model":           "tts-1",
		"input":           req.Text,
		"voice":           voice,
		"response_format": "mp3",
		"speed":           req.Speed,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postForAudio(ctx, o.client, o.url, headers, payload, outPath); err != nil {
		return fmt.Errorf("OpenAI %w", err)
	}
	return nil
}
