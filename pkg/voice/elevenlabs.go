package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	// Rachel, used when the request names one of the built-in voices.
	elevenLabsDefaultVoice = "21m00Tcm4TlvDq8ikWAM"
)

// ElevenLabs is the voice-cloning provider.
type ElevenLabs struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewElevenLabs(apiKey string, client *http.Client) *ElevenLabs {
	return &ElevenLabs{apiKey: apiKey, baseURL: elevenLabsBaseURL, client: client}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }
func (e *ElevenLabs) Ext() string  { return ".mp3" }

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, req Request, outPath string) error {
	voiceID := req.VoiceID
	if voiceID == "" || isBuiltinVoice(voiceID) {
		voiceID = elevenLabsDefaultVoice
	}
	payload := elevenLabsRequest{
		Text:    req.Text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
			Speed:           req.Speed,
		},
	}
	headers := map[string]string{"Accept": "audio/mpeg", "xi-api-key": e.apiKey}
	if err := postForAudio(ctx, e.client, e.baseURL+"/text-to-speech/"+voiceID, headers, payload, outPath); err != nil {
		return fmt.Errorf("ElevenLabs %w", err)
	}
	return nil
}

type elevenLabsVoice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
}

func (e *ElevenLabs) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ElevenLabs %w", statusError(resp))
	}

	var body struct {
		Voices []elevenLabsVoice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}

	voices := make([]Voice, 0, len(body.Voices))
	for _, v := range body.Voices {
		voice := Voice{ID: v.VoiceID, Name: v.Name, Category: v.Category, Description: v.Description, Language: "en"}
		if voice.Category == "" {
			voice.Category = "general"
		}
		if lang := v.Labels["language"]; lang != "" {
			voice.Language = lang
		}
		voices = append(voices, voice)
	}
	return voices, nil
}

func isBuiltinVoice(id string) bool {
	for _, v := range BuiltinVoices {
		if v.ID == id {
			return true
		}
	}
	return false
}
