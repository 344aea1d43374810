package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ChallengeInput is the play history summary sent to the model.
type ChallengeInput struct {
	// PlayHistory is a comma separated list of recently played game titles, oldest first.
	PlayHistory string
}

// ChallengeOutput is a generated daily challenge.
type ChallengeOutput struct {
	Challenge     string `json:"challenge"`
	SuggestedGame string `json:"suggestedGame"`
}

const challengePrompt = `You are an AI challenge generator that creates personalized daily challenges for users based on their past game play history.

User Play History: %s

Generate a unique and engaging daily challenge that encourages the user to play. Suggest a game from the user's play history that aligns well with the challenge. If the history is empty, suggest %q.

Respond with JSON containing "challenge" and "suggestedGame".`

const transformPrompt = "Transform this doodle into stylized pixel art."

var challengeSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"challenge":     map[string]any{"type": "STRING"},
		"suggestedGame": map[string]any{"type": "STRING"},
	},
	"required": []string{"challenge", "suggestedGame"},
}

// SuggestGame picks the most recently played title from a comma separated history.
func SuggestGame(history string) string {
	items := strings.Split(history, ",")
	for i := len(items) - 1; i >= 0; i-- {
		if title := strings.TrimSpace(items[i]); title != "" {
			return title
		}
	}
	return DefaultGame
}

// DailyChallenge asks the model for a personalised challenge.
func (c *Client) DailyChallenge(ctx context.Context, in ChallengeInput) (ChallengeOutput, error) {
	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: fmt.Sprintf(challengePrompt, in.PlayHistory, DefaultGame)}},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   challengeSchema,
		},
	}
	parts, err := c.generate(ctx, c.cfg.Model, req)
	if err != nil {
		return ChallengeOutput{}, err
	}
	var text strings.Builder
	for _, p := range parts {
		text.WriteString(p.Text)
	}
	raw := strings.TrimSpace(text.String())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")
	if raw == "" {
		return ChallengeOutput{}, ErrEmptyResponse
	}
	var out ChallengeOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return ChallengeOutput{}, fmt.Errorf("failed to decode challenge: %w", err)
	}
	out.Challenge = strings.TrimSpace(out.Challenge)
	if out.Challenge == "" {
		return ChallengeOutput{}, ErrEmptyResponse
	}
	if strings.TrimSpace(out.SuggestedGame) == "" {
		out.SuggestedGame = SuggestGame(in.PlayHistory)
	}
	return out, nil
}

// TransformDoodle turns a data URI doodle into pixel art, returned as a data URI.
func (c *Client) TransformDoodle(ctx context.Context, doodleDataURI string) (string, error) {
	mime, data, ok := splitDataURI(doodleDataURI)
	if !ok {
		return "", fmt.Errorf("doodle must be a base64 data uri")
	}
	req := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mime, Data: data}},
				{Text: transformPrompt},
			},
		}},
		// Image output needs both modalities.
		GenerationConfig: &generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}
	parts, err := c.generate(ctx, c.cfg.ImageModel, req)
	if err != nil {
		return "", err
	}
	for _, p := range parts {
		if p.InlineData != nil && p.InlineData.Data != "" && strings.HasPrefix(p.InlineData.MimeType, "image/") {
			return "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data, nil
		}
	}
	return "", ErrNoImage
}

func splitDataURI(uri string) (string, string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return "", "", false
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", false
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" || data == "" {
		return "", "", false
	}
	return mime, data, true
}
