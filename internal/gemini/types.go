package gemini

import (
	"encoding/json"
	"errors"
)

// GenerationConfig holds the sampling knobs sent with every request.
type GenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopK             int     `json:"topK"`
	TopP             float64 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:      1,
		TopK:             40,
		TopP:             0.95,
		MaxOutputTokens:  8192,
		ResponseMimeType: "text/plain",
	}
}

type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// NewRequest builds a single-turn user request. The prompt is sent as is.
func NewRequest(prompt string, gen GenerationConfig) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: gen,
	}
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

type Part struct {
	Text string `json:"text"`
}

var errPartMissingText = errors.New("part has no text field")

func (p *Part) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Text == nil {
		return errPartMissingText
	}
	p.Text = *raw.Text
	return nil
}

type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Texts returns every part text in candidate order. ok is false when the
// response carries no candidates at all; candidates without content or parts
// contribute nothing.
func (r *GenerateContentResponse) Texts() (texts []string, ok bool) {
	if r == nil || len(r.Candidates) == 0 {
		return nil, false
	}

	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			texts = append(texts, p.Text)
		}
	}
	return texts, true
}

func (r *GenerateContentResponse) finishReasons() []string {
	var out []string
	for _, c := range r.Candidates {
		if c.FinishReason != "" {
			out = append(out, c.FinishReason)
		}
	}
	return out
}

func (r *GenerateContentResponse) blockReason() string {
	if r.PromptFeedback == nil {
		return ""
	}
	return r.PromptFeedback.BlockReason
}
