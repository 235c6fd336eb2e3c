package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	anthropicModel   = "claude-sonnet-4-20250514"
)

// Anthropic is the fallback single-item provider.
type Anthropic struct {
	apiKey string
	client *http.Client
	url    string
}

// compile-time check: *Anthropic must satisfy port.Analyzer
var _ port.Analyzer = (*Anthropic)(nil)

func NewAnthropic(apiKey string, client *http.Client) *Anthropic {
	if client == nil {
		client = http.DefaultClient
	}
	return &Anthropic{apiKey: apiKey, client: client, url: anthropicURL}
}

func (a *Anthropic) SupportsBatch() bool { return false }

type antRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []antMessage `json:"messages"`
}

type antMessage struct {
	Role    string       `json:"role"`
	Content []antContent `json:"content"`
}

type antContent struct {
	Type   string     `json:"type"`
	Text   string     `json:"text,omitempty"`
	Source *antSource `json:"source,omitempty"`
}

type antSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type antResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Anthropic) Analyze(ctx context.Context, payload []byte) (*model.AnalysisRecord, error) {
	reqBody, err := json.Marshal(antRequest{
		Model:     anthropicModel,
		MaxTokens: 1024,
		Messages: []antMessage{{
			Role: "user",
			Content: []antContent{
				{Type: "image", Source: &antSource{
					Type:      "base64",
					MediaType: "image/webp",
					Data:      base64.StdEncoding.EncodeToString(payload),
				}},
				{Type: "text", Text: analysisPrompt},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", model.ErrAnalysis, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAnalysis, err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAnalysis, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", model.ErrAnalysis, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: anthropic returned %d: %s", model.ErrAnalysis, resp.StatusCode, body)
	}

	var parsed antResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", model.ErrAnalysis, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrAnalysis, parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("%w: empty response", model.ErrAnalysis)
	}

	return parseRecord(parsed.Content[0].Text), nil
}

// AnalyzeBatch analyses sequentially; this provider does not advertise the
// batch capability, so the orchestrator normally never calls it.
func (a *Anthropic) AnalyzeBatch(ctx context.Context, payloads [][]byte) ([]*model.AnalysisRecord, error) {
	results := make([]*model.AnalysisRecord, len(payloads))
	for i, p := range payloads {
		rec, err := a.Analyze(ctx, p)
		if err != nil {
			continue
		}
		results[i] = rec
	}
	return results, nil
}
