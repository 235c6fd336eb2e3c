package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
)

const (
	openRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
	openRouterModel = "anthropic/claude-haiku-4.5"

	// provider-side parallelism for batch analysis
	batchWorkers = 3
)

// OpenRouter is the primary analysis provider. It has no server-side batch
// endpoint, but fans requests out concurrently, so it advertises the batch
// capability.
type OpenRouter struct {
	apiKey string
	client *http.Client
	url    string
}

// compile-time check: *OpenRouter must satisfy port.Analyzer
var _ port.Analyzer = (*OpenRouter)(nil)

func NewOpenRouter(apiKey string, client *http.Client) *OpenRouter {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenRouter{apiKey: apiKey, client: client, url: openRouterURL}
}

func (o *OpenRouter) SupportsBatch() bool { return true }

type orRequest struct {
	Model    string      `json:"model"`
	Messages []orMessage `json:"messages"`
}

type orMessage struct {
	Role    string      `json:"role"`
	Content []orContent `json:"content"`
}

type orContent struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *orImageURL `json:"image_url,omitempty"`
}

type orImageURL struct {
	URL string `json:"url"`
}

type orResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *OpenRouter) Analyze(ctx context.Context, payload []byte) (*model.AnalysisRecord, error) {
	dataURL := "data:image/webp;base64," + base64.StdEncoding.EncodeToString(payload)

	reqBody, err := json.Marshal(orRequest{
		Model: openRouterModel,
		Messages: []orMessage{{
			Role: "user",
			Content: []orContent{
				{Type: "image_url", ImageURL: &orImageURL{URL: dataURL}},
				{Type: "text", Text: analysisPrompt},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", model.ErrAnalysis, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAnalysis, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAnalysis, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", model.ErrAnalysis, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: openrouter returned %d: %s", model.ErrAnalysis, resp.StatusCode, body)
	}

	var parsed orResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", model.ErrAnalysis, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrAnalysis, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", model.ErrAnalysis)
	}

	return parseRecord(parsed.Choices[0].Message.Content), nil
}

// AnalyzeBatch analyses payloads with bounded parallelism. The result slice
// is ordered to match the input; a failed item leaves a nil slot rather than
// failing the batch.
func (o *OpenRouter) AnalyzeBatch(ctx context.Context, payloads [][]byte) ([]*model.AnalysisRecord, error) {
	results := make([]*model.AnalysisRecord, len(payloads))

	sem := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup
	for i, p := range payloads {
		wg.Add(1)
		go func(i int, p []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rec, err := o.Analyze(ctx, p)
			if err == nil {
				results[i] = rec
			}
		}(i, p)
	}
	wg.Wait()

	return results, nil
}
