package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// CohereClient calls the Cohere embed endpoint.
type CohereClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewCohereClient creates a client. Deadlines come from the caller's context.
func NewCohereClient(baseURL, apiKey, model string) *CohereClient {
	return &CohereClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

type cohereRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
	Truncate  string   `json:"truncate"`
}

type cohereResponse struct {
	ID         string      `json:"id"`
	Embeddings [][]float64 `json:"embeddings"`
}

type cohereError struct {
	Message string `json:"message"`
}

func (c *CohereClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	url := fmt.Sprintf("%s/v1/embed", c.baseURL)

	reqBody, err := json.Marshal(cohereRequest{
		Texts:     texts,
		Model:     c.model,
		InputType: "search_document",
		Truncate:  "END",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp cohereError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			return nil, fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, errResp.Message)
		}
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var out cohereResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("cohere returned %d embeddings for %d texts", len(out.Embeddings), len(texts))
	}

	log.Debug().Str("request_id", out.ID).Int("texts", len(texts)).Msg("Embeddings fetched")
	return out.Embeddings, nil
}
