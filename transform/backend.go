package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BackendProvider calls the Redraft transformation API with the user's
// bearer token.
type BackendProvider struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
}

// NewBackendProvider creates a provider against the Redraft backend.
func NewBackendProvider(baseURL string, tokens TokenSource) *BackendProvider {
	return &BackendProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{},
	}
}

// Name returns the provider name
func (p *BackendProvider) Name() string {
	return "backend"
}

// Transform sends the request to the backend and returns the rewritten text.
// Failures come back as *APIError so the coordinator can classify them.
func (p *BackendProvider) Transform(ctx context.Context, treq Request) (string, error) {
	body, err := json.Marshal(treq)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/transform", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := p.tokens.CurrentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", NetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NetworkError(err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &apiResp)
		return "", ClassifyStatus(resp.StatusCode, apiResp.Error)
	}

	var result struct {
		ResultText string `json:"resultText"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.ResultText, nil
}
