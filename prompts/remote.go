package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"redraft/transform"
)

// SyncConflict is a record-level conflict the server reported during a bulk
// sync. It is surfaced as data; resolution policy belongs to the UI.
type SyncConflict struct {
	Kind   string `json:"kind"` // "prompt" or "hotkey"
	ID     string `json:"id"`
	Detail string `json:"detail"`
}

// Remote is the server side of the library: CRUD plus a bulk fetch.
type Remote interface {
	UpsertPrompt(ctx context.Context, p CustomPrompt) error
	DeletePrompt(ctx context.Context, id string) error
	UpsertHotkey(ctx context.Context, b HotkeyBinding) error
	DeleteHotkey(ctx context.Context, id string) error
	FetchAll(ctx context.Context) (LocalPromptData, []SyncConflict, error)
}

// Client talks to the Redraft sync API with the user's bearer token.
type Client struct {
	baseURL string
	tokens  transform.TokenSource
	hc      *http.Client
}

func NewClient(baseURL string, tokens transform.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		hc:      &http.Client{},
	}
}

func (c *Client) UpsertPrompt(ctx context.Context, p CustomPrompt) error {
	return c.put(ctx, "/v1/prompts/"+url.PathEscape(p.ID), p)
}

func (c *Client) DeletePrompt(ctx context.Context, id string) error {
	return c.delete(ctx, "/v1/prompts/"+url.PathEscape(id))
}

func (c *Client) UpsertHotkey(ctx context.Context, b HotkeyBinding) error {
	return c.put(ctx, "/v1/hotkeys/"+url.PathEscape(b.ID), b)
}

func (c *Client) DeleteHotkey(ctx context.Context, id string) error {
	return c.delete(ctx, "/v1/hotkeys/"+url.PathEscape(id))
}

// FetchAll pulls the server's full prompt and hotkey set for this user.
func (c *Client) FetchAll(ctx context.Context) (LocalPromptData, []SyncConflict, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/library", nil)
	if err != nil {
		return LocalPromptData{}, nil, err
	}

	var resp struct {
		Prompts   []CustomPrompt  `json:"prompts"`
		Hotkeys   []HotkeyBinding `json:"hotkeys"`
		Conflicts []SyncConflict  `json:"conflicts"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return LocalPromptData{}, nil, fmt.Errorf("failed to parse library response: %w", err)
	}
	return LocalPromptData{
		Prompts:       resp.Prompts,
		Hotkeys:       resp.Hotkeys,
		SchemaVersion: SchemaVersion,
	}, resp.Conflicts, nil
}

func (c *Client) put(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, path, body)
	return err
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.CurrentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transform.NetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transform.NetworkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &apiResp)
		return nil, transform.ClassifyStatus(resp.StatusCode, apiResp.Error)
	}
	return respBody, nil
}
