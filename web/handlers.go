package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"redraft/hotkey"
	"redraft/prompts"
	"redraft/transform"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleGetConfig returns the current configuration with secrets redacted.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.getConfig()

	sanitized := struct {
		Provider       string `json:"provider"`
		BaseURL        string `json:"baseUrl"`
		Model          string `json:"model"`
		HasOpenAIKey   bool   `json:"hasOpenAiKey"`
		DebounceMs     int    `json:"debounceMs"`
		TimeoutSeconds int    `json:"timeoutSeconds"`
		CopySettleMs   int    `json:"copySettleMs"`
		WebEnabled     bool   `json:"webEnabled"`
		WebPort        int    `json:"webPort"`
	}{
		Provider:       cfg.API.Provider,
		BaseURL:        cfg.API.BaseURL,
		Model:          cfg.API.Model,
		HasOpenAIKey:   cfg.API.OpenAIAPIKey != "",
		DebounceMs:     cfg.Processing.DebounceMs,
		TimeoutSeconds: cfg.Processing.TimeoutSeconds,
		CopySettleMs:   cfg.Processing.CopySettleMs,
		WebEnabled:     cfg.Web.Enabled,
		WebPort:        cfg.Web.Port,
	}

	writeJSON(w, sanitized)
}

// handlePutConfig applies a partial configuration update.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider       *string `json:"provider"`
		BaseURL        *string `json:"baseUrl"`
		Model          *string `json:"model"`
		OpenAIAPIKey   *string `json:"openAiApiKey"`
		DebounceMs     *int    `json:"debounceMs"`
		TimeoutSeconds *int    `json:"timeoutSeconds"`
		CopySettleMs   *int    `json:"copySettleMs"`
		WebEnabled     *bool   `json:"webEnabled"`
		WebPort        *int    `json:"webPort"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cfg := s.getConfig()

	if req.Provider != nil {
		cfg.API.Provider = *req.Provider
	}
	if req.BaseURL != nil {
		cfg.API.BaseURL = *req.BaseURL
	}
	if req.Model != nil {
		cfg.API.Model = *req.Model
	}
	if req.OpenAIAPIKey != nil && *req.OpenAIAPIKey != "" {
		cfg.API.OpenAIAPIKey = *req.OpenAIAPIKey
	}
	if req.DebounceMs != nil && *req.DebounceMs > 0 {
		cfg.Processing.DebounceMs = *req.DebounceMs
	}
	if req.TimeoutSeconds != nil && *req.TimeoutSeconds > 0 {
		cfg.Processing.TimeoutSeconds = *req.TimeoutSeconds
	}
	if req.CopySettleMs != nil && *req.CopySettleMs > 0 {
		cfg.Processing.CopySettleMs = *req.CopySettleMs
	}
	if req.WebEnabled != nil {
		cfg.Web.Enabled = *req.WebEnabled
	}
	if req.WebPort != nil {
		cfg.Web.Port = *req.WebPort
	}

	if err := cfg.Save(); err != nil {
		slog.Error("Failed to save config", "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}
	s.updateConfig(cfg)

	writeJSON(w, map[string]string{"status": "success"})
}

// handleListPrompts returns the fixed built-in actions alongside the user's
// custom prompts.
func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	type builtin struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	builtinList := make([]builtin, 0, 3)
	for _, b := range transform.Builtins() {
		builtinList = append(builtinList, builtin{Code: b.Code, Name: b.Name})
	}

	writeJSON(w, map[string]any{
		"builtins": builtinList,
		"custom":   s.store.Prompts(),
	})
}

func (s *Server) handleSavePrompt(w http.ResponseWriter, r *http.Request) {
	var p prompts.CustomPrompt
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		p.ID = id
	}

	saved, err := s.store.SavePrompt(r.Context(), p)
	if err != nil {
		s.writeStoreError(w, "save prompt", err)
		return
	}
	writeJSON(w, saved)
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeletePrompt(r.Context(), id); err != nil {
		s.writeStoreError(w, "delete prompt", err)
		return
	}

	// Deleting a prompt cascades to its bindings, so the registry must be
	// re-armed from the surviving set.
	s.rebind()
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleListHotkeys(w http.ResponseWriter, r *http.Request) {
	type bindingView struct {
		prompts.HotkeyBinding
		Display    string `json:"display"`
		Registered bool   `json:"registered"`
	}

	registered := make(map[string]bool)
	for _, b := range s.registry.Bindings() {
		registered[b.ID] = b.Registered
	}

	list := make([]bindingView, 0)
	for _, b := range s.store.Hotkeys() {
		list = append(list, bindingView{
			HotkeyBinding: b,
			Display:       hotkey.Format(b.Combo),
			Registered:    registered[b.ID],
		})
	}
	writeJSON(w, list)
}

func (s *Server) handleSaveHotkey(w http.ResponseWriter, r *http.Request) {
	var b prompts.HotkeyBinding
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		b.ID = id
	}

	saved, err := s.store.SaveHotkey(r.Context(), b)
	if err != nil {
		s.writeStoreError(w, "save hotkey", err)
		return
	}

	statuses := s.rebind()
	writeJSON(w, map[string]any{"binding": saved, "statuses": statuses})
}

func (s *Server) handleDeleteHotkey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteHotkey(r.Context(), id); err != nil {
		s.writeStoreError(w, "delete hotkey", err)
		return
	}

	s.registry.Unregister(id)
	writeJSON(w, map[string]string{"status": "success"})
}

// handleCaptureStart releases every OS hotkey so the capture field in the
// dashboard sees raw keystrokes instead of triggering transformations.
func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	s.registry.SuspendAll()
	writeJSON(w, map[string]string{"status": "capturing"})
}

func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	s.registry.ResumeAll()
	writeJSON(w, map[string]string{"status": "success"})
}

// handleCaptureNormalize converts a raw browser key event into the canonical
// combo string plus its display form.
func (s *Server) handleCaptureNormalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string `json:"code"`
		Ctrl  bool   `json:"ctrl"`
		Meta  bool   `json:"meta"`
		Shift bool   `json:"shift"`
		Alt   bool   `json:"alt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "Modifier-only events cannot form a combo", http.StatusBadRequest)
		return
	}

	combo := hotkey.Normalize(hotkey.CaptureEvent{
		Code:  req.Code,
		Ctrl:  req.Ctrl,
		Meta:  req.Meta,
		Shift: req.Shift,
		Alt:   req.Alt,
	})
	writeJSON(w, map[string]any{
		"combo":   combo,
		"display": hotkey.Format(combo),
		"inUse":   s.registry.IsRegistered(combo),
	})
}

func (s *Server) handleGetAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"authenticated": s.session.Authenticated(),
		"hasToken":      s.session.CurrentToken() != "",
	})
}

// handleSetSession records a login delivered by the auth flow.
func (s *Server) handleSetSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.session.SetSession(req.Token)
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s.session.ClearSession()
	writeJSON(w, map[string]string{"status": "success"})
}

// handleSync pulls the full prompt library from the server and reloads the
// hotkey registry from the result.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.SyncFromServer(r.Context())
	if err != nil {
		s.writeStoreError(w, "sync", err)
		return
	}

	statuses := s.rebind()
	writeJSON(w, map[string]any{
		"applied":   result.Applied,
		"conflicts": result.Conflicts,
		"statuses":  statuses,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, err := s.db.GetActivity(limit, offset)
	if err != nil {
		slog.Error("Failed to get activity", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}
	total, err := s.db.GetActivityCount()
	if err != nil {
		slog.Error("Failed to get activity count", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := s.db.DeleteActivity(id); err != nil {
		slog.Error("Failed to delete activity", "error", err, "id", id)
		http.Error(w, "Failed to delete entry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}

	overall, err := s.db.GetOverallStats(days)
	if err != nil {
		slog.Error("Failed to get overall stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}
	byCode, err := s.db.GetCodeStats(days)
	if err != nil {
		slog.Error("Failed to get code stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"overall": overall,
		"byCode":  byCode,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type bindingStatus struct {
		ID         string `json:"id"`
		PromptCode string `json:"promptCode"`
		Combo      string `json:"combo"`
		IsActive   bool   `json:"isActive"`
		Registered bool   `json:"registered"`
	}

	bindings := make([]bindingStatus, 0)
	for _, b := range s.registry.Bindings() {
		bindings = append(bindings, bindingStatus{
			ID:         b.ID,
			PromptCode: b.PromptCode,
			Combo:      b.Combo,
			IsActive:   b.IsActive,
			Registered: b.Registered,
		})
	}

	writeJSON(w, map[string]any{
		"authenticated": s.session.Authenticated(),
		"bindings":      bindings,
		"lastSyncedAt":  s.store.LastSyncedAt(),
	})
}

// writeStoreError maps push-then-commit failures to HTTP statuses: validation
// problems are the client's fault, remote refusals carry their own status.
func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	var apiErr *transform.APIError
	if errors.As(err, &apiErr) {
		slog.Warn("Remote rejected "+op, "kind", apiErr.Kind, "error", err)
		status := http.StatusBadGateway
		switch apiErr.Kind {
		case transform.ErrAuthExpired:
			status = http.StatusUnauthorized
		case transform.ErrRateLimit:
			status = http.StatusTooManyRequests
		}
		http.Error(w, apiErr.Message, status)
		return
	}

	slog.Warn("Failed to "+op, "error", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}
