package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"redraft/auth"
	"redraft/config"
	"redraft/hotkey"
	"redraft/prompts"
	"redraft/storage"
)

type memLocal struct {
	data prompts.LocalPromptData
}

func (m *memLocal) Load() (prompts.LocalPromptData, error) { return m.data, nil }
func (m *memLocal) Save(d prompts.LocalPromptData) error   { m.data = d; return nil }

// fakeRemote acknowledges every push.
type fakeRemote struct {
	fetched prompts.LocalPromptData
}

func (f *fakeRemote) UpsertPrompt(ctx context.Context, p prompts.CustomPrompt) error  { return nil }
func (f *fakeRemote) DeletePrompt(ctx context.Context, id string) error               { return nil }
func (f *fakeRemote) UpsertHotkey(ctx context.Context, b prompts.HotkeyBinding) error { return nil }
func (f *fakeRemote) DeleteHotkey(ctx context.Context, id string) error               { return nil }
func (f *fakeRemote) FetchAll(ctx context.Context) (prompts.LocalPromptData, []prompts.SyncConflict, error) {
	return f.fetched, nil, nil
}

type fakeRegistrar struct {
	armed map[string]func()
}

func (f *fakeRegistrar) Register(accel string, handler func()) error {
	f.armed[accel] = handler
	return nil
}

func (f *fakeRegistrar) Unregister(accel string) error {
	delete(f.armed, accel)
	return nil
}

func (f *fakeRegistrar) IsRegistered(accel string) bool {
	_, ok := f.armed[accel]
	return ok
}

type testEnv struct {
	srv       *httptest.Server
	store     *prompts.Store
	registry  *hotkey.Registry
	registrar *fakeRegistrar
	session   *auth.Bridge
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := prompts.Open(&memLocal{}, &fakeRemote{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	registrar := &fakeRegistrar{armed: make(map[string]func())}
	registry := hotkey.NewRegistry(registrar)
	session := auth.NewBridge()

	cfg := &config.Config{
		API:        config.APIConfig{Provider: "backend", BaseURL: "http://localhost:0"},
		Processing: config.ProcessingConfig{DebounceMs: 700, TimeoutSeconds: 30, CopySettleMs: 100},
		Web:        config.WebConfig{Enabled: true, Port: 0},
	}

	rebind := func() []hotkey.Status {
		stored := store.Hotkeys()
		bindings := make([]hotkey.Binding, 0, len(stored))
		for _, b := range stored {
			bindings = append(bindings, hotkey.Binding{
				ID: b.ID, PromptCode: b.PromptCode, Combo: b.Combo, IsActive: b.IsActive,
			})
		}
		return registry.ReloadAll(bindings)
	}

	s := NewServer(db, cfg, store, registry, session, rebind)
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, store: store, registry: registry, registrar: registrar, session: session}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestPromptCRUD(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/prompts", map[string]any{
		"name": "Pirate", "template": "Say like a pirate: {input}", "isActive": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[prompts.CustomPrompt](t, resp)
	if created.ID == "" || created.Name != "Pirate" {
		t.Fatalf("created = %+v", created)
	}

	resp = e.do(t, http.MethodGet, "/api/prompts", nil)
	list := decode[struct {
		Builtins []struct {
			Code string `json:"code"`
		} `json:"builtins"`
		Custom []prompts.CustomPrompt `json:"custom"`
	}](t, resp)
	if len(list.Builtins) != 3 {
		t.Errorf("builtins = %d, want 3", len(list.Builtins))
	}
	if len(list.Custom) != 1 || list.Custom[0].ID != created.ID {
		t.Errorf("custom = %+v", list.Custom)
	}

	resp = e.do(t, http.MethodDelete, "/api/prompts/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if got := len(e.store.Prompts()); got != 0 {
		t.Errorf("prompts after delete = %d", got)
	}
}

func TestPromptValidationRejected(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/prompts", map[string]any{
		"name": "", "template": "x", "isActive": true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHotkeySaveArmsRegistry(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/hotkeys", map[string]any{
		"promptCode": "REPHRASE", "combo": "PRIMARY+SHIFT+KeyC", "isActive": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	saved := decode[struct {
		Binding  prompts.HotkeyBinding `json:"binding"`
		Statuses []hotkey.Status       `json:"statuses"`
	}](t, resp)
	if saved.Binding.ID == "" {
		t.Fatal("binding got no id")
	}
	if len(saved.Statuses) != 1 || !saved.Statuses[0].Registered {
		t.Fatalf("statuses = %+v", saved.Statuses)
	}
	if len(e.registrar.armed) != 1 {
		t.Errorf("armed accelerators = %d, want 1", len(e.registrar.armed))
	}

	resp = e.do(t, http.MethodDelete, "/api/hotkeys/"+saved.Binding.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if len(e.registrar.armed) != 0 {
		t.Errorf("accelerator still armed after delete")
	}
}

func TestCaptureSuspendsHotkeys(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodPost, "/api/hotkeys", map[string]any{
		"promptCode": "REPHRASE", "combo": "PRIMARY+SHIFT+KeyC", "isActive": true,
	})
	if len(e.registrar.armed) != 1 {
		t.Fatal("binding not armed")
	}

	e.do(t, http.MethodPost, "/api/capture/start", nil)
	if len(e.registrar.armed) != 0 {
		t.Error("hotkeys still armed during capture")
	}

	e.do(t, http.MethodPost, "/api/capture/stop", nil)
	if len(e.registrar.armed) != 1 {
		t.Error("hotkeys not re-armed after capture")
	}
}

func TestCaptureNormalize(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/capture/normalize", map[string]any{
		"code": "KeyC", "ctrl": true, "meta": true, "shift": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[struct {
		Combo   string `json:"combo"`
		Display string `json:"display"`
		InUse   bool   `json:"inUse"`
	}](t, resp)
	if got.Combo != "PRIMARY+SHIFT+KeyC" {
		t.Errorf("combo = %q", got.Combo)
	}
	if got.Display == "" || got.InUse {
		t.Errorf("result = %+v", got)
	}

	resp = e.do(t, http.MethodPost, "/api/capture/normalize", map[string]any{
		"ctrl": true, "shift": true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("modifier-only status = %d, want 400", resp.StatusCode)
	}
}

func TestAuthSession(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/api/auth", nil)
	state := decode[struct {
		Authenticated bool `json:"authenticated"`
	}](t, resp)
	if state.Authenticated {
		t.Fatal("fresh server should be signed out")
	}

	e.do(t, http.MethodPost, "/api/auth/session", map[string]any{"token": "tok-1"})
	if !e.session.Authenticated() || e.session.CurrentToken() != "tok-1" {
		t.Fatal("session not recorded")
	}

	e.do(t, http.MethodDelete, "/api/auth/session", nil)
	if e.session.Authenticated() {
		t.Fatal("session not cleared")
	}
}

func TestStatusReportsBindings(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodPost, "/api/hotkeys", map[string]any{
		"promptCode": "SUMMARIZE", "combo": "PRIMARY+ALT+KeyS", "isActive": true,
	})

	resp := e.do(t, http.MethodGet, "/api/status", nil)
	status := decode[struct {
		Authenticated bool `json:"authenticated"`
		Bindings      []struct {
			PromptCode string `json:"promptCode"`
			Registered bool   `json:"registered"`
		} `json:"bindings"`
	}](t, resp)
	if len(status.Bindings) != 1 || !status.Bindings[0].Registered {
		t.Fatalf("bindings = %+v", status.Bindings)
	}
	if status.Bindings[0].PromptCode != "SUMMARIZE" {
		t.Errorf("prompt code = %q", status.Bindings[0].PromptCode)
	}
}
