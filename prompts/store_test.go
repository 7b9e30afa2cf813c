package prompts

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// memLocal is an in-memory durable store.
type memLocal struct {
	data    LocalPromptData
	saves   int
	saveErr error
}

func (m *memLocal) Load() (LocalPromptData, error) { return m.data, nil }
func (m *memLocal) Save(d LocalPromptData) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = d
	m.saves++
	return nil
}

// fakeRemote acknowledges or refuses pushes.
type fakeRemote struct {
	offline   bool
	fetched   LocalPromptData
	conflicts []SyncConflict
	calls     []string
}

var errOffline = errors.New("connection refused")

func (f *fakeRemote) UpsertPrompt(_ context.Context, p CustomPrompt) error {
	f.calls = append(f.calls, "upsert-prompt:"+p.ID)
	if f.offline {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) DeletePrompt(_ context.Context, id string) error {
	f.calls = append(f.calls, "delete-prompt:"+id)
	if f.offline {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) UpsertHotkey(_ context.Context, b HotkeyBinding) error {
	f.calls = append(f.calls, "upsert-hotkey:"+b.ID)
	if f.offline {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) DeleteHotkey(_ context.Context, id string) error {
	f.calls = append(f.calls, "delete-hotkey:"+id)
	if f.offline {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) FetchAll(context.Context) (LocalPromptData, []SyncConflict, error) {
	f.calls = append(f.calls, "fetch-all")
	if f.offline {
		return LocalPromptData{}, nil, errOffline
	}
	return f.fetched, f.conflicts, nil
}

func newStore(t *testing.T, local *memLocal, remote *fakeRemote) *Store {
	t.Helper()
	s, err := Open(local, remote)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestSavePromptCommitsOnAck(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{}
	s := newStore(t, local, remote)

	p, err := s.SavePrompt(context.Background(), CustomPrompt{
		Name: "Casual", Template: "Make this casual: {input}", IsActive: true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.ID == "" {
		t.Error("save did not assign an id")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("save did not stamp timestamps")
	}

	if got := s.Prompts(); len(got) != 1 || got[0].ID != p.ID {
		t.Errorf("mirror = %+v, want the saved prompt", got)
	}
	if local.saves == 0 {
		t.Error("durable store never written")
	}
}

func TestSavePromptOfflineLeavesMirrorUntouched(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{offline: true}
	s := newStore(t, local, remote)

	_, err := s.SavePrompt(context.Background(), CustomPrompt{
		Name: "Casual", Template: "{input}", IsActive: true,
	})
	if err == nil {
		t.Fatal("expected failure when server push fails")
	}
	if len(s.Prompts()) != 0 {
		t.Error("mirror mutated despite failed push")
	}
	if local.saves != 0 {
		t.Error("durable store written despite failed push")
	}
}

func TestSavePromptValidation(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{}
	s := newStore(t, local, remote)

	tests := []struct {
		name   string
		prompt CustomPrompt
	}{
		{"empty template", CustomPrompt{Name: "x", Template: "   "}},
		{"empty name", CustomPrompt{Name: "", Template: "{input}"}},
		{"oversized template", CustomPrompt{Name: "x", Template: strings.Repeat("a", 10001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SavePrompt(context.Background(), tt.prompt); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	// Validation rejects before any network call.
	if len(remote.calls) != 0 {
		t.Errorf("remote called for invalid prompts: %v", remote.calls)
	}
}

func TestDeletePromptCascadesToBindings(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{}
	s := newStore(t, local, remote)

	p, err := s.SavePrompt(context.Background(), CustomPrompt{
		Name: "Casual", Template: "{input}", IsActive: true,
	})
	if err != nil {
		t.Fatalf("save prompt: %v", err)
	}
	if _, err := s.SaveHotkey(context.Background(), HotkeyBinding{
		PromptCode: p.ID, Combo: "PRIMARY+SHIFT+KeyK", IsActive: true,
	}); err != nil {
		t.Fatalf("save hotkey: %v", err)
	}
	other, err := s.SaveHotkey(context.Background(), HotkeyBinding{
		PromptCode: "REPHRASE", Combo: "PRIMARY+SHIFT+KeyC", IsActive: true,
	})
	if err != nil {
		t.Fatalf("save other hotkey: %v", err)
	}

	if err := s.DeletePrompt(context.Background(), p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(s.Prompts()) != 0 {
		t.Error("prompt survived delete")
	}
	hotkeys := s.Hotkeys()
	if len(hotkeys) != 1 || hotkeys[0].ID != other.ID {
		t.Errorf("hotkeys after cascade = %+v, want only the REPHRASE binding", hotkeys)
	}
}

func TestDeleteOfflineKeepsRecord(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{}
	s := newStore(t, local, remote)

	p, err := s.SavePrompt(context.Background(), CustomPrompt{
		Name: "Casual", Template: "{input}",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	remote.offline = true
	if err := s.DeletePrompt(context.Background(), p.ID); err == nil {
		t.Fatal("expected delete to fail offline")
	}
	if len(s.Prompts()) != 1 {
		t.Error("prompt removed locally despite failed server delete")
	}
}

func TestSyncFromServerReplacesWholesale(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{}
	s := newStore(t, local, remote)

	if _, err := s.SavePrompt(context.Background(), CustomPrompt{
		Name: "Old", Template: "{input}",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	remote.fetched = LocalPromptData{
		Prompts: []CustomPrompt{{ID: "srv-1", Name: "Server", Template: "{input}", IsActive: true}},
		Hotkeys: []HotkeyBinding{{ID: "hk-1", PromptCode: "srv-1", Combo: "PRIMARY+KeyJ", IsActive: true}},
	}
	remote.conflicts = []SyncConflict{{Kind: "prompt", ID: "srv-2", Detail: "updated on another device"}}

	res, err := s.SyncFromServer(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !res.Applied {
		t.Error("sync result not applied")
	}
	if len(res.Conflicts) != 1 {
		t.Errorf("conflicts = %+v, want the server-reported conflict", res.Conflicts)
	}

	got := s.Prompts()
	if len(got) != 1 || got[0].ID != "srv-1" {
		t.Errorf("mirror after sync = %+v, want only server records", got)
	}
	if s.LastSyncedAt().IsZero() {
		t.Error("sync did not stamp LastSyncedAt")
	}
}

func TestSyncFailureKeepsMirror(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{}
	s := newStore(t, local, remote)

	if _, err := s.SavePrompt(context.Background(), CustomPrompt{
		Name: "Keep", Template: "{input}",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	remote.offline = true
	if _, err := s.SyncFromServer(context.Background()); err == nil {
		t.Fatal("expected sync failure")
	}
	if len(s.Prompts()) != 1 {
		t.Error("mirror lost on failed sync")
	}
}

func TestClearLocalNeverCallsServer(t *testing.T) {
	local := &memLocal{}
	remote := &fakeRemote{}
	s := newStore(t, local, remote)

	if _, err := s.SavePrompt(context.Background(), CustomPrompt{
		Name: "Gone", Template: "{input}",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	callsBefore := len(remote.calls)

	if err := s.ClearLocal(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(s.Prompts()) != 0 || len(s.Hotkeys()) != 0 {
		t.Error("mirror not cleared")
	}
	if len(remote.calls) != callsBefore {
		t.Errorf("logout touched the server: %v", remote.calls[callsBefore:])
	}
	if local.data.SchemaVersion != SchemaVersion {
		t.Error("cleared envelope lost its schema version")
	}
}
