package prompts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Local is the durable backing store behind the in-memory mirror.
type Local interface {
	Load() (LocalPromptData, error)
	Save(LocalPromptData) error
}

// SyncResult reports a bulk pull: whether the mirror was replaced and any
// record-level conflicts the server surfaced.
type SyncResult struct {
	Applied   bool
	Conflicts []SyncConflict
}

// Store is the local-first library. The in-memory mirror is the single
// source of truth for the running session; one mutex serializes every
// mutation so a delete can never race ahead of a save for the same id.
type Store struct {
	mu     sync.Mutex
	local  Local
	remote Remote
	data   LocalPromptData
}

// Open loads the durable mirror into memory.
func Open(local Local, remote Remote) (*Store, error) {
	data, err := local.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load local prompt data: %w", err)
	}
	if data.SchemaVersion == 0 {
		data.SchemaVersion = SchemaVersion
	}
	return &Store{local: local, remote: remote, data: data}, nil
}

// Prompts returns a snapshot of the custom prompts.
func (s *Store) Prompts() []CustomPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CustomPrompt, len(s.data.Prompts))
	copy(out, s.data.Prompts)
	return out
}

// Hotkeys returns a snapshot of the hotkey bindings.
func (s *Store) Hotkeys() []HotkeyBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HotkeyBinding, len(s.data.Hotkeys))
	copy(out, s.data.Hotkeys)
	return out
}

// PromptByID looks up a custom prompt.
func (s *Store) PromptByID(id string) (CustomPrompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.Prompts {
		if p.ID == id {
			return p, true
		}
	}
	return CustomPrompt{}, false
}

// LastSyncedAt reports when the mirror last replaced itself from the server.
func (s *Store) LastSyncedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastSyncedAt
}

// SavePrompt pushes a create/update to the server and commits it locally
// only on acknowledgement. On push failure the mirror is left untouched.
func (s *Store) SavePrompt(ctx context.Context, p CustomPrompt) (CustomPrompt, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := p.Validate(); err != nil {
		return CustomPrompt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		for _, existing := range s.data.Prompts {
			if existing.ID == p.ID {
				p.CreatedAt = existing.CreatedAt
				break
			}
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
	}

	if err := s.remote.UpsertPrompt(ctx, p); err != nil {
		return CustomPrompt{}, fmt.Errorf("server rejected prompt save: %w", err)
	}

	s.data.Prompts = upsertPrompt(s.data.Prompts, p)
	s.persistLocked()
	return p, nil
}

// DeletePrompt pushes the delete and, on acknowledgement, removes the prompt
// and cascades to every binding that references it.
func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remote.DeletePrompt(ctx, id); err != nil {
		return fmt.Errorf("server rejected prompt delete: %w", err)
	}

	kept := s.data.Prompts[:0]
	for _, p := range s.data.Prompts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.data.Prompts = kept

	keptHotkeys := s.data.Hotkeys[:0]
	for _, b := range s.data.Hotkeys {
		if b.PromptCode != id {
			keptHotkeys = append(keptHotkeys, b)
		}
	}
	s.data.Hotkeys = keptHotkeys

	s.persistLocked()
	return nil
}

// SaveHotkey pushes a binding create/update and commits on acknowledgement.
func (s *Store) SaveHotkey(ctx context.Context, b HotkeyBinding) (HotkeyBinding, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := b.Validate(); err != nil {
		return HotkeyBinding{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remote.UpsertHotkey(ctx, b); err != nil {
		return HotkeyBinding{}, fmt.Errorf("server rejected hotkey save: %w", err)
	}

	s.data.Hotkeys = upsertHotkey(s.data.Hotkeys, b)
	s.persistLocked()
	return b, nil
}

// DeleteHotkey pushes the delete and commits on acknowledgement.
func (s *Store) DeleteHotkey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remote.DeleteHotkey(ctx, id); err != nil {
		return fmt.Errorf("server rejected hotkey delete: %w", err)
	}

	kept := s.data.Hotkeys[:0]
	for _, b := range s.data.Hotkeys {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	s.data.Hotkeys = kept
	s.persistLocked()
	return nil
}

// SyncFromServer replaces the local mirror wholesale with the server's
// snapshot. Record-level conflicts come back as data on the result, never
// resolved here.
func (s *Store) SyncFromServer(ctx context.Context) (SyncResult, error) {
	data, conflicts, err := s.remote.FetchAll(ctx)
	if err != nil {
		return SyncResult{Conflicts: conflicts}, fmt.Errorf("sync pull failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data.LastSyncedAt = time.Now().UTC()
	data.SchemaVersion = SchemaVersion
	s.data = data
	s.persistLocked()
	return SyncResult{Applied: true, Conflicts: conflicts}, nil
}

// ClearLocal wipes the mirror and the durable copy. Called on logout; it
// never touches the server.
func (s *Store) ClearLocal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = LocalPromptData{SchemaVersion: SchemaVersion}
	return s.local.Save(s.data)
}

// persistLocked writes the mirror through to durable storage. A write
// failure loses durability, not consistency, so it is logged rather than
// unwound.
func (s *Store) persistLocked() {
	if err := s.local.Save(s.data); err != nil {
		slog.Error("failed to persist prompt data", "error", err)
	}
}

func upsertPrompt(list []CustomPrompt, p CustomPrompt) []CustomPrompt {
	for i, existing := range list {
		if existing.ID == p.ID {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}

func upsertHotkey(list []HotkeyBinding, b HotkeyBinding) []HotkeyBinding {
	for i, existing := range list {
		if existing.ID == b.ID {
			list[i] = b
			return list
		}
	}
	return append(list, b)
}
