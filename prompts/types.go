// Package prompts holds the local-first library of custom prompts and
// hotkey bindings. Every mutation is push-then-commit: the server must
// acknowledge before the local mirror changes, so local state may be stale
// but is never ahead of the server.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"redraft/transform"
)

// SchemaVersion tags the persisted envelope for future migrations.
const SchemaVersion = 1

// CustomPrompt is a user-defined prompt template. The template may contain
// zero or more {input} placeholders.
type CustomPrompt struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate enforces the template invariants before any push.
func (p CustomPrompt) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("prompt name must not be empty")
	}
	if strings.TrimSpace(p.Template) == "" {
		return fmt.Errorf("prompt template must not be empty")
	}
	if len(p.Template) > transform.MaxTemplateLen {
		return fmt.Errorf("prompt template exceeds %d characters", transform.MaxTemplateLen)
	}
	return nil
}

// HotkeyBinding maps a normalized combo to a prompt code: either a built-in
// code or a CustomPrompt id.
type HotkeyBinding struct {
	ID         string `json:"id"`
	PromptCode string `json:"promptCode"`
	Combo      string `json:"combo"`
	IsActive   bool   `json:"isActive"`
}

// Validate checks the binding fields before any push.
func (b HotkeyBinding) Validate() error {
	if b.PromptCode == "" {
		return fmt.Errorf("binding prompt code must not be empty")
	}
	if b.Combo == "" {
		return fmt.Errorf("binding combo must not be empty")
	}
	return nil
}

// LocalPromptData is the persisted envelope: the whole library plus sync
// bookkeeping, keyed to the authenticated user.
type LocalPromptData struct {
	Prompts       []CustomPrompt  `json:"prompts"`
	Hotkeys       []HotkeyBinding `json:"hotkeys"`
	LastSyncedAt  time.Time       `json:"lastSyncedAt"`
	SchemaVersion int             `json:"schemaVersion"`
}
