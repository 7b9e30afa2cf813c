// Package clip wraps the OS clipboard capability with the copy-trigger
// sequencing the processing pipeline needs.
package clip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"redraft/platform"
)

// DefaultSettle is how long the bridge waits after sending the copy chord
// before reading the clipboard. Slow applications may need more; config can
// override it.
const DefaultSettle = 100 * time.Millisecond

// CopyResult is the outcome of a TriggerCopy. Unchanged means the clipboard
// content equals what was there before the copy chord. That can mean "no new
// selection" or "user copied the same text again"; the two are not
// distinguishable, so callers must treat Unchanged as a successful copy.
type CopyResult struct {
	Text      string
	Unchanged bool
}

// Bridge serializes clipboard access for the processing pipeline.
type Bridge struct {
	dev    platform.Clipboard
	copier platform.Copier
	settle time.Duration
}

func NewBridge(dev platform.Clipboard, copier platform.Copier, settle time.Duration) *Bridge {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Bridge{dev: dev, copier: copier, settle: settle}
}

// Read returns the current clipboard text.
func (b *Bridge) Read() (string, error) {
	return b.dev.Get()
}

// Write replaces the clipboard text.
func (b *Bridge) Write(text string) error {
	return b.dev.Set(text)
}

// TriggerCopy sends the OS copy keystroke, waits for the clipboard to
// settle, then reads and returns the new content.
func (b *Bridge) TriggerCopy(ctx context.Context) (CopyResult, error) {
	prev, err := b.dev.Get()
	if err != nil {
		slog.Warn("failed to read clipboard before copy, continuing", "error", err)
		prev = ""
	}

	if err := b.copier.SendCopy(); err != nil {
		return CopyResult{}, fmt.Errorf("failed to send copy keystroke: %w", err)
	}

	t := time.NewTimer(b.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return CopyResult{}, ctx.Err()
	case <-t.C:
	}

	text, err := b.dev.Get()
	if err != nil {
		return CopyResult{}, fmt.Errorf("failed to read clipboard after copy: %w", err)
	}
	return CopyResult{Text: text, Unchanged: text == prev}, nil
}
