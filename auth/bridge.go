// Package auth keeps the current bearer token available to the rest of the
// process and fans out authentication state changes.
package auth

import (
	"log/slog"
	"sync"
)

// Bridge observes authentication state. Callers treat an empty token the
// same whether it comes from logout or from a failed token retrieval; the
// distinction only shows up in the logs.
type Bridge struct {
	mu      sync.RWMutex
	authed  bool
	token   string
	subs    map[int]func(bool)
	nextSub int
}

func NewBridge() *Bridge {
	return &Bridge{subs: make(map[int]func(bool))}
}

// CurrentToken returns the current bearer token, or "" when none is held.
func (b *Bridge) CurrentToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// Authenticated reports the observed authentication state. It can be true
// while CurrentToken is empty if token retrieval failed.
func (b *Bridge) Authenticated() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.authed
}

// SetSession records a login. An empty token is kept as-is: the session is
// authenticated but no token is obtainable, and callers must see "".
func (b *Bridge) SetSession(token string) {
	b.mu.Lock()
	b.authed = true
	b.token = token
	subs := b.snapshotLocked()
	b.mu.Unlock()

	if token == "" {
		slog.Warn("authenticated but no access token is obtainable")
	}
	for _, fn := range subs {
		fn(true)
	}
}

// ClearSession records a logout.
func (b *Bridge) ClearSession() {
	b.mu.Lock()
	b.authed = false
	b.token = ""
	subs := b.snapshotLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(false)
	}
}

// OnChange subscribes to authentication state changes and returns an
// unsubscribe func. Handlers run outside the bridge lock.
func (b *Bridge) OnChange(fn func(authenticated bool)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bridge) snapshotLocked() []func(bool) {
	out := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		out = append(out, fn)
	}
	return out
}
