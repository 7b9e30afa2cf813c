package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registrar is the OS-level global hotkey capability. Accelerator strings use
// the lowercase syntax produced by RegistrationString.
type Registrar interface {
	Register(accel string, handler func()) error
	Unregister(accel string) error
	IsRegistered(accel string) bool
}

// ErrComboConflict is returned when a second active binding tries to claim a
// combo that an existing active binding already owns.
var ErrComboConflict = errors.New("combo already bound by an active hotkey")

// RegistrationError wraps an OS refusal to bind a combo. It is recoverable:
// the binding stays active locally and can be retried after the user resolves
// the underlying cause (typically a missing permission).
type RegistrationError struct {
	Combo  string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register %s: %s", e.Combo, e.Reason)
}

// Binding ties a normalized combo to a prompt code.
type Binding struct {
	ID         string
	PromptCode string
	Combo      string
	IsActive   bool
	Registered bool
}

// Fire is emitted to subscribers when a bound combo is pressed.
type Fire struct {
	Code    string
	Combo   string
	FiredAt time.Time
}

// Status reports the per-binding result of a ReloadAll.
type Status struct {
	ID         string
	Combo      string
	Registered bool
	Error      string
}

// Registry owns the set of bound hotkeys. All OS handle state lives here;
// nothing else in the process talks to the Registrar directly.
type Registry struct {
	mu       sync.Mutex
	os       Registrar
	bindings map[string]Binding // by binding id
	handles  map[string]string  // accelerator -> binding id
	depth    int                // suspend nesting depth
	subs     map[int]func(Fire)
	nextSub  int
}

func NewRegistry(os Registrar) *Registry {
	return &Registry{
		os:       os,
		bindings: make(map[string]Binding),
		handles:  make(map[string]string),
		subs:     make(map[int]func(Fire)),
	}
}

// Subscribe registers a handler for hotkey fires and returns an unsubscribe
// func. Handlers are invoked outside the registry lock.
func (r *Registry) Subscribe(fn func(Fire)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Register adds a binding and, when it is active and the registry is not
// suspended, arms the OS handle. Returns ErrComboConflict if another active
// binding owns the combo, or a *RegistrationError if the OS refuses the bind
// (the binding is kept with Registered=false so the caller can retry).
func (r *Registry) Register(b Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.IsActive {
		for _, other := range r.bindings {
			if other.ID != b.ID && other.IsActive && other.Combo == b.Combo {
				return fmt.Errorf("%s: %w", b.Combo, ErrComboConflict)
			}
		}
	}

	b.Registered = false
	r.bindings[b.ID] = b

	if !b.IsActive {
		return nil
	}
	if r.depth > 0 {
		// Armed on resume; bookkeeping only for now.
		return nil
	}
	return r.armLocked(b)
}

// armLocked requests OS registration for an active binding. Caller holds the
// lock.
func (r *Registry) armLocked(b Binding) error {
	accel := RegistrationString(b.Combo)
	code, combo := b.PromptCode, b.Combo
	err := r.os.Register(accel, func() {
		r.dispatch(Fire{Code: code, Combo: combo, FiredAt: time.Now()})
	})
	if err != nil {
		return &RegistrationError{Combo: b.Combo, Reason: err.Error()}
	}
	r.handles[accel] = b.ID
	b.Registered = true
	r.bindings[b.ID] = b
	return nil
}

// Unregister removes a binding and its OS handle if present. It is
// idempotent; an OS-side "not found" is logged, never surfaced.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[id]
	if !ok {
		return
	}
	accel := RegistrationString(b.Combo)
	if owner, armed := r.handles[accel]; armed && owner == id {
		if r.depth == 0 {
			if err := r.os.Unregister(accel); err != nil {
				slog.Warn("OS unregister failed", "combo", b.Combo, "error", err)
			}
		}
		delete(r.handles, accel)
	}
	delete(r.bindings, id)
}

// ReloadAll drops every current binding and registers the given set in
// order. Partial success is expected: each binding gets its own status entry
// instead of the batch failing as a whole.
func (r *Registry) ReloadAll(bindings []Binding) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.depth == 0 {
		for accel := range r.handles {
			if err := r.os.Unregister(accel); err != nil {
				slog.Warn("OS unregister failed during reload", "accel", accel, "error", err)
			}
		}
	}
	r.bindings = make(map[string]Binding)
	r.handles = make(map[string]string)

	statuses := make([]Status, 0, len(bindings))
	for _, b := range bindings {
		st := Status{ID: b.ID, Combo: b.Combo}

		conflict := false
		if b.IsActive {
			for _, other := range r.bindings {
				if other.IsActive && other.Combo == b.Combo {
					conflict = true
					break
				}
			}
		}
		if conflict {
			st.Error = fmt.Sprintf("%s: %s", b.Combo, ErrComboConflict)
			b.IsActive = true
			b.Registered = false
			r.bindings[b.ID] = b
			statuses = append(statuses, st)
			continue
		}

		b.Registered = false
		r.bindings[b.ID] = b
		if b.IsActive && r.depth == 0 {
			if err := r.armLocked(b); err != nil {
				st.Error = err.Error()
			} else {
				st.Registered = true
			}
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// SuspendAll disarms every OS handle without touching binding bookkeeping so
// a capture UI can listen to raw key events. Calls nest: each SuspendAll must
// be matched by a ResumeAll before handles re-arm.
func (r *Registry) SuspendAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.depth++
	if r.depth > 1 {
		return
	}
	for accel := range r.handles {
		if err := r.os.Unregister(accel); err != nil {
			slog.Warn("OS unregister failed during suspend", "accel", accel, "error", err)
		}
	}
}

// ResumeAll undoes one level of suspension and re-arms every active binding
// once the depth reaches zero. Extra calls are no-ops.
func (r *Registry) ResumeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.depth == 0 {
		return
	}
	r.depth--
	if r.depth > 0 {
		return
	}

	r.handles = make(map[string]string)
	for _, b := range r.bindings {
		if !b.IsActive {
			continue
		}
		if err := r.armLocked(b); err != nil {
			slog.Warn("re-register after resume failed", "combo", b.Combo, "error", err)
			b.Registered = false
			r.bindings[b.ID] = b
		}
	}
}

// IsRegistered asks the OS whether the combo is currently bound. This is the
// drift-detection path; it deliberately bypasses local bookkeeping.
func (r *Registry) IsRegistered(combo string) bool {
	return r.os.IsRegistered(RegistrationString(combo))
}

// Bindings returns a snapshot of the current binding set.
func (r *Registry) Bindings() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	return out
}

func (r *Registry) dispatch(f Fire) {
	r.mu.Lock()
	handlers := make([]func(Fire), 0, len(r.subs))
	for _, fn := range r.subs {
		handlers = append(handlers, fn)
	}
	r.mu.Unlock()

	for _, fn := range handlers {
		fn(f)
	}
}
