package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"redraft/clip"
	"redraft/hotkey"
	"redraft/prompts"
	"redraft/transform"
)

// OutcomeKind classifies the single terminal outcome every hotkey fire
// produces.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeBusy      OutcomeKind = "busy"
	OutcomeDebounced OutcomeKind = "debounced"
	OutcomeNoText    OutcomeKind = "no_text"
	OutcomeNoToken   OutcomeKind = "token_required"
	OutcomeNoPrompt  OutcomeKind = "prompt_unavailable"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is the user-visible result of one hotkey fire. Every fire produces
// exactly one.
type Outcome struct {
	Kind        OutcomeKind
	Code        string
	Message     string
	Result      string
	SourceChars int
	AuthError   bool
	Elapsed     time.Duration
}

// Success reports whether the outcome carries a transformed result.
func (o Outcome) Success() bool { return o.Kind == OutcomeSuccess }

// promptSource resolves custom prompt ids to their templates.
type promptSource interface {
	PromptByID(id string) (prompts.CustomPrompt, bool)
}

// Coordinator is the processing state machine: it turns hotkey fires into at
// most one in-flight transformation request, guarded by a single-flight flag
// and a debounce window. Both guards are decided synchronously under the
// lock before the first suspension point, so racing event sources cannot
// start a second request.
type Coordinator struct {
	mu             sync.Mutex
	busy           bool
	lastAcceptedAt time.Time

	debounce time.Duration
	timeout  time.Duration

	clip     *clip.Bridge
	provider transform.Provider
	library  promptSource
	tokens   transform.TokenSource

	outcomes chan Outcome
}

// NewCoordinator creates a coordinator with the given guards and
// collaborators.
func NewCoordinator(
	bridge *clip.Bridge,
	provider transform.Provider,
	library promptSource,
	tokens transform.TokenSource,
	debounce, timeout time.Duration,
) *Coordinator {
	if debounce <= 0 {
		debounce = 700 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coordinator{
		debounce: debounce,
		timeout:  timeout,
		clip:     bridge,
		provider: provider,
		library:  library,
		tokens:   tokens,
		outcomes: make(chan Outcome, 64),
	}
}

// Outcomes delivers one outcome per hotkey fire.
func (c *Coordinator) Outcomes() <-chan Outcome {
	return c.outcomes
}

// Handle processes a hotkey fire to its terminal outcome. Safe to call from
// multiple goroutines; concurrent fires while a request is in flight are
// dropped, not queued.
func (c *Coordinator) Handle(ctx context.Context, fire hotkey.Fire) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		c.emit(Outcome{Kind: OutcomeBusy, Code: fire.Code, Message: "another request is still in progress"})
		return
	}
	if !c.lastAcceptedAt.IsZero() && fire.FiredAt.Sub(c.lastAcceptedAt) < c.debounce {
		c.mu.Unlock()
		c.emit(Outcome{Kind: OutcomeDebounced, Code: fire.Code, Message: "pressed again too soon"})
		return
	}
	c.busy = true
	c.lastAcceptedAt = fire.FiredAt
	c.mu.Unlock()

	out := c.process(ctx, fire)

	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()

	c.emit(out)
}

func (c *Coordinator) process(ctx context.Context, fire hotkey.Fire) Outcome {
	start := time.Now()
	out := Outcome{Code: fire.Code}

	copied, err := c.clip.TriggerCopy(ctx)
	if err != nil {
		out.Kind = OutcomeFailed
		out.Message = "could not capture selection: " + err.Error()
		return out
	}
	if copied.Unchanged {
		// Indistinguishable from the user copying the same text again;
		// treated as a successful copy.
		slog.Debug("clipboard unchanged after copy trigger", "code", fire.Code)
	}

	text := strings.TrimSpace(copied.Text)
	if text == "" {
		out.Kind = OutcomeNoText
		out.Message = "no text selected"
		return out
	}
	out.SourceChars = len(text)

	// The auth gate runs before any network call so the UI can tell "not
	// logged in" apart from "request failed".
	if c.tokens.CurrentToken() == "" {
		out.Kind = OutcomeNoToken
		out.Message = "sign in to process text"
		return out
	}

	req, ok := c.buildRequest(fire.Code, text)
	if !ok {
		out.Kind = OutcomeNoPrompt
		out.Message = "prompt unavailable for " + fire.Code
		return out
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.provider.Transform(cctx, req)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Kind = OutcomeFailed
		var apiErr *transform.APIError
		if errors.As(err, &apiErr) {
			out.Message = apiErr.Message
			out.AuthError = apiErr.Kind == transform.ErrAuthExpired
		} else {
			out.Message = err.Error()
		}
		return out
	}

	if err := c.clip.Write(result); err != nil {
		out.Kind = OutcomeFailed
		out.Message = "could not write result to clipboard: " + err.Error()
		return out
	}

	out.Kind = OutcomeSuccess
	out.Result = result
	return out
}

// buildRequest resolves the prompt for a code and expands its template.
func (c *Coordinator) buildRequest(code, text string) (transform.Request, bool) {
	if builtin, ok := transform.BuiltinFor(code); ok {
		return transform.Request{
			Text:     transform.Expand(builtin.Template, text),
			Tone:     builtin.Tone,
			Context:  builtin.Context,
			Audience: builtin.Audience,
		}, true
	}

	p, ok := c.library.PromptByID(code)
	if !ok || !p.IsActive {
		return transform.Request{}, false
	}
	return transform.Request{
		Text:   transform.Expand(p.Template, text),
		Custom: true,
	}, true
}

// emit delivers the outcome without ever blocking the state machine. A full
// channel means the consumer is gone; the outcome is logged so it is never
// silently swallowed.
func (c *Coordinator) emit(out Outcome) {
	select {
	case c.outcomes <- out:
	default:
		slog.Warn("outcome channel full, dropping",
			"kind", out.Kind, "code", out.Code, "message", out.Message)
	}
}
