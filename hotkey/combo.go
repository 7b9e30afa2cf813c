package hotkey

import (
	"runtime"
	"strings"
)

// Canonical modifier names used in normalized combo strings. PRIMARY is a
// platform alias: Cmd on macOS, Ctrl everywhere else. The canonical order is
// PRIMARY, SHIFT, ALT, then the key code last (e.g. "PRIMARY+SHIFT+KeyC").
const (
	ModPrimary = "PRIMARY"
	ModShift   = "SHIFT"
	ModAlt     = "ALT"
)

// primaryIsMeta reports whether the platform's primary modifier is the
// command/meta key rather than control.
var primaryIsMeta = runtime.GOOS == "darwin"

// CaptureEvent is a raw key event from the capture UI: a physical key code
// (KeyboardEvent.code style names such as "KeyC", "Digit5", "F1") plus the
// modifier state at the time of the press.
type CaptureEvent struct {
	Code  string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

// Normalize converts a raw capture event into the canonical combo string.
// It assumes a fully-formed combo; modifier-only events (empty Code) are the
// caller's responsibility to reject before calling.
func Normalize(ev CaptureEvent) string {
	primary := ev.Ctrl
	if primaryIsMeta {
		primary = ev.Meta
	}

	var parts []string
	if primary {
		parts = append(parts, ModPrimary)
	}
	if ev.Shift {
		parts = append(parts, ModShift)
	}
	if ev.Alt {
		parts = append(parts, ModAlt)
	}
	if ev.Code != "" {
		parts = append(parts, ev.Code)
	}
	return strings.Join(parts, "+")
}

// Format renders a normalized combo for display, resolving PRIMARY to the
// platform name and stripping key-code prefixes ("KeyC" -> "C").
func Format(combo string) string {
	parts := strings.Split(combo, "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case ModPrimary:
			if primaryIsMeta {
				out = append(out, "Cmd")
			} else {
				out = append(out, "Ctrl")
			}
		case ModShift:
			out = append(out, "Shift")
		case ModAlt:
			out = append(out, "Alt")
		default:
			out = append(out, keyName(p))
		}
	}
	return strings.Join(out, "+")
}

// RegistrationString converts a normalized combo into the lowercase
// accelerator syntax the OS hotkey capability expects ("ctrl+shift+c").
func RegistrationString(combo string) string {
	parts := strings.Split(combo, "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case ModPrimary:
			if primaryIsMeta {
				out = append(out, "cmd")
			} else {
				out = append(out, "ctrl")
			}
		case ModShift:
			out = append(out, "shift")
		case ModAlt:
			out = append(out, "alt")
		default:
			out = append(out, strings.ToLower(keyName(p)))
		}
	}
	return strings.Join(out, "+")
}

// keyName strips the physical key-code prefix for rendering. Unknown codes
// pass through unchanged so new key names keep working without a mapping.
func keyName(code string) string {
	if rest, ok := strings.CutPrefix(code, "Key"); ok && len(rest) == 1 {
		return rest
	}
	if rest, ok := strings.CutPrefix(code, "Digit"); ok && len(rest) == 1 {
		return rest
	}
	switch code {
	case "Space":
		return "Space"
	case "Enter", "Escape", "Tab", "Backspace":
		return code
	}
	return code
}
