package hotkey

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		ev   CaptureEvent
		want string
	}{
		{
			name: "primary shift key",
			ev:   CaptureEvent{Code: "KeyC", Ctrl: true, Shift: true},
			want: "PRIMARY+SHIFT+KeyC",
		},
		{
			name: "all modifiers ordered canonically",
			ev:   CaptureEvent{Code: "KeyX", Alt: true, Shift: true, Ctrl: true},
			want: "PRIMARY+SHIFT+ALT+KeyX",
		},
		{
			name: "function key without prefix",
			ev:   CaptureEvent{Code: "F1", Ctrl: true},
			want: "PRIMARY+F1",
		},
		{
			name: "digit key",
			ev:   CaptureEvent{Code: "Digit5", Shift: true},
			want: "SHIFT+Digit5",
		},
		{
			name: "unknown code passes through",
			ev:   CaptureEvent{Code: "NumpadAdd", Ctrl: true},
			want: "PRIMARY+NumpadAdd",
		},
		{
			name: "modifier only keeps modifiers",
			ev:   CaptureEvent{Ctrl: true, Shift: true},
			want: "PRIMARY+SHIFT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.ev); got != tt.want {
				t.Errorf("Normalize(%+v) = %q, want %q", tt.ev, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if primaryIsMeta {
		t.Skip("display names differ on darwin")
	}

	tests := []struct {
		combo string
		want  string
	}{
		{"PRIMARY+SHIFT+KeyC", "Ctrl+Shift+C"},
		{"PRIMARY+F1", "Ctrl+F1"},
		{"SHIFT+ALT+Digit5", "Shift+Alt+5"},
		{"PRIMARY+Space", "Ctrl+Space"},
	}

	for _, tt := range tests {
		if got := Format(tt.combo); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.combo, got, tt.want)
		}
	}
}

func TestRegistrationString(t *testing.T) {
	if primaryIsMeta {
		t.Skip("accelerators differ on darwin")
	}

	tests := []struct {
		combo string
		want  string
	}{
		{"PRIMARY+SHIFT+KeyC", "ctrl+shift+c"},
		{"PRIMARY+F1", "ctrl+f1"},
		{"PRIMARY+ALT+Digit9", "ctrl+alt+9"},
		{"SHIFT+Space", "shift+space"},
	}

	for _, tt := range tests {
		if got := RegistrationString(tt.combo); got != tt.want {
			t.Errorf("RegistrationString(%q) = %q, want %q", tt.combo, got, tt.want)
		}
	}
}

// Normalizing the capture event a combo describes must produce a combo that
// registers to the same accelerator as the original.
func TestNormalizeRoundTrip(t *testing.T) {
	combos := []string{
		"PRIMARY+SHIFT+KeyC",
		"PRIMARY+ALT+KeyR",
		"SHIFT+F1",
		"PRIMARY+Digit3",
	}

	for _, combo := range combos {
		ev := eventFor(t, combo)
		got := Normalize(ev)
		if RegistrationString(got) != RegistrationString(combo) {
			t.Errorf("round trip of %q produced %q (accel %q, want %q)",
				combo, got, RegistrationString(got), RegistrationString(combo))
		}
	}
}

// eventFor reconstructs the capture event that would have produced a combo.
func eventFor(t *testing.T, combo string) CaptureEvent {
	t.Helper()

	var ev CaptureEvent
	for _, part := range splitCombo(combo) {
		switch part {
		case ModPrimary:
			if primaryIsMeta {
				ev.Meta = true
			} else {
				ev.Ctrl = true
			}
		case ModShift:
			ev.Shift = true
		case ModAlt:
			ev.Alt = true
		default:
			ev.Code = part
		}
	}
	return ev
}

func splitCombo(combo string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(combo); i++ {
		if i == len(combo) || combo[i] == '+' {
			parts = append(parts, combo[start:i])
			start = i + 1
		}
	}
	return parts
}
