package auth

import "testing"

func TestSessionLifecycle(t *testing.T) {
	b := NewBridge()

	if b.CurrentToken() != "" || b.Authenticated() {
		t.Fatal("fresh bridge should be logged out")
	}

	b.SetSession("tok-1")
	if b.CurrentToken() != "tok-1" || !b.Authenticated() {
		t.Error("session not recorded")
	}

	b.ClearSession()
	if b.CurrentToken() != "" || b.Authenticated() {
		t.Error("session not cleared")
	}
}

func TestAuthenticatedWithoutToken(t *testing.T) {
	b := NewBridge()

	// Login succeeded but the token could not be retrieved: callers must
	// still see an empty token, never a stale one.
	b.SetSession("tok-old")
	b.SetSession("")

	if !b.Authenticated() {
		t.Error("should remain authenticated")
	}
	if b.CurrentToken() != "" {
		t.Errorf("token = %q, want empty", b.CurrentToken())
	}
}

func TestOnChange(t *testing.T) {
	b := NewBridge()

	var got []bool
	unsub := b.OnChange(func(authed bool) { got = append(got, authed) })

	b.SetSession("tok")
	b.ClearSession()
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("notifications = %v, want [true false]", got)
	}

	unsub()
	b.SetSession("tok-2")
	if len(got) != 2 {
		t.Error("notification delivered after unsubscribe")
	}
}
