package alert

import "testing"

func TestNewWithEmptyURLDisablesAlerting(t *testing.T) {
	n, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n != nil {
		t.Fatalf("expected nil notifier for empty webhook url")
	}

	// nil notifier must be safe to call.
	n.BlockAccepted(100, 2)
	n.AuthRejected("test")
	n.ConnectionUnstable(3)
}

func TestNewWithInvalidURL(t *testing.T) {
	if _, err := New("not-a-valid-webhook-url"); err == nil {
		t.Fatalf("expected error for malformed webhook url")
	}
}
