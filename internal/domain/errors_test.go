package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindMatching(t *testing.T) {
	err := E(KindFetch, "fetch https://example.com", ErrNoDocuments)
	wrapped := fmt.Errorf("process url: %w", err)

	if !errors.Is(wrapped, KindFetch) {
		t.Fatal("expected wrapped error to match KindFetch")
	}
	if errors.Is(wrapped, KindIndex) {
		t.Fatal("did not expect wrapped error to match KindIndex")
	}
	if !errors.Is(wrapped, ErrNoDocuments) {
		t.Fatal("expected cause to be reachable")
	}
	if KindOf(wrapped) != KindFetch {
		t.Fatalf("KindOf = %v, want fetch", KindOf(wrapped))
	}
	if got := err.Error(); got != "fetch https://example.com: no documents found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestENil(t *testing.T) {
	if E(KindConfig, "op", nil) != nil {
		t.Fatal("expected nil for nil cause")
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Fatal("expected zero kind for plain error")
	}
}
