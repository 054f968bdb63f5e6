package search

import (
	"errors"
	"fmt"
	"testing"
)

func TestBlockedError_Chain(t *testing.T) {
	err := fmt.Errorf("attempt 1: %w", &BlockedError{Reason: "captcha iframe"})

	if !errors.Is(err, ErrBlocked) {
		t.Fatal("expected errors.Is(err, ErrBlocked)")
	}
	be, ok := AsBlocked(err)
	if !ok {
		t.Fatal("expected AsBlocked to match")
	}
	if be.Reason != "captcha iframe" {
		t.Fatalf("expected reason preserved, got %q", be.Reason)
	}
}

func TestAsBlocked_NonBlocked(t *testing.T) {
	if _, ok := AsBlocked(errors.New("navigate timeout")); ok {
		t.Fatal("expected no match for transient error")
	}
}
