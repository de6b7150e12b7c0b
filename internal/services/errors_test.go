package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrTransport, "plextv", "shared servers", "fetch failed", base)

	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	want := "transport failure: plextv: shared servers: fetch failed: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrNoValidLibraries, "planner", "validate", "all requested IDs unknown", nil)
	if !errors.Is(err, ErrNoValidLibraries) {
		t.Fatalf("expected no-valid-libraries marker, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected default transport marker, got %v", err)
	}
	if err.Error() != "transport failure: service failure: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsTimeout(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", Wrap(ErrTimeout, "plextv", "catalog", "deadline exceeded", nil), true},
		{"deadline", fmt.Errorf("do request: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
		{"other", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsTimeout(tc.err); got != tc.want {
			t.Errorf("%s: IsTimeout = %v, want %v", tc.name, got, tc.want)
		}
	}
}
