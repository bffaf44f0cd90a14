package services_test

import (
	"errors"
	"strings"
	"testing"

	"reshelf/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransfer, "organizer", "hardlink", "link failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"organizer", "hardlink", "link failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "organizer", "resolve", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestFailureKindMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		expect string
	}{
		{"source missing", services.Wrap(services.ErrSourceMissing, "organizer", "stat", "missing", nil), "source_missing"},
		{"metadata", services.Wrap(services.ErrMetadataNotFound, "organizer", "resolve", "no match", nil), "metadata_not_found"},
		{"transfer", services.Wrap(services.ErrTransfer, "organizer", "copy", "short write", errors.New("io")), "transfer_failed"},
		{"other", errors.New("unclassified"), "failed"},
		{"nil", nil, "failed"},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.expect {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.expect, got)
		}
	}
}
