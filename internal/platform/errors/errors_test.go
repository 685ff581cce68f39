package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeCommentDeleted, "cannot edit a deleted comment")
	if !errors.Is(err, New(CodeCommentDeleted, "")) {
		t.Fatal("expected match by code")
	}
	if errors.Is(err, New(CodeCommentMissing, "")) {
		t.Fatal("expected no match for different code")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodePersistenceFailure, "append event", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "append event" {
		t.Fatalf("message = %q, want %q", err.Error(), "append event")
	}
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "record not found")
	outer := fmt.Errorf("load comment: %w", inner)
	if !errors.Is(outer, New(CodeNotFound, "")) {
		t.Fatal("expected code match through fmt.Errorf wrapping")
	}
}

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Category
	}{
		{"business rule", New(CodeCommentAlreadyExists, "x"), CategoryBusinessRule},
		{"persistence", New(CodePersistenceFailure, "x"), CategoryPersistence},
		{"projection apply", New(CodeProjectionApplyFailure, "x"), CategoryProjectionApply},
		{"corruption", New(CodeDataCorruption, "x"), CategoryDataCorruption},
		{"wrapped", fmt.Errorf("outer: %w", New(CodeCommentDeleted, "x")), CategoryBusinessRule},
		{"foreign", fmt.Errorf("plain"), CategoryInternal},
	}
	for _, tc := range cases {
		if got := CategoryOf(tc.err); got != tc.want {
			t.Fatalf("%s: category = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestWithMetadataKeepsContext(t *testing.T) {
	err := WithMetadata(CodeProjectionApplyFailure, "apply event", map[string]string{
		"projection": "comments",
		"event_id":   "evt-1",
	})
	if err.Metadata["projection"] != "comments" {
		t.Fatalf("metadata projection = %q, want comments", err.Metadata["projection"])
	}
}
