package directory_test

import (
	"context"
	"testing"

	"github.com/progrid/progrid/internal/adapter/directory"
)

func TestStatic_IsAuthorized(t *testing.T) {
	d := directory.NewStatic([]string{"ops-1", "ops-2", ""})
	ctx := context.Background()

	for _, tc := range []struct {
		actorID string
		want    bool
	}{
		{"ops-1", true},
		{"ops-2", true},
		{"org-1", false},
		{"", false},
	} {
		got, err := d.IsAuthorized(ctx, tc.actorID, "t-1")
		if err != nil {
			t.Fatalf("IsAuthorized(%q) error: %v", tc.actorID, err)
		}
		if got != tc.want {
			t.Errorf("IsAuthorized(%q) = %v, want %v", tc.actorID, got, tc.want)
		}
	}
}

func TestStatic_Empty(t *testing.T) {
	d := directory.NewStatic(nil)

	got, err := d.IsAuthorized(context.Background(), "anyone", "t-1")
	if err != nil {
		t.Fatalf("IsAuthorized error: %v", err)
	}
	if got {
		t.Error("empty directory should authorize nobody")
	}
}
