package payment_test

import (
	"context"
	"strings"
	"testing"

	"github.com/progrid/progrid/internal/adapter/payment"
)

func TestDevGateway_CreateIntent(t *testing.T) {
	g := payment.NewDevGateway()

	ref, err := g.CreateIntent(context.Background(), 500, map[string]string{
		"tournament_id": "t-1",
		"team_id":       "team-a",
	})
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}
	if !strings.HasPrefix(ref, "pi_") {
		t.Errorf("ref = %q, want pi_ prefix", ref)
	}

	// References are unique per intent.
	other, _ := g.CreateIntent(context.Background(), 500, nil)
	if other == ref {
		t.Error("intent refs should be unique")
	}
}

func TestDevGateway_Transfer(t *testing.T) {
	g := payment.NewDevGateway()

	ref, err := g.Transfer(context.Background(), 60000, "team-a", map[string]string{
		"tournament_id": "t-1",
	})
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if !strings.HasPrefix(ref, "tr_") {
		t.Errorf("ref = %q, want tr_ prefix", ref)
	}
}
