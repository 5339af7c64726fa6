package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/progrid/progrid/internal/adapter/fsm"
	"github.com/progrid/progrid/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Can't publish once the tournament is underway.
	_, err := v.Apply(ctx, domain.StatusOngoing, domain.EventPublish)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventPublish {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventPublish)
	}
	if trErr.Current != domain.StatusOngoing {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusOngoing)
	}
}

func TestValidator_FullLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.Status
		event domain.Event
		want  domain.Status
	}{
		{domain.StatusDraft, domain.EventPublish, domain.StatusRegistrationOpen},
		{domain.StatusRegistrationOpen, domain.EventStart, domain.StatusOngoing},
		{domain.StatusOngoing, domain.EventComplete, domain.StatusCompleted},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_TerminalStates(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	terminal := []domain.Status{domain.StatusCompleted, domain.StatusCancelled}
	all := []domain.Event{domain.EventPublish, domain.EventStart, domain.EventComplete, domain.EventCancel}

	for _, status := range terminal {
		for _, event := range all {
			_, err := v.Apply(ctx, status, event)
			var trErr *domain.TransitionError
			if !errors.As(err, &trErr) {
				t.Errorf("Apply(%q, %q) should fail with TransitionError, got %v", status, event, err)
			}
		}
	}
}

func TestValidator_StartSkipsRegistration(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Start is valid directly from "draft" as well as from "registration_open".
	got, err := v.Apply(ctx, domain.StatusDraft, domain.EventStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.StatusOngoing {
		t.Errorf("got %q, want %q", got, domain.StatusOngoing)
	}
}
