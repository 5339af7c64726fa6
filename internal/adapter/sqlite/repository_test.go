package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/progrid/progrid/internal/adapter/sqlite"
	"github.com/progrid/progrid/internal/domain"
)

// newTestStore creates a temp-file SQLite store. A file, not :memory:,
// because the pool hands each connection its own in-memory database.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTournament(id string) domain.Tournament {
	return domain.NewTournament(id, "org-1", "Test Cup", 8, 0, 10000, domain.SchemeTop3, time.Now().UTC())
}

func mustCreate(t *testing.T, store *sqlite.Store, tournament domain.Tournament) {
	t.Helper()
	if err := store.Tournaments.Create(context.Background(), tournament); err != nil {
		t.Fatalf("mustCreate failed: %v", err)
	}
}

func mustJoin(t *testing.T, store *sqlite.Store, tournamentID, teamID string, max int) domain.Participant {
	t.Helper()
	p := domain.NewParticipant("p-"+teamID, tournamentID, teamID, domain.PaymentNotRequired)
	if err := store.Participants.CreateWithinCapacity(context.Background(), p, max); err != nil {
		t.Fatalf("mustJoin %s failed: %v", teamID, err)
	}
	return p
}

func TestTournament_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, newTournament("t-1"))

	got, err := store.Tournaments.GetByID(ctx, "t-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.OrganizerID != "org-1" {
		t.Errorf("OrganizerID = %q, want %q", got.OrganizerID, "org-1")
	}
	if got.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusDraft)
	}
	if got.Scheme != domain.SchemeTop3 {
		t.Errorf("Scheme = %q, want %q", got.Scheme, domain.SchemeTop3)
	}
	if got.PrizePoolCents != 10000 {
		t.Errorf("PrizePoolCents = %d, want 10000", got.PrizePoolCents)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestTournament_GetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Tournaments.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrTournamentNotFound) {
		t.Errorf("expected ErrTournamentNotFound, got %v", err)
	}
}

func TestTournament_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tournament := newTournament("t-1")
	mustCreate(t, store, tournament)

	tournament.Status = domain.StatusRegistrationOpen
	tournament.Name = "Renamed Cup"

	if err := store.Tournaments.Update(ctx, tournament); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.Tournaments.GetByID(ctx, "t-1")
	if got.Status != domain.StatusRegistrationOpen {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusRegistrationOpen)
	}
	if got.Name != "Renamed Cup" {
		t.Errorf("Name = %q, want %q", got.Name, "Renamed Cup")
	}
}

func TestTournament_Update_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Tournaments.Update(context.Background(), newTournament("nonexistent"))
	if !errors.Is(err, domain.ErrTournamentNotFound) {
		t.Errorf("expected ErrTournamentNotFound, got %v", err)
	}
}

func TestTournament_List_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t1 := newTournament("t-1")
	mustCreate(t, store, t1)

	t2 := newTournament("t-2")
	t2.OrganizerID = "org-2"
	mustCreate(t, store, t2)

	t1.Status = domain.StatusRegistrationOpen
	if err := store.Tournaments.Update(ctx, t1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.Tournaments.List(ctx, domain.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d tournaments, want 2", len(all))
	}

	open := domain.StatusRegistrationOpen
	filtered, err := store.Tournaments.List(ctx, domain.ListFilter{Status: &open})
	if err != nil {
		t.Fatalf("List with status filter failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "t-1" {
		t.Errorf("status filter returned %+v, want only t-1", filtered)
	}

	byOrg, err := store.Tournaments.List(ctx, domain.ListFilter{OrganizerID: "org-2"})
	if err != nil {
		t.Fatalf("List with organizer filter failed: %v", err)
	}
	if len(byOrg) != 1 || byOrg[0].ID != "t-2" {
		t.Errorf("organizer filter returned %+v, want only t-2", byOrg)
	}
}

func TestParticipant_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, newTournament("t-1"))
	mustJoin(t, store, "t-1", "team-a", 8)

	got, err := store.Participants.GetByTeam(ctx, "t-1", "team-a")
	if err != nil {
		t.Fatalf("GetByTeam failed: %v", err)
	}
	if got.PaymentStatus != domain.PaymentNotRequired {
		t.Errorf("PaymentStatus = %q, want %q", got.PaymentStatus, domain.PaymentNotRequired)
	}
	if got.Placement != nil {
		t.Errorf("Placement = %v, want nil", *got.Placement)
	}
}

func TestParticipant_Duplicate(t *testing.T) {
	store := newTestStore(t)

	mustCreate(t, store, newTournament("t-1"))
	mustJoin(t, store, "t-1", "team-a", 8)

	p := domain.NewParticipant("p-dup", "t-1", "team-a", domain.PaymentNotRequired)
	err := store.Participants.CreateWithinCapacity(context.Background(), p, 8)

	var dupErr *domain.AlreadyRegisteredError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected AlreadyRegisteredError, got %v", err)
	}
	if dupErr.TeamID != "team-a" {
		t.Errorf("TeamID = %q, want %q", dupErr.TeamID, "team-a")
	}
}

func TestParticipant_CapacityBound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, newTournament("t-1"))
	mustJoin(t, store, "t-1", "team-a", 2)
	mustJoin(t, store, "t-1", "team-b", 2)

	p := domain.NewParticipant("p-c", "t-1", "team-c", domain.PaymentNotRequired)
	err := store.Participants.CreateWithinCapacity(ctx, p, 2)

	var capErr *domain.CapacityExceededError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityExceededError, got %v", err)
	}

	count, _ := store.Participants.CountByTournament(ctx, "t-1")
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

// Concurrent registrations racing for the last seats must never overshoot
// the capacity: the check and the insert are a single atomic statement.
func TestParticipant_CapacityUnderConcurrency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const max = 4
	mustCreate(t, store, newTournament("t-1"))

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := domain.NewParticipant(
				fmt.Sprintf("p-%d", i), "t-1", fmt.Sprintf("team-%d", i),
				domain.PaymentNotRequired,
			)
			errs[i] = store.Participants.CreateWithinCapacity(ctx, p, max)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var capErr *domain.CapacityExceededError
		if !errors.As(err, &capErr) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != max {
		t.Errorf("%d registrations succeeded, want exactly %d", succeeded, max)
	}

	count, _ := store.Participants.CountByTournament(ctx, "t-1")
	if count != max {
		t.Errorf("count = %d, want %d", count, max)
	}
}

func TestParticipant_SetPlacement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, newTournament("t-1"))
	mustJoin(t, store, "t-1", "team-a", 8)
	mustJoin(t, store, "t-1", "team-b", 8)

	got, err := store.Participants.SetPlacement(ctx, "t-1", "team-a", 1)
	if err != nil {
		t.Fatalf("SetPlacement failed: %v", err)
	}
	if got.Placement == nil || *got.Placement != 1 {
		t.Fatalf("Placement = %v, want 1", got.Placement)
	}

	// Same team may be moved to another rank.
	if _, err := store.Participants.SetPlacement(ctx, "t-1", "team-a", 2); err != nil {
		t.Errorf("moving own placement failed: %v", err)
	}

	// Another team taking the now-free rank is fine.
	if _, err := store.Participants.SetPlacement(ctx, "t-1", "team-b", 1); err != nil {
		t.Errorf("placement into freed rank failed: %v", err)
	}
}

func TestParticipant_SetPlacement_Duplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, newTournament("t-1"))
	mustJoin(t, store, "t-1", "team-a", 8)
	mustJoin(t, store, "t-1", "team-b", 8)

	if _, err := store.Participants.SetPlacement(ctx, "t-1", "team-a", 1); err != nil {
		t.Fatalf("SetPlacement failed: %v", err)
	}

	_, err := store.Participants.SetPlacement(ctx, "t-1", "team-b", 1)
	var dupErr *domain.DuplicatePlacementError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicatePlacementError, got %v", err)
	}

	// team-b remains unranked.
	got, _ := store.Participants.GetByTeam(ctx, "t-1", "team-b")
	if got.Placement != nil {
		t.Errorf("team-b placement = %v, want nil", *got.Placement)
	}
}

func TestParticipant_SetPlacement_NotFound(t *testing.T) {
	store := newTestStore(t)

	mustCreate(t, store, newTournament("t-1"))

	_, err := store.Participants.SetPlacement(context.Background(), "t-1", "team-x", 1)
	if !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Errorf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestPayment_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, newTournament("t-1"))

	rec := domain.NewPaymentRecord("intent-1", "t-1", "team-a", 500)
	if err := store.Payments.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Payments.GetByRef(ctx, "intent-1")
	if err != nil {
		t.Fatalf("GetByRef failed: %v", err)
	}
	if got.Status != domain.PaymentPending {
		t.Errorf("Status = %q, want %q", got.Status, domain.PaymentPending)
	}
	if got.AmountCents != 500 {
		t.Errorf("AmountCents = %d, want 500", got.AmountCents)
	}

	if err := store.Payments.UpdateStatus(ctx, "intent-1", domain.PaymentPaid); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ = store.Payments.GetByRef(ctx, "intent-1")
	if got.Status != domain.PaymentPaid {
		t.Errorf("Status = %q, want %q", got.Status, domain.PaymentPaid)
	}
}

func TestPayment_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Payments.GetByRef(ctx, "nonexistent"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("GetByRef: expected ErrPaymentNotFound, got %v", err)
	}
	if err := store.Payments.UpdateStatus(ctx, "nonexistent", domain.PaymentPaid); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("UpdateStatus: expected ErrPaymentNotFound, got %v", err)
	}
}

func seedDistribution(t *testing.T, store *sqlite.Store) []domain.PrizeDistribution {
	t.Helper()

	mustCreate(t, store, newTournament("t-1"))
	a := mustJoin(t, store, "t-1", "team-a", 8)
	b := mustJoin(t, store, "t-1", "team-b", 8)

	rows := []domain.PrizeDistribution{
		{ID: "d-1", TournamentID: "t-1", ParticipantID: a.ID, Placement: 1, AmountCents: 6000, Status: domain.PayoutPending},
		{ID: "d-2", TournamentID: "t-1", ParticipantID: b.ID, Placement: 2, AmountCents: 2500, Status: domain.PayoutPending},
	}
	if err := store.Distributions.CreateAll(context.Background(), rows); err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}
	return rows
}

func TestDistribution_CreateAll_Once(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := seedDistribution(t, store)

	exists, err := store.Distributions.ExistsForTournament(ctx, "t-1")
	if err != nil {
		t.Fatalf("ExistsForTournament failed: %v", err)
	}
	if !exists {
		t.Error("distribution should exist")
	}

	// Second insert for the same tournament is rejected wholesale.
	err = store.Distributions.CreateAll(ctx, rows)
	if !errors.Is(err, domain.ErrAlreadyDistributed) {
		t.Fatalf("expected ErrAlreadyDistributed, got %v", err)
	}

	got, _ := store.Distributions.ListByTournament(ctx, "t-1")
	if len(got) != 2 {
		t.Errorf("got %d rows, want 2", len(got))
	}
}

func TestDistribution_MarkAndResolveTransfer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedDistribution(t, store)

	if err := store.Distributions.MarkTransfer(ctx, "d-1", "tr-1", domain.PayoutPending); err != nil {
		t.Fatalf("MarkTransfer failed: %v", err)
	}

	applied, err := store.Distributions.ResolveTransfer(ctx, "tr-1", domain.PayoutPaid)
	if err != nil {
		t.Fatalf("ResolveTransfer failed: %v", err)
	}
	if !applied {
		t.Fatal("first resolve should apply")
	}

	// Replay does not apply and does not flip the status.
	applied, err = store.Distributions.ResolveTransfer(ctx, "tr-1", domain.PayoutFailed)
	if err != nil {
		t.Fatalf("replayed ResolveTransfer failed: %v", err)
	}
	if applied {
		t.Error("replayed resolve should not apply")
	}

	rows, _ := store.Distributions.ListByTournament(ctx, "t-1")
	for _, r := range rows {
		if r.ID == "d-1" && r.Status != domain.PayoutPaid {
			t.Errorf("d-1 status = %q, want %q", r.Status, domain.PayoutPaid)
		}
	}
}

func TestDistribution_ResolveTransfer_EmptyRef(t *testing.T) {
	store := newTestStore(t)

	seedDistribution(t, store)

	// Rows without a transfer ref must never be matched by accident.
	applied, err := store.Distributions.ResolveTransfer(context.Background(), "", domain.PayoutPaid)
	if err != nil {
		t.Fatalf("ResolveTransfer failed: %v", err)
	}
	if applied {
		t.Error("empty transfer ref should resolve nothing")
	}
}

func TestDistribution_MarkTransfer_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Distributions.MarkTransfer(context.Background(), "nonexistent", "tr-1", domain.PayoutPaid)
	if !errors.Is(err, domain.ErrDistributionRowNotFound) {
		t.Errorf("expected ErrDistributionRowNotFound, got %v", err)
	}
}
