package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/progrid/progrid/internal/app"
	"github.com/progrid/progrid/internal/domain"
)

// --- Mocks ---

type mockTournamentRepo struct {
	tournaments map[string]domain.Tournament
}

func newMockTournamentRepo() *mockTournamentRepo {
	return &mockTournamentRepo{tournaments: make(map[string]domain.Tournament)}
}

func (m *mockTournamentRepo) Create(_ context.Context, t domain.Tournament) error {
	m.tournaments[t.ID] = t
	return nil
}

func (m *mockTournamentRepo) GetByID(_ context.Context, id string) (domain.Tournament, error) {
	t, ok := m.tournaments[id]
	if !ok {
		return domain.Tournament{}, domain.ErrTournamentNotFound
	}
	return t, nil
}

func (m *mockTournamentRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.Tournament, error) {
	out := make([]domain.Tournament, 0, len(m.tournaments))
	for _, t := range m.tournaments {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTournamentRepo) Update(_ context.Context, t domain.Tournament) error {
	if _, ok := m.tournaments[t.ID]; !ok {
		return domain.ErrTournamentNotFound
	}
	m.tournaments[t.ID] = t
	return nil
}

type mockParticipantRepo struct {
	participants []domain.Participant
}

func (m *mockParticipantRepo) key(tournamentID, teamID string) int {
	for i, p := range m.participants {
		if p.TournamentID == tournamentID && p.TeamID == teamID {
			return i
		}
	}
	return -1
}

func (m *mockParticipantRepo) CreateWithinCapacity(_ context.Context, p domain.Participant, max int) error {
	if m.key(p.TournamentID, p.TeamID) >= 0 {
		return &domain.AlreadyRegisteredError{TournamentID: p.TournamentID, TeamID: p.TeamID}
	}
	count := 0
	for _, existing := range m.participants {
		if existing.TournamentID == p.TournamentID && existing.PaymentStatus != domain.PaymentFailed {
			count++
		}
	}
	if count >= max {
		return &domain.CapacityExceededError{Max: max}
	}
	m.participants = append(m.participants, p)
	return nil
}

func (m *mockParticipantRepo) GetByTeam(_ context.Context, tournamentID, teamID string) (domain.Participant, error) {
	if i := m.key(tournamentID, teamID); i >= 0 {
		return m.participants[i], nil
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}

func (m *mockParticipantRepo) ListByTournament(_ context.Context, tournamentID string) ([]domain.Participant, error) {
	var out []domain.Participant
	for _, p := range m.participants {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockParticipantRepo) CountByTournament(_ context.Context, tournamentID string) (int, error) {
	count := 0
	for _, p := range m.participants {
		if p.TournamentID == tournamentID && p.PaymentStatus != domain.PaymentFailed {
			count++
		}
	}
	return count, nil
}

func (m *mockParticipantRepo) SetPlacement(_ context.Context, tournamentID, teamID string, placement int) (domain.Participant, error) {
	i := m.key(tournamentID, teamID)
	if i < 0 {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	for j, p := range m.participants {
		if j != i && p.TournamentID == tournamentID && p.Placement != nil && *p.Placement == placement {
			return domain.Participant{}, &domain.DuplicatePlacementError{Placement: placement}
		}
	}
	m.participants[i].Placement = &placement
	return m.participants[i], nil
}

type mockPaymentRepo struct {
	records map[string]domain.PaymentRecord
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{records: make(map[string]domain.PaymentRecord)}
}

func (m *mockPaymentRepo) Create(_ context.Context, rec domain.PaymentRecord) error {
	m.records[rec.Ref] = rec
	return nil
}

func (m *mockPaymentRepo) GetByRef(_ context.Context, ref string) (domain.PaymentRecord, error) {
	rec, ok := m.records[ref]
	if !ok {
		return domain.PaymentRecord{}, domain.ErrPaymentNotFound
	}
	return rec, nil
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, ref string, status domain.PaymentStatus) error {
	rec, ok := m.records[ref]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	rec.Status = status
	m.records[ref] = rec
	return nil
}

type mockDistributionRepo struct {
	rows []domain.PrizeDistribution
}

func (m *mockDistributionRepo) CreateAll(_ context.Context, rows []domain.PrizeDistribution) error {
	if len(rows) == 0 {
		return nil
	}
	for _, existing := range m.rows {
		if existing.TournamentID == rows[0].TournamentID {
			return domain.ErrAlreadyDistributed
		}
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *mockDistributionRepo) ExistsForTournament(_ context.Context, tournamentID string) (bool, error) {
	for _, r := range m.rows {
		if r.TournamentID == tournamentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDistributionRepo) ListByTournament(_ context.Context, tournamentID string) ([]domain.PrizeDistribution, error) {
	var out []domain.PrizeDistribution
	for _, r := range m.rows {
		if r.TournamentID == tournamentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockDistributionRepo) MarkTransfer(_ context.Context, id, transferRef string, status domain.PayoutStatus) error {
	for i, r := range m.rows {
		if r.ID == id {
			m.rows[i].TransferRef = transferRef
			m.rows[i].Status = status
			return nil
		}
	}
	return domain.ErrDistributionRowNotFound
}

func (m *mockDistributionRepo) ResolveTransfer(_ context.Context, transferRef string, status domain.PayoutStatus) (bool, error) {
	for i, r := range m.rows {
		if r.TransferRef == transferRef {
			if r.Status != domain.PayoutPending {
				return false, nil
			}
			m.rows[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

type mockDirectory struct {
	admins map[string]bool
}

func (m *mockDirectory) IsAuthorized(_ context.Context, actorID, _ string) (bool, error) {
	return m.admins[actorID], nil
}

type mockGateway struct {
	intents      int
	transfers    int
	failTransfer bool
}

func (m *mockGateway) CreateIntent(_ context.Context, _ int64, _ map[string]string) (string, error) {
	m.intents++
	return fmt.Sprintf("intent-%d", m.intents), nil
}

func (m *mockGateway) Transfer(_ context.Context, _ int64, _ string, _ map[string]string) (string, error) {
	m.transfers++
	if m.failTransfer {
		return "", fmt.Errorf("gateway unavailable")
	}
	return fmt.Sprintf("transfer-%d", m.transfers), nil
}

type mockSink struct {
	notifications []domain.Notification
	err           error
}

func (m *mockSink) Notify(_ context.Context, n domain.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.notifications = append(m.notifications, n)
	return nil
}

// tableValidator walks domain.Transitions directly, mirroring the FSM adapter.
type tableValidator struct{}

func (tableValidator) Apply(_ context.Context, current domain.Status, event domain.Event) (domain.Status, error) {
	for _, tr := range domain.Transitions {
		if tr.Event == event && tr.Src == current {
			return tr.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

// --- Harness ---

type fixture struct {
	svc           *app.TournamentService
	tournaments   *mockTournamentRepo
	participants  *mockParticipantRepo
	payments      *mockPaymentRepo
	distributions *mockDistributionRepo
	directory     *mockDirectory
	gateway       *mockGateway
	sink          *mockSink
}

func newFixture() *fixture {
	f := &fixture{
		tournaments:   newMockTournamentRepo(),
		participants:  &mockParticipantRepo{},
		payments:      newMockPaymentRepo(),
		distributions: &mockDistributionRepo{},
		directory:     &mockDirectory{admins: make(map[string]bool)},
		gateway:       &mockGateway{},
		sink:          &mockSink{},
	}
	f.svc = app.NewTournamentService(app.Deps{
		Tournaments:   f.tournaments,
		Participants:  f.participants,
		Payments:      f.payments,
		Distributions: f.distributions,
		Directory:     f.directory,
		Gateway:       f.gateway,
		Sink:          f.sink,
		Validator:     tableValidator{},
	})
	return f
}

// seed creates a tournament and forces it into the given status.
func (f *fixture) seed(t *testing.T, status domain.Status, maxParticipants int, entryFeeCents, prizePoolCents int64, scheme domain.Scheme) domain.Tournament {
	t.Helper()
	tn, err := f.svc.Create(context.Background(), "org-1", "Test Cup", maxParticipants, entryFeeCents, prizePoolCents, scheme, time.Now().UTC())
	if err != nil {
		t.Fatalf("seeding tournament: %v", err)
	}
	if status != domain.StatusDraft {
		tn.Status = status
		f.tournaments.tournaments[tn.ID] = tn
	}
	return tn
}

// join registers a team into a free tournament and fails the test on error.
func (f *fixture) join(t *testing.T, tournamentID, teamID string) domain.Participant {
	t.Helper()
	res, err := f.svc.Register(context.Background(), tournamentID, teamID)
	if err != nil {
		t.Fatalf("registering %s: %v", teamID, err)
	}
	if res.Participant == nil {
		t.Fatalf("expected settled participant for %s", teamID)
	}
	return *res.Participant
}
