package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/progrid/progrid/internal/app"
	"github.com/progrid/progrid/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// TournamentResponse is the API representation of a tournament.
type TournamentResponse struct {
	ID              string `json:"id" doc:"Unique identifier"`
	OrganizerID     string `json:"organizer_id" doc:"Organizer user ID"`
	Name            string `json:"name" doc:"Display name"`
	Status          string `json:"status" doc:"Lifecycle state"`
	MaxParticipants int    `json:"max_participants" doc:"Registration capacity"`
	EntryFeeCents   int64  `json:"entry_fee_cents" doc:"Entry fee in cents (0 = free)"`
	PrizePoolCents  int64  `json:"prize_pool_cents" doc:"Prize pool in cents"`
	Scheme          string `json:"scheme" doc:"Prize distribution scheme"`
	StartDate       string `json:"start_date" doc:"Scheduled start (ISO 8601)"`
	CreatedAt       string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt       string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTournamentResponse(t domain.Tournament) TournamentResponse {
	return TournamentResponse{
		ID:              t.ID,
		OrganizerID:     t.OrganizerID,
		Name:            t.Name,
		Status:          string(t.Status),
		MaxParticipants: t.MaxParticipants,
		EntryFeeCents:   t.EntryFeeCents,
		PrizePoolCents:  t.PrizePoolCents,
		Scheme:          string(t.Scheme),
		StartDate:       t.StartDate.Format(timeFormat),
		CreatedAt:       t.CreatedAt.Format(timeFormat),
		UpdatedAt:       t.UpdatedAt.Format(timeFormat),
	}
}

// ParticipantResponse is the API representation of a participant.
type ParticipantResponse struct {
	ID            string `json:"id" doc:"Unique identifier"`
	TournamentID  string `json:"tournament_id" doc:"Tournament the team joined"`
	TeamID        string `json:"team_id" doc:"Registered team ID"`
	Placement     *int   `json:"placement,omitempty" doc:"Final ranking, absent until assigned"`
	PaymentStatus string `json:"payment_status" doc:"Entry fee settlement state"`
	JoinedAt      string `json:"joined_at" doc:"Registration timestamp (ISO 8601)"`
}

func toParticipantResponse(p domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:            p.ID,
		TournamentID:  p.TournamentID,
		TeamID:        p.TeamID,
		Placement:     p.Placement,
		PaymentStatus: string(p.PaymentStatus),
		JoinedAt:      p.JoinedAt.Format(timeFormat),
	}
}

// DistributionRowResponse is the API representation of one prize payout row.
type DistributionRowResponse struct {
	ID            string `json:"id" doc:"Unique identifier"`
	ParticipantID string `json:"participant_id" doc:"Recipient participant"`
	Placement     int    `json:"placement" doc:"Final ranking the payout rewards"`
	AmountCents   int64  `json:"amount_cents" doc:"Payout amount in cents"`
	Status        string `json:"status" doc:"Payout state"`
	TransferRef   string `json:"transfer_ref,omitempty" doc:"Gateway transfer reference"`
}

func toDistributionRowResponse(d domain.PrizeDistribution) DistributionRowResponse {
	return DistributionRowResponse{
		ID:            d.ID,
		ParticipantID: d.ParticipantID,
		Placement:     d.Placement,
		AmountCents:   d.AmountCents,
		Status:        string(d.Status),
		TransferRef:   d.TransferRef,
	}
}

// --- Create Tournament ---

type CreateTournamentInput struct {
	Body struct {
		OrganizerID     string    `json:"organizer_id" minLength:"1" doc:"Organizer user ID"`
		Name            string    `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		MaxParticipants int       `json:"max_participants" minimum:"1" doc:"Registration capacity"`
		EntryFeeCents   int64     `json:"entry_fee_cents,omitempty" minimum:"0" doc:"Entry fee in cents (0 = free)"`
		PrizePoolCents  int64     `json:"prize_pool_cents,omitempty" minimum:"0" doc:"Prize pool in cents"`
		Scheme          string    `json:"scheme" enum:"winner_takes_all,top3,top5" doc:"Prize distribution scheme"`
		StartDate       time.Time `json:"start_date" doc:"Scheduled start"`
	}
}

type CreateTournamentOutput struct {
	Body TournamentResponse
}

// --- Get Tournament ---

type GetTournamentInput struct {
	ID string `path:"id" doc:"Tournament ID"`
}

type GetTournamentOutput struct {
	Body TournamentResponse
}

// --- List Tournaments ---

type ListTournamentsInput struct {
	Status      string `query:"status" required:"false" doc:"Filter by status"`
	OrganizerID string `query:"organizer_id" required:"false" doc:"Filter by organizer"`
	Limit       int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset      int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTournamentsOutput struct {
	Body []TournamentResponse
}

// --- Transition ---

type TransitionInput struct {
	ID   string `path:"id" doc:"Tournament ID"`
	Body struct {
		Event   string `json:"event" doc:"Lifecycle event to trigger" enum:"publish,start,complete,cancel"`
		ActorID string `json:"actor_id,omitempty" doc:"Acting user ID, required for start/complete/cancel"`
	}
}

type TransitionOutput struct {
	Body TournamentResponse
}

// --- Roster ---

type ListParticipantsInput struct {
	ID string `path:"id" doc:"Tournament ID"`
}

type ListParticipantsOutput struct {
	Body []ParticipantResponse
}

// --- Register ---

type RegisterInput struct {
	ID   string `path:"id" doc:"Tournament ID"`
	Body struct {
		TeamID string `json:"team_id" minLength:"1" doc:"Team to register"`
	}
}

type RegisterOutput struct {
	Body struct {
		Status      string               `json:"status" doc:"registered or payment_pending"`
		Participant *ParticipantResponse `json:"participant,omitempty" doc:"Settled registration"`
		PaymentRef  string               `json:"payment_ref,omitempty" doc:"Gateway intent reference awaiting confirmation"`
		AmountCents int64                `json:"amount_cents,omitempty" doc:"Entry fee owed"`
	}
}

// --- Payment callbacks ---

type PaymentCallbackInput struct {
	Ref string `path:"ref" doc:"Payment intent reference"`
}

type ConfirmPaymentOutput struct {
	Body ParticipantResponse
}

type FailPaymentOutput struct {
	Body struct {
		Status string `json:"status" doc:"Resulting payment record state"`
	}
}

// --- Placement ---

type SetPlacementInput struct {
	ID     string `path:"id" doc:"Tournament ID"`
	TeamID string `path:"teamId" doc:"Team ID"`
	Body   struct {
		Placement int    `json:"placement" minimum:"1" doc:"Final ranking"`
		ActorID   string `json:"actor_id" minLength:"1" doc:"Acting user ID"`
	}
}

type SetPlacementOutput struct {
	Body ParticipantResponse
}

// --- Distribution ---

type PreviewDistributionInput struct {
	ID string `path:"id" doc:"Tournament ID"`
}

type PreviewDistributionOutput struct {
	Body []struct {
		ParticipantID string `json:"participant_id" doc:"Recipient participant"`
		Placement     int    `json:"placement" doc:"Final ranking"`
		AmountCents   int64  `json:"amount_cents" doc:"Payout amount in cents"`
	}
}

type DistributeInput struct {
	ID   string `path:"id" doc:"Tournament ID"`
	Body struct {
		ActorID string `json:"actor_id" minLength:"1" doc:"Acting user ID"`
	}
}

type DistributeOutput struct {
	Body []DistributionRowResponse
}

type GetDistributionInput struct {
	ID string `path:"id" doc:"Tournament ID"`
}

type GetDistributionOutput struct {
	Body []DistributionRowResponse
}

// --- Transfer callback ---

type TransferResultInput struct {
	Ref  string `path:"ref" doc:"Gateway transfer reference"`
	Body struct {
		Succeeded bool `json:"succeeded" doc:"Whether the payout cleared"`
	}
}

type TransferResultOutput struct {
	Body struct {
		Applied bool `json:"applied" doc:"False when the callback was a replay"`
	}
}

// Register adds all tournament API routes to the Huma API.
func Register(api huma.API, svc *app.TournamentService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tournament",
		Method:      http.MethodPost,
		Path:        "/api/v1/tournaments",
		Summary:     "Create a new tournament",
		Tags:        []string{"Tournaments"},
	}, func(ctx context.Context, input *CreateTournamentInput) (*CreateTournamentOutput, error) {
		tournament, err := svc.Create(ctx, input.Body.OrganizerID, input.Body.Name,
			input.Body.MaxParticipants, input.Body.EntryFeeCents, input.Body.PrizePoolCents,
			domain.Scheme(input.Body.Scheme), input.Body.StartDate)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateTournamentOutput{Body: toTournamentResponse(tournament)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tournament",
		Method:      http.MethodGet,
		Path:        "/api/v1/tournaments/{id}",
		Summary:     "Get a tournament by ID",
		Tags:        []string{"Tournaments"},
	}, func(ctx context.Context, input *GetTournamentInput) (*GetTournamentOutput, error) {
		tournament, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTournamentOutput{Body: toTournamentResponse(tournament)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tournaments",
		Method:      http.MethodGet,
		Path:        "/api/v1/tournaments",
		Summary:     "List tournaments",
		Tags:        []string{"Tournaments"},
	}, func(ctx context.Context, input *ListTournamentsInput) (*ListTournamentsOutput, error) {
		filter := domain.ListFilter{
			OrganizerID: input.OrganizerID,
			Limit:       input.Limit,
			Offset:      input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		tournaments, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TournamentResponse, len(tournaments))
		for i, t := range tournaments {
			resp[i] = toTournamentResponse(t)
		}
		return &ListTournamentsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-tournament",
		Method:      http.MethodPost,
		Path:        "/api/v1/tournaments/{id}/events",
		Summary:     "Trigger a lifecycle event",
		Tags:        []string{"Tournaments"},
	}, func(ctx context.Context, input *TransitionInput) (*TransitionOutput, error) {
		var tournament domain.Tournament
		var err error

		switch domain.Event(input.Body.Event) {
		case domain.EventPublish:
			tournament, err = svc.Publish(ctx, input.ID)
		case domain.EventStart:
			tournament, err = svc.Start(ctx, input.ID, input.Body.ActorID)
		case domain.EventComplete:
			tournament, err = svc.Complete(ctx, input.ID, input.Body.ActorID)
		case domain.EventCancel:
			tournament, err = svc.Cancel(ctx, input.ID, input.Body.ActorID)
		default:
			return nil, huma.Error422UnprocessableEntity("unknown event")
		}
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TransitionOutput{Body: toTournamentResponse(tournament)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-participants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tournaments/{id}/participants",
		Summary:     "List a tournament's roster",
		Tags:        []string{"Registration"},
	}, func(ctx context.Context, input *ListParticipantsInput) (*ListParticipantsOutput, error) {
		participants, err := svc.Participants(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ParticipantResponse, len(participants))
		for i, p := range participants {
			resp[i] = toParticipantResponse(p)
		}
		return &ListParticipantsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "register-team",
		Method:        http.MethodPost,
		Path:          "/api/v1/tournaments/{id}/registrations",
		Summary:       "Register a team",
		Tags:          []string{"Registration"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		result, err := svc.Register(ctx, input.ID, input.Body.TeamID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &RegisterOutput{}
		if result.Pending() {
			out.Body.Status = "payment_pending"
			out.Body.PaymentRef = result.Payment.Ref
			out.Body.AmountCents = result.Payment.AmountCents
		} else {
			out.Body.Status = "registered"
			p := toParticipantResponse(*result.Participant)
			out.Body.Participant = &p
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/payments/{ref}/confirm",
		Summary:     "Payment gateway success callback",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *PaymentCallbackInput) (*ConfirmPaymentOutput, error) {
		participant, err := svc.ConfirmPayment(ctx, input.Ref)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ConfirmPaymentOutput{Body: toParticipantResponse(participant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "fail-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/payments/{ref}/fail",
		Summary:     "Payment gateway failure callback",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *PaymentCallbackInput) (*FailPaymentOutput, error) {
		if err := svc.FailPayment(ctx, input.Ref); err != nil {
			return nil, toHumaError(err)
		}
		out := &FailPaymentOutput{}
		out.Body.Status = string(domain.PaymentFailed)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-placement",
		Method:      http.MethodPut,
		Path:        "/api/v1/tournaments/{id}/participants/{teamId}/placement",
		Summary:     "Assign a participant's final ranking",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *SetPlacementInput) (*SetPlacementOutput, error) {
		participant, err := svc.SetPlacement(ctx, input.ID, input.TeamID, input.Body.Placement, input.Body.ActorID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SetPlacementOutput{Body: toParticipantResponse(participant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "preview-distribution",
		Method:      http.MethodGet,
		Path:        "/api/v1/tournaments/{id}/distribution/preview",
		Summary:     "Preview the prize split without paying out",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *PreviewDistributionInput) (*PreviewDistributionOutput, error) {
		payouts, err := svc.CalculateDistribution(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &PreviewDistributionOutput{}
		for _, p := range payouts {
			out.Body = append(out.Body, struct {
				ParticipantID string `json:"participant_id" doc:"Recipient participant"`
				Placement     int    `json:"placement" doc:"Final ranking"`
				AmountCents   int64  `json:"amount_cents" doc:"Payout amount in cents"`
			}{p.ParticipantID, p.Placement, p.AmountCents})
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "distribute-prizes",
		Method:        http.MethodPost,
		Path:          "/api/v1/tournaments/{id}/distribution",
		Summary:       "Pay out the prize pool",
		Tags:          []string{"Results"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *DistributeInput) (*DistributeOutput, error) {
		rows, err := svc.Distribute(ctx, input.ID, input.Body.ActorID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]DistributionRowResponse, len(rows))
		for i, r := range rows {
			resp[i] = toDistributionRowResponse(r)
		}
		return &DistributeOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-distribution",
		Method:      http.MethodGet,
		Path:        "/api/v1/tournaments/{id}/distribution",
		Summary:     "Get the recorded prize distribution",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *GetDistributionInput) (*GetDistributionOutput, error) {
		rows, err := svc.Distribution(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]DistributionRowResponse, len(rows))
		for i, r := range rows {
			resp[i] = toDistributionRowResponse(r)
		}
		return &GetDistributionOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transfer-result",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{ref}/result",
		Summary:     "Payment gateway payout callback",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *TransferResultInput) (*TransferResultOutput, error) {
		applied, err := svc.HandleTransferResult(ctx, input.Ref, input.Body.Succeeded)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &TransferResultOutput{}
		out.Body.Applied = applied
		return out, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTournamentNotFound):
		return huma.Error404NotFound("tournament not found")
	case errors.Is(err, domain.ErrParticipantNotFound):
		return huma.Error404NotFound("participant not found")
	case errors.Is(err, domain.ErrPaymentNotFound):
		return huma.Error404NotFound("payment record not found")
	case errors.Is(err, domain.ErrPermissionDenied):
		return huma.Error403Forbidden("permission denied")
	case errors.Is(err, domain.ErrAlreadyDistributed),
		errors.Is(err, domain.ErrDistributionLocked),
		errors.Is(err, domain.ErrPaymentSettled):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidScheme),
		errors.Is(err, domain.ErrInvalidPlacement),
		errors.Is(err, domain.ErrNoPrizePool),
		errors.Is(err, domain.ErrNoRankedParticipants):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var dupReg *domain.AlreadyRegisteredError
	if errors.As(err, &dupReg) {
		return huma.Error409Conflict(dupReg.Error())
	}

	var capErr *domain.CapacityExceededError
	if errors.As(err, &capErr) {
		// The refund obligation rides in the error detail.
		return huma.Error409Conflict(capErr.Error())
	}

	var dupPlace *domain.DuplicatePlacementError
	if errors.As(err, &dupPlace) {
		return huma.Error409Conflict(dupPlace.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var closedErr *domain.RegistrationClosedError
	if errors.As(err, &closedErr) {
		return huma.Error422UnprocessableEntity(closedErr.Error())
	}

	var stateErr *domain.InvalidStateError
	if errors.As(err, &stateErr) {
		return huma.Error422UnprocessableEntity(stateErr.Error())
	}

	var fewErr *domain.InsufficientParticipantsError
	if errors.As(err, &fewErr) {
		return huma.Error422UnprocessableEntity(fewErr.Error())
	}

	var smallErr *domain.InsufficientCapacityError
	if errors.As(err, &smallErr) {
		return huma.Error422UnprocessableEntity(smallErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
