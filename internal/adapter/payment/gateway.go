// Package payment provides a development payment gateway. It mints intent and
// transfer references locally and reports every operation as successful; a
// production deployment replaces it with a real processor adapter behind the
// same port.
package payment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/progrid/progrid/internal/domain"
)

// Compile-time check: DevGateway implements domain.PaymentGateway.
var _ domain.PaymentGateway = (*DevGateway)(nil)

// DevGateway is an in-process stand-in for a payment processor.
type DevGateway struct{}

// NewDevGateway creates a development gateway.
func NewDevGateway() *DevGateway {
	return &DevGateway{}
}

// CreateIntent mints an entry-fee intent reference. The caller settles it
// later through the payment callbacks.
func (g *DevGateway) CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (string, error) {
	ref := "pi_" + uuid.NewString()
	slog.InfoContext(ctx, "payment intent created",
		"ref", ref,
		"amount_cents", amountCents,
		"tournament_id", metadata["tournament_id"],
		"team_id", metadata["team_id"],
	)
	return ref, nil
}

// Transfer issues a prize payout and returns its transfer reference. The
// outcome arrives later through the transfer-result callback.
func (g *DevGateway) Transfer(ctx context.Context, amountCents int64, destination string, metadata map[string]string) (string, error) {
	ref := "tr_" + uuid.NewString()
	slog.InfoContext(ctx, "payout transfer issued",
		"ref", ref,
		"amount_cents", amountCents,
		"destination", destination,
		"tournament_id", metadata["tournament_id"],
	)
	return ref, nil
}
