package domain

import (
	"sort"
	"time"
)

// PayoutStatus tracks the settlement of a single prize distribution row.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
	PayoutFailed  PayoutStatus = "failed"
)

// PrizeDistribution is one placement's share of the prize pool. The full set
// for a tournament is created in bulk, exactly once; status is updated later
// by payment gateway callbacks.
type PrizeDistribution struct {
	ID            string
	TournamentID  string
	ParticipantID string
	Placement     int
	AmountCents   int64
	Status        PayoutStatus
	// TransferRef is the gateway's transfer reference, set once a payout
	// has been issued.
	TransferRef string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// schemeShares maps placement to share of the pool in basis points.
// Basis points keep the top5 half-percent shares in integer arithmetic.
var schemeShares = map[Scheme]map[int]int64{
	SchemeWinnerTakesAll: {1: 10000},
	SchemeTop3:           {1: 6000, 2: 2500, 3: 1500},
	SchemeTop5:           {1: 5000, 2: 2500, 3: 1250, 4: 750, 5: 500},
}

// Shares returns the placement → basis-points table for the scheme.
func (s Scheme) Shares() map[int]int64 {
	return schemeShares[s]
}

// Payout is one line of a calculated distribution: who gets how much for
// which placement.
type Payout struct {
	ParticipantID string
	Placement     int
	AmountCents   int64
}

// CalculateDistribution computes the prize split for the given tournament
// over its participants. Only participants with a non-nil placement that the
// scheme ranks are paid; a top3 tournament with two ranked participants
// distributes first and second only. Amounts round half-up on the pool share,
// so the total never exceeds the pool by more than integer rounding.
func CalculateDistribution(t Tournament, participants []Participant) ([]Payout, error) {
	if t.PrizePoolCents == 0 {
		return nil, ErrNoPrizePool
	}

	ranked := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.Placement != nil {
			ranked = append(ranked, p)
		}
	}
	if len(ranked) == 0 {
		return nil, ErrNoRankedParticipants
	}
	sort.Slice(ranked, func(i, j int) bool {
		return *ranked[i].Placement < *ranked[j].Placement
	})

	shares := t.Scheme.Shares()
	payouts := make([]Payout, 0, len(ranked))
	for _, p := range ranked {
		bps, ok := shares[*p.Placement]
		if !ok {
			continue
		}
		payouts = append(payouts, Payout{
			ParticipantID: p.ID,
			Placement:     *p.Placement,
			AmountCents:   roundHalfUp(t.PrizePoolCents, bps),
		})
	}
	if len(payouts) == 0 {
		return nil, ErrNoRankedParticipants
	}
	return payouts, nil
}

// roundHalfUp computes pool × bps / 10000 with round-half-up semantics.
// Both operands are non-negative, so integer truncation after adding half
// the divisor is exact.
func roundHalfUp(pool, bps int64) int64 {
	return (pool*bps + 5000) / 10000
}
