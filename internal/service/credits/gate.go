package credits

import (
	"context"
	"log"

	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
)

// Outcome is the result of a credit check.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeGuestExhausted
	OutcomeAccountExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGuestExhausted:
		return "guest_exhausted"
	case OutcomeAccountExhausted:
		return "account_exhausted"
	default:
		return "ok"
	}
}

// Consumption reports what Consume did.
type Consumption struct {
	Outcome   Outcome
	Remaining int
	// PromptSignUp is set when a guest just spent their last credit.
	PromptSignUp bool
}

// Debiter is the part of the ledger the gate depends on.
type Debiter interface {
	Debit(ctx context.Context, id credit.Identity) (balance int, ok bool, err error)
}

// Gate charges one credit per generation attempt from the right source.
type Gate struct {
	ledger Debiter
}

// NewGate creates a gate charging accounts through ledger.
func NewGate(ledger Debiter) *Gate {
	return &Gate{ledger: ledger}
}

// Consume spends one credit for actor. Exhaustion is reported in the
// outcome, errors only for store failures.
func (g *Gate) Consume(ctx context.Context, actor credit.Actor) (Consumption, error) {
	if actor.IsGuest() {
		return consumeGuest(actor.GuestStore()), nil
	}

	id := actor.Identity()
	balance, ok, err := g.ledger.Debit(ctx, id)
	if err != nil {
		return Consumption{}, err
	}
	if !ok {
		log.Printf("[gate] account %s has no credits left", id.UserID)
		return Consumption{Outcome: OutcomeAccountExhausted}, nil
	}
	return Consumption{Outcome: OutcomeOK, Remaining: balance}, nil
}

func consumeGuest(store credit.GuestStore) Consumption {
	current := store.Get()
	if current <= 0 {
		return Consumption{Outcome: OutcomeGuestExhausted}
	}

	remaining := current - 1
	store.Set(remaining)
	return Consumption{
		Outcome:      OutcomeOK,
		Remaining:    remaining,
		PromptSignUp: remaining == 0,
	}
}
