package credits

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
)

// Policy decides the starting balance of newly provisioned accounts.
type Policy struct {
	AccountCredits int
	AdminCredits   int
	// AdminEmail is granted admin rights on first sign-in. Empty disables it.
	AdminEmail string
}

// IsBootstrapAdmin reports whether email belongs to the configured admin.
func (p Policy) IsBootstrapAdmin(email string) bool {
	admin := strings.TrimSpace(p.AdminEmail)
	return admin != "" && strings.EqualFold(admin, strings.TrimSpace(email))
}

// Ledger owns the persistent balances of authenticated accounts.
type Ledger struct {
	repo   credit.Repository
	policy Policy
	now    func() time.Time
}

// NewLedger creates a ledger over repo.
func NewLedger(repo credit.Repository, policy Policy) *Ledger {
	return &Ledger{repo: repo, policy: policy, now: func() time.Time { return time.Now().UTC() }}
}

// Policy returns the provisioning policy in effect.
func (l *Ledger) Policy() Policy {
	return l.policy
}

// Ensure returns the profile for id, creating it on first use.
func (l *Ledger) Ensure(ctx context.Context, id credit.Identity) (credit.Account, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return credit.Account{}, apperr.Validation("user id is required")
	}

	account, err := l.repo.FindByUserID(ctx, id.UserID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return credit.Account{}, err
	}

	fresh := credit.Account{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Email:     id.Email,
		FullName:  id.FullName,
		Credits:   l.policy.AccountCredits,
		CreatedAt: l.now(),
	}
	if l.policy.IsBootstrapAdmin(id.Email) {
		fresh.Credits = l.policy.AdminCredits
		fresh.IsAdmin = true
	}

	account, err = l.repo.CreateIfAbsent(ctx, fresh)
	if err != nil {
		return credit.Account{}, err
	}
	if account.ID == fresh.ID {
		log.Printf("[ledger] provisioned profile user=%s credits=%d admin=%v", account.UserID, account.Credits, account.IsAdmin)
	}
	return account, nil
}

// FetchBalance returns the current balance, provisioning the profile first.
func (l *Ledger) FetchBalance(ctx context.Context, id credit.Identity) (int, error) {
	account, err := l.Ensure(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.Credits, nil
}

// Debit removes one credit and records a reply transaction. ok is false,
// with no mutation, when the balance is already zero.
func (l *Ledger) Debit(ctx context.Context, id credit.Identity) (balance int, ok bool, err error) {
	if _, err := l.Ensure(ctx, id); err != nil {
		return 0, false, err
	}

	account, ok, err := l.repo.DecrementIfPositive(ctx, id.UserID)
	if err != nil {
		return 0, false, err
	}
	return account.Credits, ok, nil
}

// SetBalance overwrites a balance and records the signed adjustment.
func (l *Ledger) SetBalance(ctx context.Context, userID string, credits int) (credit.Account, error) {
	if credits < 0 {
		return credit.Account{}, apperr.Validation("credits must be a non-negative integer")
	}
	return l.repo.SetCredits(ctx, userID, credits)
}
