package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/internal/service/credits"
)

// DefaultTransactionLimit bounds the recent transactions view.
const DefaultTransactionLimit = 50

// Service exposes admin-only account operations. Every call re-reads the
// caller's profile and checks the admin flag before doing anything else.
type Service struct {
	repo   credit.Repository
	ledger *credits.Ledger
}

// NewService creates an admin service.
func NewService(repo credit.Repository, ledger *credits.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// ListAccounts returns every profile, newest first.
func (s *Service) ListAccounts(ctx context.Context, caller credit.Identity) ([]credit.Account, error) {
	if err := s.authorize(ctx, caller); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// SetCredits overwrites the target's balance.
func (s *Service) SetCredits(ctx context.Context, caller credit.Identity, targetUserID string, credits int) (credit.Account, error) {
	if err := s.authorize(ctx, caller); err != nil {
		return credit.Account{}, err
	}
	account, err := s.ledger.SetBalance(ctx, targetUserID, credits)
	if err != nil {
		return credit.Account{}, err
	}
	log.Printf("[admin] %s set credits of %s to %d", caller.UserID, targetUserID, credits)
	return account, nil
}

// ToggleAdmin flips the target's admin flag. Callers may toggle themselves.
func (s *Service) ToggleAdmin(ctx context.Context, caller credit.Identity, targetUserID string) (credit.Account, error) {
	if err := s.authorize(ctx, caller); err != nil {
		return credit.Account{}, err
	}
	account, err := s.repo.ToggleAdmin(ctx, targetUserID)
	if err != nil {
		return credit.Account{}, err
	}
	log.Printf("[admin] %s set admin=%v on %s", caller.UserID, account.IsAdmin, targetUserID)
	return account, nil
}

// RecentTransactions returns the newest ledger entries.
func (s *Service) RecentTransactions(ctx context.Context, caller credit.Identity, limit int) ([]credit.Transaction, error) {
	if err := s.authorize(ctx, caller); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	return s.repo.ListTransactions(ctx, limit)
}

// authorize only reads, except for the configured bootstrap admin whose
// profile is provisioned on first visit.
func (s *Service) authorize(ctx context.Context, caller credit.Identity) error {
	if strings.TrimSpace(caller.UserID) == "" {
		return apperr.Authorization("sign-in required")
	}

	account, err := s.repo.FindByUserID(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) && s.ledger.Policy().IsBootstrapAdmin(caller.Email) {
		account, err = s.ledger.Ensure(ctx, caller)
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return apperr.Authorization("caller has no profile")
	case err != nil:
		return err
	case !account.IsAdmin:
		log.Printf("[admin] denied non-admin caller %s", caller.UserID)
		return apperr.Authorization("admin access required")
	}
	return nil
}

// ParseCredits turns user input into a credit amount. It accepts integral
// numbers only, so "12.5", "-1" and "ten" are all rejected.
func ParseCredits(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperr.Validation("credits value is required")
	}

	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, apperr.Validation("credits must be a non-negative integer")
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, apperr.Validation(fmt.Sprintf("invalid credits value %q", raw))
	}
	return int(f), nil
}
