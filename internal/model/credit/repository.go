package credit

import "context"

// Repository is the record store behind the account ledger. Implementations
// return errors wrapping apperr.ErrNotFound for missing profiles and
// apperr.ErrPersistence for store failures.
type Repository interface {
	FindByUserID(ctx context.Context, userID string) (Account, error)
	// CreateIfAbsent inserts account unless a profile for the same user
	// already exists, and returns whichever row is stored.
	CreateIfAbsent(ctx context.Context, account Account) (Account, error)
	// DecrementIfPositive removes one credit and records a reply transaction
	// in one atomic step. ok is false when the balance was already zero.
	DecrementIfPositive(ctx context.Context, userID string) (account Account, ok bool, err error)
	// SetCredits overwrites the balance and records the adjustment.
	SetCredits(ctx context.Context, userID string, credits int) (Account, error)
	ToggleAdmin(ctx context.Context, userID string) (Account, error)
	// List returns every profile, newest first.
	List(ctx context.Context) ([]Account, error)
	ListTransactions(ctx context.Context, limit int) ([]Transaction, error)
}
