package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
)

// ProfileRepository is the gorm implementation of credit.Repository.
type ProfileRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ credit.Repository = (*ProfileRepository)(nil)

// NewProfileRepository wraps an open, migrated database.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (credit.Account, error) {
	return findAccount(r.db.WithContext(ctx), userID)
}

func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, account credit.Account) (credit.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = r.now()
	}

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&account).Error
	if err != nil {
		return credit.Account{}, apperr.Persistence("create profile", err)
	}

	// 并发创建时冲突的一方不会写入，重新读取存储中的那一行。
	return findAccount(db, account.UserID)
}

func (r *ProfileRepository) DecrementIfPositive(ctx context.Context, userID string) (credit.Account, bool, error) {
	var (
		updated credit.Account
		ok      bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&credit.Account{}).
			Where("user_id = ? AND credits > 0", userID).
			UpdateColumn("credits", gorm.Expr("credits - ?", 1))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 1 {
			ok = true
			entry := credit.Transaction{
				ID:          uuid.NewString(),
				UserID:      userID,
				CreditsUsed: 1,
				ActionType:  credit.ActionReplyGeneration,
				CreatedAt:   r.now(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		return tx.First(&updated, "user_id = ?", userID).Error
	})
	if err != nil {
		return credit.Account{}, false, translate("debit credits", userID, err)
	}
	return updated, ok, nil
}

func (r *ProfileRepository) SetCredits(ctx context.Context, userID string, credits int) (credit.Account, error) {
	if credits < 0 {
		return credit.Account{}, apperr.Validation("credits must not be negative")
	}

	var account credit.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, "user_id = ?", userID).Error; err != nil {
			return err
		}

		previous := account.Credits
		if err := tx.Model(&credit.Account{}).Where("id = ?", account.ID).UpdateColumn("credits", credits).Error; err != nil {
			return err
		}
		account.Credits = credits

		entry := credit.Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			CreditsUsed: previous - credits,
			ActionType:  credit.ActionAdminAdjustment,
			CreatedAt:   r.now(),
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return credit.Account{}, translate("set credits", userID, err)
	}
	return account, nil
}

func (r *ProfileRepository) ToggleAdmin(ctx context.Context, userID string) (credit.Account, error) {
	var account credit.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&credit.Account{}).
			Where("user_id = ?", userID).
			UpdateColumn("is_admin", gorm.Expr("NOT is_admin"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&account, "user_id = ?", userID).Error
	})
	if err != nil {
		return credit.Account{}, translate("toggle admin", userID, err)
	}
	return account, nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]credit.Account, error) {
	var accounts []credit.Account
	if err := r.db.WithContext(ctx).Order("created_at desc").Order("id").Find(&accounts).Error; err != nil {
		return nil, apperr.Persistence("list profiles", err)
	}
	return accounts, nil
}

func (r *ProfileRepository) ListTransactions(ctx context.Context, limit int) ([]credit.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []credit.Transaction
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, apperr.Persistence("list transactions", err)
	}
	return entries, nil
}

func findAccount(db *gorm.DB, userID string) (credit.Account, error) {
	var account credit.Account
	if err := db.First(&account, "user_id = ?", userID).Error; err != nil {
		return credit.Account{}, translate("find profile", userID, err)
	}
	return account, nil
}

func translate(op, userID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: profile %s: %w", op, userID, apperr.ErrNotFound)
	}
	return apperr.Persistence(op, err)
}
