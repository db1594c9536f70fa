package credit

import "time"

// ActionType labels a ledger transaction.
type ActionType string

const (
	ActionReplyGeneration ActionType = "reply_generation"
	ActionAdminAdjustment ActionType = "admin_adjustment"
)

// Account is the persistent credit profile of an authenticated user.
type Account struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(128);uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"type:varchar(320)"`
	FullName  string    `json:"fullName" gorm:"type:varchar(255)"`
	Credits   int       `json:"credits" gorm:"not null;check:chk_profiles_credits,credits >= 0"`
	IsAdmin   bool      `json:"isAdmin" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// TableName pins the gorm table name.
func (Account) TableName() string { return "profiles" }

// Transaction is an append-only ledger entry. CreditsUsed is 1 for a reply
// and old-minus-new for an admin adjustment, so it may be negative.
type Transaction struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string     `json:"userId" gorm:"type:varchar(128);index;not null"`
	CreditsUsed int        `json:"creditsUsed" gorm:"not null"`
	ActionType  ActionType `json:"actionType" gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index"`
}

func (Transaction) TableName() string { return "credit_transactions" }
