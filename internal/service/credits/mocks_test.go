package credits

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FindByUserID(ctx context.Context, userID string) (credit.Account, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(credit.Account), args.Error(1)
}

func (m *mockRepository) CreateIfAbsent(ctx context.Context, account credit.Account) (credit.Account, error) {
	args := m.Called(ctx, account)
	if fn, ok := args.Get(0).(func(context.Context, credit.Account) credit.Account); ok {
		return fn(ctx, account), args.Error(1)
	}
	return args.Get(0).(credit.Account), args.Error(1)
}

func (m *mockRepository) DecrementIfPositive(ctx context.Context, userID string) (credit.Account, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(credit.Account), args.Bool(1), args.Error(2)
}

func (m *mockRepository) SetCredits(ctx context.Context, userID string, credits int) (credit.Account, error) {
	args := m.Called(ctx, userID, credits)
	return args.Get(0).(credit.Account), args.Error(1)
}

func (m *mockRepository) ToggleAdmin(ctx context.Context, userID string) (credit.Account, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(credit.Account), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context) ([]credit.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]credit.Account), args.Error(1)
}

func (m *mockRepository) ListTransactions(ctx context.Context, limit int) ([]credit.Transaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]credit.Transaction), args.Error(1)
}

type mockDebiter struct {
	mock.Mock
}

func (m *mockDebiter) Debit(ctx context.Context, id credit.Identity) (int, bool, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Bool(1), args.Error(2)
}
