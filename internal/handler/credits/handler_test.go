package credits

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/middleware"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
)

type fakeLedger struct {
	account credit.Account
	err     error
	seen    credit.Identity
}

func (f *fakeLedger) Ensure(_ context.Context, id credit.Identity) (credit.Account, error) {
	f.seen = id
	return f.account, f.err
}

func setupRouter(ledger Provisioner) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.ResolveActor(middleware.ActorConfig{GuestCreditsStart: 5}))
	New(ledger).RegisterRoutes(r)
	return r
}

func withAccount(id credit.Identity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithActor(r.Context(), credit.AccountActor(id))))
	})
}

func TestGuestBalanceInitialisesCookie(t *testing.T) {
	r := setupRouter(&fakeLedger{})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/credits", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body BalanceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, BalanceResponse{Actor: "guest", Credits: 5}, body)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.GuestCookieName, cookies[0].Name)
	assert.Equal(t, "5", cookies[0].Value)
}

func TestGuestBalanceFromCookie(t *testing.T) {
	r := setupRouter(&fakeLedger{})
	req := httptest.NewRequest(http.MethodGet, "/credits", nil)
	req.AddCookie(&http.Cookie{Name: middleware.GuestCookieName, Value: "2"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var body BalanceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Credits)
}

func TestAccountBalanceProvisions(t *testing.T) {
	ledger := &fakeLedger{account: credit.Account{UserID: "user_1", Credits: 100}}
	id := credit.Identity{UserID: "user_1", Email: "u@example.com"}

	r := chi.NewRouter()
	New(ledger).RegisterRoutes(r)
	resp := httptest.NewRecorder()
	withAccount(id, r).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/credits", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body BalanceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, BalanceResponse{Actor: "account", UserID: "user_1", Credits: 100}, body)
	assert.Equal(t, id, ledger.seen)
}

func TestAccountBalanceStoreFailure(t *testing.T) {
	ledger := &fakeLedger{err: apperr.Persistence("find profile", errors.New("db down"))}

	r := chi.NewRouter()
	New(ledger).RegisterRoutes(r)
	resp := httptest.NewRecorder()
	withAccount(credit.Identity{UserID: "user_1"}, r).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/credits", nil))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotContains(t, resp.Body.String(), "db down")
}
