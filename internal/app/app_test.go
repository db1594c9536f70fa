package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zhouzirui/rizzmate/backend/internal/auth/authtest"
	"github.com/zhouzirui/rizzmate/backend/internal/config"
	"github.com/zhouzirui/rizzmate/backend/internal/middleware"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/internal/service/gateway"
	"github.com/zhouzirui/rizzmate/backend/internal/store"
)

func testConfig(t *testing.T, gatewayURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{Addr: ":0", AllowedOrigins: []string{"http://localhost:5173"}},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"},
		Auth:     config.AuthConfig{Disabled: true},
		Credits:  config.CreditsConfig{GuestDefault: 5, AccountDefault: 100, AdminDefault: 1000},
		Gateway: config.GatewayConfig{
			URL:             gatewayURL,
			Provider:        "openrouter",
			OpenRouterModel: "test-model",
		},
	}
}

type fakeGateway struct {
	*httptest.Server
	reply string
	fail  atomic.Bool
	calls atomic.Int32
}

func newFakeGateway(t *testing.T, reply string) *fakeGateway {
	t.Helper()
	g := &fakeGateway{reply: reply}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.calls.Add(1)
		var req gateway.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(gateway.Response{Error: "Prompt is required"})
			return
		}
		if g.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(gateway.Response{Error: "upstream unavailable"})
			return
		}
		_ = json.NewEncoder(w).Encode(gateway.Response{Response: g.reply, Success: true})
	}))
	t.Cleanup(g.Close)
	return g
}

func buildWith(t *testing.T, cfg *config.Config) (*App, *gorm.DB) {
	t.Helper()
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	a, err := Build(context.Background(), cfg, db)
	require.NoError(t, err)
	return a, db
}

func build(t *testing.T, gatewayURL string) *App {
	t.Helper()
	a, _ := buildWith(t, testConfig(t, gatewayURL))
	return a
}

func postReply(t *testing.T, h http.Handler, token string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"text": "they said hi", "tone": "funny"})
	req := httptest.NewRequest(http.MethodPost, "/api/replies", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func guestCookie(resp *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.GuestCookieName {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	a := build(t, "")
	resp := httptest.NewRecorder()
	a.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestGuestReplySpendsCookieCredit(t *testing.T) {
	a := build(t, newFakeGateway(t, "Tell me more 😄").URL)

	resp := postReply(t, a.Router, "", &http.Cookie{Name: middleware.GuestCookieName, Value: "1"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"reply":"Tell me more 😄","credits":0,"promptSignUp":true}`, resp.Body.String())

	cookie := guestCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, "0", cookie.Value)

	resp = postReply(t, a.Router, "", cookie)
	assert.Equal(t, http.StatusPaymentRequired, resp.Code)
}

func TestFirstGuestVisitSendsSingleCookie(t *testing.T) {
	a := build(t, newFakeGateway(t, "hey").URL)

	resp := postReply(t, a.Router, "", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	setCookies := resp.Result().Header.Values("Set-Cookie")
	require.Len(t, setCookies, 1)
	assert.Equal(t, "4", guestCookie(resp).Value)
}

func TestAccountRepliesUseStoredLedger(t *testing.T) {
	key := authtest.NewKey(t)
	upstream := newFakeGateway(t, "lol nice")

	cfg := testConfig(t, upstream.URL)
	cfg.Auth = config.AuthConfig{Issuer: authtest.Issuer, JWKSURL: authtest.ServeJWKS(t, key)}
	cfg.Credits.AccountDefault = 2
	a, db := buildWith(t, cfg)
	repo := store.NewProfileRepository(db)
	token := key.Sign(t, authtest.Issuer, "user_1", "one@example.com", "One")
	ctx := context.Background()

	// generation fails after charging: the debit and its record stay
	upstream.fail.Store(true)
	resp := postReply(t, a.Router, token, nil)
	require.Equal(t, http.StatusBadGateway, resp.Code, resp.Body.String())
	assert.Nil(t, guestCookie(resp))

	account, err := repo.FindByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 1, account.Credits)
	txs, err := repo.ListTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, credit.ActionReplyGeneration, txs[0].ActionType)
	assert.Equal(t, 1, txs[0].CreditsUsed)

	upstream.fail.Store(false)
	resp = postReply(t, a.Router, token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"reply":"lol nice","credits":0,"promptSignUp":false}`, resp.Body.String())

	txs, err = repo.ListTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, "user_1", tx.UserID)
		assert.Equal(t, credit.ActionReplyGeneration, tx.ActionType)
	}

	calls := upstream.calls.Load()
	resp = postReply(t, a.Router, token, nil)
	require.Equal(t, http.StatusPaymentRequired, resp.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "account_exhausted", body["signal"])
	assert.Equal(t, calls, upstream.calls.Load())

	account, err = repo.FindByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 0, account.Credits)
	txs, err = repo.ListTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestTonesAreServed(t *testing.T) {
	a := build(t, "")
	resp := httptest.NewRecorder()
	a.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/tones", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var tones []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tones))
	assert.Len(t, tones, 3)
}

func TestGatewayEndpointOffByDefault(t *testing.T) {
	a := build(t, "")

	body, _ := json.Marshal(gateway.Request{Prompt: "free reply please"})
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/openrouter-chat", bytes.NewReader(body))
	req.AddCookie(&http.Cookie{Name: middleware.GuestCookieName, Value: "0"})
	resp := httptest.NewRecorder()
	a.Router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGatewayEndpointWhenEnabled(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Gateway.EndpointEnabled = true
	a, _ := buildWith(t, cfg)

	resp := httptest.NewRecorder()
	a.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/functions/v1/openrouter-chat", nil))

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminRequiresAccount(t *testing.T) {
	a := build(t, "")
	resp := httptest.NewRecorder()
	a.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
