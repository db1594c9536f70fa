package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/handler/httperr"
	"github.com/zhouzirui/rizzmate/backend/internal/middleware"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	adminService "github.com/zhouzirui/rizzmate/backend/internal/service/admin"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

// Service is the admin operations the handler needs.
type Service interface {
	ListAccounts(ctx context.Context, caller credit.Identity) ([]credit.Account, error)
	SetCredits(ctx context.Context, caller credit.Identity, targetUserID string, credits int) (credit.Account, error)
	ToggleAdmin(ctx context.Context, caller credit.Identity, targetUserID string) (credit.Account, error)
	RecentTransactions(ctx context.Context, caller credit.Identity, limit int) ([]credit.Transaction, error)
}

// Handler serves the admin console API.
type Handler struct {
	service Service
}

// New creates an admin handler.
func New(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /admin. Guests get 401, non-admins 403.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.RequireAccount)
		ar.Get("/accounts", h.handleListAccounts)
		ar.Put("/accounts/{userID}/credits", h.handleSetCredits)
		ar.Post("/accounts/{userID}/toggle-admin", h.handleToggleAdmin)
		ar.Get("/transactions", h.handleTransactions)
	})
}

type setCreditsRequest struct {
	// Credits accepts a JSON number or a numeric string.
	Credits json.RawMessage `json:"credits"`
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context(), caller(r))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, accounts)
}

func (h *Handler) handleSetCredits(w http.ResponseWriter, r *http.Request) {
	var req setCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, apperr.Validation("invalid request body"))
		return
	}

	var raw string
	if err := json.Unmarshal(req.Credits, &raw); err != nil {
		raw = string(req.Credits)
	}
	credits, err := adminService.ParseCredits(raw)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	account, err := h.service.SetCredits(r.Context(), caller(r), chi.URLParam(r, "userID"), credits)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, account)
}

func (h *Handler) handleToggleAdmin(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.ToggleAdmin(r.Context(), caller(r), chi.URLParam(r, "userID"))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, account)
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := adminService.DefaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			httperr.Write(w, apperr.Validation("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	entries, err := h.service.RecentTransactions(r.Context(), caller(r), limit)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

func caller(r *http.Request) credit.Identity {
	actor, _ := middleware.ActorFromContext(r.Context())
	return actor.Identity()
}
