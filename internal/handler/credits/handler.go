package credits

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/rizzmate/backend/internal/handler/httperr"
	"github.com/zhouzirui/rizzmate/backend/internal/middleware"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

// Provisioner returns an account's profile, creating it on first use.
type Provisioner interface {
	Ensure(ctx context.Context, id credit.Identity) (credit.Account, error)
}

// Handler reports the caller's balance.
type Handler struct {
	ledger Provisioner
}

// New creates a credits handler.
func New(ledger Provisioner) *Handler {
	return &Handler{ledger: ledger}
}

// BalanceResponse is the body of GET /credits.
type BalanceResponse struct {
	Actor   string `json:"actor"`
	UserID  string `json:"userId,omitempty"`
	Credits int    `json:"credits"`
	IsAdmin bool   `json:"isAdmin"`
}

// RegisterRoutes 注册余额查询路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/credits", h.handleBalance)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "actor unavailable")
		return
	}

	if actor.IsGuest() {
		utils.RespondJSON(w, http.StatusOK, BalanceResponse{
			Actor:   actor.Kind().String(),
			Credits: actor.GuestStore().Get(),
		})
		return
	}

	account, err := h.ledger.Ensure(r.Context(), actor.Identity())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, BalanceResponse{
		Actor:   actor.Kind().String(),
		UserID:  account.UserID,
		Credits: account.Credits,
		IsAdmin: account.IsAdmin,
	})
}
