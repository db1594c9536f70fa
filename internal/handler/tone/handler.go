package tone

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/rizzmate/backend/internal/model/tone"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

// Handler serves the tone catalogue.
type Handler struct {
	tones tone.Store
}

// New 创建tone处理器
func New(tones tone.Store) *Handler {
	return &Handler{tones: tones}
}

// RegisterRoutes 注册tone相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tones", h.handleListTones)
}

func (h *Handler) handleListTones(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.tones.List())
}
