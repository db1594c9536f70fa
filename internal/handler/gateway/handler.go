package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	gatewayService "github.com/zhouzirui/rizzmate/backend/internal/service/gateway"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

const allowHeaders = "authorization, x-client-info, apikey, content-type"

// maxRequestBytes leaves room for a base64 screenshot.
const maxRequestBytes = 16 << 20

// Handler exposes the model gateway as an HTTP function.
type Handler struct {
	upstream gatewayService.Gateway
}

// New creates a gateway handler backed by upstream.
func New(upstream gatewayService.Gateway) *Handler {
	return &Handler{upstream: upstream}
}

// RegisterRoutes 注册网关函数路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Options("/openrouter-chat", h.handlePreflight)
	r.Post("/openrouter-chat", h.handleChat)
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	var req gatewayService.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		fail(w, "Prompt is required")
		return
	}

	log.Printf("[gateway] request promptLength=%d hasContext=%v hasImage=%v", len(req.Prompt), req.Context != "", req.Image != "")

	text, err := h.upstream.Complete(r.Context(), req)
	if err != nil {
		fail(w, describe(err))
		return
	}

	utils.RespondJSON(w, http.StatusOK, gatewayService.Response{Response: text, Success: true})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func fail(w http.ResponseWriter, msg string) {
	utils.RespondJSON(w, http.StatusInternalServerError, gatewayService.Response{Error: msg, Success: false})
}

func describe(err error) string {
	var genErr *apperr.GenerationError
	if errors.As(err, &genErr) {
		if genErr.Status != 0 {
			return fmt.Sprintf("%s: %d", genErr.Reason, genErr.Status)
		}
		return genErr.Reason
	}
	return "Unknown error occurred"
}
