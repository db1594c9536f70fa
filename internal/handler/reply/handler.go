package reply

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/handler/httperr"
	"github.com/zhouzirui/rizzmate/backend/internal/middleware"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
	"github.com/zhouzirui/rizzmate/backend/internal/service/orchestrator"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

// MaxImageBytes caps an uploaded screenshot.
const MaxImageBytes = 10 << 20

// Submitter runs one reply request.
type Submitter interface {
	Submit(ctx context.Context, actor credit.Actor, sub orchestrator.Submission, observe orchestrator.Observer) (orchestrator.Result, error)
}

// Handler serves reply generation.
type Handler struct {
	submitter Submitter
}

// New creates a reply handler.
func New(submitter Submitter) *Handler {
	return &Handler{submitter: submitter}
}

// RegisterRoutes 注册回复生成路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/replies", h.handleCreate)
	r.Post("/replies/stream", h.handleStream)
}

// CreateRequest is the JSON body of a reply request. Image is base64 and may
// carry a data URL prefix.
type CreateRequest struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
	Tone  string `json:"tone"`
}

// CreateResponse is returned when a reply was generated.
type CreateResponse struct {
	Reply        string `json:"reply"`
	Credits      int    `json:"credits"`
	PromptSignUp bool   `json:"promptSignUp"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "actor unavailable")
		return
	}

	sub, err := parseSubmission(w, r)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	res, err := h.submitter.Submit(r.Context(), actor, sub, nil)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if res.State == orchestrator.StateExhausted {
		httperr.WriteExhausted(w, res.Signal)
		return
	}

	utils.RespondJSON(w, http.StatusOK, toResponse(res))
}

func toResponse(res orchestrator.Result) CreateResponse {
	return CreateResponse{Reply: res.Reply, Credits: res.Remaining, PromptSignUp: res.PromptSignUpNext}
}

func parseSubmission(w http.ResponseWriter, r *http.Request) (orchestrator.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*MaxImageBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return parseMultipart(r)
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return orchestrator.Submission{}, apperr.Validation("invalid request body")
	}

	sub := orchestrator.Submission{Text: req.Text, Tone: req.Tone}
	if req.Image != "" {
		encoded := req.Image
		if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
			encoded = encoded[i+1:]
		}
		image, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return orchestrator.Submission{}, apperr.Validation("image must be base64 encoded")
		}
		if len(image) > MaxImageBytes {
			return orchestrator.Submission{}, apperr.Validation("image is too large")
		}
		sub.Image = image
	}
	return sub, nil
}

func parseMultipart(r *http.Request) (orchestrator.Submission, error) {
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		return orchestrator.Submission{}, apperr.Validation("invalid multipart form")
	}

	sub := orchestrator.Submission{Text: r.FormValue("text"), Tone: r.FormValue("tone")}

	file, header, err := r.FormFile("screenshot")
	if errors.Is(err, http.ErrMissingFile) {
		return sub, nil
	}
	if err != nil {
		return orchestrator.Submission{}, apperr.Validation("invalid screenshot upload")
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return orchestrator.Submission{}, apperr.Validation("please upload an image file")
	}
	image, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return orchestrator.Submission{}, apperr.Validation("invalid screenshot upload")
	}
	if len(image) > MaxImageBytes {
		return orchestrator.Submission{}, apperr.Validation("image is too large")
	}
	sub.Image = image
	return sub, nil
}
