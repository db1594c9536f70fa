package reply

import (
	"log"
	"net/http"

	"github.com/zhouzirui/rizzmate/backend/internal/handler/httperr"
	"github.com/zhouzirui/rizzmate/backend/internal/middleware"
	"github.com/zhouzirui/rizzmate/backend/internal/service/orchestrator"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

// StateEvent is sent for every orchestrator transition.
type StateEvent struct {
	State orchestrator.State `json:"state"`
}

// stateStream buffers transitions until generation starts. Until then the
// guest cookie may still change and the response may still be a plain
// JSON error, so no header is written earlier.
type stateStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	pending []orchestrator.State
	open    bool
}

func (s *stateStream) observe(state orchestrator.State) {
	if !s.open {
		s.pending = append(s.pending, state)
		if state == orchestrator.StateGenerating {
			s.start()
		}
		return
	}
	utils.SendSSEEvent(s.w, s.flusher, "state", StateEvent{State: state})
}

func (s *stateStream) start() {
	utils.SetupSSEHeaders(s.w)
	s.w.WriteHeader(http.StatusOK)
	s.open = true
	for _, state := range s.pending {
		utils.SendSSEEvent(s.w, s.flusher, "state", StateEvent{State: state})
	}
	s.pending = nil
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

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

	stream := &stateStream{w: w, flusher: flusher}
	res, err := h.submitter.Submit(r.Context(), actor, sub, stream.observe)

	if !stream.open {
		switch {
		case err != nil:
			httperr.Write(w, err)
		case res.State == orchestrator.StateExhausted:
			httperr.WriteExhausted(w, res.Signal)
		default:
			utils.RespondJSON(w, http.StatusOK, toResponse(res))
		}
		return
	}

	if err != nil {
		_, msg := httperr.Status(err)
		log.Printf("[stream] reply failed actor=%s: %v", actor.Kind(), err)
		utils.SendSSEEvent(w, flusher, "error", map[string]any{"error": msg, "credits": res.Remaining})
		return
	}
	utils.SendSSEEvent(w, flusher, "result", toResponse(res))
}
