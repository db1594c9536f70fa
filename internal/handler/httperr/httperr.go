// Package httperr maps service errors onto HTTP responses.
package httperr

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/service/orchestrator"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

const (
	GenerationFailedMessage = "Analysis failed. Please try again or check your connection."
	GuestExhaustedMessage   = "You've used all your free credits! Sign up now to get 100 more credits."
	AccountExhaustedMessage = "You've used all your credits. Contact an admin to get more."
	accessDeniedMessage     = "Access denied. Admin privileges required."
	internalMessage         = "Something went wrong. Please try again."
)

// Status returns the HTTP status and public message for err.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, publicValidation(err)
	case errors.Is(err, apperr.ErrAuthorization):
		return http.StatusForbidden, accessDeniedMessage
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, apperr.ErrGeneration):
		return http.StatusBadGateway, GenerationFailedMessage
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

// Write sends the error response for err. Upstream detail is only logged.
func Write(w http.ResponseWriter, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %d: %v", status, err)
	}
	if status == http.StatusForbidden {
		utils.RespondErrorWith(w, status, msg, map[string]any{"redirect": "/"})
		return
	}
	utils.RespondError(w, status, msg)
}

// WriteExhausted sends 402 with the signal the client uses to pick a prompt.
func WriteExhausted(w http.ResponseWriter, signal orchestrator.Signal) {
	msg := AccountExhaustedMessage
	if signal == orchestrator.SignalGuestExhausted {
		msg = GuestExhaustedMessage
	}
	utils.RespondErrorWith(w, http.StatusPaymentRequired, msg, map[string]any{
		"signal":  signal,
		"credits": 0,
	})
}

func publicValidation(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, apperr.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(apperr.ErrValidation.Error())+2:]
	}
	return msg
}
