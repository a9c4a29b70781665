package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"chama-backend/internal/domain"
	"chama-backend/internal/logger"
	"chama-backend/internal/repository"
)

type errorResponse struct {
	Error      string                      `json:"error"`
	Shortfalls []domain.GuarantorShortfall `json:"shortfalls,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized),
		errors.Is(err, domain.ErrNotMember),
		errors.Is(err, domain.ErrNotAGuarantor):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyApproved),
		errors.Is(err, domain.ErrWrongStage),
		errors.Is(err, domain.ErrAlreadyTerminal),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrMissingMemberSelection),
		errors.Is(err, domain.ErrExceedsMaxLoan),
		errors.Is(err, domain.ErrGuarantorsRequired),
		errors.Is(err, domain.ErrInsufficientGuarantorFunds),
		errors.Is(err, domain.ErrInvalidGuarantor),
		errors.Is(err, domain.ErrEmptyReason),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidTransactionType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, status, "internal server error")
		return
	}

	resp := errorResponse{Error: err.Error()}
	var shortfall *domain.InsufficientGuarantorFundsError
	if errors.As(err, &shortfall) {
		resp.Shortfalls = shortfall.Shortfalls
	}
	writeJSON(w, status, resp)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrMissingField, err)
	}
	return nil
}

// pathID reads a numeric route variable. Routes constrain these to digits.
func pathID(r *http.Request, name string) int32 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	return int32(id)
}

func queryID(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be numeric", domain.ErrMissingField, name)
	}
	return int32(id), nil
}
