package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"beachrent/internal/domain"
)

const (
	codeUnauthorized = "unauthorized"
	codeRateLimited  = "rate_limited"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorCode(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorBody{Error: message, Code: code})
}

// writeError maps a core error to its HTTP status. Anything that is not a business error is a 500
// and never exposes the underlying cause.
func writeError(w http.ResponseWriter, err error) {
	var e *domain.Error
	if !errors.As(err, &e) || !domain.IsBusiness(err) {
		writeErrorCode(w, http.StatusInternalServerError, domain.ErrStorageFailure.Code, domain.ErrStorageFailure.Message)
		return
	}
	writeErrorCode(w, statusFor(e.Code), e.Code, e.Message)
}

func statusFor(code string) int {
	switch code {
	case domain.ErrForbidden.Code:
		return http.StatusForbidden
	case domain.ErrNotFound.Code:
		return http.StatusNotFound
	case domain.ErrInvalidUmbrella.Code, domain.ErrInvalidInput.Code:
		return http.StatusBadRequest
	case domain.ErrAlreadyRented.Code,
		domain.ErrAlreadyOccupied.Code,
		domain.ErrNotHotelRented.Code,
		domain.ErrHotelRented.Code,
		domain.ErrNothingToRemove.Code,
		domain.ErrBedCurrentlyRented.Code:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
