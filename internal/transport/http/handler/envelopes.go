package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/staysquare/api/internal/domain"
)

// Envelope is the generic response wrapper. Every response, success or
// failure, carries a success flag and a human-readable message.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// UserView is the public projection of an Identity.
type UserView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthEnvelope wraps OTP verification and profile responses.
type AuthEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	User    *UserView `json:"user,omitempty"`
}

// ListingEnvelope wraps single-listing responses.
type ListingEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Listing *domain.Listing `json:"listing,omitempty"`
}

// ListingsEnvelope wraps listing collection responses.
type ListingsEnvelope struct {
	Success  bool             `json:"success"`
	Count    int              `json:"count"`
	Listings []domain.Listing `json:"listings"`
}

func toUserView(ident *domain.Identity) *UserView {
	if ident == nil {
		return nil
	}
	return &UserView{Name: ident.Name, Email: ident.Email}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg})
}

// httpError maps a service error onto the HTTP taxonomy. Expected business
// outcomes (already registered, not registered) are HTTP 200 with a
// success:false body; everything else is a real error status.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered), errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusOK, userMessage(err))
	case errors.Is(err, domain.ErrThrottled):
		writeError(w, http.StatusTooManyRequests, userMessage(err))
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrOTPMismatch):
		writeError(w, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, userMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, userMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, userMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

// userMessage strips the trailing sentinel suffix fmt.Errorf wrapping leaves
// behind, e.g. "invalid otp: otp mismatch" -> "invalid otp".
func userMessage(err error) string {
	msg := err.Error()
	if u := errors.Unwrap(err); u != nil {
		suffix := ": " + u.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}
