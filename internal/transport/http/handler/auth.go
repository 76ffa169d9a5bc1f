package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/staysquare/api/internal/application/auth"
	"github.com/staysquare/api/internal/domain"
	"github.com/staysquare/api/internal/transport/http/middleware"
)

// CookiePolicy describes how the session cookie is written. Production uses
// SameSite=None with Secure so the cookie survives a cross-site frontend;
// development keeps Strict over plain HTTP.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// NewCookiePolicy derives the cookie policy from the runtime environment.
func NewCookiePolicy(production bool, maxAge time.Duration) CookiePolicy {
	if production {
		return CookiePolicy{Secure: true, SameSite: http.SameSiteNoneMode, MaxAge: maxAge}
	}
	return CookiePolicy{Secure: false, SameSite: http.SameSiteStrictMode, MaxAge: maxAge}
}

// AuthHandler handles the OTP auth endpoints.
type AuthHandler struct {
	svc    auth.Service
	cookie CookiePolicy
}

func NewAuthHandler(svc auth.Service, cookie CookiePolicy) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

func (h *AuthHandler) RequestSignupOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.RequestSignupOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RequestSignupOTP(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "OTP sent to your Gmail address"})
}

func (h *AuthHandler) VerifySignupOTP(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.svc.VerifySignupOTP, "OTP verified and account created")
}

func (h *AuthHandler) RequestLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.RequestLoginOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RequestLoginOTP(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "OTP sent to your email"})
}

func (h *AuthHandler) VerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.svc.VerifyLoginOTP, "login successful")
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, req auth.VerifyOTPRequest) (*domain.Identity, string, error), message string) {
	var req auth.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ident, token, err := fn(r.Context(), req)
	if err != nil {
		// A vanished or expired code is user-correctable, not a 404.
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusBadRequest, userMessage(err))
			return
		}
		httpError(w, err)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AuthEnvelope{Success: true, Message: message, User: toUserView(ident)})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Success: true, User: toUserView(ident)})
}

// Logout instructs the client to discard the cookie. There is no server-side
// revocation list; calling this twice is harmless.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "logged out successfully"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}
