package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/staysquare/api/internal/application/auth"
	"github.com/staysquare/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) RequestSignupOTP(ctx context.Context, req auth.RequestSignupOTPRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthService) VerifySignupOTP(ctx context.Context, req auth.VerifyOTPRequest) (*domain.Identity, string, error) {
	args := m.Called(ctx, req)
	if ident, _ := args.Get(0).(*domain.Identity); ident != nil {
		return ident, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}
func (m *mockAuthService) RequestLoginOTP(ctx context.Context, req auth.RequestLoginOTPRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthService) VerifyLoginOTP(ctx context.Context, req auth.VerifyOTPRequest) (*domain.Identity, string, error) {
	args := m.Called(ctx, req)
	if ident, _ := args.Get(0).(*domain.Identity); ident != nil {
		return ident, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}
func (m *mockAuthService) GetSessionIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	args := m.Called(ctx, token)
	if ident, _ := args.Get(0).(*domain.Identity); ident != nil {
		return ident, args.Error(1)
	}
	return nil, args.Error(1)
}

func devCookiePolicy() CookiePolicy {
	return NewCookiePolicy(false, 14*24*time.Hour)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// --- RequestSignupOTP ---

func TestRequestSignupOTP_Success(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("RequestSignupOTP", mock.Anything, auth.RequestSignupOTPRequest{Name: "Asha", Email: "asha@gmail.com"}).
		Return(nil)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/request-signup-otp",
		strings.NewReader(`{"name":"Asha","email":"asha@gmail.com"}`))
	rec := httptest.NewRecorder()
	h.RequestSignupOTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "OTP sent to your Gmail address", env.Message)
}

func TestRequestSignupOTP_MalformedBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/request-signup-otp", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.RequestSignupOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestRequestSignupOTP_AlreadyRegisteredIs200SuccessFalse(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("RequestSignupOTP", mock.Anything, mock.Anything).
		Return(domain.ErrAlreadyRegistered)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/request-signup-otp",
		strings.NewReader(`{"name":"Asha","email":"asha@gmail.com"}`))
	rec := httptest.NewRecorder()
	h.RequestSignupOTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestRequestSignupOTP_Throttled429(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("RequestSignupOTP", mock.Anything, mock.Anything).Return(domain.ErrThrottled)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/request-signup-otp",
		strings.NewReader(`{"name":"Asha","email":"asha@gmail.com"}`))
	rec := httptest.NewRecorder()
	h.RequestSignupOTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

// --- RequestLoginOTP ---

func TestRequestLoginOTP_NotRegisteredIs200SuccessFalse(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("RequestLoginOTP", mock.Anything, mock.Anything).Return(domain.ErrNotRegistered)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/request-login-otp",
		strings.NewReader(`{"email":"ghost@gmail.com"}`))
	rec := httptest.NewRecorder()
	h.RequestLoginOTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

// --- VerifySignupOTP / VerifyLoginOTP ---

func TestVerifySignupOTP_SetsSessionCookie(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("VerifySignupOTP", mock.Anything, auth.VerifyOTPRequest{Email: "asha@gmail.com", OTP: "123456"}).
		Return(&domain.Identity{IdentityID: "i1", Name: "Asha", Email: "asha@gmail.com"}, "signed-token", nil)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-signup-otp",
		strings.NewReader(`{"email":"asha@gmail.com","otp":"123456"}`))
	rec := httptest.NewRecorder()
	h.VerifySignupOTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Greater(t, cookie.MaxAge, 0)

	var env AuthEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success)
	require.NotNil(t, env.User)
	assert.Equal(t, "Asha", env.User.Name)
	assert.Equal(t, "asha@gmail.com", env.User.Email)
}

func TestVerifySignupOTP_ExpiredCodeIs400(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("VerifySignupOTP", mock.Anything, mock.Anything).
		Return(nil, "", domain.ErrNotFound)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-signup-otp",
		strings.NewReader(`{"email":"asha@gmail.com","otp":"123456"}`))
	rec := httptest.NewRecorder()
	h.VerifySignupOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestVerifyLoginOTP_MismatchIs400(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("VerifyLoginOTP", mock.Anything, mock.Anything).
		Return(nil, "", domain.ErrOTPMismatch)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-login-otp",
		strings.NewReader(`{"email":"asha@gmail.com","otp":"000000"}`))
	rec := httptest.NewRecorder()
	h.VerifyLoginOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestVerifyLoginOTP_Success(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("VerifyLoginOTP", mock.Anything, mock.Anything).
		Return(&domain.Identity{IdentityID: "i1", Name: "Asha", Email: "asha@gmail.com"}, "tok", nil)
	h := NewAuthHandler(svc, devCookiePolicy())

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-login-otp",
		strings.NewReader(`{"email":"asha@gmail.com","otp":"123456"}`))
	rec := httptest.NewRecorder()
	h.VerifyLoginOTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", sessionCookie(t, rec).Value)
}

// --- Logout ---

func TestLogout_ClearsCookieAndIsIdempotent(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, devCookiePolicy())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		cookie := sessionCookie(t, rec)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
}

// --- Production cookie policy ---

func TestProductionCookiePolicy(t *testing.T) {
	p := NewCookiePolicy(true, time.Hour)
	assert.True(t, p.Secure)
	assert.Equal(t, http.SameSiteNoneMode, p.SameSite)

	d := NewCookiePolicy(false, time.Hour)
	assert.False(t, d.Secure)
	assert.Equal(t, http.SameSiteStrictMode, d.SameSite)
}
