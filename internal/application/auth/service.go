package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/staysquare/api/internal/domain"
	jwtinfra "github.com/staysquare/api/internal/infrastructure/jwt"
	"github.com/staysquare/api/internal/pkg/id"
	"github.com/staysquare/api/internal/pkg/validate"
)

const (
	otpValidity = 5 * time.Minute // also the re-issue cooldown

	signupSubject = "Your StaySquare OTP"
	loginSubject  = "Your StaySquare Login OTP"
)

// Only consumer Gmail addresses are accepted. This is a product scope
// restriction, not a security boundary.
var gmailPattern = regexp.MustCompile(`(?i)^[a-zA-Z0-9._%+-]+@gmail\.com$`)

type RequestSignupOTPRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type RequestLoginOTPRequest struct {
	Email string `json:"email" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

// OTPStore persists pending one-time codes keyed by email. Get must treat an
// expired row as absent (wrapping domain.ErrNotFound).
type OTPStore interface {
	Put(ctx context.Context, otp *domain.PendingOTP) error
	Get(ctx context.Context, email string) (*domain.PendingOTP, error)
	Delete(ctx context.Context, email string) error
}

// IdentityDirectory persists verified user identities.
type IdentityDirectory interface {
	Put(ctx context.Context, ident *domain.Identity) error
	Get(ctx context.Context, identityID string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
}

// Mailer dispatches OTP mail.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// TokenIssuer mints and validates signed session tokens.
type TokenIssuer interface {
	Sign(identityID string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type Service interface {
	RequestSignupOTP(ctx context.Context, req RequestSignupOTPRequest) error
	VerifySignupOTP(ctx context.Context, req VerifyOTPRequest) (*domain.Identity, string, error)
	RequestLoginOTP(ctx context.Context, req RequestLoginOTPRequest) error
	VerifyLoginOTP(ctx context.Context, req VerifyOTPRequest) (*domain.Identity, string, error)
	GetSessionIdentity(ctx context.Context, token string) (*domain.Identity, error)
}

// ServiceDeps bundles the collaborators an auth Service needs.
type ServiceDeps struct {
	OTPStore  OTPStore
	Directory IdentityDirectory
	Mailer    Mailer
	Tokens    TokenIssuer
}

type service struct {
	otps      OTPStore
	directory IdentityDirectory
	mailer    Mailer
	tokens    TokenIssuer
}

func NewService(d ServiceDeps) Service {
	return &service{
		otps:      d.OTPStore,
		directory: d.Directory,
		mailer:    d.Mailer,
		tokens:    d.Tokens,
	}
}

func (s *service) RequestSignupOTP(ctx context.Context, req RequestSignupOTPRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if _, err := s.directory.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email is already registered: %w", domain.ErrAlreadyRegistered)
	}
	return s.issue(ctx, email, strings.TrimSpace(req.Name), signupSubject)
}

func (s *service) RequestLoginOTP(ctx context.Context, req RequestLoginOTPRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	ident, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("email not found, please create an account: %w", domain.ErrNotRegistered)
	}
	return s.issue(ctx, email, ident.Name, loginSubject)
}

// issue generates, persists and dispatches a one-time code.
//
// The pending row is written before dispatch and is deliberately not removed
// when the mail send fails: the code stays redeemable and a resend works
// after the cooldown.
func (s *service) issue(ctx context.Context, email, name, subject string) error {
	if _, err := s.otps.Get(ctx, email); err == nil {
		return fmt.Errorf("otp already sent, please wait a few minutes before requesting again: %w", domain.ErrThrottled)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	otp := &domain.PendingOTP{
		Email:     email,
		Name:      name,
		Code:      code,
		ExpiresAt: time.Now().Add(otpValidity).Unix(),
	}
	if err := s.otps.Put(ctx, otp); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYour StaySquare OTP is %s. It is valid for 5 minutes.\n\nIf you didn't request this, you can safely ignore this email.\n",
		name, code,
	)
	if err := s.mailer.SendEmail(email, subject, body); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

func (s *service) VerifySignupOTP(ctx context.Context, req VerifyOTPRequest) (*domain.Identity, string, error) {
	otp, err := s.consume(ctx, req)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	ident := &domain.Identity{
		IdentityID: id.New(),
		Name:       otp.Name,
		Email:      otp.Email,
		CreatedAt:  now,
	}
	if err := s.directory.Put(ctx, ident); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Sign(ident.IdentityID)
	if err != nil {
		return nil, "", err
	}
	return ident, token, nil
}

func (s *service) VerifyLoginOTP(ctx context.Context, req VerifyOTPRequest) (*domain.Identity, string, error) {
	otp, err := s.consume(ctx, req)
	if err != nil {
		return nil, "", err
	}

	ident, err := s.directory.GetByEmail(ctx, otp.Email)
	if err != nil {
		return nil, "", fmt.Errorf("identity not found: %w", domain.ErrNotFound)
	}

	token, err := s.tokens.Sign(ident.IdentityID)
	if err != nil {
		return nil, "", err
	}
	return ident, token, nil
}

// consume checks the submitted code against the pending row and deletes the
// row on success (single-use). A mismatch leaves the row in place so the
// caller may retry until expiry.
func (s *service) consume(ctx context.Context, req VerifyOTPRequest) (*domain.PendingOTP, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	otp, err := s.otps.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("otp expired or not found: %w", domain.ErrNotFound)
	}
	if otp.Code != req.OTP {
		return nil, fmt.Errorf("invalid otp: %w", domain.ErrOTPMismatch)
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *service) GetSessionIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %w", domain.ErrUnauthorized)
	}
	ident, err := s.directory.Get(ctx, claims.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("identity no longer exists: %w", domain.ErrUnauthorized)
	}
	return ident, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !gmailPattern.MatchString(email) {
		return "", fmt.Errorf("only @gmail.com email addresses are allowed: %w", domain.ErrBadRequest)
	}
	return email, nil
}

// generateCode returns a uniformly random 6-digit code as fixed-width text,
// so leading zeros survive.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
