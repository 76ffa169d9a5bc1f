package http

import (
	"github.com/staysquare/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/staysquare/api/internal/infrastructure/jwt"
	s3infra "github.com/staysquare/api/internal/infrastructure/s3"
	"github.com/staysquare/api/internal/infrastructure/smtp"
	"github.com/staysquare/api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
// SMSSender may be nil; publish notifications are then skipped.
type Deps struct {
	IdentityRepo *dynamo.IdentityRepo
	ListingRepo  *dynamo.ListingRepo
	OTPRepo      *dynamo.OTPRepo
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	SMSSender    sns.SMSSender
	JWTProvider  *jwtinfra.Provider
}
