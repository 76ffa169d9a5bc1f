package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/staysquare/api/internal/application/auth"
	"github.com/staysquare/api/internal/application/ingest"
	"github.com/staysquare/api/internal/application/listing"
	"github.com/staysquare/api/internal/config"
	"github.com/staysquare/api/internal/transport/http/handler"
	appmiddleware "github.com/staysquare/api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true, // the session cookie must survive CORS
		MaxAge:           300,
	}))

	authSvc := auth.NewService(auth.ServiceDeps{
		OTPStore:  deps.OTPRepo,
		Directory: deps.IdentityRepo,
		Mailer:    deps.Mailer,
		Tokens:    deps.JWTProvider,
	})
	listingSvc := listing.NewService(listing.ServiceDeps{
		Store:     deps.ListingRepo,
		Directory: deps.IdentityRepo,
		Ingestor:  ingest.NewPipeline(deps.S3Store),
		Notifier:  deps.SMSSender,
	})

	sessionMw := appmiddleware.Session(authSvc)

	// 5 requests/second with a burst of 10 on the public OTP endpoints.
	otpRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	cookie := handler.NewCookiePolicy(cfg.IsProduction(), deps.JWTProvider.Expiry())

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cookie)
	listingH := handler.NewListingHandler(listingSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(otpRL.Limit).Post("/request-signup-otp", authH.RequestSignupOTP)
			r.With(otpRL.Limit).Post("/verify-signup-otp", authH.VerifySignupOTP)
			r.With(otpRL.Limit).Post("/request-login-otp", authH.RequestLoginOTP)
			r.With(otpRL.Limit).Post("/verify-login-otp", authH.VerifyLoginOTP)

			// Logout stays public so a second call with an already-cleared
			// cookie is harmless instead of a 401.
			r.Post("/logout", authH.Logout)

			r.Group(func(r chi.Router) {
				r.Use(sessionMw)
				r.Get("/profile", authH.Profile)
			})
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", listingH.List)
			r.Get("/{id}", listingH.Get)

			r.Group(func(r chi.Router) {
				r.Use(sessionMw)
				r.Post("/", listingH.Create)
				r.Get("/mine", listingH.ListMine)
				r.Delete("/{id}", listingH.Delete)
			})
		})
	})

	return r
}
