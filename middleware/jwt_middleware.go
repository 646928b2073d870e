package middleware

import (
	"context"
	stdlog "log"
	"net/http"
	"net/url"
	"os"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/kioku-app/kioku-api/auth"
)

// CustomClaims holds the non-registered claims we care about.
type CustomClaims struct {
	Nickname string `json:"nickname"`
}

// Validate implements validator.CustomClaims.
func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken returns the JWT validation middleware. With AUTH0_DOMAIN
// set it validates RS256 tokens against the tenant's JWKS; without it, the
// service falls back to locally-issued HS256 tokens for development.
func EnsureValidToken() func(next http.Handler) http.Handler {
	domain := os.Getenv("AUTH0_DOMAIN")
	if domain == "" {
		return auth.LocalAuthMiddleware
	}

	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		stdlog.Fatalf("Failed to parse the issuer url: %v", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{os.Getenv("AUTH0_AUDIENCE")},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		stdlog.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Failed to validate JWT."}`))
	}

	m := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)
	return m.CheckJWT
}
