package middleware

import (
	"context"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/kioku-app/kioku-api/config"
	"github.com/kioku-app/kioku-api/logger"
	"github.com/kioku-app/kioku-api/models"
	"github.com/kioku-app/kioku-api/utils"
)

type contextKey string

const userContextKey contextKey = "user"

var log = logger.NewNop()

// SetLogger wires the middleware's logger at startup.
func SetLogger(l *logger.Logger) {
	log = l.With("component", "middleware")
}

// SyncUserMiddleware ensures the authenticated user exists in the DB and
// attaches it to context
func SyncUserMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth0ID, ok := utils.GetAuth0ID(r)
		if !ok || auth0ID == "" {
			http.Error(w, "No token subject found", http.StatusUnauthorized)
			return
		}

		nickname := ""
		if claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims); ok {
			if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
				nickname = customClaims.Nickname
			}
		}

		var user models.User
		result := config.Database.Where("auth0_id = ?", auth0ID).First(&user)

		if result.Error != nil {
			// User does not exist, create a new one
			user = models.User{
				Auth0ID:  auth0ID,
				Nickname: nickname,
			}
			createResult := config.Database.Create(&user)
			if createResult.Error != nil {
				http.Error(w, "Failed to create user", http.StatusInternalServerError)
				log.Error("database creation error", "error", createResult.Error)
				return
			}
			log.Info("created new user", "nickname", user.Nickname)
		} else {
			// User exists, update nickname only if non-empty and changed
			if nickname != "" && user.Nickname != nickname {
				user.Nickname = nickname
				saveResult := config.Database.Save(&user)
				if saveResult.Error != nil {
					http.Error(w, "Failed to update user", http.StatusInternalServerError)
					log.Error("database update error", "error", saveResult.Error)
					return
				}
				log.Info("updated user nickname", "nickname", user.Nickname)
			}
		}

		// Add user to context for downstream handlers
		ctx := context.WithValue(r.Context(), userContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// UserFromContext returns the synced user attached by SyncUserMiddleware.
func UserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok
}
