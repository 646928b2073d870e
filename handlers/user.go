package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kioku-app/kioku-api/auth"
	"github.com/kioku-app/kioku-api/config"
	"github.com/kioku-app/kioku-api/middleware"
	"github.com/kioku-app/kioku-api/models"
)

func (h *StudyHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"nickname":  user.Nickname,
		"createdAt": user.CreatedAt,
	})
}

// DevLogin issues a local HS256 auth cookie for development setups without
// an Auth0 tenant. It is only routed when the service runs in development.
func DevLogin(w http.ResponseWriter, r *http.Request) {
	var requestData struct {
		Nickname string `json:"nickname"`
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&requestData); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if requestData.Nickname == "" {
		http.Error(w, "Nickname is required", http.StatusBadRequest)
		return
	}

	subject := "local|" + requestData.Nickname

	var user models.User
	result := config.Database.Where("auth0_id = ?", subject).First(&user)
	if result.Error != nil {
		user = models.User{Auth0ID: subject, Nickname: requestData.Nickname}
		if err := config.Database.Create(&user).Error; err != nil {
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
	}

	tokenString, err := auth.CreateToken(subject)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		Secure:   !config.Env.IsDevelopment,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": tokenString,
	})
}
