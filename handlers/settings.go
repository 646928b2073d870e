package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/kioku-app/kioku-api/middleware"
	"github.com/kioku-app/kioku-api/models"
)

func (h *StudyHandler) loadOrCreateSettings(userID uint) (models.AccountSettings, error) {
	var settings models.AccountSettings
	err := h.DB.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.DefaultAccountSettings(userID)
		err = h.DB.Create(&settings).Error
	}
	return settings, err
}

func (h *StudyHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	settings, err := h.loadOrCreateSettings(user.ID)
	if err != nil {
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings.ScheduleConfig())
}

func (h *StudyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	settings, err := h.loadOrCreateSettings(user.ID)
	if err != nil {
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	// Decode the update data
	type SettingsUpdateRequest struct {
		MinStrengthFactor       *float64 `json:"minStrengthFactor,omitempty"`
		DefaultStrengthFactor   *float64 `json:"defaultStrengthFactor,omitempty"`
		MinReviewInterval       *int     `json:"minReviewInterval,omitempty"`
		MaxReviewInterval       *int     `json:"maxReviewInterval,omitempty"`
		MatureIntervalThreshold *int     `json:"matureIntervalThreshold,omitempty"`
		DefaultInterval         *int     `json:"defaultInterval,omitempty"`
		ReviewsPerDayCap        *int     `json:"reviewsPerDayCap,omitempty"`
		NewCardsPerDayCap       *int     `json:"newCardsPerDayCap,omitempty"`
		MaxPushForwardDays      *int     `json:"maxPushForwardDays,omitempty"`
	}
	var req SettingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Update fields if provided
	if req.MinStrengthFactor != nil {
		settings.MinStrengthFactor = *req.MinStrengthFactor
	}
	if req.DefaultStrengthFactor != nil {
		settings.DefaultStrengthFactor = *req.DefaultStrengthFactor
	}
	if req.MinReviewInterval != nil {
		settings.MinReviewInterval = *req.MinReviewInterval
	}
	if req.MaxReviewInterval != nil {
		settings.MaxReviewInterval = *req.MaxReviewInterval
	}
	if req.MatureIntervalThreshold != nil {
		settings.MatureIntervalThreshold = *req.MatureIntervalThreshold
	}
	if req.DefaultInterval != nil {
		settings.DefaultInterval = *req.DefaultInterval
	}
	if req.ReviewsPerDayCap != nil {
		settings.ReviewsPerDayCap = *req.ReviewsPerDayCap
	}
	if req.NewCardsPerDayCap != nil {
		settings.NewCardsPerDayCap = *req.NewCardsPerDayCap
	}
	if req.MaxPushForwardDays != nil {
		settings.MaxPushForwardDays = *req.MaxPushForwardDays
	}

	cfg := settings.ScheduleConfig()
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.DB.Save(&settings).Error; err != nil {
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}
