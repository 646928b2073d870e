package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/kioku-app/kioku-api/logger"
	"github.com/kioku-app/kioku-api/middleware"
	"github.com/kioku-app/kioku-api/models"
	"github.com/kioku-app/kioku-api/scheduler"
)

type StudyHandler struct {
	DB       *gorm.DB
	Store    scheduler.ReviewStore
	Builder  *scheduler.QueueBuilder
	Sessions *scheduler.SessionManager
	Log      *logger.Logger
}

// queueItemResponse enriches a scheduler queue item with the card content
// the presentation layer needs.
type queueItemResponse struct {
	CardID      string           `json:"cardId"`
	Origin      scheduler.Origin `json:"origin"`
	OverdueDays int              `json:"overdueDays"`
	CardType    string           `json:"cardType"`
	Term        string           `json:"term"`
	Reading     string           `json:"reading,omitempty"`
	Meaning     string           `json:"meaning"`
}

// recordResponse is the learner-facing view of a graded record.
type recordResponse struct {
	State             scheduler.State `json:"state"`
	RepetitionCount   int             `json:"repetitionCount"`
	StrengthFactor    float64         `json:"strengthFactor"`
	IntervalDays      int             `json:"intervalDays"`
	DueAt             *time.Time      `json:"dueAt"`
	ConsecutiveLapses int             `json:"consecutiveLapses"`
}

func toRecordResponse(rec scheduler.ReviewRecord) recordResponse {
	return recordResponse{
		State:             rec.State,
		RepetitionCount:   rec.RepetitionCount,
		StrengthFactor:    rec.StrengthFactor,
		IntervalDays:      rec.IntervalDays,
		DueAt:             rec.DueAt,
		ConsecutiveLapses: rec.ConsecutiveLapses,
	}
}

// accountConfig loads the account's scheduling tunables, creating the
// settings row with defaults on first use.
func (h *StudyHandler) accountConfig(userID uint) (scheduler.ScheduleConfig, error) {
	var settings models.AccountSettings
	err := h.DB.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.DefaultAccountSettings(userID)
		if err := h.DB.Create(&settings).Error; err != nil {
			return scheduler.ScheduleConfig{}, err
		}
		return settings.ScheduleConfig(), nil
	}
	if err != nil {
		return scheduler.ScheduleConfig{}, err
	}
	return settings.ScheduleConfig(), nil
}

// enrichQueue resolves card content for the queue items in one query.
func (h *StudyHandler) enrichQueue(items []scheduler.QueueItem) ([]queueItemResponse, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CardID)
	}
	var cards []models.Card
	if len(ids) > 0 {
		if err := h.DB.Where("id IN ?", ids).Find(&cards).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uint]models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	out := make([]queueItemResponse, 0, len(items))
	for _, item := range items {
		card, ok := byID[item.CardID]
		if !ok {
			// Card removed from the catalog after the record was created.
			continue
		}
		out = append(out, queueItemResponse{
			CardID:      card.PublicID,
			Origin:      item.Origin,
			OverdueDays: item.OverdueDays,
			CardType:    card.CardType,
			Term:        card.Term,
			Reading:     card.Reading,
			Meaning:     card.Meaning,
		})
	}
	return out, nil
}

func (h *StudyHandler) GetStudyQueue(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cfg, err := h.accountConfig(user.ID)
	if err != nil {
		http.Error(w, "Failed to load study settings", http.StatusInternalServerError)
		return
	}

	items, err := h.Builder.Build(r.Context(), user.ID, time.Now().UTC(), cfg)
	if err != nil {
		h.Log.Error("queue build failed", "accountID", user.ID, "error", err)
		http.Error(w, "Failed to build study queue", http.StatusInternalServerError)
		return
	}

	enriched, err := h.enrichQueue(items)
	if err != nil {
		http.Error(w, "Failed to load cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": enriched,
		"count": len(enriched),
	})
}

func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cfg, err := h.accountConfig(user.ID)
	if err != nil {
		http.Error(w, "Failed to load study settings", http.StatusInternalServerError)
		return
	}

	sess, err := h.Sessions.Start(r.Context(), user.ID, cfg, time.Now().UTC())
	if err != nil {
		h.Log.Error("session start failed", "accountID", user.ID, "error", err)
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	enriched, err := h.enrichQueue(sess.Queue())
	if err != nil {
		http.Error(w, "Failed to load cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessionId": sess.ID,
		"items":     enriched,
		"count":     len(enriched),
	})
}

// sessionForRequest looks up the session and checks it belongs to the caller.
func (h *StudyHandler) sessionForRequest(w http.ResponseWriter, r *http.Request) (*scheduler.Session, *models.User, bool) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, nil, false
	}
	sessionID := r.PathValue("sessionID")
	sess, err := h.Sessions.Get(sessionID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, nil, false
	}
	if sess.AccountID != user.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, nil, false
	}
	return sess, user, true
}

func (h *StudyHandler) GetNextCard(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	item, ok := sess.Next()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"done":      true,
			"remaining": 0,
		})
		return
	}

	enriched, err := h.enrichQueue([]scheduler.QueueItem{item})
	if err != nil || len(enriched) == 0 {
		http.Error(w, "Failed to load card", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"done":      false,
		"card":      enriched[0],
		"remaining": sess.Remaining(),
	})
}

func (h *StudyHandler) SubmitGrade(w http.ResponseWriter, r *http.Request) {
	sess, user, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	type GradeRequestData struct {
		CardID string          `json:"cardId"`
		Grade  scheduler.Grade `json:"grade"`
	}

	var gradeRequest GradeRequestData
	if err := decoder.Decode(&gradeRequest); err != nil {
		http.Error(w, "Could not decode request", http.StatusBadRequest)
		return
	}

	var card models.Card
	if err := h.DB.Where("public_id = ?", gradeRequest.CardID).First(&card).Error; err != nil {
		http.Error(w, "Card not found", http.StatusNotFound)
		return
	}

	rec, err := h.Sessions.SubmitGrade(r.Context(), sess.ID, card.ID, gradeRequest.Grade, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidGrade):
			http.Error(w, "Invalid grade", http.StatusBadRequest)
		case errors.Is(err, scheduler.ErrCardNotInSession):
			http.Error(w, "Card not in session", http.StatusConflict)
		case errors.Is(err, scheduler.ErrSessionNotFound):
			http.Error(w, "Session not found", http.StatusNotFound)
		case errors.Is(err, scheduler.ErrSessionClosed):
			http.Error(w, "Session closed", http.StatusGone)
		default:
			// Grade not applied; the client should retry the submission.
			h.Log.Error("grade submission failed",
				"accountID", user.ID, "cardID", card.ID, "error", err)
			http.Error(w, "Grade not recorded, please retry", http.StatusServiceUnavailable)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"record":    toRecordResponse(rec),
		"remaining": sess.Remaining(),
	})
}

func (h *StudyHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.sessionForRequest(w, r)
	if !ok {
		return
	}

	if err := h.Sessions.Close(sess.ID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewCard shows what each grade would do to the card's schedule, so the
// client can render "next review in N days" on the answer buttons.
func (h *StudyHandler) PreviewCard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cardID := r.PathValue("cardID")
	var card models.Card
	if err := h.DB.Where("public_id = ?", cardID).First(&card).Error; err != nil {
		http.Error(w, "Card not found", http.StatusNotFound)
		return
	}

	cfg, err := h.accountConfig(user.ID)
	if err != nil {
		http.Error(w, "Failed to load study settings", http.StatusInternalServerError)
		return
	}

	rec, err := h.Store.Get(r.Context(), user.ID, card.ID)
	if errors.Is(err, scheduler.ErrRecordNotFound) {
		rec = scheduler.NewRecord(user.ID, card.ID, cfg)
	} else if err != nil {
		http.Error(w, "Failed to load record", http.StatusInternalServerError)
		return
	}
	rec, _ = scheduler.Heal(rec, cfg)

	preview := scheduler.Preview(rec, cfg, time.Now().UTC())
	out := make(map[string]recordResponse, len(preview))
	for grade, next := range preview {
		out[grade.String()] = toRecordResponse(next)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
