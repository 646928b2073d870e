package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kioku-app/kioku-api/middleware"
	"github.com/kioku-app/kioku-api/models"
)

type deckResponse struct {
	DeckID    string `json:"deckId"`
	Title     string `json:"title"`
	Position  int    `json:"position"`
	Unlocked  bool   `json:"unlocked"`
	CardCount int64  `json:"cardCount"`
}

func (h *StudyHandler) GetDecks(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var decks []models.Deck
	if err := h.DB.Order("position ASC").Find(&decks).Error; err != nil {
		http.Error(w, "Failed to fetch decks", http.StatusInternalServerError)
		return
	}

	var unlocks []models.DeckUnlock
	if err := h.DB.Where("user_id = ?", user.ID).Find(&unlocks).Error; err != nil {
		http.Error(w, "Failed to fetch unlocks", http.StatusInternalServerError)
		return
	}
	unlocked := make(map[uint]bool, len(unlocks))
	for _, u := range unlocks {
		unlocked[u.DeckID] = true
	}

	out := make([]deckResponse, 0, len(decks))
	for _, deck := range decks {
		var count int64
		h.DB.Model(&models.Card{}).Where("deck_id = ?", deck.ID).Count(&count)
		out = append(out, deckResponse{
			DeckID:    deck.PublicID,
			Title:     deck.Title,
			Position:  deck.Position,
			Unlocked:  unlocked[deck.ID],
			CardCount: count,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (h *StudyHandler) GetCardsForDeck(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("deckID")

	var deck models.Deck
	if err := h.DB.Where("public_id = ?", deckID).First(&deck).Error; err != nil {
		http.Error(w, "Deck not found", http.StatusNotFound)
		return
	}

	var cards []models.Card
	if err := h.DB.Where("deck_id = ?", deck.ID).
		Order("learning_order ASC").
		Find(&cards).Error; err != nil {
		http.Error(w, "Failed to fetch cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}

func (h *StudyHandler) UnlockDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	deckID := r.PathValue("deckID")
	var deck models.Deck
	if err := h.DB.Where("public_id = ?", deckID).First(&deck).Error; err != nil {
		http.Error(w, "Deck not found", http.StatusNotFound)
		return
	}

	unlock := models.DeckUnlock{UserID: user.ID, DeckID: deck.ID}
	if err := h.DB.Where("user_id = ? AND deck_id = ?", user.ID, deck.ID).
		FirstOrCreate(&unlock).Error; err != nil {
		http.Error(w, "Failed to unlock deck", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"deckId":     deck.PublicID,
		"unlockedAt": unlock.UnlockedAt,
	})
}
