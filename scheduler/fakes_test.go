package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory ReviewStore with the same optimistic-versioning
// contract as the gorm-backed one.
type memStore struct {
	mu      sync.Mutex
	records map[[2]uint]ReviewRecord
	nextID  uint

	upsertErr     error // returned by every Upsert when set
	upsertErrOnce error // returned by the next Upsert, then cleared
	upserts       int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[[2]uint]ReviewRecord)}
}

// seed inserts a record directly, bypassing the versioning contract.
func (s *memStore) seed(rec ReviewRecord) ReviewRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	if rec.Version == 0 {
		rec.Version = 1
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records[[2]uint{rec.AccountID, rec.CardID}] = rec
	return rec
}

func (s *memStore) get(accountID, cardID uint) (ReviewRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[[2]uint{accountID, cardID}]
	return rec, ok
}

func (s *memStore) Get(ctx context.Context, accountID, cardID uint) (ReviewRecord, error) {
	rec, ok := s.get(accountID, cardID)
	if !ok {
		return ReviewRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *memStore) Upsert(ctx context.Context, rec *ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.upsertErrOnce != nil {
		err := s.upsertErrOnce
		s.upsertErrOnce = nil
		return err
	}
	if s.upsertErr != nil {
		return s.upsertErr
	}

	key := [2]uint{rec.AccountID, rec.CardID}
	stored, exists := s.records[key]
	if rec.ID == 0 {
		if exists {
			return ErrStaleRecord
		}
		s.nextID++
		rec.ID = s.nextID
		rec.Version = 1
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		s.records[key] = *rec
		return nil
	}
	if !exists || stored.Version != rec.Version {
		return ErrStaleRecord
	}
	rec.Version++
	s.records[key] = *rec
	return nil
}

func (s *memStore) ListDue(ctx context.Context, accountID uint, now time.Time) ([]ReviewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ReviewRecord
	for _, rec := range s.records {
		if rec.AccountID != accountID || rec.DueAt == nil || rec.DueAt.After(now) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(*out[j].DueAt) {
			return out[i].DueAt.Before(*out[j].DueAt)
		}
		return out[i].CardID < out[j].CardID
	})
	return out, nil
}

func (s *memStore) CountIntroducedSince(ctx context.Context, accountID uint, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, rec := range s.records {
		if rec.AccountID == accountID && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// memCatalog serves cards that have no review record yet, in learning order.
type memCatalog struct {
	refs  []CardRef
	store *memStore
}

func (c *memCatalog) ListNewCards(ctx context.Context, accountID uint, limit int) ([]CardRef, error) {
	var out []CardRef
	for _, ref := range c.refs {
		if _, ok := c.store.get(accountID, ref.CardID); ok {
			continue
		}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LearningOrder != out[j].LearningOrder {
			return out[i].LearningOrder < out[j].LearningOrder
		}
		return out[i].CardID < out[j].CardID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
