package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/kioku-app/kioku-api/logger"
)

const (
	// How many times a grade is retried when the optimistic upsert reports a
	// concurrent write before the failure is surfaced to the caller.
	upsertAttempts = 3
	retryBackoff   = 25 * time.Millisecond
)

// Session is one bounded study run for one account: a queue snapshot taken
// at start, consumed item by item as grades come in. Again-graded cards go
// to the back of the in-session queue for an immediate redrill; every other
// grade retires the card until its computed due time. Items never graded
// keep their prior schedule untouched.
type Session struct {
	ID        string
	AccountID uint
	Config    ScheduleConfig
	StartedAt time.Time

	mu     sync.Mutex
	queue  []QueueItem
	graded int
	closed bool
}

// Next returns the head of the session queue without consuming it.
func (s *Session) Next() (QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.queue) == 0 {
		return QueueItem{}, false
	}
	return s.queue[0], true
}

// Remaining returns how many items are left, counting redrills.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Graded returns how many grades have been applied in this session.
func (s *Session) Graded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graded
}

// Queue returns a copy of the current in-session queue.
func (s *Session) Queue() []QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueueItem, len(s.queue))
	copy(out, s.queue)
	return out
}

// consume removes the first queue entry for the card, re-appending it at the
// back when the grade was a lapse. Returns false if the card is not queued.
func (s *Session) consume(cardID uint, redrill bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.queue {
		if item.CardID != cardID {
			continue
		}
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		if redrill {
			s.queue = append(s.queue, item)
		}
		s.graded++
		return true
	}
	return false
}

func (s *Session) contains(cardID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for _, item := range s.queue {
		if item.CardID == cardID {
			return true
		}
	}
	return false
}

// SessionManager owns the active sessions and drives grading end to end:
// fetch (or lazily create) the record, apply the grading engine, persist,
// then update the in-session queue. Writes for one account are serialized
// through a keyed mutex on top of the store's optimistic versioning, so two
// devices grading concurrently never silently lose a grade.
type SessionManager struct {
	store   ReviewStore
	builder *QueueBuilder
	log     *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	accounts map[uint]*sync.Mutex
}

func NewSessionManager(store ReviewStore, catalog Catalog, baseLog *logger.Logger) *SessionManager {
	log := baseLog.With("component", "SessionManager")
	return &SessionManager{
		store:    store,
		builder:  NewQueueBuilder(store, catalog, baseLog),
		log:      log,
		sessions: make(map[string]*Session),
		accounts: make(map[uint]*sync.Mutex),
	}
}

// Start snapshots the account's queue and opens a session over it.
func (m *SessionManager) Start(ctx context.Context, accountID uint, cfg ScheduleConfig, now time.Time) (*Session, error) {
	cfg = cfg.Normalize()
	queue, err := m.builder.Build(ctx, accountID, now, cfg)
	if err != nil {
		return nil, fmt.Errorf("build queue: %w", err)
	}
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	s := &Session{
		ID:        id,
		AccountID: accountID,
		Config:    cfg,
		StartedAt: now,
		queue:     queue,
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	m.log.Info("session started", "sessionID", id, "accountID", accountID, "queueSize", len(queue))
	return s, nil
}

// Get returns an active session or ErrSessionNotFound.
func (m *SessionManager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends a session. Items not yet graded stay exactly at their prior
// schedule; no record is touched.
func (m *SessionManager) Close(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	s.closed = true
	remaining := len(s.queue)
	s.mu.Unlock()
	m.log.Info("session closed", "sessionID", sessionID, "remaining", remaining)
	return nil
}

// SubmitGrade grades one card in the session. The queue item counts as
// consumed only after the grade is durably persisted: any store failure
// leaves the item in place and the record unchanged, so the caller can
// simply retry.
func (m *SessionManager) SubmitGrade(ctx context.Context, sessionID string, cardID uint, grade Grade, now time.Time) (ReviewRecord, error) {
	if !grade.IsValid() {
		return ReviewRecord{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}
	s, err := m.Get(sessionID)
	if err != nil {
		return ReviewRecord{}, err
	}

	lock := m.accountLock(s.AccountID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ReviewRecord{}, ErrSessionClosed
	}

	if !s.contains(cardID) {
		return ReviewRecord{}, fmt.Errorf("%w: card %d", ErrCardNotInSession, cardID)
	}

	rec, err := m.applyGrade(ctx, s.AccountID, cardID, grade, s.Config, now)
	if err != nil {
		return ReviewRecord{}, err
	}
	s.consume(cardID, grade == Again)
	return rec, nil
}

// applyGrade runs the read-grade-persist cycle with bounded retries on
// optimistic conflicts. The record is re-read before every regrade so a
// concurrent device's grade is never overwritten blindly.
func (m *SessionManager) applyGrade(ctx context.Context, accountID, cardID uint, grade Grade, cfg ScheduleConfig, now time.Time) (ReviewRecord, error) {
	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * retryBackoff)
		}

		rec, err := m.store.Get(ctx, accountID, cardID)
		if errors.Is(err, ErrRecordNotFound) {
			rec = NewRecord(accountID, cardID, cfg)
		} else if err != nil {
			return ReviewRecord{}, fmt.Errorf("load record: %w", err)
		}

		healed, changed := Heal(rec, cfg)
		if changed {
			m.log.Warn("clamped out-of-range review record",
				"accountID", accountID, "cardID", cardID)
		}

		out, err := Review(healed, grade, cfg, now)
		if err != nil {
			return ReviewRecord{}, err
		}

		if err := m.store.Upsert(ctx, &out); err != nil {
			if errors.Is(err, ErrStaleRecord) {
				lastErr = err
				continue
			}
			return ReviewRecord{}, fmt.Errorf("persist grade: %w", err)
		}
		return out, nil
	}
	return ReviewRecord{}, fmt.Errorf("grade not applied after %d attempts: %w", upsertAttempts, lastErr)
}

func (m *SessionManager) accountLock(accountID uint) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.accounts[accountID]
	if !ok {
		lock = &sync.Mutex{}
		m.accounts[accountID] = lock
	}
	return lock
}
