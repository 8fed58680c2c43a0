// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/storage"
)

// Storage keys for the two persisted records.
const (
	ChatsKey = "flutter_guru_chats"
	UserKey  = "flutter_guru_user"
)

// RecoveryNotice is reported once when persisted chats could not be read.
const RecoveryNotice = "Saved chats could not be read and were reset."

// ErrSessionNotFound is returned for an ID that is not in the session list.
var ErrSessionNotFound = errors.New("session not found")

// chatsRecord is the persisted layout of the session list.
type chatsRecord struct {
	Sessions        []model.Session `json:"sessions"`
	ActiveSessionID string          `json:"activeSessionId"`
}

// =============================================================================
// STORE
// =============================================================================

// Store owns the session list, the active pointer and the user record.
type Store struct {
	mu sync.Mutex

	kv     storage.KV
	logger *zap.Logger
	now    func() time.Time

	sessions []model.Session
	activeID string
	user     *model.User

	notice string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and save failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads persisted state from kv. It never fails: absent or malformed
// records fall back to a single default session and no user.
func Open(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.loadChats()
	s.loadUser()

	if len(s.sessions) == 0 {
		fresh := model.NewSession(s.now())
		s.sessions = []model.Session{fresh}
		s.activeID = fresh.ID
	}
	if s.indexOf(s.activeID) < 0 {
		s.activeID = s.sessions[0].ID
	}

	if err := s.persistChats(); err != nil {
		s.logger.Warn("initial chats save failed", zap.Error(err))
	}
	return s
}

func (s *Store) loadChats() {
	data, err := s.kv.Get(ChatsKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return
	}
	if err != nil {
		s.logger.Error("failed to read saved chats", zap.Error(err))
		s.notice = RecoveryNotice
		return
	}

	var rec chatsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error("failed to parse saved chats", zap.Error(err), zap.Int("bytes", len(data)))
		s.notice = RecoveryNotice
		return
	}

	s.sessions = rec.Sessions
	s.activeID = rec.ActiveSessionID
	s.logger.Info("loaded chats", zap.Int("sessions", len(s.sessions)))
}

func (s *Store) loadUser() {
	data, err := s.kv.Get(UserKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return
	}
	if err != nil {
		s.logger.Error("failed to read saved user", zap.Error(err))
		return
	}

	var u model.User
	if err := json.Unmarshal(data, &u); err != nil || u.ID == "" {
		s.logger.Error("discarding unreadable user record", zap.Error(err))
		return
	}
	s.user = &u
}

// persistChats rewrites the whole chats record. Callers hold mu.
func (s *Store) persistChats() error {
	data, err := json.Marshal(chatsRecord{
		Sessions:        s.sessions,
		ActiveSessionID: s.activeID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode chats: %w", err)
	}
	if err := s.kv.Set(ChatsKey, data); err != nil {
		s.logger.Error("failed to save chats", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// QUERIES
// =============================================================================

// Sessions returns copies of all sessions, newest first.
func (s *Store) Sessions() []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Session, len(s.sessions))
	for i := range s.sessions {
		out[i] = s.sessions[i].Clone()
	}
	return out
}

// Session returns a copy of the session with id.
func (s *Store) Session(id string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Session{}, false
	}
	return s.sessions[i].Clone(), true
}

// ActiveID returns the active session ID.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active session.
func (s *Store) Active() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[s.indexOf(s.activeID)].Clone()
}

// TakeRecoveryNotice returns the load recovery notice once, then "".
func (s *Store) TakeRecoveryNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = ""
	return n
}

// =============================================================================
// SESSION INTENTS
// =============================================================================

// NewChat prepends a default session and makes it active.
func (s *Store) NewChat() (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := model.NewSession(s.now())
	s.sessions = append([]model.Session{fresh}, s.sessions...)
	s.activeID = fresh.ID
	return fresh.Clone(), s.persistChats()
}

// Delete removes a session. Removing the last one recreates a default
// session. Removing the active one activates the first remaining session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)

	if len(s.sessions) == 0 {
		fresh := model.NewSession(s.now())
		s.sessions = []model.Session{fresh}
		s.activeID = fresh.ID
	} else if s.activeID == id {
		s.activeID = s.sessions[0].ID
	}
	return s.persistChats()
}

// Select makes id the active session.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.activeID = id
	return s.persistChats()
}

// Append adds msg to the session with id.
func (s *Store) Append(id string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.sessions[i].Append(msg)
	return s.persistChats()
}

// SetTitle renames the session with id.
func (s *Store) SetTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.sessions[i].Title = title
	return s.persistChats()
}

// =============================================================================
// USER INTENTS
// =============================================================================

// User returns the signed-in user, if any.
func (s *Store) User() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// SaveUser records the signed-in user. The in-memory user only changes once
// the record is written.
func (s *Store) SaveUser(u model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(UserKey, data); err != nil {
		s.logger.Error("failed to save user", zap.Error(err))
		return err
	}
	s.user = &u
	return nil
}

// ClearUser signs the user out and removes the persisted record.
// Sessions are kept.
func (s *Store) ClearUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return s.kv.Delete(UserKey)
}
