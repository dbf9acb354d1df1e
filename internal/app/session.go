package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotelstay/internal/adapters/observability"
	"hotelstay/internal/domain"
)

// SessionStore owns the signed-in user's profile snapshot, kept in the
// protected backend under a single key. It never returns errors: storage
// problems are logged and reported as false / nil.
type SessionStore struct {
	kv  domain.KV
	now domain.Clock
}

func NewSessionStore(protected domain.KV, now domain.Clock) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{kv: protected, now: now}
}

// Store merges p over whatever record exists (missing or corrupt counts as
// empty) and writes the result. A failed read stores nothing: writing the
// patch alone would drop the fields it could not see.
func (s *SessionStore) Store(ctx context.Context, p domain.ProfilePatch) bool {
	existing, err := s.read(ctx)
	if err != nil {
		log.Error().Err(err).Str("store", "session").Msg("store skipped: existing user data unreadable")
		observability.ObserveStore("session", "store", false)
		return false
	}
	if existing == nil {
		existing = &domain.UserData{}
	}
	merged := p.Apply(*existing)
	merged.LastUpdated = s.now().UTC()

	b, err := json.Marshal(merged)
	if err != nil {
		log.Error().Err(err).Str("store", "session").Msg("encode user data failed")
		observability.ObserveStore("session", "store", false)
		return false
	}
	if err := s.kv.Set(ctx, domain.KeyUserData, string(b)); err != nil {
		log.Error().Err(err).Str("store", "session").Msg("write user data failed")
		observability.ObserveStore("session", "store", false)
		return false
	}
	observability.ObserveStore("session", "store", true)
	return true
}

// Get returns the stored record, or nil when it is absent or unusable.
func (s *SessionStore) Get(ctx context.Context) *domain.UserData {
	u, err := s.read(ctx)
	if err != nil {
		log.Warn().Err(err).Str("store", "session").Msg("read user data failed")
		return nil
	}
	return u
}

// read returns nil, nil for an absent or unusable record. The error is only
// set when storage itself failed.
func (s *SessionStore) read(ctx context.Context) (*domain.UserData, error) {
	raw, ok, err := s.kv.Get(ctx, domain.KeyUserData)
	if errors.Is(err, domain.ErrCorrupt) {
		log.Warn().Err(err).Str("store", "session").Msg("user data cannot be opened, ignoring")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "null" {
		return nil, nil
	}
	// a cached HTML error page is not a session
	if strings.HasPrefix(strings.TrimSpace(raw), "<") {
		log.Warn().Str("store", "session").Msg("user data looks like markup, ignoring")
		return nil, nil
	}
	var u domain.UserData
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Warn().Err(err).Str("store", "session").Msg("user data is not valid JSON, ignoring")
		return nil, nil
	}
	return &u, nil
}

func (s *SessionStore) Clear(ctx context.Context) bool {
	if err := s.kv.Delete(ctx, domain.KeyUserData); err != nil {
		log.Error().Err(err).Str("store", "session").Msg("clear user data failed")
		observability.ObserveStore("session", "clear", false)
		return false
	}
	observability.ObserveStore("session", "clear", true)
	return true
}

// Update merges p into an existing record. It never creates one.
func (s *SessionStore) Update(ctx context.Context, p domain.ProfilePatch) bool {
	if u, err := s.read(ctx); err != nil || u == nil {
		return false
	}
	return s.Store(ctx, p)
}
