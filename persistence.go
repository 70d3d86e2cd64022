package session

import (
	"context"
	"encoding/json"

	goerrors "github.com/goliatone/go-errors"
)

// synchronizer is the reactive rule that mirrors the in-memory session to
// the Store. It observes every applied transition: whenever a user and
// credential pair is present it writes the four keys, and whenever the
// session settles unauthenticated after previously being marked active it
// purges them.
//
// The asymmetry is deliberate: the active marker is set eagerly but the
// purge is gated on finding that marker, so the brief unauthenticated window
// before bootstrap resolves can never wipe a stored session.
type synchronizer struct {
	store  Store
	logger Logger
}

func newSynchronizer(store Store, logger Logger) *synchronizer {
	return &synchronizer{
		store:  store,
		logger: logger,
	}
}

func (s *synchronizer) attach(m *Manager) {
	m.OnChange(s.react)
}

func (s *synchronizer) react(st State) {
	ctx := context.Background()

	if st.User != nil && st.Credential != "" {
		s.mirror(ctx, st)
		return
	}

	if st.User == nil && !st.Loading {
		s.purgeIfActive(ctx)
	}
}

func (s *synchronizer) mirror(ctx context.Context, st State) {
	if err := s.store.Set(ctx, KeyCredential, st.Credential); err != nil {
		s.logger.Warn("failed to persist credential: %v", err)
	}
	if err := writeUserSnapshot(ctx, s.store, st.User); err != nil {
		s.logger.Warn("failed to persist user snapshot: %v", err)
	}
	if secondary := st.User.SecondaryParentID(); secondary != "" {
		if err := s.store.Set(ctx, KeySecondaryParentID, secondary); err != nil {
			s.logger.Warn("failed to persist secondary parent id: %v", err)
		}
	}
	if err := s.store.Set(ctx, KeySessionActive, sessionActiveMarker); err != nil {
		s.logger.Warn("failed to persist session-active marker: %v", err)
	}
}

func (s *synchronizer) purgeIfActive(ctx context.Context) {
	marker, err := s.store.Get(ctx, KeySessionActive)
	if err != nil {
		s.logger.Warn("failed to read session-active marker: %v", err)
		return
	}
	if marker == "" {
		return
	}

	if err := PurgeSessionKeys(ctx, s.store); err != nil {
		s.logger.Warn("failed to purge session keys: %v", err)
	}
}

// writeUserSnapshot serializes the user wholesale under KeyUserSnapshot.
func writeUserSnapshot(ctx context.Context, store Store, user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize user snapshot")
	}
	return store.Set(ctx, KeyUserSnapshot, string(raw))
}

// parseUserSnapshot decodes a persisted snapshot. Malformed content is an
// error for the caller to translate into a silent purge, never a user-facing
// failure.
func parseUserSnapshot(raw string) (*User, error) {
	user := new(User)
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "persisted session snapshot failed to parse").
			WithTextCode(TextCodeMalformedSnapshot)
	}
	if user.ID == "" {
		return nil, ErrMalformedSnapshot
	}
	return user, nil
}
