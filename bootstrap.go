package session

import (
	"context"
)

// bootstrap reconciles the in-memory session with durable storage on
// process start:
//
//  1. credential and snapshot both live: restore directly.
//  2. snapshot only (credential missing or provably expired): one refresh
//     attempt; failure degrades to a clean unauthenticated session.
//  3. neither: settle unauthenticated.
//
// A snapshot that fails to parse is treated as absent and purged; it never
// surfaces as a user-facing error.
func (m *Manager) bootstrap(ctx context.Context) {
	credential, err := m.store.Get(ctx, KeyCredential)
	if err != nil {
		m.logger.Warn("bootstrap failed to read credential: %v", err)
	}

	rawSnapshot, err := m.store.Get(ctx, KeyUserSnapshot)
	if err != nil {
		m.logger.Warn("bootstrap failed to read user snapshot: %v", err)
	}

	if rawSnapshot == "" {
		// A credential without a snapshot is unusable; drop it so the next
		// start does not retry the same dead end.
		if credential != "" {
			if err := PurgeSessionKeys(ctx, m.store); err != nil {
				m.logger.Warn("bootstrap failed to purge orphaned credential: %v", err)
			}
		}
		m.apply(SetLoading{Loading: false})
		return
	}

	user, err := parseUserSnapshot(rawSnapshot)
	if err != nil {
		m.logger.Warn("purging malformed session snapshot: %v", err)
		if purgeErr := PurgeSessionKeys(ctx, m.store); purgeErr != nil {
			m.logger.Warn("bootstrap failed to purge session keys: %v", purgeErr)
		}
		m.recordActivity(ctx, ActivityEvent{EventType: ActivityEventSnapshotPurged})
		m.apply(SetLoading{Loading: false})
		return
	}

	// Legacy snapshots may carry the role in object form and parent accounts
	// may predate the capability list; re-persist when the backfill changed
	// anything.
	if user.Normalize() {
		if err := writeUserSnapshot(ctx, m.store, user); err != nil {
			m.logger.Warn("bootstrap failed to re-persist normalized snapshot: %v", err)
		}
	}

	if credential != "" && !credentialExpired(credential, m.now()) {
		m.apply(RestoreSnapshot{User: user, Credential: credential})
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventRestored,
			UserID:    user.ID,
			Role:      user.Role,
		})
		return
	}

	token, ok := m.RefreshCredential(ctx)
	if !ok {
		if err := PurgeSessionKeys(ctx, m.store); err != nil {
			m.logger.Warn("bootstrap failed to purge session keys: %v", err)
		}
		m.apply(Logout{})
		return
	}

	m.apply(LoginSucceeded{User: user, Credential: token})
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRestored,
		UserID:    user.ID,
		Role:      user.Role,
		Metadata:  map[string]any{"refreshed": true},
	})
}
