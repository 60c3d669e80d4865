// Package session maps opaque session identifiers to the id of the logged-in user.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/kvstore"
	"github.com/patric-chuzhbe/tracky/internal/logger"
)

const (
	keyPrefix = "sess:"
	idBytes   = 32
)

var ErrEmptyID = errors.New("empty session id")

type payload struct {
	UserID int64 `json:"userId"`
}

type Manager struct {
	store kvstore.Store
	ttl   time.Duration
}

func NewManager(store kvstore.Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// NewID returns a fresh unguessable session identifier.
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("in internal/session/session.go/NewID(): error while `rand.Read()` calling: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Resolve returns the user bound to id. It never fails: unknown, expired or
// unreadable sessions, and store outages, all resolve to no user.
func (m *Manager) Resolve(ctx context.Context, id string) (int64, bool) {
	if id == "" {
		return 0, false
	}

	raw, found, err := m.store.Get(ctx, keyPrefix+id)
	if err != nil {
		logger.Log.Debugw("session lookup failed", "err", err)
		return 0, false
	}
	if !found {
		return 0, false
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.UserID == 0 {
		logger.Log.Debugw("session payload unreadable", "err", err)
		return 0, false
	}

	return p.UserID, true
}

// Establish binds id to userID, replacing whatever the session held before.
func (m *Manager) Establish(ctx context.Context, id string, userID int64) error {
	if id == "" {
		return ErrEmptyID
	}

	raw, err := json.Marshal(payload{UserID: userID})
	if err != nil {
		return fmt.Errorf("in internal/session/session.go/Establish(): error while `json.Marshal()` calling: %w", err)
	}

	if err := m.store.Set(ctx, keyPrefix+id, string(raw), m.ttl); err != nil {
		return fmt.Errorf("in internal/session/session.go/Establish(): error while `m.store.Set()` calling: %w", err)
	}

	return nil
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	if err := m.store.Del(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("in internal/session/session.go/Destroy(): error while `m.store.Del()` calling: %w", err)
	}

	return nil
}
