package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/m3rciful/likebot/core/kv"
)

// State identifies a finite-state-machine step used in conversations.
type State string

// StateIdle means no expectation is pending; it is never written to the store.
const StateIdle State = ""

// KeyPrefix namespaces state records: user_state:{userID}.
const KeyPrefix = "user_state:"

// Key returns the store key holding userID's state.
func Key(userID int64) string {
	return KeyPrefix + strconv.FormatInt(userID, 10)
}

// Manager reads and writes the single state slot of each user.
type Manager struct {
	store kv.Store
}

// NewManager returns a Manager over store.
func NewManager(store kv.Store) *Manager {
	return &Manager{store: store}
}

// Get returns the user's state, StateIdle when none is stored.
func (m *Manager) Get(ctx context.Context, userID int64) (State, error) {
	st, err := kv.GetJSON[State](ctx, m.store, Key(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("get state: %w", err)
	}
	return st, nil
}

// Set replaces the user's state; setting StateIdle clears it.
func (m *Manager) Set(ctx context.Context, userID int64, st State) error {
	if st == StateIdle {
		return m.Clear(ctx, userID)
	}
	if err := kv.SetJSON(ctx, m.store, Key(userID), st); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// Clear returns the user to StateIdle.
func (m *Manager) Clear(ctx context.Context, userID int64) error {
	if err := m.store.Delete(ctx, Key(userID)); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// InProgress reports whether the user has a pending expectation.
func (m *Manager) InProgress(ctx context.Context, userID int64) (bool, error) {
	st, err := m.Get(ctx, userID)
	return st != StateIdle, err
}
