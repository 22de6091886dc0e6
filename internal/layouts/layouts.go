// Package layouts persists dashboard layouts per user.
package layouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
)

// ErrNotFound is returned when a user has no saved layout.
var ErrNotFound = errors.New("layouts: not found")

// Store loads and saves one layout per user id.
type Store interface {
	Get(ctx context.Context, userID string) (dashboard.Layout, error)
	Save(ctx context.Context, userID string, layout dashboard.Layout) error
}

// GetOrDefault returns the stored layout, or fallback when none was saved.
func GetOrDefault(ctx context.Context, store Store, userID string, fallback dashboard.Layout) (dashboard.Layout, error) {
	layout, err := store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return fallback.Clone(), nil
	}
	return layout, err
}

func prepare(userID string, layout dashboard.Layout) ([]byte, error) {
	if userID == "" {
		return nil, errors.New("layouts: user id is required")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("layouts: encode: %w", err)
	}
	return data, nil
}

func decode(userID string, data []byte) (dashboard.Layout, error) {
	var layout dashboard.Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return dashboard.Layout{}, fmt.Errorf("layouts: decode layout of %s: %w", userID, err)
	}
	return layout, nil
}

// Memory keeps layouts in process.
type Memory struct {
	mu      sync.RWMutex
	layouts map[string]dashboard.Layout
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{layouts: make(map[string]dashboard.Layout)}
}

func (m *Memory) Get(ctx context.Context, userID string) (dashboard.Layout, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.Layout{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	layout, ok := m.layouts[userID]
	if !ok {
		return dashboard.Layout{}, ErrNotFound
	}
	return layout.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, userID string, layout dashboard.Layout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := prepare(userID, layout); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layouts[userID] = layout.Clone()
	return nil
}
