// Package watchlist keeps per-chat ticker lists.
package watchlist

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"Kolgejt/internal/universe"
)

// DefaultMaxSize caps one session's list.
const DefaultMaxSize = 50

var (
	ErrInvalidTicker = errors.New("invalid ticker")
	ErrFull          = errors.New("watchlist is full")
)

// Manager handles watchlist operations with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
	maxSize  int
}

// NewManager creates a Manager, loading state from disk.
func NewManager(filePath string, maxSize int) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load watchlist %s: %w", filePath, err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{state: state, filePath: filePath, maxSize: maxSize}, nil
}

// Add appends tickers to the session's list, skipping ones already present.
// It returns the tickers actually added.
func (m *Manager) Add(session string, tickers ...string) ([]string, error) {
	norm := universe.Normalize(tickers)
	if len(norm) == 0 {
		return nil, ErrInvalidTicker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.state.Sessions[session]
	var added []string
	for _, t := range norm {
		if slices.Contains(list, t) {
			continue
		}
		if len(list) >= m.maxSize {
			m.state.Sessions[session] = list
			if err := m.save(); err != nil {
				return added, err
			}
			return added, fmt.Errorf("%w: %d tickers", ErrFull, m.maxSize)
		}
		list = append(list, t)
		added = append(added, t)
	}
	m.state.Sessions[session] = list
	return added, m.save()
}

// Remove deletes tickers from the session's list and reports how many were present.
func (m *Manager) Remove(session string, tickers ...string) (int, error) {
	norm := universe.Normalize(tickers)

	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.state.Sessions[session]
	kept := list[:0:0]
	for _, t := range list {
		if !slices.Contains(norm, t) {
			kept = append(kept, t)
		}
	}
	removed := len(list) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if len(kept) == 0 {
		delete(m.state.Sessions, session)
	} else {
		m.state.Sessions[session] = kept
	}
	return removed, m.save()
}

// List returns a copy of the session's list in insertion order.
func (m *Manager) List(session string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.Sessions[session])
}

func (m *Manager) save() error {
	if err := SaveState(m.filePath, m.state); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	return nil
}
