package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"clocktower/internal/referee"
)

// ErrTableNotFound is returned for a guild with no table yet
var ErrTableNotFound = errors.New("table not found")

// TableFactory builds the table for a guild the first time it is needed
type TableFactory func(guildID string) *referee.Table

// MemoryStore holds every guild's table in memory. Nothing survives a
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	tables  map[string]*referee.Table
	factory TableFactory
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(factory TableFactory) *MemoryStore {
	return &MemoryStore{
		tables:  make(map[string]*referee.Table),
		factory: factory,
	}
}

// GetOrCreate returns the guild's table, building it on first use
func (s *MemoryStore) GetOrCreate(guildID string) *referee.Table {
	s.mu.RLock()
	table, ok := s.tables[guildID]
	s.mu.RUnlock()
	if ok {
		return table
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if table, ok := s.tables[guildID]; ok {
		return table
	}
	table = s.factory(guildID)
	s.tables[guildID] = table
	return table
}

// GetTable retrieves a table by guild
func (s *MemoryStore) GetTable(guildID string) (*referee.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, exists := s.tables[guildID]
	if !exists {
		return nil, fmt.Errorf("%w: guild %s", ErrTableNotFound, guildID)
	}

	return table, nil
}

// ListTables returns every table ordered by guild
func (s *MemoryStore) ListTables() []*referee.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*referee.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *referee.Table) int {
		return strings.Compare(a.GuildID, b.GuildID)
	})
	return out
}
