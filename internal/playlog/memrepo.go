package playlog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/Cheese-scratch-card/internal/domain"
)

// memrepo keeps rounds in memory when no DATABASE_URL is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID    int64
	bySession map[string]*domain.RoundResult
	byOwner   map[string][]*domain.RoundResult
}

func NewMemoryRepository() Repository {
	return &memrepo{
		bySession: make(map[string]*domain.RoundResult),
		byOwner:   make(map[string][]*domain.RoundResult),
	}
}

func (m *memrepo) Insert(ctx context.Context, round *domain.RoundResult) (int64, error) {
	if round == nil {
		return 0, ErrDuplicateRound
	}
	key := strings.TrimSpace(round.SessionID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bySession[key]; exists {
		return 0, ErrDuplicateRound
	}
	m.nextID++
	stored := *round
	stored.ID = m.nextID
	stored.Revealed = append([]int(nil), round.Revealed...)
	m.bySession[key] = &stored
	m.byOwner[round.Owner] = append(m.byOwner[round.Owner], &stored)
	return stored.ID, nil
}

func (m *memrepo) Recent(ctx context.Context, owner string, limit int) ([]*domain.RoundResult, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byOwner[owner]
	items := make([]*domain.RoundResult, 0, len(list))
	for _, r := range list {
		c := *r
		c.Revealed = append([]int(nil), r.Revealed...)
		items = append(items, &c)
	}
	// newest first, ID breaks ties
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
