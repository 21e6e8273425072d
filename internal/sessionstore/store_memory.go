package sessionstore

import (
    "context"
    "sync"
    "time"

    "github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

type memEntry struct {
    active  scratchdto.ActiveSession
    expires time.Time
}

type memValues struct {
    values  map[int]int
    expires time.Time
}

// MemoryStore is the in-process fallback used when no REDIS_URL is set.
// Nothing survives a restart, so ResumeActive only helps within one process.
type MemoryStore struct {
    mu     sync.Mutex
    now    func() time.Time
    active map[string]memEntry
    values map[string]memValues
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{now: time.Now, active: map[string]memEntry{}, values: map[string]memValues{}}
}

func (m *MemoryStore) SaveActive(_ context.Context, owner string, a scratchdto.ActiveSession, ttl time.Duration) error {
    if ttl <= 0 { return nil }
    m.mu.Lock()
    defer m.mu.Unlock()
    m.active[owner] = memEntry{active: a, expires: m.now().Add(ttl)}
    return nil
}

func (m *MemoryStore) LoadActive(_ context.Context, owner string) (*scratchdto.ActiveSession, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.active[owner]
    if !ok { return nil, nil }
    if !m.now().Before(e.expires) {
        delete(m.active, owner)
        return nil, nil
    }
    a := e.active
    return &a, nil
}

func (m *MemoryStore) ClearActive(_ context.Context, owner string) error {
    m.mu.Lock()
    delete(m.active, owner)
    m.mu.Unlock()
    return nil
}

func (m *MemoryStore) RememberValue(_ context.Context, sessionID string, index, value int, ttl time.Duration) error {
    if ttl <= 0 { return nil }
    m.mu.Lock()
    defer m.mu.Unlock()
    e := m.values[sessionID]
    if e.values == nil { e.values = map[int]int{} }
    e.values[index] = value
    e.expires = m.now().Add(ttl)
    m.values[sessionID] = e
    return nil
}

func (m *MemoryStore) Values(_ context.Context, sessionID string) (map[int]int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    e, ok := m.values[sessionID]
    if !ok || !m.now().Before(e.expires) {
        delete(m.values, sessionID)
        return map[int]int{}, nil
    }
    out := make(map[int]int, len(e.values))
    for k, v := range e.values { out[k] = v }
    return out, nil
}
