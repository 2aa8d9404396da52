package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps compositions in process memory
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
	history []HistoryEntry
	nextID  uint
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

func (m *MemoryRepository) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec.ID = uuid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	stored := *rec
	m.records[rec.ID] = &stored
	m.record(rec.OwnerID, ActionCreated, rec, now)
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, ownerID, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	out := *rec
	return &out, nil
}

func (m *MemoryRepository) List(_ context.Context, ownerID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.collect(ownerID, func(*Record) bool { return true })
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(ownerID, id)
	if err != nil {
		return err
	}
	delete(m.records, id)
	m.record(ownerID, ActionDeleted, rec, m.now())
	return nil
}

func (m *MemoryRepository) SetFavorite(_ context.Context, ownerID, id string, favorite bool) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	if rec.Favorite != favorite {
		now := m.now()
		rec.Favorite = favorite
		rec.UpdatedAt = now
		if favorite {
			rec.FavoritedAt = &now
			m.record(ownerID, ActionFavoriteAdded, rec, now)
		} else {
			rec.FavoritedAt = nil
			m.record(ownerID, ActionFavoriteRemoved, rec, now)
		}
	}
	out := *rec
	return &out, nil
}

func (m *MemoryRepository) Favorites(_ context.Context, ownerID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.collect(ownerID, func(r *Record) bool { return r.Favorite })
	sort.SliceStable(out, func(a, b int) bool { return out[a].FavoritedAt.After(*out[b].FavoritedAt) })
	return out, nil
}

func (m *MemoryRepository) History(_ context.Context, ownerID string, limit int) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = historyLimit(limit)
	out := make([]HistoryEntry, 0)
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		if m.history[i].OwnerID == ownerID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}

// lookup must be called with the lock held
func (m *MemoryRepository) lookup(ownerID, id string) (*Record, error) {
	rec, ok := m.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryRepository) collect(ownerID string, keep func(*Record) bool) []Record {
	out := make([]Record, 0)
	for _, rec := range m.records {
		if rec.OwnerID == ownerID && keep(rec) {
			out = append(out, *rec)
		}
	}
	// map order is random; fix ties before the caller's stable sort
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (m *MemoryRepository) record(ownerID, action string, rec *Record, at time.Time) {
	m.nextID++
	m.history = append(m.history, HistoryEntry{
		ID:            m.nextID,
		CreatedAt:     at,
		OwnerID:       ownerID,
		Action:        action,
		CompositionID: rec.ID,
		Title:         rec.Title,
	})
}
