// Package store persists generated compositions, per-owner favorites and an
// activity history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/james-see/fractune/pkg/engine"
)

// ErrNotFound is returned when a composition does not exist or belongs to
// another owner
var ErrNotFound = errors.New("composition not found")

// History actions
const (
	ActionCreated         = "composition_created"
	ActionDeleted         = "composition_deleted"
	ActionFavoriteAdded   = "favorite_added"
	ActionFavoriteRemoved = "favorite_removed"
)

// DefaultHistoryLimit caps History when no positive limit is given
const DefaultHistoryLimit = 50

// Record is a saved composition
type Record struct {
	ID          string             `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt   time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	OwnerID     string             `gorm:"not null;index" json:"owner_id"`
	Title       string             `json:"title"`
	Seed        int64              `json:"seed"`
	Composition engine.Composition `gorm:"serializer:json;type:text" json:"composition"`
	Favorite    bool               `gorm:"default:false;index" json:"favorite"`
	FavoritedAt *time.Time         `json:"favorited_at,omitempty"`
}

func (Record) TableName() string { return "compositions" }

// HistoryEntry records one change to an owner's compositions
type HistoryEntry struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerID       string    `gorm:"not null;index" json:"owner_id"`
	Action        string    `gorm:"not null" json:"action"`
	CompositionID string    `gorm:"size:36;index" json:"composition_id"`
	Title         string    `json:"title"`
}

func (HistoryEntry) TableName() string { return "composition_history" }

// Summary is the list view of a record, without note events
type Summary struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Seed        int64          `json:"seed"`
	Scale       engine.ScaleID `json:"scale"`
	Tempo       int            `json:"tempo"`
	Events      map[string]int `json:"events"`
	LengthBeats float64        `json:"length_beats"`
	Favorite    bool           `json:"favorite"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Summary returns the list view of the record
func (r *Record) Summary() Summary {
	counts := make(map[string]int, len(engine.Tracks))
	for t, n := range r.Composition.Counts() {
		counts[string(t)] = n
	}
	return Summary{
		ID:          r.ID,
		Title:       r.Title,
		Seed:        r.Seed,
		Scale:       r.Composition.Parameters.Scale,
		Tempo:       r.Composition.Parameters.Tempo,
		Events:      counts,
		LengthBeats: r.Composition.LengthBeats(),
		Favorite:    r.Favorite,
		CreatedAt:   r.CreatedAt,
	}
}

// Summaries maps records to their list views
func Summaries(records []Record) []Summary {
	out := make([]Summary, len(records))
	for i := range records {
		out[i] = records[i].Summary()
	}
	return out
}

// Repository stores compositions. Every operation is scoped to an owner;
// records of other owners behave as missing.
type Repository interface {
	// Save inserts a record, assigning its ID and timestamps
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, ownerID, id string) (*Record, error)
	// List returns the owner's records, newest first
	List(ctx context.Context, ownerID string) ([]Record, error)
	Delete(ctx context.Context, ownerID, id string) error
	SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*Record, error)
	// Favorites returns favorited records, most recently favorited first
	Favorites(ctx context.Context, ownerID string) ([]Record, error)
	// History returns the newest entries first
	History(ctx context.Context, ownerID string, limit int) ([]HistoryEntry, error)
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
