package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the composition tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Record{}, &HistoryEntry{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// GormRepository stores compositions through GORM
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository creates a repository over an open, migrated database
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

func (g *GormRepository) Save(ctx context.Context, rec *Record) error {
	now := g.now()
	rec.ID = uuid.New().String()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return tx.Create(entry(rec.OwnerID, ActionCreated, rec, now)).Error
	})
}

func (g *GormRepository) Get(ctx context.Context, ownerID, id string) (*Record, error) {
	return g.find(g.db.WithContext(ctx), ownerID, id)
}

func (g *GormRepository) List(ctx context.Context, ownerID string) ([]Record, error) {
	records := make([]Record, 0)
	err := g.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id").
		Find(&records).Error
	return records, err
}

func (g *GormRepository) Delete(ctx context.Context, ownerID, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := g.find(tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Record{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Create(entry(ownerID, ActionDeleted, rec, g.now())).Error
	})
}

func (g *GormRepository) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*Record, error) {
	var out *Record
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := g.find(tx, ownerID, id)
		if err != nil {
			return err
		}
		out = rec
		if rec.Favorite == favorite {
			return nil
		}

		now := g.now()
		action := ActionFavoriteRemoved
		rec.Favorite = favorite
		rec.FavoritedAt = nil
		if favorite {
			action = ActionFavoriteAdded
			rec.FavoritedAt = &now
		}
		if err := tx.Model(rec).Updates(map[string]interface{}{
			"favorite":     rec.Favorite,
			"favorited_at": rec.FavoritedAt,
		}).Error; err != nil {
			return err
		}
		return tx.Create(entry(ownerID, action, rec, now)).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GormRepository) Favorites(ctx context.Context, ownerID string) ([]Record, error) {
	records := make([]Record, 0)
	err := g.db.WithContext(ctx).
		Where("owner_id = ? AND favorite = ?", ownerID, true).
		Order("favorited_at DESC").Order("id").
		Find(&records).Error
	return records, err
}

func (g *GormRepository) History(ctx context.Context, ownerID string, limit int) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)
	err := g.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id DESC").
		Limit(historyLimit(limit)).
		Find(&entries).Error
	return entries, err
}

func (g *GormRepository) find(db *gorm.DB, ownerID, id string) (*Record, error) {
	var rec Record
	if err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func entry(ownerID, action string, rec *Record, at time.Time) *HistoryEntry {
	return &HistoryEntry{
		CreatedAt:     at,
		OwnerID:       ownerID,
		Action:        action,
		CompositionID: rec.ID,
		Title:         rec.Title,
	}
}
