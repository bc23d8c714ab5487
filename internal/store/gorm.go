package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crushboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend stores confessions in PostgreSQL. likedBy lives in a jsonb column so a like
// toggle can be a single UPDATE.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (g *GormBackend) ListConfessions(ctx context.Context) ([]models.Confession, error) {
	var rows []models.Confession
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *GormBackend) GetConfession(ctx context.Context, id string) (*models.Confession, error) {
	var c models.Confession
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (g *GormBackend) CreateConfession(ctx context.Context, c *models.Confession) error {
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = &now
	if c.LikedBy == nil {
		c.LikedBy = models.LikedBy{}
	}
	return g.db.WithContext(ctx).Create(c).Error
}

// PatchLike moves the counter relative to its stored value and writes the flag in the same
// statement, so concurrent likes by other users are never lost.
func (g *GormBackend) PatchLike(ctx context.Context, id string, p LikePatch) error {
	if _, err := uuid.Parse(p.UserID); err != nil {
		return fmt.Errorf("invalid user id %q", p.UserID)
	}
	res := g.db.WithContext(ctx).Model(&models.Confession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"likes_count": gorm.Expr("likes_count + ?", p.Delta),
		"liked_by": gorm.Expr(
			"jsonb_set(COALESCE(liked_by, '{}'::jsonb), ?::text[], to_jsonb(?::boolean), true)",
			"{"+p.UserID+"}", p.Liked,
		),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormBackend) ListReplies(ctx context.Context, confessionID string) ([]models.Reply, error) {
	var rows []models.Reply
	err := g.db.WithContext(ctx).
		Where("parent_confession_id = ?", confessionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *GormBackend) CreateReply(ctx context.Context, r *models.Reply) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Confession{}).Where("id = ?", r.ParentConfessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		now := time.Now().UTC()
		r.ID = uuid.NewString()
		r.CreatedAt = &now
		return tx.Omit("Parent").Create(r).Error
	})
}

func (g *GormBackend) Import(ctx context.Context, items []models.Confession) (int, error) {
	inserted := 0
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		res := g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&items[i])
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

func (g *GormBackend) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
