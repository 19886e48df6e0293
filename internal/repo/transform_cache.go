package repo

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
)

// purgeEvery is the number of writes between expired-row purges.
const purgeEvery = 100

// TransformCache is a cache.Store over the transform_cache table.
//
// Get filters on expires_at, so a row past its TTL is never served even if
// it has not been purged yet. Put upserts on the key.
type TransformCache struct {
	db     *gorm.DB
	ttl    time.Duration
	now    func() time.Time
	writes atomic.Uint64
}

// NewTransformCache returns a store over db with the given TTL. The table
// must already exist (see AutoMigrate).
func NewTransformCache(db *gorm.DB, ttl time.Duration) *TransformCache {
	return &TransformCache{db: db, ttl: ttl, now: time.Now}
}

// Get returns the live record for key.
func (s *TransformCache) Get(ctx context.Context, key string) (*domain.CachedTransform, bool, error) {
	var row domain.CacheEntry
	err := s.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, s.now().UTC()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Record(), true, nil
}

// Put writes rec under key, replacing any previous row, and periodically
// removes expired rows.
func (s *TransformCache) Put(ctx context.Context, key string, rec domain.CachedTransform) error {
	now := s.now()
	row := domain.NewCacheEntry(key, rec, now, s.ttl)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return err
	}

	if s.writes.Add(1)%purgeEvery == 0 {
		_, err = s.PurgeExpired(ctx)
	}
	return err
}

// PurgeExpired deletes rows whose expiry has passed and returns the count.
func (s *TransformCache) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now().UTC()).
		Delete(&domain.CacheEntry{})
	return res.RowsAffected, res.Error
}

// Count returns the number of stored rows, expired or not.
func (s *TransformCache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.CacheEntry{}).Count(&n).Error
	return n, err
}
