// Package domain defines the transform records shared by the cache backends,
// the service layer and the HTTP handlers. CacheEntry is the GORM mapping used
// by the SQLite backend; CachedTransform is the backend-neutral value.
package domain

import "time"

// CachedTransform is a completed transform stored under its content key.
// A record is immutable once written and expires passively after the cache TTL.
type CachedTransform struct {
	StructuredPrompt string    `json:"structuredPrompt"`
	Model            string    `json:"model"`
	Usage            *int      `json:"usage"`
	Mocked           bool      `json:"mocked,omitempty"`
	CachedAt         time.Time `json:"cachedAt"`
}

// Valid reports whether the record can be served. Records without structured
// text are treated as cache misses.
func (r *CachedTransform) Valid() bool {
	return r != nil && r.StructuredPrompt != ""
}

// TransformInput is a validated transform request. Prompt is already trimmed
// and non-empty. Mode and Model are nil when the caller omitted them.
type TransformInput struct {
	Prompt string
	Mode   *string
	Model  *string
}

// ModeValue returns the mode, or "" when absent.
func (in TransformInput) ModeValue() string {
	if in.Mode == nil {
		return ""
	}
	return *in.Mode
}

// CacheEntry is a row of the transform_cache table.
//
// Fields:
//   - Key: lowercase hex SHA-256 content key (primary key).
//   - StructuredPrompt / Model / Usage / Mocked: the cached transform.
//   - CachedAt: when the upstream result was first written.
//   - ExpiresAt: rows at or past this instant are never served (indexed for purges).
type CacheEntry struct {
	Key              string    `gorm:"type:char(64);primaryKey"`
	StructuredPrompt string    `gorm:"type:text;not null"`
	Model            string    `gorm:"type:varchar(128);not null"`
	Usage            *int      `gorm:""`
	Mocked           bool      `gorm:"not null;default:false"`
	CachedAt         time.Time `gorm:"not null"`
	ExpiresAt        time.Time `gorm:"not null;index:idx_transform_cache_expires"`
}

// TableName returns the database table name for CacheEntry.
func (CacheEntry) TableName() string { return "transform_cache" }

// NewCacheEntry builds the row for rec under key, expiring ttl after now.
func NewCacheEntry(key string, rec CachedTransform, now time.Time, ttl time.Duration) CacheEntry {
	return CacheEntry{
		Key:              key,
		StructuredPrompt: rec.StructuredPrompt,
		Model:            rec.Model,
		Usage:            rec.Usage,
		Mocked:           rec.Mocked,
		CachedAt:         rec.CachedAt.UTC(),
		ExpiresAt:        now.Add(ttl).UTC(),
	}
}

// Record converts the row back to a backend-neutral record.
func (e CacheEntry) Record() *CachedTransform {
	return &CachedTransform{
		StructuredPrompt: e.StructuredPrompt,
		Model:            e.Model,
		Usage:            e.Usage,
		Mocked:           e.Mocked,
		CachedAt:         e.CachedAt,
	}
}
