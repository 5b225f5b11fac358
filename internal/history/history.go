// Package history persists a log of backup and restore operations in a
// local SQLite database. The engine records every invocation, successful or
// failed, so users can answer "when did I last back this up, and did it
// work" without trawling the archive tree.
package history

import (
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/savekit/savekit/internal/engine"
	"github.com/savekit/savekit/internal/errors"
)

// Record is one logged operation.
type Record struct {
	ID          uint   `gorm:"primaryKey"`
	Kind        string `gorm:"type:text;not null;index"`
	ProfileID   string `gorm:"type:text;not null;index"`
	GameName    string `gorm:"type:text;not null"`
	ArchivePath string `gorm:"type:text"`
	FailedStep  string `gorm:"type:text"`
	Error       string `gorm:"type:text"`
	DurationMS  int64  `gorm:"not null"`
	StartedAt   time.Time
	Metadata    string `gorm:"type:text"` // JSON object of hook-contributed keys

	CreatedAt time.Time
}

// Succeeded reports whether the recorded operation completed.
func (r Record) Succeeded() bool {
	return r.Error == ""
}

// Store is a SQLite-backed operation log. It implements engine.Recorder.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening history database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting database handle")
	}
	// SQLite supports a single writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, errors.Wrap(err, "migrating history schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "getting database handle")
	}
	return sqlDB.Close()
}

// Record logs one operation. Implements engine.Recorder.
func (s *Store) Record(op engine.Operation) error {
	rec := Record{
		Kind:        op.Kind,
		ProfileID:   op.ProfileID,
		GameName:    op.GameName,
		ArchivePath: op.ArchivePath,
		FailedStep:  string(op.FailedStep),
		Error:       op.Error,
		DurationMS:  op.Duration.Milliseconds(),
		StartedAt:   op.StartedAt,
	}

	if len(op.Metadata) > 0 {
		data, err := json.Marshal(op.Metadata)
		if err != nil {
			return errors.Wrap(err, "marshaling metadata")
		}
		rec.Metadata = string(data)
	}

	return errors.Wrap(s.db.Create(&rec).Error, "inserting history record")
}

// List returns recorded operations newest first. An empty profileID lists
// all profiles; limit <= 0 means no limit.
func (s *Store) List(profileID string, limit int) ([]Record, error) {
	q := s.db.Order("started_at DESC, id DESC")
	if profileID != "" {
		q = q.Where("profile_id = ?", profileID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var records []Record
	if err := q.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "querying history")
	}
	return records, nil
}

// LastSuccess returns the most recent successful operation of the given
// kind for a profile, or nil when none exists.
func (s *Store) LastSuccess(profileID, kind string) (*Record, error) {
	var rec Record
	err := s.db.
		Where("profile_id = ? AND kind = ? AND error = ''", profileID, kind).
		Order("started_at DESC, id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "querying history")
	}
	return &rec, nil
}
