package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"presence-sync/core/database"
	"presence-sync/core/presence"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSchemaMismatch is returned by Verify when the journal table lacks required columns.
var ErrSchemaMismatch = errors.New("journal: schema mismatch")

// Recorder persists roster changes through gorm.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder creates a recorder on db.
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, logger: logger}
}

// Migrate creates or updates the journal table.
func (r *Recorder) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}

// Verify checks that an existing journal table has every required column.
func (r *Recorder) Verify(ctx context.Context) error {
	missing, err := database.MissingColumns(r.db.WithContext(ctx), Entry{}.TableName(), requiredColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}

// Record stores one change of topic.
func (r *Recorder) Record(ctx context.Context, topic string, c presence.Change) error {
	entry := NewEntry(topic, c)
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record change of %s/%s: %w", topic, c.Key, err)
	}

	r.logger.Debug("Recorded presence change",
		zap.String("topic", topic),
		zap.String("key", c.Key),
		zap.String("kind", entry.Kind),
	)
	return nil
}

// Observer adapts the recorder to a presence.ChangeFunc bound to topic. Write failures
// are logged, not returned, since change handlers cannot fail.
func (r *Recorder) Observer(ctx context.Context, topic string) presence.ChangeFunc {
	return func(key string, oldPresence, newPresence *presence.Presence) {
		c := presence.Change{Key: key, Old: oldPresence, New: newPresence}
		if err := r.Record(ctx, topic, c); err != nil {
			r.logger.Warn("Journal write failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// List returns the recorded changes of topic, oldest first.
func (r *Recorder) List(ctx context.Context, topic string) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("topic = ?", topic).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list journal of %s: %w", topic, err)
	}
	return entries, nil
}

// Purge deletes all recorded changes of topic and returns the number of removed entries.
func (r *Recorder) Purge(ctx context.Context, topic string) (int64, error) {
	res := r.db.WithContext(ctx).Where("topic = ?", topic).Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge journal of %s: %w", topic, res.Error)
	}
	return res.RowsAffected, nil
}
