package journal

import (
	"time"

	"presence-sync/core/presence"
)

// Change kinds recorded in the journal.
const (
	KindJoin   = "join"
	KindLeave  = "leave"
	KindUpdate = "update"
)

// Entry is one roster change of a topic.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Topic     string    `gorm:"size:255;index;not null" json:"topic"`
	Key       string    `gorm:"size:255;not null" json:"key"`
	Kind      string    `gorm:"size:16;not null" json:"kind"`
	OldRefs   []string  `gorm:"serializer:json" json:"old_refs"`
	NewRefs   []string  `gorm:"serializer:json" json:"new_refs"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the default table name.
func (Entry) TableName() string {
	return "presence_changes"
}

// requiredColumns lists the columns Verify expects on an existing table.
var requiredColumns = []string{"id", "topic", "key", "kind", "old_refs", "new_refs", "created_at"}

// KindOf classifies a change: a key that was absent joined, a key that lost its last
// instance left, anything else is an update.
func KindOf(c presence.Change) string {
	switch {
	case c.Old == nil:
		return KindJoin
	case c.New == nil || len(c.New.Metas) == 0:
		return KindLeave
	default:
		return KindUpdate
	}
}

// NewEntry converts a change of topic into an unsaved entry.
func NewEntry(topic string, c presence.Change) Entry {
	return Entry{
		Topic:   topic,
		Key:     c.Key,
		Kind:    KindOf(c),
		OldRefs: c.Old.Refs(),
		NewRefs: c.New.Refs(),
	}
}
