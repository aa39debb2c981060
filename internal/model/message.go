// internal/model/message.go
package model

import "time"

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

const (
	MessageTypeText  = "text"
	MessageTypeMedia = "media"
)

// Message is one unit of conversation content, immutable once created.
// Ordered by (created_at desc, id desc) for pagination. IsStatus marks provider
// delivery-receipt events that are hidden from the conversation view but still
// timestamp-order the thread.
type Message struct {
	ID          string     `db:"id" json:"id"`
	TeamID      string     `db:"team_id" json:"team_id"`
	ThreadID    string     `db:"thread_id" json:"thread_id"`
	Direction   string     `db:"direction" json:"direction"`
	Type        string     `db:"type" json:"type"`
	Content     *string    `db:"content" json:"content,omitempty"`
	MediaRef    *string    `db:"media_ref" json:"media_ref,omitempty"`
	IsStatus    bool       `db:"is_status" json:"is_status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
}
