// internal/model/outbox_entry.go
package model

import "time"

const (
	OutboxStatusQueued    = "queued"
	OutboxStatusSent      = "sent"
	OutboxStatusDelivered = "delivered"
	OutboxStatusRead      = "read"
	OutboxStatusFailed    = "failed"
)

// OutboxEntry is one outbound send request awaiting transport. The engine only
// ever writes status=queued; every later transition belongs to the external
// worker. At most one entry may exist per (team_id, account_id,
// client_message_id) when a client message id is supplied.
type OutboxEntry struct {
	ID              string    `db:"id" json:"id"`
	TeamID          string    `db:"team_id" json:"team_id"`
	AccountID       string    `db:"account_id" json:"account_id"`
	Recipient       string    `db:"recipient" json:"recipient"`
	Content         *string   `db:"content" json:"content,omitempty"`
	MediaRef        *string   `db:"media_ref" json:"media_ref,omitempty"`
	Status          string    `db:"status" json:"status"`
	ClientMessageID *string   `db:"client_message_id" json:"client_message_id,omitempty"`
	LastError       *string   `db:"last_error" json:"last_error,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

var outboxStatusRank = map[string]int{
	OutboxStatusQueued:    0,
	OutboxStatusSent:      1,
	OutboxStatusDelivered: 2,
	OutboxStatusRead:      3,
}

// ValidOutboxTransition reports whether an outbox entry may move from one
// status to the next. Transitions are monotonic: queued -> sent -> delivered ->
// read, or queued -> failed. Failed is terminal.
func ValidOutboxTransition(from, to string) bool {
	if from == OutboxStatusFailed {
		return false
	}
	if to == OutboxStatusFailed {
		return from == OutboxStatusQueued
	}
	fromRank, ok := outboxStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := outboxStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
