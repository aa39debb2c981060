// internal/model/thread.go
package model

import "time"

const (
	ThreadStatusOpen     = "open"
	ThreadStatusPending  = "pending"
	ThreadStatusResolved = "resolved"
	ThreadStatusSnoozed  = "snoozed"
)

// Thread is one conversation with one external contact on one account.
// Unique per (team_id, account_id, external_contact_id). CustomerID is a weak
// reference to a client record, set only by contact resolution / promotion.
type Thread struct {
	ID                string     `db:"id" json:"id"`
	TeamID            string     `db:"team_id" json:"team_id"`
	AccountID         string     `db:"account_id" json:"account_id"`
	Channel           string     `db:"channel" json:"channel"`
	ExternalContactID string     `db:"external_contact_id" json:"external_contact_id"`
	CustomerID        *string    `db:"customer_id" json:"customer_id,omitempty"`
	Status            string     `db:"status" json:"status"`
	LastMessageAt     *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ValidThreadStatus reports whether s is a status the application may set.
func ValidThreadStatus(s string) bool {
	switch s {
	case ThreadStatusOpen, ThreadStatusPending, ThreadStatusResolved, ThreadStatusSnoozed:
		return true
	}
	return false
}
