// internal/model/lead.go
package model

import "time"

const (
	LeadStatusNew        = "new"
	LeadStatusInterested = "interested"
	LeadStatusQualified  = "qualified"
	LeadStatusConverted  = "converted"
	LeadStatusLost       = "lost"
)

const (
	QualificationHot  = "hot"
	QualificationWarm = "warm"
	QualificationCold = "cold"
)

// Lead is a scoring record derived from a thread, one per (team_id, thread_id).
// Score, qualification, message count and last interaction are overwritten
// wholesale on every recompute, never patched incrementally.
type Lead struct {
	ID                string     `db:"id" json:"id"`
	TeamID            string     `db:"team_id" json:"team_id"`
	ThreadID          string     `db:"thread_id" json:"thread_id"`
	CustomerID        *string    `db:"customer_id" json:"customer_id,omitempty"`
	Source            string     `db:"source" json:"source"`
	Status            string     `db:"status" json:"status"`
	Score             int        `db:"score" json:"score"`
	Qualification     string     `db:"qualification" json:"qualification"`
	MessageCount      int        `db:"message_count" json:"message_count"`
	LastInteractionAt *time.Time `db:"last_interaction_at" json:"last_interaction_at,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// ValidLeadStatus reports whether s is an application-settable lead status.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusInterested, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}
