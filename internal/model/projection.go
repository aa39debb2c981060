// internal/model/projection.go
package model

import "time"

// ThreadListItem is the thread listing projection: the thread joined with its
// account and, when linked, its client identity. Every optional field is a
// pointer so the nullability of the left joins is explicit.
type ThreadListItem struct {
	Thread  Thread         `json:"thread"`
	Account AccountSummary `json:"account"`
	Contact *ContactLink   `json:"contact,omitempty"`
}

// AccountSummary is the slice of the account the thread list exposes.
type AccountSummary struct {
	ID          string `db:"id" json:"id"`
	Channel     string `db:"channel" json:"channel"`
	DisplayName string `db:"display_name" json:"display_name"`
}

// ContactLink is the linked client identity, present only when the thread's
// customer_id weak reference is set.
type ContactLink struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	WhatsApp *string `db:"whatsapp" json:"whatsapp,omitempty"`
}

// ThreadSnapshot is the aggregate the lead scorer reads: current last activity
// plus the trailing-window message count.
type ThreadSnapshot struct {
	ThreadID          string
	Channel           string
	CustomerID        *string
	LastInteractionAt *time.Time
	MessageCount      int
}
