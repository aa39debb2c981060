// internal/model/client.go
package model

import "time"

// Client is the minimal projection of the client entity this engine needs for
// contact resolution. The full client record is owned by the CRUD layer.
type Client struct {
	ID        string    `db:"id" json:"id"`
	TeamID    string    `db:"team_id" json:"team_id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	WhatsApp  *string   `db:"whatsapp" json:"whatsapp,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
