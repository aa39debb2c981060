// internal/model/account.go
package model

import "time"

// Account statuses are driven by the provider-integration layer, not by this engine.
const (
	AccountStatusConnecting   = "connecting"
	AccountStatusConnected    = "connected"
	AccountStatusError        = "error"
	AccountStatusDisconnected = "disconnected"
)

// Channels supported by the engine. Unique per (team_id, channel, external_id).
const (
	ChannelWhatsApp  = "whatsapp"
	ChannelInstagram = "instagram"
	ChannelTelegram  = "telegram"
	ChannelEmail     = "email"
)

type Account struct {
	ID          string     `db:"id" json:"id"`
	TeamID      string     `db:"team_id" json:"team_id"`
	Channel     string     `db:"channel" json:"channel"`
	ExternalID  string     `db:"external_id" json:"external_id"`
	DisplayName string     `db:"display_name" json:"display_name"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// KnownChannel reports whether ch is one of the supported channels.
func KnownChannel(ch string) bool {
	switch ch {
	case ChannelWhatsApp, ChannelInstagram, ChannelTelegram, ChannelEmail:
		return true
	}
	return false
}
