// internal/handler/webhook_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/service"
)

// WebhookHandler is the entry point for the provider-side webhook receiver.
// Signature verification happens upstream; by the time a payload lands here it
// is trusted and carries its own team scope.
type WebhookHandler struct {
	Inbox *service.InboxService
	Log   zerolog.Logger
}

// InboundMessagePayload is one provider event: a message or a delivery
// receipt (is_status=true).
type InboundMessagePayload struct {
	TeamID            string     `json:"team_id"`
	AccountID         string     `json:"account_id"`
	Channel           string     `json:"channel"`
	ExternalContactID string     `json:"external_contact_id"`
	Direction         string     `json:"direction"`
	Type              string     `json:"type"`
	Content           *string    `json:"content"`
	MediaRef          *string    `json:"media_ref"`
	IsStatus          bool       `json:"is_status"`
	Timestamp         *time.Time `json:"timestamp"`
}

// HandleInbound upserts the contact's thread and appends the message. Safe to
// call repeatedly for the same contact: concurrent events converge on one
// thread through the store's unique constraint.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	var payload InboundMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if payload.TeamID == "" || payload.AccountID == "" {
		http.Error(w, "team_id and account_id are required", http.StatusBadRequest)
		return
	}
	if payload.Direction == "" {
		payload.Direction = model.DirectionIn
	}

	thread, err := h.Inbox.UpsertThread(payload.TeamID, payload.AccountID, payload.ExternalContactID, payload.Channel)
	if err != nil {
		h.writeError(w, err)
		return
	}

	msg := model.Message{
		Direction: payload.Direction,
		Type:      payload.Type,
		Content:   payload.Content,
		MediaRef:  payload.MediaRef,
		IsStatus:  payload.IsStatus,
	}
	if payload.Timestamp != nil {
		msg.CreatedAt = *payload.Timestamp
	}
	created, err := h.Inbox.AppendMessage(payload.TeamID, thread.ID, msg)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"thread_id":  thread.ID,
		"message_id": created.ID,
	})
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrNotFound
	var validation *appErrors.ErrValidation
	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &validation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.Log.Error().Err(err).Msg("webhook ingest failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
