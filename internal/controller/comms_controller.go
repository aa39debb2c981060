// internal/controller/comms_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/service"
)

type CommsController struct {
	Inbox    *service.InboxService
	Outbox   *service.OutboxService
	Contacts *service.ContactService
}

func (c *CommsController) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := c.Inbox.ListAccounts(teamID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": accounts})
}

func (c *CommsController) ListThreads(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.ThreadStatusOpen
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := c.Inbox.ListThreads(teamID(r), status, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (c *CommsController) ListMessages(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, appErrors.NewValidation("invalid before timestamp"))
			return
		}
		before = &t
	}

	page, err := c.Inbox.ListMessages(teamID(r), threadID, limit, before)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (c *CommsController) UpdateThreadStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}
	if err := c.Inbox.UpdateThreadStatus(teamID(r), chi.URLParam(r, "id"), body.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (c *CommsController) SendText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text            string  `json:"text"`
		ClientMessageID *string `json:"client_message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}

	result, err := c.Outbox.EnqueueForThread(teamID(r), chi.URLParam(r, "id"), service.EnqueueRequest{
		Content:         &body.Text,
		ClientMessageID: body.ClientMessageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (c *CommsController) SendMedia(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MediaRef        string  `json:"media_ref"`
		Caption         *string `json:"caption"`
		ClientMessageID *string `json:"client_message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}

	result, err := c.Outbox.EnqueueForThread(teamID(r), chi.URLParam(r, "id"), service.EnqueueRequest{
		Content:         body.Caption,
		MediaRef:        &body.MediaRef,
		ClientMessageID: body.ClientMessageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// SendByAccount enqueues without a thread, addressing the account by channel
// and external id the way API callers do.
func (c *CommsController) SendByAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Channel         string  `json:"channel"`
		ExternalID      string  `json:"external_id"`
		To              string  `json:"to"`
		Text            string  `json:"text"`
		ClientMessageID *string `json:"client_message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}

	result, err := c.Outbox.EnqueueByExternalAccount(teamID(r), body.Channel, body.ExternalID, service.EnqueueRequest{
		Recipient:       body.To,
		Content:         &body.Text,
		ClientMessageID: body.ClientMessageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (c *CommsController) ContactSuggestion(w http.ResponseWriter, r *http.Request) {
	suggestion, err := c.Contacts.Suggest(teamID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (c *CommsController) Promote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID *string `json:"client_id"`
		Name     *string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}

	result, err := c.Contacts.Promote(teamID(r), chi.URLParam(r, "id"), body.ClientID, body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
