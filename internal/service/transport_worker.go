// internal/service/transport_worker.go
package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/repository"
)

// TransportWorker drains queued outbox entries on behalf of the external
// provider adapter: it performs the send, advances the entry's status, and
// materializes successful sends as outbound messages on the contact's thread.
// Retry policy for failed sends lives here, outside the dispatcher.
type TransportWorker struct {
	OutboxRepo  repository.OutboxRepositoryInterface
	AccountRepo repository.AccountRepositoryInterface
	Inbox       *InboxService
	Outbox      *OutboxService

	// SendFunc performs the provider call. Swapped for a mock in tests and in
	// deployments without provider credentials.
	SendFunc func(entry *model.OutboxEntry) error

	Log zerolog.Logger
}

// Start consumes entry ids from jobs until the channel closes.
func (w *TransportWorker) Start(jobs <-chan string) {
	for entryID := range jobs {
		if err := w.Process(entryID); err != nil {
			w.Log.Error().Err(err).Str("entry_id", entryID).Msg("failed to process outbox entry")
		}
	}
}

// Process handles one outbox entry. Entries already past queued are skipped:
// a duplicate notification must not resend.
func (w *TransportWorker) Process(entryID string) error {
	entry, err := w.OutboxRepo.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry.Status != model.OutboxStatusQueued {
		w.Log.Debug().Str("entry_id", entryID).Str("status", entry.Status).Msg("skipping non-queued entry")
		return nil
	}

	if sendErr := w.SendFunc(entry); sendErr != nil {
		msg := sendErr.Error()
		if err := w.Outbox.MarkStatus(entry.ID, model.OutboxStatusFailed, &msg); err != nil {
			return err
		}
		w.Log.Warn().Str("entry_id", entryID).Str("error", msg).Msg("provider send failed")
		return nil
	}

	if err := w.Outbox.MarkStatus(entry.ID, model.OutboxStatusSent, nil); err != nil {
		return err
	}

	// The sent content becomes part of the conversation ledger.
	account, err := w.AccountRepo.GetByID(entry.TeamID, entry.AccountID)
	if err != nil {
		return err
	}
	thread, err := w.Inbox.UpsertThread(entry.TeamID, entry.AccountID, entry.Recipient, account.Channel)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	msgType := model.MessageTypeText
	if entry.MediaRef != nil {
		msgType = model.MessageTypeMedia
	}
	_, err = w.Inbox.AppendMessage(entry.TeamID, thread.ID, model.Message{
		Direction: model.DirectionOut,
		Type:      msgType,
		Content:   entry.Content,
		MediaRef:  entry.MediaRef,
		SentAt:    &now,
	})
	return err
}

// RecordReceipt applies a provider delivery receipt: the outbox entry advances
// (delivered or read) and the thread gets a hidden status message that still
// bumps its ordering.
func (w *TransportWorker) RecordReceipt(entryID, status string, at time.Time) error {
	entry, err := w.OutboxRepo.GetByID(entryID)
	if err != nil {
		return err
	}
	if err := w.Outbox.MarkStatus(entry.ID, status, nil); err != nil {
		return err
	}

	account, err := w.AccountRepo.GetByID(entry.TeamID, entry.AccountID)
	if err != nil {
		return err
	}
	thread, err := w.Inbox.UpsertThread(entry.TeamID, entry.AccountID, entry.Recipient, account.Channel)
	if err != nil {
		return err
	}

	receipt := model.Message{
		Direction: model.DirectionOut,
		Type:      model.MessageTypeText,
		IsStatus:  true,
		CreatedAt: at,
	}
	switch status {
	case model.OutboxStatusDelivered:
		receipt.DeliveredAt = &at
	case model.OutboxStatusRead:
		receipt.ReadAt = &at
	}
	_, err = w.Inbox.AppendMessage(entry.TeamID, thread.ID, receipt)
	return err
}
