// internal/service/outbox_service.go
package service

import (
	"errors"

	"github.com/rs/zerolog"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/queue"
	"github.com/faworra/inbox-backend/internal/repository"
)

// OutboxService queues outbound sends for the external transport worker. It
// writes status=queued and nothing else; every later transition is the
// worker's.
type OutboxService struct {
	AccountRepo repository.AccountRepositoryInterface
	ThreadRepo  repository.ThreadRepositoryInterface
	OutboxRepo  repository.OutboxRepositoryInterface
	Queue       queue.Publisher
	Log         zerolog.Logger
}

// EnqueueRequest is one outbound send. Exactly one of Content/MediaRef may be
// empty. ClientMessageID, when set, is the caller's idempotency key.
type EnqueueRequest struct {
	Recipient       string
	Content         *string
	MediaRef        *string
	ClientMessageID *string
}

// EnqueueResult reports the stored entry. Duplicate is true when the
// idempotency key had already materialized an entry; the original's identity is
// returned and no second row exists.
type EnqueueResult struct {
	EntryID         string  `json:"entry_id"`
	ClientMessageID *string `json:"client_message_id,omitempty"`
	Status          string  `json:"status"`
	Enqueued        bool    `json:"enqueued"`
	Duplicate       bool    `json:"duplicate"`
}

// Enqueue validates the account and inserts a queued outbox entry. A retried
// call with the same client message id is a no-op returning the original
// outcome; a key held by a failed entry is rejected outright so a dead send
// cannot be resurrected under the same key.
func (s *OutboxService) Enqueue(teamID, accountID string, req EnqueueRequest) (*EnqueueResult, error) {
	if req.Recipient == "" {
		return nil, appErrors.NewValidation("recipient is required")
	}
	if (req.Content == nil || *req.Content == "") && (req.MediaRef == nil || *req.MediaRef == "") {
		return nil, appErrors.NewValidation("content or media is required")
	}
	if req.ClientMessageID != nil && *req.ClientMessageID == "" {
		req.ClientMessageID = nil
	}

	// Account ownership and channel support are checked before any mutation.
	account, err := s.AccountRepo.GetByID(teamID, accountID)
	if err != nil {
		return nil, err
	}
	if !model.KnownChannel(account.Channel) {
		return nil, appErrors.NewValidation("account %s has unsupported channel %q", accountID, account.Channel)
	}

	entry := &model.OutboxEntry{
		TeamID:          teamID,
		AccountID:       account.ID,
		Recipient:       req.Recipient,
		Content:         req.Content,
		MediaRef:        req.MediaRef,
		ClientMessageID: req.ClientMessageID,
	}
	existed, err := s.OutboxRepo.Insert(entry)
	if err != nil {
		return nil, err
	}
	if existed && entry.Status == model.OutboxStatusFailed {
		return nil, &appErrors.ErrIdempotencyConflict{ClientMessageID: *req.ClientMessageID, Status: entry.Status}
	}

	if !existed {
		if err := s.Queue.Publish(queue.TopicOutboxSends, queue.OutboxNotification{OutboxEntryID: entry.ID}); err != nil {
			// The row is durable; the worker's poll loop will still pick it up.
			s.Log.Warn().Err(err).Str("entry_id", entry.ID).Msg("outbox notification publish failed")
		}
	}

	return &EnqueueResult{
		EntryID:         entry.ID,
		ClientMessageID: entry.ClientMessageID,
		Status:          entry.Status,
		Enqueued:        true,
		Duplicate:       existed,
	}, nil
}

// EnqueueForThread resolves the thread's account and contact, then enqueues.
func (s *OutboxService) EnqueueForThread(teamID, threadID string, req EnqueueRequest) (*EnqueueResult, error) {
	thread, err := s.ThreadRepo.GetByID(teamID, threadID)
	if err != nil {
		return nil, err
	}
	req.Recipient = thread.ExternalContactID
	return s.Enqueue(teamID, thread.AccountID, req)
}

// EnqueueByExternalAccount addresses the account by (channel, external id), the
// form API callers use when they don't hold internal account ids.
func (s *OutboxService) EnqueueByExternalAccount(teamID, channel, externalID string, req EnqueueRequest) (*EnqueueResult, error) {
	account, err := s.AccountRepo.GetByExternalID(teamID, channel, externalID)
	if err != nil {
		return nil, err
	}
	return s.Enqueue(teamID, account.ID, req)
}

// MarkStatus advances an entry's lifecycle on behalf of the transport worker.
func (s *OutboxService) MarkStatus(entryID, status string, lastError *string) error {
	err := s.OutboxRepo.UpdateStatus(entryID, status, lastError)
	var invalid *appErrors.ErrInvalidTransition
	if errors.As(err, &invalid) {
		s.Log.Warn().Str("entry_id", entryID).Str("from", invalid.From).Str("to", invalid.To).Msg("rejected backward outbox transition")
	}
	return err
}
