// internal/service/inbox_service.go
package service

import (
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/pagination"
	"github.com/faworra/inbox-backend/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// InboxService owns conversation state: thread upserts, the append-only
// message ledger, and both list surfaces.
type InboxService struct {
	ThreadRepo  repository.ThreadRepositoryInterface
	MessageRepo repository.MessageRepositoryInterface
	AccountRepo repository.AccountRepositoryInterface
	Log         zerolog.Logger
}

// ThreadPage is one page of the thread list plus the opaque token for the next.
type ThreadPage struct {
	Items      []model.ThreadListItem `json:"items"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// MessagePage is one page of conversation messages in display (ascending)
// order. NextCursor is the oldest timestamp in the page, for loading older.
type MessagePage struct {
	Items      []model.Message `json:"items"`
	NextCursor *time.Time      `json:"next_cursor,omitempty"`
}

// UpsertThread returns the thread for (team, account, contact), creating it on
// first inbound contact. The account must belong to the team and carry the
// claimed channel; both are checked before any write.
func (s *InboxService) UpsertThread(teamID, accountID, externalContactID, channel string) (*model.Thread, error) {
	if externalContactID == "" {
		return nil, appErrors.NewValidation("external contact id is required")
	}
	if !model.KnownChannel(channel) {
		return nil, appErrors.NewValidation("unknown channel %q", channel)
	}

	account, err := s.AccountRepo.GetByID(teamID, accountID)
	if err != nil {
		return nil, err
	}
	if account.Channel != channel {
		return nil, appErrors.NewValidation("account %s is a %s account, not %s", accountID, account.Channel, channel)
	}

	return s.ThreadRepo.Upsert(teamID, accountID, externalContactID, channel)
}

// AppendMessage inserts an immutable message and bumps the parent thread's
// last_message_at. Thread status is never touched here; receipts (is_status)
// still reorder the thread but stay out of the conversation view.
func (s *InboxService) AppendMessage(teamID, threadID string, msg model.Message) (*model.Message, error) {
	if msg.Direction != model.DirectionIn && msg.Direction != model.DirectionOut {
		return nil, appErrors.NewValidation("direction must be in or out")
	}
	if msg.Type == "" {
		msg.Type = model.MessageTypeText
	}

	// Ownership check first: an unknown or cross-team thread is a not-found,
	// never a silent insert.
	if _, err := s.ThreadRepo.GetByID(teamID, threadID); err != nil {
		return nil, err
	}

	msg.TeamID = teamID
	msg.ThreadID = threadID
	if err := s.MessageRepo.Insert(&msg); err != nil {
		return nil, err
	}
	if err := s.ThreadRepo.TouchLastMessageAt(threadID, msg.CreatedAt); err != nil {
		return nil, err
	}

	s.Log.Debug().Str("thread_id", threadID).Str("direction", msg.Direction).Bool("is_status", msg.IsStatus).Msg("message appended")
	return &msg, nil
}

// ListThreads pages threads of one status, newest activity first.
func (s *InboxService) ListThreads(teamID, status string, limit int, cursorToken string) (*ThreadPage, error) {
	if !model.ValidThreadStatus(status) {
		return nil, appErrors.NewValidation("unknown thread status %q", status)
	}
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, appErrors.NewValidation("%s", err)
	}
	limit = pagination.ClampLimit(limit, defaultPageSize, maxPageSize)

	items, err := s.ThreadRepo.ListByStatus(teamID, status, limit, cursor)
	if err != nil {
		return nil, err
	}

	page := &ThreadPage{Items: items}
	if len(items) > 0 {
		last := items[len(items)-1].Thread
		page.NextCursor = pagination.NextToken(last.LastMessageAt, last.ID)
	}
	return page, nil
}

// ListMessages pages a thread's conversation. Pages are fetched newest-first
// with a created_at bound and reversed for display; the returned cursor is the
// oldest timestamp in the page so "load older" never re-fetches seen rows.
func (s *InboxService) ListMessages(teamID, threadID string, limit int, before *time.Time) (*MessagePage, error) {
	if _, err := s.ThreadRepo.GetByID(teamID, threadID); err != nil {
		return nil, err
	}
	limit = pagination.ClampLimit(limit, defaultPageSize, maxPageSize)

	desc, err := s.MessageRepo.ListBefore(threadID, limit, before)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{Items: make([]model.Message, len(desc))}
	for i, m := range desc {
		page.Items[len(desc)-1-i] = m
	}
	if len(desc) > 0 {
		oldest := desc[len(desc)-1].CreatedAt
		page.NextCursor = &oldest
	}
	return page, nil
}

// UpdateThreadStatus is the application action that moves a thread between
// open/pending/resolved/snoozed.
func (s *InboxService) UpdateThreadStatus(teamID, threadID, status string) error {
	if !model.ValidThreadStatus(status) {
		return appErrors.NewValidation("unknown thread status %q", status)
	}
	return s.ThreadRepo.UpdateStatus(teamID, threadID, status)
}

// ListAccounts returns the team's configured channel endpoints.
func (s *InboxService) ListAccounts(teamID string) ([]model.Account, error) {
	return s.AccountRepo.ListByTeam(teamID)
}
