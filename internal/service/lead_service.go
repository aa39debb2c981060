// internal/service/lead_service.go
package service

import (
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/pagination"
	"github.com/faworra/inbox-backend/internal/repository"
)

// LeadService derives qualification scores from thread activity. Scores are
// recomputed from a fresh snapshot every time and written wholesale.
type LeadService struct {
	LeadRepo    repository.LeadRepositoryInterface
	ThreadRepo  repository.ThreadRepositoryInterface
	MessageRepo repository.MessageRepositoryInterface
	ClientRepo  repository.ClientRepositoryInterface
	Log         zerolog.Logger

	// Now is the clock used for recency decay; nil means time.Now.
	Now func() time.Time
}

type LeadPage struct {
	Items      []model.Lead `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func (s *LeadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// snapshot reads the thread aggregates scoring needs. The thread lookup doubles
// as the team-ownership check.
func (s *LeadService) snapshot(teamID, threadID string) (*model.ThreadSnapshot, error) {
	thread, err := s.ThreadRepo.GetByID(teamID, threadID)
	if err != nil {
		return nil, err
	}
	count, err := s.MessageRepo.CountSince(teamID, threadID, s.now().Add(-EngagementWindow))
	if err != nil {
		return nil, err
	}
	return &model.ThreadSnapshot{
		ThreadID:          thread.ID,
		Channel:           thread.Channel,
		CustomerID:        thread.CustomerID,
		LastInteractionAt: thread.LastMessageAt,
		MessageCount:      count,
	}, nil
}

// CreateFromThread creates the lead for a thread, scoring it from the trailing
// activity window. Idempotent per (team, thread): when a lead already exists it
// is returned unchanged, not rescored.
func (s *LeadService) CreateFromThread(teamID, threadID string, manualScore int, notes *string) (*model.Lead, error) {
	if manualScore < 0 || manualScore > 100 {
		return nil, appErrors.NewValidation("manual score must be between 0 and 100")
	}

	snap, err := s.snapshot(teamID, threadID)
	if err != nil {
		return nil, err
	}

	score, qualification := ComputeScore(ScoreInputs{
		MessageCount:      snap.MessageCount,
		Channel:           snap.Channel,
		LastInteractionAt: snap.LastInteractionAt,
		ManualScore:       manualScore,
		Now:               s.now(),
	})

	lead := &model.Lead{
		TeamID:            teamID,
		ThreadID:          threadID,
		CustomerID:        snap.CustomerID,
		Source:            snap.Channel,
		Status:            model.LeadStatusNew,
		Score:             score,
		Qualification:     qualification,
		MessageCount:      snap.MessageCount,
		LastInteractionAt: snap.LastInteractionAt,
		Notes:             notes,
	}
	existed, err := s.LeadRepo.Create(lead)
	if err != nil {
		return nil, err
	}
	if !existed {
		s.Log.Info().Str("thread_id", threadID).Int("score", score).Str("qualification", qualification).Msg("lead created")
	}
	return lead, nil
}

// Recompute re-reads the thread snapshot and overwrites every derived field.
func (s *LeadService) Recompute(teamID, leadID string) (*model.Lead, error) {
	lead, err := s.LeadRepo.GetByID(teamID, leadID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(teamID, lead.ThreadID)
	if err != nil {
		return nil, err
	}

	score, qualification := ComputeScore(ScoreInputs{
		MessageCount:      snap.MessageCount,
		Channel:           snap.Channel,
		LastInteractionAt: snap.LastInteractionAt,
		Now:               s.now(),
	})
	return s.LeadRepo.OverwriteScore(teamID, leadID, score, qualification, snap.MessageCount, snap.LastInteractionAt)
}

// UpdateStatus is the explicit application action moving a lead through its
// lifecycle.
func (s *LeadService) UpdateStatus(teamID, leadID, status string) (*model.Lead, error) {
	if !model.ValidLeadStatus(status) {
		return nil, appErrors.NewValidation("unknown lead status %q", status)
	}
	return s.LeadRepo.UpdateStatus(teamID, leadID, status)
}

// SetClient converts the lead and writes the weak customer link back onto the
// parent thread, so contact resolution sees it immediately.
func (s *LeadService) SetClient(teamID, leadID, clientID string) (*model.Lead, error) {
	if _, err := s.ClientRepo.GetByID(teamID, clientID); err != nil {
		return nil, err
	}
	lead, err := s.LeadRepo.SetCustomer(teamID, leadID, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.ThreadRepo.SetCustomer(teamID, lead.ThreadID, clientID); err != nil {
		return nil, err
	}
	return lead, nil
}

// List pages leads in (updated_at desc, id desc) order. status may be a
// lifecycle value or "all"; minScore filters low scores out when set.
func (s *LeadService) List(teamID, status string, minScore *int, limit int, cursorToken string) (*LeadPage, error) {
	if status == "" {
		status = "all"
	}
	if status != "all" && !model.ValidLeadStatus(status) {
		return nil, appErrors.NewValidation("unknown lead status %q", status)
	}
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, appErrors.NewValidation("%s", err)
	}
	limit = pagination.ClampLimit(limit, defaultPageSize, maxPageSize)

	items, err := s.LeadRepo.List(teamID, status, minScore, limit, cursor)
	if err != nil {
		return nil, err
	}

	page := &LeadPage{Items: items}
	if len(items) > 0 {
		last := items[len(items)-1]
		at := last.UpdatedAt
		page.NextCursor = pagination.NextToken(&at, last.ID)
	}
	return page, nil
}
