// internal/service/contact_service.go
package service

import (
	"github.com/rs/zerolog"

	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/repository"
)

// Promote outcomes. A repeated promote to the same client is a plain "linked";
// overriding an existing different link is deliberate and reported as
// "relinked" with the previous id.
const (
	PromoteLinked   = "linked"
	PromoteCreated  = "created"
	PromoteRelinked = "relinked"
)

const maxSuggestions = 5

// ContactService matches a thread's external identity against client records
// and promotes or links threads to clients.
type ContactService struct {
	ThreadRepo repository.ThreadRepositoryInterface
	ClientRepo repository.ClientRepositoryInterface
	Log        zerolog.Logger
}

// Suggestion is the read-only resolution result for a thread.
type Suggestion struct {
	ExternalContactID string         `json:"external_contact_id"`
	LinkedClientID    *string        `json:"linked_client_id,omitempty"`
	Candidates        []model.Client `json:"candidates"`
}

// PromoteResult reports which client the thread now points at and how the link
// came about.
type PromoteResult struct {
	ClientID         string  `json:"client_id"`
	Outcome          string  `json:"outcome"`
	PreviousClientID *string `json:"previous_client_id,omitempty"`
}

// Suggest looks up same-team clients whose known phone or handle equals the
// thread's external contact id. No side effects.
func (s *ContactService) Suggest(teamID, threadID string) (*Suggestion, error) {
	thread, err := s.ThreadRepo.GetByID(teamID, threadID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.ClientRepo.FindByHandle(teamID, thread.ExternalContactID, maxSuggestions)
	if err != nil {
		return nil, err
	}
	return &Suggestion{
		ExternalContactID: thread.ExternalContactID,
		LinkedClientID:    thread.CustomerID,
		Candidates:        candidates,
	}, nil
}

// Promote links the thread to an existing client, or creates a minimal client
// from the thread's identity first. Linking the same client twice is a no-op;
// replacing a different existing link is reported distinctly, never silent.
func (s *ContactService) Promote(teamID, threadID string, clientID, name *string) (*PromoteResult, error) {
	thread, err := s.ThreadRepo.GetByID(teamID, threadID)
	if err != nil {
		return nil, err
	}

	outcome := PromoteLinked
	var targetID string
	if clientID != nil && *clientID != "" {
		client, err := s.ClientRepo.GetByID(teamID, *clientID)
		if err != nil {
			return nil, err
		}
		targetID = client.ID

		if thread.CustomerID != nil && *thread.CustomerID == targetID {
			return &PromoteResult{ClientID: targetID, Outcome: PromoteLinked}, nil
		}
	} else {
		clientName := thread.ExternalContactID
		if name != nil && *name != "" {
			clientName = *name
		}
		created, err := s.ClientRepo.CreateBasic(teamID, clientName, thread.ExternalContactID)
		if err != nil {
			return nil, err
		}
		targetID = created.ID
		outcome = PromoteCreated
	}

	result := &PromoteResult{ClientID: targetID, Outcome: outcome}
	if thread.CustomerID != nil && *thread.CustomerID != targetID {
		result.Outcome = PromoteRelinked
		result.PreviousClientID = thread.CustomerID
		s.Log.Info().Str("thread_id", threadID).Str("from", *thread.CustomerID).Str("to", targetID).Msg("thread relinked to different client")
	}

	if err := s.ThreadRepo.SetCustomer(teamID, threadID, targetID); err != nil {
		return nil, err
	}
	return result, nil
}
