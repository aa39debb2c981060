package service_test

import (
	"fmt"
	"sort"
	"sync"
	"time"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/pagination"
	"github.com/faworra/inbox-backend/internal/repository"
)

// In-memory repositories mirroring the store's constraint behavior: thread
// identity upsert, outbox idempotency key, lead uniqueness per thread.

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
}

func newMemAccountRepo(accounts ...*model.Account) *memAccountRepo {
	r := &memAccountRepo{accounts: map[string]*model.Account{}}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *memAccountRepo) GetByID(teamID, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.TeamID != teamID {
		return nil, appErrors.NewNotFound("account", id)
	}
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) GetByExternalID(teamID, channel, externalID string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.TeamID == teamID && a.Channel == channel && a.ExternalID == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("account", externalID)
}

func (r *memAccountRepo) ListByTeam(teamID string) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Account{}
	for _, a := range r.accounts {
		if a.TeamID == teamID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAccountRepo) UpdateStatus(teamID, id, status string) error {
	a, err := r.GetByID(teamID, id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID].Status = status
	return nil
}

type memThreadRepo struct {
	mu      sync.Mutex
	seq     int
	threads map[string]*model.Thread
}

func newMemThreadRepo(threads ...*model.Thread) *memThreadRepo {
	r := &memThreadRepo{threads: map[string]*model.Thread{}}
	for _, t := range threads {
		r.threads[t.ID] = t
	}
	return r
}

func (r *memThreadRepo) Upsert(teamID, accountID, externalContactID, channel string) (*model.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.threads {
		if t.TeamID == teamID && t.AccountID == accountID && t.ExternalContactID == externalContactID {
			cp := *t
			return &cp, nil
		}
	}
	r.seq++
	t := &model.Thread{
		ID:                fmt.Sprintf("thread-%03d", r.seq),
		TeamID:            teamID,
		AccountID:         accountID,
		Channel:           channel,
		ExternalContactID: externalContactID,
		Status:            model.ThreadStatusOpen,
		CreatedAt:         time.Now(),
	}
	r.threads[t.ID] = t
	cp := *t
	return &cp, nil
}

func (r *memThreadRepo) GetByID(teamID, id string) (*model.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok || t.TeamID != teamID {
		return nil, appErrors.NewNotFound("thread", id)
	}
	cp := *t
	return &cp, nil
}

func (r *memThreadRepo) TouchLastMessageAt(threadID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok {
		return appErrors.NewNotFound("thread", threadID)
	}
	if t.LastMessageAt == nil || at.After(*t.LastMessageAt) {
		t.LastMessageAt = &at
	}
	return nil
}

func (r *memThreadRepo) ListByStatus(teamID, status string, limit int, cursor *pagination.Cursor) ([]model.ThreadListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*model.Thread{}
	for _, t := range r.threads {
		if t.TeamID == teamID && t.Status == status {
			matched = append(matched, t)
		}
	}
	// (last_message_at desc nulls last, id desc)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch {
		case a.LastMessageAt == nil && b.LastMessageAt == nil:
			return a.ID > b.ID
		case a.LastMessageAt == nil:
			return false
		case b.LastMessageAt == nil:
			return true
		case !a.LastMessageAt.Equal(*b.LastMessageAt):
			return a.LastMessageAt.After(*b.LastMessageAt)
		default:
			return a.ID > b.ID
		}
	})

	items := []model.ThreadListItem{}
	for _, t := range matched {
		if !cursor.Accepts(t.LastMessageAt, t.ID) {
			continue
		}
		items = append(items, model.ThreadListItem{Thread: *t})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (r *memThreadRepo) SetCustomer(teamID, threadID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok || t.TeamID != teamID {
		return appErrors.NewNotFound("thread", threadID)
	}
	t.CustomerID = &customerID
	return nil
}

func (r *memThreadRepo) UpdateStatus(teamID, threadID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok || t.TeamID != teamID {
		return appErrors.NewNotFound("thread", threadID)
	}
	t.Status = status
	return nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages []*model.Message
}

func (r *memMessageRepo) Insert(msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("msg-%03d", r.seq)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *memMessageRepo) ListBefore(threadID string, limit int, before *time.Time) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []model.Message{}
	for _, m := range r.messages {
		if m.ThreadID != threadID || m.IsStatus {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		matched = append(matched, *m)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *memMessageRepo) CountSince(teamID, threadID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.messages {
		if m.TeamID == teamID && m.ThreadID == threadID && !m.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type memOutboxRepo struct {
	mu      sync.Mutex
	seq     int
	entries map[string]*model.OutboxEntry
}

func newMemOutboxRepo() *memOutboxRepo {
	return &memOutboxRepo{entries: map[string]*model.OutboxEntry{}}
}

func (r *memOutboxRepo) Insert(entry *model.OutboxEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ClientMessageID != nil {
		for _, e := range r.entries {
			if e.TeamID == entry.TeamID && e.AccountID == entry.AccountID &&
				e.ClientMessageID != nil && *e.ClientMessageID == *entry.ClientMessageID {
				*entry = *e
				return true, nil
			}
		}
	}
	r.seq++
	entry.ID = fmt.Sprintf("outbox-%03d", r.seq)
	entry.Status = model.OutboxStatusQueued
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	cp := *entry
	r.entries[entry.ID] = &cp
	return false, nil
}

func (r *memOutboxRepo) GetByID(id string) (*model.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, appErrors.NewNotFound("outbox entry", id)
	}
	cp := *e
	return &cp, nil
}

func (r *memOutboxRepo) GetByClientMessageID(teamID, accountID, clientMessageID string) (*model.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.TeamID == teamID && e.AccountID == accountID &&
			e.ClientMessageID != nil && *e.ClientMessageID == clientMessageID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("outbox entry", clientMessageID)
}

func (r *memOutboxRepo) UpdateStatus(id, status string, lastError *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return appErrors.NewNotFound("outbox entry", id)
	}
	if !model.ValidOutboxTransition(e.Status, status) {
		return &appErrors.ErrInvalidTransition{From: e.Status, To: status}
	}
	e.Status = status
	e.LastError = lastError
	e.UpdatedAt = time.Now()
	return nil
}

type memLeadRepo struct {
	mu    sync.Mutex
	seq   int
	leads map[string]*model.Lead
}

func newMemLeadRepo() *memLeadRepo {
	return &memLeadRepo{leads: map[string]*model.Lead{}}
}

func (r *memLeadRepo) Create(lead *model.Lead) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.TeamID == lead.TeamID && l.ThreadID == lead.ThreadID {
			*lead = *l
			return true, nil
		}
	}
	r.seq++
	lead.ID = fmt.Sprintf("lead-%03d", r.seq)
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	cp := *lead
	r.leads[lead.ID] = &cp
	return false, nil
}

func (r *memLeadRepo) GetByID(teamID, id string) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.TeamID != teamID {
		return nil, appErrors.NewNotFound("lead", id)
	}
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) GetByThread(teamID, threadID string) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.TeamID == teamID && l.ThreadID == threadID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("lead", threadID)
}

func (r *memLeadRepo) OverwriteScore(teamID, id string, score int, qualification string, messageCount int, lastInteractionAt *time.Time) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.TeamID != teamID {
		return nil, appErrors.NewNotFound("lead", id)
	}
	l.Score = score
	l.Qualification = qualification
	l.MessageCount = messageCount
	l.LastInteractionAt = lastInteractionAt
	l.UpdatedAt = time.Now()
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) UpdateStatus(teamID, id, status string) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.TeamID != teamID {
		return nil, appErrors.NewNotFound("lead", id)
	}
	l.Status = status
	l.UpdatedAt = time.Now()
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) SetCustomer(teamID, id, customerID string) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.TeamID != teamID {
		return nil, appErrors.NewNotFound("lead", id)
	}
	l.CustomerID = &customerID
	l.Status = model.LeadStatusConverted
	l.UpdatedAt = time.Now()
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) List(teamID, status string, minScore *int, limit int, cursor *pagination.Cursor) ([]model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*model.Lead{}
	for _, l := range r.leads {
		if l.TeamID != teamID {
			continue
		}
		if status != "" && status != "all" && l.Status != status {
			continue
		}
		if minScore != nil && l.Score < *minScore {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	out := []model.Lead{}
	for _, l := range matched {
		at := l.UpdatedAt
		if !cursor.Accepts(&at, l.ID) {
			continue
		}
		out = append(out, *l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memClientRepo struct {
	mu      sync.Mutex
	seq     int
	clients map[string]*model.Client
}

func newMemClientRepo(clients ...*model.Client) *memClientRepo {
	r := &memClientRepo{clients: map[string]*model.Client{}}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

func (r *memClientRepo) GetByID(teamID, id string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok || c.TeamID != teamID {
		return nil, appErrors.NewNotFound("client", id)
	}
	cp := *c
	return &cp, nil
}

func (r *memClientRepo) FindByHandle(teamID, handle string, limit int) ([]model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Client{}
	for _, c := range r.clients {
		if c.TeamID != teamID {
			continue
		}
		if (c.WhatsApp != nil && *c.WhatsApp == handle) || (c.Phone != nil && *c.Phone == handle) {
			out = append(out, *c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memClientRepo) CreateBasic(teamID, name, handle string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c := &model.Client{
		ID:        fmt.Sprintf("client-%03d", r.seq),
		TeamID:    teamID,
		Name:      name,
		WhatsApp:  &handle,
		CreatedAt: time.Now(),
	}
	r.clients[c.ID] = c
	cp := *c
	return &cp, nil
}

// Interface compliance for the mocks.
var (
	_ repository.AccountRepositoryInterface = (*memAccountRepo)(nil)
	_ repository.ThreadRepositoryInterface  = (*memThreadRepo)(nil)
	_ repository.MessageRepositoryInterface = (*memMessageRepo)(nil)
	_ repository.OutboxRepositoryInterface  = (*memOutboxRepo)(nil)
	_ repository.LeadRepositoryInterface    = (*memLeadRepo)(nil)
	_ repository.ClientRepositoryInterface  = (*memClientRepo)(nil)
)

func strPtr(s string) *string { return &s }
