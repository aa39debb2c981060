package repository

import (
	"database/sql"

	"github.com/google/uuid"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
)

type OutboxRepositoryInterface interface {
	Insert(entry *model.OutboxEntry) (existed bool, err error)
	GetByID(id string) (*model.OutboxEntry, error)
	GetByClientMessageID(teamID, accountID, clientMessageID string) (*model.OutboxEntry, error)
	UpdateStatus(id, status string, lastError *string) error
}

type OutboxRepository struct {
	DB *sql.DB
}

const outboxColumns = `id, team_id, account_id, recipient, content, media_ref, status, client_message_id, last_error, created_at, updated_at`

func scanOutboxEntry(row *sql.Row) (*model.OutboxEntry, error) {
	var e model.OutboxEntry
	err := row.Scan(&e.ID, &e.TeamID, &e.AccountID, &e.Recipient, &e.Content, &e.MediaRef,
		&e.Status, &e.ClientMessageID, &e.LastError, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Insert stores a queued entry. When the idempotency key is already held, the
// insert becomes a read of the winning row: two concurrent enqueues with the
// same client_message_id race safely to exactly one entry, and the loser gets
// the winner's identity back instead of an error.
func (r *OutboxRepository) Insert(entry *model.OutboxEntry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Status = model.OutboxStatusQueued

	query := `
        INSERT INTO communication_outbox
        (id, team_id, account_id, recipient, content, media_ref, status, client_message_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        ON CONFLICT (team_id, account_id, client_message_id) WHERE client_message_id IS NOT NULL
        DO NOTHING
        RETURNING ` + outboxColumns
	inserted, err := scanOutboxEntry(r.DB.QueryRow(query,
		entry.ID, entry.TeamID, entry.AccountID, entry.Recipient,
		entry.Content, entry.MediaRef, entry.Status, entry.ClientMessageID,
	))
	if err == nil {
		*entry = *inserted
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}

	// Conflict: the key already materialized an entry.
	existing, err := r.GetByClientMessageID(entry.TeamID, entry.AccountID, *entry.ClientMessageID)
	if err != nil {
		return false, err
	}
	*entry = *existing
	return true, nil
}

func (r *OutboxRepository) GetByID(id string) (*model.OutboxEntry, error) {
	query := `SELECT ` + outboxColumns + ` FROM communication_outbox WHERE id=$1`
	e, err := scanOutboxEntry(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("outbox entry", id)
	}
	return e, err
}

func (r *OutboxRepository) GetByClientMessageID(teamID, accountID, clientMessageID string) (*model.OutboxEntry, error) {
	query := `SELECT ` + outboxColumns + ` FROM communication_outbox WHERE team_id=$1 AND account_id=$2 AND client_message_id=$3`
	e, err := scanOutboxEntry(r.DB.QueryRow(query, teamID, accountID, clientMessageID))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("outbox entry", clientMessageID)
	}
	return e, err
}

// UpdateStatus advances the lifecycle on behalf of the transport worker. The
// current status is read first and re-checked in the WHERE clause, so a
// concurrent transition cannot slip a backward move through.
func (r *OutboxRepository) UpdateStatus(id, status string, lastError *string) error {
	current, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if !model.ValidOutboxTransition(current.Status, status) {
		return &appErrors.ErrInvalidTransition{From: current.Status, To: status}
	}

	query := `UPDATE communication_outbox SET status=$1, last_error=$2, updated_at=NOW() WHERE id=$3 AND status=$4`
	res, err := r.DB.Exec(query, status, lastError, id, current.Status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &appErrors.ErrInvalidTransition{From: current.Status, To: status}
	}
	return nil
}

var _ OutboxRepositoryInterface = (*OutboxRepository)(nil)
