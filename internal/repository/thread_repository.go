package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/pagination"
)

type ThreadRepositoryInterface interface {
	Upsert(teamID, accountID, externalContactID, channel string) (*model.Thread, error)
	GetByID(teamID, id string) (*model.Thread, error)
	TouchLastMessageAt(threadID string, at time.Time) error
	ListByStatus(teamID, status string, limit int, cursor *pagination.Cursor) ([]model.ThreadListItem, error)
	SetCustomer(teamID, threadID, customerID string) error
	UpdateStatus(teamID, threadID, status string) error
}

type ThreadRepository struct {
	DB *sql.DB
}

const threadColumns = `id, team_id, account_id, channel, external_contact_id, customer_id, status, last_message_at, created_at, updated_at`

func scanThread(row *sql.Row) (*model.Thread, error) {
	var t model.Thread
	err := row.Scan(&t.ID, &t.TeamID, &t.AccountID, &t.Channel, &t.ExternalContactID,
		&t.CustomerID, &t.Status, &t.LastMessageAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert returns the thread for the identity tuple, creating it with
// status=open on first contact. The unique constraint makes concurrent inbound
// events on the same contact converge on one row; the no-op DO UPDATE is there
// so RETURNING always yields the winner.
func (r *ThreadRepository) Upsert(teamID, accountID, externalContactID, channel string) (*model.Thread, error) {
	query := `
        INSERT INTO communication_threads (id, team_id, account_id, channel, external_contact_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, 'open', NOW())
        ON CONFLICT (team_id, account_id, external_contact_id)
        DO UPDATE SET updated_at = NOW()
        RETURNING ` + threadColumns
	return scanThread(r.DB.QueryRow(query, uuid.NewString(), teamID, accountID, channel, externalContactID))
}

func (r *ThreadRepository) GetByID(teamID, id string) (*model.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM communication_threads WHERE team_id=$1 AND id=$2`
	t, err := scanThread(r.DB.QueryRow(query, teamID, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("thread", id)
	}
	return t, err
}

// TouchLastMessageAt advances last_message_at to the later of its current value
// and at. Out-of-order appends never move the thread backwards in the list.
func (r *ThreadRepository) TouchLastMessageAt(threadID string, at time.Time) error {
	query := `
        UPDATE communication_threads
        SET last_message_at = GREATEST(COALESCE(last_message_at, $1), $1), updated_at = NOW()
        WHERE id = $2
    `
	_, err := r.DB.Exec(query, at, threadID)
	return err
}

// ListByStatus pages threads in (last_message_at desc, id desc) order, joined
// with their account and linked client. The composite cursor predicate mirrors
// that order exactly; a timestamp-only bound would skip or repeat rows whenever
// threads share a last_message_at.
func (r *ThreadRepository) ListByStatus(teamID, status string, limit int, cursor *pagination.Cursor) ([]model.ThreadListItem, error) {
	query := `
        SELECT t.id, t.team_id, t.account_id, t.channel, t.external_contact_id, t.customer_id,
               t.status, t.last_message_at, t.created_at, t.updated_at,
               a.id, a.channel, a.display_name,
               c.id, c.name, c.whatsapp
        FROM communication_threads t
        JOIN communication_accounts a ON a.id = t.account_id
        LEFT JOIN clients c ON c.id = t.customer_id
        WHERE t.team_id=$1 AND t.status=$2`
	args := []interface{}{teamID, status}
	argPos := 3

	if cursor != nil {
		if cursor.OrderKey != nil {
			query += fmt.Sprintf(
				" AND (t.last_message_at < $%d OR (t.last_message_at = $%d AND t.id < $%d) OR t.last_message_at IS NULL)",
				argPos, argPos, argPos+1)
			args = append(args, *cursor.OrderKey, cursor.ID)
			argPos += 2
		} else {
			query += fmt.Sprintf(" AND t.last_message_at IS NULL AND t.id < $%d", argPos)
			args = append(args, cursor.ID)
			argPos++
		}
	}

	query += fmt.Sprintf(" ORDER BY t.last_message_at DESC NULLS LAST, t.id DESC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.ThreadListItem{}
	for rows.Next() {
		var item model.ThreadListItem
		var clientID, clientName, clientWhatsApp *string
		t := &item.Thread
		if err := rows.Scan(&t.ID, &t.TeamID, &t.AccountID, &t.Channel, &t.ExternalContactID, &t.CustomerID,
			&t.Status, &t.LastMessageAt, &t.CreatedAt, &t.UpdatedAt,
			&item.Account.ID, &item.Account.Channel, &item.Account.DisplayName,
			&clientID, &clientName, &clientWhatsApp); err != nil {
			return nil, err
		}
		if clientID != nil && clientName != nil {
			item.Contact = &model.ContactLink{ID: *clientID, Name: *clientName, WhatsApp: clientWhatsApp}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ThreadRepository) SetCustomer(teamID, threadID, customerID string) error {
	query := `UPDATE communication_threads SET customer_id=$1, updated_at=NOW() WHERE team_id=$2 AND id=$3`
	res, err := r.DB.Exec(query, customerID, teamID, threadID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("thread", threadID)
	}
	return nil
}

func (r *ThreadRepository) UpdateStatus(teamID, threadID, status string) error {
	query := `UPDATE communication_threads SET status=$1, updated_at=NOW() WHERE team_id=$2 AND id=$3`
	res, err := r.DB.Exec(query, status, teamID, threadID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("thread", threadID)
	}
	return nil
}

var _ ThreadRepositoryInterface = (*ThreadRepository)(nil)
