package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/faworra/inbox-backend/internal/model"
)

type MessageRepositoryInterface interface {
	Insert(msg *model.Message) error
	ListBefore(threadID string, limit int, before *time.Time) ([]model.Message, error)
	CountSince(teamID, threadID string, since time.Time) (int, error)
}

type MessageRepository struct {
	DB *sql.DB
}

// Insert appends an immutable message row. CreatedAt defaults to now when the
// caller has no provider timestamp.
func (r *MessageRepository) Insert(msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO communication_messages
        (id, team_id, thread_id, direction, type, content, media_ref, is_status, created_at, sent_at, delivered_at, read_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err := r.DB.Exec(query,
		msg.ID, msg.TeamID, msg.ThreadID, msg.Direction, msg.Type,
		msg.Content, msg.MediaRef, msg.IsStatus, msg.CreatedAt,
		msg.SentAt, msg.DeliveredAt, msg.ReadAt,
	)
	return err
}

// ListBefore fetches the newest messages older than the bound, descending,
// excluding status-receipt rows. The service reverses the page for display.
func (r *MessageRepository) ListBefore(threadID string, limit int, before *time.Time) ([]model.Message, error) {
	query := `
        SELECT id, team_id, thread_id, direction, type, content, media_ref, is_status, created_at, sent_at, delivered_at, read_at
        FROM communication_messages
        WHERE thread_id=$1 AND is_status=FALSE`
	args := []interface{}{threadID}
	argPos := 2

	if before != nil {
		query += fmt.Sprintf(" AND created_at < $%d", argPos)
		args = append(args, *before)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.TeamID, &m.ThreadID, &m.Direction, &m.Type,
			&m.Content, &m.MediaRef, &m.IsStatus, &m.CreatedAt,
			&m.SentAt, &m.DeliveredAt, &m.ReadAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountSince counts all messages in the trailing window, receipts included:
// a delivery receipt is still thread activity for scoring purposes.
func (r *MessageRepository) CountSince(teamID, threadID string, since time.Time) (int, error) {
	query := `
        SELECT COUNT(*) FROM communication_messages
        WHERE team_id=$1 AND thread_id=$2 AND created_at >= $3
    `
	var count int
	err := r.DB.QueryRow(query, teamID, threadID, since).Scan(&count)
	return count, err
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
