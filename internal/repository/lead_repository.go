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

type LeadRepositoryInterface interface {
	Create(lead *model.Lead) (existed bool, err error)
	GetByID(teamID, id string) (*model.Lead, error)
	GetByThread(teamID, threadID string) (*model.Lead, error)
	OverwriteScore(teamID, id string, score int, qualification string, messageCount int, lastInteractionAt *time.Time) (*model.Lead, error)
	UpdateStatus(teamID, id, status string) (*model.Lead, error)
	SetCustomer(teamID, id, customerID string) (*model.Lead, error)
	List(teamID, status string, minScore *int, limit int, cursor *pagination.Cursor) ([]model.Lead, error)
}

type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `id, team_id, thread_id, customer_id, source, status, score, qualification, message_count, last_interaction_at, notes, created_at, updated_at`

func scanLead(row *sql.Row) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.TeamID, &l.ThreadID, &l.CustomerID, &l.Source, &l.Status,
		&l.Score, &l.Qualification, &l.MessageCount, &l.LastInteractionAt, &l.Notes,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a lead once per (team_id, thread_id). A concurrent create for
// the same thread converges on the first row, which is returned unchanged.
func (r *LeadRepository) Create(lead *model.Lead) (bool, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	query := `
        INSERT INTO leads
        (id, team_id, thread_id, customer_id, source, status, score, qualification, message_count, last_interaction_at, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
        ON CONFLICT (team_id, thread_id) DO NOTHING
        RETURNING ` + leadColumns
	inserted, err := scanLead(r.DB.QueryRow(query,
		lead.ID, lead.TeamID, lead.ThreadID, lead.CustomerID, lead.Source, lead.Status,
		lead.Score, lead.Qualification, lead.MessageCount, lead.LastInteractionAt, lead.Notes,
	))
	if err == nil {
		*lead = *inserted
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}

	existing, err := r.GetByThread(lead.TeamID, lead.ThreadID)
	if err != nil {
		return false, err
	}
	*lead = *existing
	return true, nil
}

func (r *LeadRepository) GetByID(teamID, id string) (*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE team_id=$1 AND id=$2`
	l, err := scanLead(r.DB.QueryRow(query, teamID, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("lead", id)
	}
	return l, err
}

func (r *LeadRepository) GetByThread(teamID, threadID string) (*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE team_id=$1 AND thread_id=$2`
	l, err := scanLead(r.DB.QueryRow(query, teamID, threadID))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("lead", threadID)
	}
	return l, err
}

// OverwriteScore replaces every derived field in one write. Recomputes never
// patch incrementally, so a stale reader can't leave drift behind.
func (r *LeadRepository) OverwriteScore(teamID, id string, score int, qualification string, messageCount int, lastInteractionAt *time.Time) (*model.Lead, error) {
	query := `
        UPDATE leads
        SET score=$1, qualification=$2, message_count=$3, last_interaction_at=$4, updated_at=NOW()
        WHERE team_id=$5 AND id=$6
        RETURNING ` + leadColumns
	l, err := scanLead(r.DB.QueryRow(query, score, qualification, messageCount, lastInteractionAt, teamID, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("lead", id)
	}
	return l, err
}

func (r *LeadRepository) UpdateStatus(teamID, id, status string) (*model.Lead, error) {
	query := `UPDATE leads SET status=$1, updated_at=NOW() WHERE team_id=$2 AND id=$3 RETURNING ` + leadColumns
	l, err := scanLead(r.DB.QueryRow(query, status, teamID, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("lead", id)
	}
	return l, err
}

// SetCustomer links the lead to a client and marks it converted in one write.
func (r *LeadRepository) SetCustomer(teamID, id, customerID string) (*model.Lead, error) {
	query := `
        UPDATE leads SET customer_id=$1, status='converted', updated_at=NOW()
        WHERE team_id=$2 AND id=$3
        RETURNING ` + leadColumns
	l, err := scanLead(r.DB.QueryRow(query, customerID, teamID, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("lead", id)
	}
	return l, err
}

// List pages leads in (updated_at desc, id desc) order, the same keyset
// contract as thread listing. status "all" disables the status filter.
func (r *LeadRepository) List(teamID, status string, minScore *int, limit int, cursor *pagination.Cursor) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE team_id=$1`
	args := []interface{}{teamID}
	argPos := 2

	if status != "" && status != "all" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	if minScore != nil {
		query += fmt.Sprintf(" AND score >= $%d", argPos)
		args = append(args, *minScore)
		argPos++
	}
	if cursor != nil && cursor.OrderKey != nil {
		query += fmt.Sprintf(" AND (updated_at < $%d OR (updated_at = $%d AND id < $%d))", argPos, argPos, argPos+1)
		args = append(args, *cursor.OrderKey, cursor.ID)
		argPos += 2
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.TeamID, &l.ThreadID, &l.CustomerID, &l.Source, &l.Status,
			&l.Score, &l.Qualification, &l.MessageCount, &l.LastInteractionAt, &l.Notes,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
