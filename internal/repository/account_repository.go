package repository

import (
	"database/sql"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
)

type AccountRepositoryInterface interface {
	GetByID(teamID, id string) (*model.Account, error)
	GetByExternalID(teamID, channel, externalID string) (*model.Account, error)
	ListByTeam(teamID string) ([]model.Account, error)
	UpdateStatus(teamID, id, status string) error
}

type AccountRepository struct {
	DB *sql.DB
}

const accountColumns = `id, team_id, channel, external_id, display_name, status, created_at, updated_at`

func scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.TeamID, &a.Channel, &a.ExternalID, &a.DisplayName, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) GetByID(teamID, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM communication_accounts WHERE team_id=$1 AND id=$2`
	a, err := scanAccount(r.DB.QueryRow(query, teamID, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("account", id)
	}
	return a, err
}

func (r *AccountRepository) GetByExternalID(teamID, channel, externalID string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM communication_accounts WHERE team_id=$1 AND channel=$2 AND external_id=$3`
	a, err := scanAccount(r.DB.QueryRow(query, teamID, channel, externalID))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("account", externalID)
	}
	return a, err
}

func (r *AccountRepository) ListByTeam(teamID string) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM communication_accounts WHERE team_id=$1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.TeamID, &a.Channel, &a.ExternalID, &a.DisplayName, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateStatus is called by the provider-integration layer as sessions connect
// and drop; the engine itself never changes an account's status.
func (r *AccountRepository) UpdateStatus(teamID, id, status string) error {
	query := `UPDATE communication_accounts SET status=$1, updated_at=NOW() WHERE team_id=$2 AND id=$3`
	res, err := r.DB.Exec(query, status, teamID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("account", id)
	}
	return nil
}

var _ AccountRepositoryInterface = (*AccountRepository)(nil)
