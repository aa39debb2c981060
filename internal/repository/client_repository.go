package repository

import (
	"database/sql"

	"github.com/google/uuid"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/model"
)

type ClientRepositoryInterface interface {
	GetByID(teamID, id string) (*model.Client, error)
	FindByHandle(teamID, handle string, limit int) ([]model.Client, error)
	CreateBasic(teamID, name, handle string) (*model.Client, error)
}

// ClientRepository reads and minimally writes the client records owned by the
// CRUD layer. Contact resolution only ever needs identity lookups and the
// bare-bones create used by promotion.
type ClientRepository struct {
	DB *sql.DB
}

const clientColumns = `id, team_id, name, phone, whatsapp, created_at`

func (r *ClientRepository) GetByID(teamID, id string) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE team_id=$1 AND id=$2`
	var c model.Client
	err := r.DB.QueryRow(query, teamID, id).Scan(&c.ID, &c.TeamID, &c.Name, &c.Phone, &c.WhatsApp, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("client", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByHandle matches clients whose stored phone or whatsapp identity equals
// the external contact id.
func (r *ClientRepository) FindByHandle(teamID, handle string, limit int) ([]model.Client, error) {
	query := `
        SELECT ` + clientColumns + ` FROM clients
        WHERE team_id=$1 AND (whatsapp=$2 OR phone=$2)
        ORDER BY created_at DESC
        LIMIT $3
    `
	rows, err := r.DB.Query(query, teamID, handle, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.Phone, &c.WhatsApp, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// CreateBasic inserts the minimal client promotion needs: a name and the
// external identity stored as the whatsapp handle.
func (r *ClientRepository) CreateBasic(teamID, name, handle string) (*model.Client, error) {
	query := `
        INSERT INTO clients (id, team_id, name, whatsapp, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        RETURNING ` + clientColumns
	var c model.Client
	err := r.DB.QueryRow(query, uuid.NewString(), teamID, name, handle).
		Scan(&c.ID, &c.TeamID, &c.Name, &c.Phone, &c.WhatsApp, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ ClientRepositoryInterface = (*ClientRepository)(nil)
