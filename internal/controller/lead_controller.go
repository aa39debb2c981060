// internal/controller/lead_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
	"github.com/faworra/inbox-backend/internal/service"
)

type LeadController struct {
	Leads *service.LeadService
}

func (c *LeadController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ThreadID    string  `json:"thread_id"`
		ManualScore int     `json:"manual_score"`
		Notes       *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}

	lead, err := c.Leads.CreateFromThread(teamID(r), body.ThreadID, body.ManualScore, body.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (c *LeadController) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var minScore *int
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, appErrors.NewValidation("invalid min_score"))
			return
		}
		minScore = &n
	}

	page, err := c.Leads.List(teamID(r), r.URL.Query().Get("status"), minScore, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (c *LeadController) Recompute(w http.ResponseWriter, r *http.Request) {
	lead, err := c.Leads.Recompute(teamID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (c *LeadController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}

	lead, err := c.Leads.UpdateStatus(teamID(r), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (c *LeadController) SetClient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID string `json:"client_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("invalid body"))
		return
	}
	if body.ClientID == "" {
		writeError(w, appErrors.NewValidation("client_id is required"))
		return
	}

	lead, err := c.Leads.SetClient(teamID(r), chi.URLParam(r, "id"), body.ClientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
