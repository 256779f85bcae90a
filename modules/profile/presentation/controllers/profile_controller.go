package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aisha-ai/aisha-crm/modules/profile/domain/personprofile"
	"github.com/aisha-ai/aisha-crm/modules/profile/services"
	"github.com/aisha-ai/aisha-crm/pkg/httpapi"
)

type ProfileController struct {
	profiles  *services.ProfileService
	apiPrefix string
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{
		profiles:  profiles,
		apiPrefix: "/crm/api/profiles",
	}
}

func (c *ProfileController) Key() string {
	return c.apiPrefix
}

func (c *ProfileController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.HandleFunc("/{person_id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{person_id}/refresh", c.Refresh).Methods(http.MethodPost)
}

type profileResponse struct {
	PersonID             string                        `json:"person_id"`
	Kind                 string                        `json:"kind"`
	DisplayName          string                        `json:"display_name"`
	Email                string                        `json:"email"`
	Phone                string                        `json:"phone"`
	LastActivityAt       *string                       `json:"last_activity_at"`
	OpenOpportunityCount int64                         `json:"open_opportunity_count"`
	Activities           []personprofile.ActivityEntry `json:"activities"`
	Notes                []personprofile.NoteEntry     `json:"notes"`
	RecentDocuments      []personprofile.DocumentEntry `json:"recent_documents"`
	OpportunityStages    []string                      `json:"opportunity_stage_history"`
	UpdatedAt            string                        `json:"updated_at"`
}

func toProfileResponse(p *personprofile.PersonProfile) profileResponse {
	out := profileResponse{
		PersonID:             p.PersonID.String(),
		Kind:                 string(p.Kind),
		DisplayName:          p.DisplayName,
		Email:                p.Email,
		Phone:                p.Phone,
		OpenOpportunityCount: p.OpenOpportunityCount,
		Activities:           p.Activities,
		Notes:                p.Notes,
		RecentDocuments:      p.RecentDocuments,
		OpportunityStages:    p.OpportunityStageHist,
		UpdatedAt:            p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.LastActivityAt != nil {
		s := p.LastActivityAt.UTC().Format(time.RFC3339Nano)
		out.LastActivityAt = &s
	}
	return out
}

func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(mux.Vars(r)["person_id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "PROFILE_INVALID_PATH", "person_id must be a uuid", nil)
		return
	}

	p, err := c.profiles.GetByPersonID(r.Context(), personID)
	if err != nil {
		if errors.Is(err, personprofile.ErrNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", err.Error(), nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "PROFILE_INTERNAL", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

func (c *ProfileController) Refresh(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(mux.Vars(r)["person_id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "PROFILE_INVALID_PATH", "person_id must be a uuid", nil)
		return
	}

	result, err := c.profiles.Refresh(r.Context(), personID)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "PROFILE_INTERNAL", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{
		"person_id": personID.String(),
		"result":    string(result),
	})
}
