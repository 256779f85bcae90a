package controllers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/activity"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/document"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/note"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/opportunity"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/workflowtemplate"
	"github.com/aisha-ai/aisha-crm/pkg/httpapi"
)

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_PATH", name+" must be a uuid", nil)
		return uuid.Nil, false
	}
	return id, true
}

func pathPersonRef(w http.ResponseWriter, r *http.Request) (person.Ref, bool) {
	vars := mux.Vars(r)
	return parsePersonRef(w, vars["kind"], vars["id"])
}

func parsePersonRef(w http.ResponseWriter, rawKind, rawID string) (person.Ref, bool) {
	kind, err := person.ParseKind(rawKind)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_PERSON", err.Error(), nil)
		return person.Ref{}, false
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_PERSON", "person id must be a uuid", nil)
		return person.Ref{}, false
	}
	ref, err := person.NewRef(kind, id)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_PERSON", err.Error(), nil)
		return person.Ref{}, false
	}
	return ref, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, person.ErrNotFound),
		errors.Is(err, activity.ErrNotFound),
		errors.Is(err, note.ErrNotFound),
		errors.Is(err, document.ErrNotFound),
		errors.Is(err, opportunity.ErrNotFound),
		errors.Is(err, workflowtemplate.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "CRM_NOT_FOUND", err.Error(), nil)
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "CRM_INTERNAL", err.Error(), nil)
	}
}
