package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/aggregates/person"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/activity"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/document"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/note"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/opportunity"
	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/workflowtemplate"
	"github.com/aisha-ai/aisha-crm/modules/crm/services"
	"github.com/aisha-ai/aisha-crm/pkg/httpapi"
)

type CRMAPIController struct {
	persons       *services.PersonService
	activities    *services.ActivityService
	notes         *services.NoteService
	documents     *services.DocumentService
	opportunities *services.OpportunityService
	templates     *services.WorkflowTemplateService
	apiPrefix     string
}

func NewCRMAPIController(
	persons *services.PersonService,
	activities *services.ActivityService,
	notes *services.NoteService,
	documents *services.DocumentService,
	opportunities *services.OpportunityService,
	templates *services.WorkflowTemplateService,
) *CRMAPIController {
	return &CRMAPIController{
		persons:       persons,
		activities:    activities,
		notes:         notes,
		documents:     documents,
		opportunities: opportunities,
		templates:     templates,
		apiPrefix:     "/crm/api",
	}
}

func (c *CRMAPIController) Key() string {
	return c.apiPrefix
}

func (c *CRMAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/persons", c.ListPersons).Methods(http.MethodGet)
	api.HandleFunc("/persons", c.CreatePerson).Methods(http.MethodPost)
	api.HandleFunc("/persons/resolve/{id}", c.ResolvePersonKind).Methods(http.MethodGet)
	api.HandleFunc("/persons/{kind}/{id}", c.GetPerson).Methods(http.MethodGet)
	api.HandleFunc("/persons/{kind}/{id}", c.UpdatePerson).Methods(http.MethodPatch)
	api.HandleFunc("/persons/{kind}/{id}", c.DeletePerson).Methods(http.MethodDelete)

	api.HandleFunc("/activities", c.CreateActivity).Methods(http.MethodPost)
	api.HandleFunc("/activities/{id}", c.GetActivity).Methods(http.MethodGet)
	api.HandleFunc("/activities/{id}", c.UpdateActivity).Methods(http.MethodPatch)
	api.HandleFunc("/activities/{id}", c.DeleteActivity).Methods(http.MethodDelete)

	api.HandleFunc("/notes", c.CreateNote).Methods(http.MethodPost)
	api.HandleFunc("/notes/{id}", c.GetNote).Methods(http.MethodGet)
	api.HandleFunc("/notes/{id}", c.UpdateNote).Methods(http.MethodPatch)
	api.HandleFunc("/notes/{id}", c.DeleteNote).Methods(http.MethodDelete)

	api.HandleFunc("/documents", c.CreateDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", c.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", c.DeleteDocument).Methods(http.MethodDelete)

	api.HandleFunc("/opportunities", c.CreateOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/{id}", c.GetOpportunity).Methods(http.MethodGet)
	api.HandleFunc("/opportunities/{id}", c.UpdateOpportunity).Methods(http.MethodPatch)
	api.HandleFunc("/opportunities/{id}", c.DeleteOpportunity).Methods(http.MethodDelete)

	api.HandleFunc("/workflow-templates", c.ListWorkflowTemplates).Methods(http.MethodGet)
	api.HandleFunc("/workflow-templates", c.CreateWorkflowTemplate).Methods(http.MethodPost)
	api.HandleFunc("/workflow-templates/{id}", c.GetWorkflowTemplate).Methods(http.MethodGet)
	api.HandleFunc("/workflow-templates/{id}", c.DeleteWorkflowTemplate).Methods(http.MethodDelete)
}

type personResponse struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toPersonResponse(p person.Person) personResponse {
	return personResponse{
		Kind:        string(p.Kind()),
		ID:          p.ID().String(),
		FirstName:   p.FirstName(),
		LastName:    p.LastName(),
		DisplayName: p.DisplayName(),
		Email:       p.Email(),
		Phone:       p.Phone(),
		Status:      string(p.Status()),
		CreatedAt:   p.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func (c *CRMAPIController) ListPersons(w http.ResponseWriter, r *http.Request) {
	params := &person.FindParams{
		Q: r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := person.ParseKind(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_QUERY", err.Error(), nil)
			return
		}
		params.Kind = kind
	}
	params.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	params.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	people, total, err := c.persons.GetPaginated(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]personResponse, 0, len(people))
	for _, p := range people {
		out = append(out, toPersonResponse(p))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"persons": out,
	})
}

type personRequest struct {
	Kind      string `json:"kind"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

func (c *CRMAPIController) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	kind, err := person.ParseKind(req.Kind)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	if req.FirstName == "" && req.LastName == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", "a name is required", nil)
		return
	}

	p := person.New(kind, uuid.Nil, req.FirstName, req.LastName).
		WithContactInfo(req.Email, req.Phone)
	if req.Status != "" {
		p = p.WithStatus(person.Status(req.Status))
	}

	created, err := c.persons.Create(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toPersonResponse(created))
}

func (c *CRMAPIController) ResolvePersonKind(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	kind, err := c.persons.ResolveKind(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{
		"id":   id.String(),
		"kind": string(kind),
	})
}

func (c *CRMAPIController) GetPerson(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathPersonRef(w, r)
	if !ok {
		return
	}
	p, err := c.persons.GetByRef(r.Context(), ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

func (c *CRMAPIController) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathPersonRef(w, r)
	if !ok {
		return
	}
	var req personRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}

	existing, err := c.persons.GetByRef(r.Context(), ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	updated := existing
	if req.FirstName != "" || req.LastName != "" {
		updated = updated.WithName(req.FirstName, req.LastName)
	}
	if req.Email != "" || req.Phone != "" {
		updated = updated.WithContactInfo(req.Email, req.Phone)
	}
	if req.Status != "" {
		updated = updated.WithStatus(person.Status(req.Status))
	}

	saved, err := c.persons.Update(r.Context(), updated)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toPersonResponse(saved))
}

func (c *CRMAPIController) DeletePerson(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathPersonRef(w, r)
	if !ok {
		return
	}
	if err := c.persons.Delete(r.Context(), ref); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activityRequest struct {
	PersonID   string    `json:"person_id"`
	PersonKind string    `json:"person_kind"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (c *CRMAPIController) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	ref, ok := parsePersonRef(w, req.PersonKind, req.PersonID)
	if !ok {
		return
	}

	created, err := c.activities.Create(r.Context(), &activity.Activity{
		Person:     ref,
		Type:       req.Type,
		Subject:    req.Subject,
		Body:       req.Body,
		OccurredAt: req.OccurredAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *CRMAPIController) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	a, err := c.activities.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, a)
}

func (c *CRMAPIController) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req activityRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}

	existing, err := c.activities.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Type != "" {
		existing.Type = req.Type
	}
	if req.Subject != "" {
		existing.Subject = req.Subject
	}
	if req.Body != "" {
		existing.Body = req.Body
	}
	if !req.OccurredAt.IsZero() {
		existing.OccurredAt = req.OccurredAt
	}

	updated, err := c.activities.Update(r.Context(), existing)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, updated)
}

func (c *CRMAPIController) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.activities.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type noteRequest struct {
	PersonID   string `json:"person_id"`
	PersonKind string `json:"person_kind"`
	Body       string `json:"body"`
}

func (c *CRMAPIController) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	ref, ok := parsePersonRef(w, req.PersonKind, req.PersonID)
	if !ok {
		return
	}
	if req.Body == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", "body is required", nil)
		return
	}

	created, err := c.notes.Create(r.Context(), &note.Note{Person: ref, Body: req.Body})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *CRMAPIController) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	n, err := c.notes.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, n)
}

func (c *CRMAPIController) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req noteRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	if req.Body == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", "body is required", nil)
		return
	}

	existing, err := c.notes.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	existing.Body = req.Body

	updated, err := c.notes.Update(r.Context(), existing)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, updated)
}

func (c *CRMAPIController) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.notes.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type documentRequest struct {
	PersonID   string `json:"person_id"`
	PersonKind string `json:"person_kind"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

func (c *CRMAPIController) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	ref, ok := parsePersonRef(w, req.PersonKind, req.PersonID)
	if !ok {
		return
	}
	if req.FileName == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", "file_name is required", nil)
		return
	}

	created, err := c.documents.Create(r.Context(), &document.Document{
		Person:    ref,
		FileName:  req.FileName,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *CRMAPIController) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	d, err := c.documents.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, d)
}

func (c *CRMAPIController) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.documents.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type opportunityRequest struct {
	PersonID    string `json:"person_id"`
	PersonKind  string `json:"person_kind"`
	Name        string `json:"name"`
	Stage       string `json:"stage"`
	AmountCents int64  `json:"amount_cents"`
}

func (c *CRMAPIController) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	var req opportunityRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	ref, ok := parsePersonRef(w, req.PersonKind, req.PersonID)
	if !ok {
		return
	}
	stage, err := opportunity.ParseStage(req.Stage)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}

	created, err := c.opportunities.Create(r.Context(), &opportunity.Opportunity{
		Person:      ref,
		Name:        req.Name,
		Stage:       stage,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *CRMAPIController) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	o, err := c.opportunities.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, o)
}

func (c *CRMAPIController) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req opportunityRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}

	existing, err := c.opportunities.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Stage != "" {
		stage, err := opportunity.ParseStage(req.Stage)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
			return
		}
		existing.Stage = stage
	}
	if req.AmountCents != 0 {
		existing.AmountCents = req.AmountCents
	}

	updated, err := c.opportunities.Update(r.Context(), existing)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, updated)
}

func (c *CRMAPIController) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.opportunities.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type workflowTemplateRequest struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
	IsSystem   bool            `json:"is_system"`
}

func (c *CRMAPIController) ListWorkflowTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := c.templates.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (c *CRMAPIController) CreateWorkflowTemplate(w http.ResponseWriter, r *http.Request) {
	var req workflowTemplateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", err.Error(), nil)
		return
	}
	if req.Name == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_BODY", "name is required", nil)
		return
	}

	created, err := c.templates.Create(r.Context(), &workflowtemplate.WorkflowTemplate{
		Name:       req.Name,
		Definition: req.Definition,
		IsSystem:   req.IsSystem,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *CRMAPIController) GetWorkflowTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := c.templates.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, t)
}

func (c *CRMAPIController) DeleteWorkflowTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.templates.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
