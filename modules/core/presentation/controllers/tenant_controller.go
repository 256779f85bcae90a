package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aisha-ai/aisha-crm/modules/core/domain/entities/tenant"
	"github.com/aisha-ai/aisha-crm/modules/core/infrastructure/persistence"
	"github.com/aisha-ai/aisha-crm/modules/core/services"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/httpapi"
)

type TenantController struct {
	tenants  *services.TenantService
	basePath string
}

func NewTenantController(tenants *services.TenantService) *TenantController {
	return &TenantController{
		tenants:  tenants,
		basePath: "/core/api/tenants",
	}
}

func (c *TenantController) Key() string {
	return c.basePath
}

func (c *TenantController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()

	// Key resolution serves any verified caller; everything else is
	// cross-tenant administration.
	api.HandleFunc("/resolve/{slug}", c.Resolve).Methods(http.MethodGet)

	api.HandleFunc("", c.List).Methods(http.MethodGet)
	api.HandleFunc("", c.Create).Methods(http.MethodPost)
	api.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", c.Update).Methods(http.MethodPatch)
	api.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	Slug      string `json:"slug"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID().String(),
		Name:      t.Name(),
		Domain:    t.Domain(),
		Slug:      t.Slug(),
		IsActive:  t.IsActive(),
		CreatedAt: t.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func (c *TenantController) Resolve(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	id, err := c.tenants.ResolveKey(r.Context(), slug)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{
		"slug":      slug,
		"tenant_id": id.String(),
	})
}

func (c *TenantController) List(w http.ResponseWriter, r *http.Request) {
	if !c.requireAdmin(w, r) {
		return
	}
	tenants, err := c.tenants.List(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	out := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"tenants": out})
}

type tenantRequest struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Slug     string `json:"slug"`
	IsActive *bool  `json:"is_active"`
}

func (c *TenantController) Create(w http.ResponseWriter, r *http.Request) {
	if !c.requireAdmin(w, r) {
		return
	}
	var req tenantRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CORE_INVALID_BODY", err.Error(), nil)
		return
	}
	if req.Name == "" || req.Slug == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CORE_INVALID_BODY", "name and slug are required", nil)
		return
	}

	created, err := c.tenants.Create(r.Context(), req.Name, req.Domain, req.Slug)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toTenantResponse(created))
}

func (c *TenantController) Get(w http.ResponseWriter, r *http.Request) {
	if !c.requireAdmin(w, r) {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CORE_INVALID_PATH", "id must be a uuid", nil)
		return
	}
	t, err := c.tenants.GetByID(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toTenantResponse(t))
}

func (c *TenantController) Update(w http.ResponseWriter, r *http.Request) {
	if !c.requireAdmin(w, r) {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CORE_INVALID_PATH", "id must be a uuid", nil)
		return
	}
	var req tenantRequest
	if err := httpapi.Decode(r, &req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CORE_INVALID_BODY", err.Error(), nil)
		return
	}

	t, err := c.tenants.GetByID(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	if req.Name != "" {
		t.SetName(req.Name)
	}
	if req.Domain != "" {
		t.SetDomain(req.Domain)
	}
	if req.IsActive != nil {
		t.SetIsActive(*req.IsActive)
	}

	updated, err := c.tenants.Update(r.Context(), t)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toTenantResponse(updated))
}

func (c *TenantController) Delete(w http.ResponseWriter, r *http.Request) {
	if !c.requireAdmin(w, r) {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CORE_INVALID_PATH", "id must be a uuid", nil)
		return
	}
	if err := c.tenants.Delete(r.Context(), id); err != nil {
		c.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *TenantController) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !composables.UseUnrestricted(r.Context()) {
		_ = httpapi.WriteError(w, http.StatusForbidden, "CORE_FORBIDDEN", "tenant administration requires an unrestricted credential", nil)
		return false
	}
	return true
}

func (c *TenantController) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, persistence.ErrTenantNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "CORE_NOT_FOUND", err.Error(), nil)
		return
	}
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "CORE_INTERNAL", err.Error(), nil)
}
