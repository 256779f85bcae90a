package services_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisha-ai/aisha-crm/modules/crm/domain/entities/workflowtemplate"
	crmpersistence "github.com/aisha-ai/aisha-crm/modules/crm/infrastructure/persistence"
	"github.com/aisha-ai/aisha-crm/modules/crm/services"
	"github.com/aisha-ai/aisha-crm/pkg/auth"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
	"github.com/aisha-ai/aisha-crm/pkg/itf"
)

func TestWorkflowTemplateService_SystemTemplates(t *testing.T) {
	d := itf.NewDatabase(t)
	tenantA := d.CreateTenant(t, "Acme", "acme")
	tenantB := d.CreateTenant(t, "Globex", "globex")

	svc := services.NewWorkflowTemplateService(crmpersistence.NewWorkflowTemplateRepository())

	memberCtx := composables.WithAccess(d.TenantContext(tenantA),
		auth.Access{TenantID: tenantA, Role: auth.RoleMember})

	// Members cannot mint system templates.
	_, err := svc.Create(memberCtx, &workflowtemplate.WorkflowTemplate{
		Name:       "lead-nurture",
		Definition: json.RawMessage(`{"steps":[]}`),
		IsSystem:   true,
	})
	require.Error(t, err)

	// A service credential can; the template ends up tenant-less.
	serviceCtx := composables.WithTenantID(
		composables.WithAccess(d.TenantContext(tenantA), auth.Access{Role: auth.RoleService}),
		tenantA)
	system, err := svc.Create(serviceCtx, &workflowtemplate.WorkflowTemplate{
		Name:       "lead-nurture",
		Definition: json.RawMessage(`{"steps":[]}`),
		IsSystem:   true,
	})
	require.NoError(t, err)
	assert.True(t, system.IsSystem)
	assert.Empty(t, system.TenantID)

	// Tenant-scoped template next to it.
	own, err := svc.Create(memberCtx, &workflowtemplate.WorkflowTemplate{
		Name:       "follow-up",
		Definition: json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, tenantA, own.TenantID)

	// Every tenant reads the system template; only the owner sees its own.
	listA, err := svc.List(memberCtx)
	require.NoError(t, err)
	require.Len(t, listA, 2)

	listB, err := svc.List(d.TenantContext(tenantB))
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.True(t, listB[0].IsSystem)

	got, err := svc.GetByID(d.TenantContext(tenantB), system.ID)
	require.NoError(t, err)
	assert.Equal(t, system.ID, got.ID)

	// System templates cannot be deleted through the tenant path.
	err = svc.Delete(memberCtx, system.ID)
	require.ErrorIs(t, err, workflowtemplate.ErrNotFound)

	require.NoError(t, svc.Delete(memberCtx, own.ID))
}
