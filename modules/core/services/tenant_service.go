package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/aisha-ai/aisha-crm/modules/core/domain/entities/tenant"
	"github.com/aisha-ai/aisha-crm/pkg/composables"
)

type TenantService struct {
	repo tenant.Repository
}

func NewTenantService(repo tenant.Repository) *TenantService {
	return &TenantService{repo: repo}
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TenantService) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return s.repo.GetByDomain(ctx, domain)
}

// ResolveKey maps a legacy string tenant key to its UUID internal key.
func (s *TenantService) ResolveKey(ctx context.Context, slug string) (uuid.UUID, error) {
	return s.repo.ResolveKey(ctx, slug)
}

func (s *TenantService) Create(ctx context.Context, name, domain, slug string) (*tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tenant name is required")
	}
	t := tenant.New(name, tenant.WithDomain(domain), tenant.WithSlug(slug))
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*tenant.Tenant, error) {
		return s.repo.Create(txCtx, t)
	})
}

func (s *TenantService) Update(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*tenant.Tenant, error) {
		return s.repo.Update(txCtx, t)
	})
}

func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

func (s *TenantService) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return s.repo.List(ctx)
}
