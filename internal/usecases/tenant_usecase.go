package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/domain/repositories"
)

const tenantNotFound = "tenant not found"

type TenantUsecase struct {
	tenantRepo repositories.TenantRepository
	tokenRepo  repositories.ApiTokenRepository
	eventRepo  repositories.EventRepository
	uow        repositories.UnitOfWork
	audit      *AuditLogUsecase
}

func NewTenantUsecase(
	tenantRepo repositories.TenantRepository,
	tokenRepo repositories.ApiTokenRepository,
	eventRepo repositories.EventRepository,
	uow repositories.UnitOfWork,
	audit *AuditLogUsecase,
) *TenantUsecase {
	return &TenantUsecase{
		tenantRepo: tenantRepo,
		tokenRepo:  tokenRepo,
		eventRepo:  eventRepo,
		uow:        uow,
		audit:      audit,
	}
}

func (u *TenantUsecase) Create(ctx context.Context, actor entities.Actor, input *entities.CreateTenantInput) (*entities.Tenant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerrors.BadRequest("name is required")
	}
	retention := input.RetentionDays
	if retention == 0 {
		retention = entities.DefaultRetentionDays
	}
	if retention < entities.MinRetentionDays || retention > entities.MaxRetentionDays {
		return nil, domainerrors.BadRequest("retention_days must be between 1 and 3650")
	}

	tenant := &entities.Tenant{
		Name:          name,
		RetentionDays: retention,
		IsActive:      true,
		CreatedBy:     actor.UserID,
	}
	if err := u.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, domainerrors.InternalError(err)
	}

	u.audit.Record(ctx, entities.AuditTenantCreated, actor, fmt.Sprintf("tenant %s (%s)", tenant.Name, tenant.ID))
	return tenant, nil
}

func (u *TenantUsecase) List(ctx context.Context) ([]*entities.Tenant, error) {
	tenants, err := u.tenantRepo.List(ctx)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return tenants, nil
}

func (u *TenantUsecase) Get(ctx context.Context, id uuid.UUID) (*entities.Tenant, error) {
	tenant, err := u.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, tenantNotFound)
	}
	return tenant, nil
}

func (u *TenantUsecase) Update(ctx context.Context, actor entities.Actor, id uuid.UUID, input *entities.UpdateTenantInput) (*entities.Tenant, error) {
	tenant, err := u.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, tenantNotFound)
	}

	var changes []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domainerrors.BadRequest("name must not be blank")
		}
		if name != tenant.Name {
			changes = append(changes, fmt.Sprintf("name=%s", name))
			tenant.Name = name
		}
	}
	if input.RetentionDays != nil {
		days := *input.RetentionDays
		if days < entities.MinRetentionDays || days > entities.MaxRetentionDays {
			return nil, domainerrors.BadRequest("retention_days must be between 1 and 3650")
		}
		if days != tenant.RetentionDays {
			changes = append(changes, fmt.Sprintf("retention_days=%d", days))
			tenant.RetentionDays = days
		}
	}
	if input.IsActive != nil && *input.IsActive != tenant.IsActive {
		changes = append(changes, fmt.Sprintf("is_active=%t", *input.IsActive))
		tenant.IsActive = *input.IsActive
	}

	if len(changes) == 0 {
		return tenant, nil
	}
	if err := u.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, repoError(err, tenantNotFound)
	}

	u.audit.Record(ctx, entities.AuditSettingChanged, actor,
		fmt.Sprintf("tenant %s: %s", tenant.ID, strings.Join(changes, ", ")))
	return tenant, nil
}

// Delete removes the tenant with all of its tokens and events atomically.
func (u *TenantUsecase) Delete(ctx context.Context, actor entities.Actor, id uuid.UUID) error {
	tenant, err := u.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return repoError(err, tenantNotFound)
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.tokenRepo.DeleteByTenant(txCtx, id); err != nil {
			return fmt.Errorf("delete tenant tokens: %w", err)
		}
		if err := u.eventRepo.DeleteByTenant(txCtx, id); err != nil {
			return fmt.Errorf("delete tenant events: %w", err)
		}
		return u.tenantRepo.Delete(txCtx, id)
	})
	if err != nil {
		return repoError(err, tenantNotFound)
	}

	u.audit.Record(ctx, entities.AuditTenantDeleted, actor, fmt.Sprintf("tenant %s (%s)", tenant.Name, tenant.ID))
	return nil
}
