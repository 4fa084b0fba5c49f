package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/domain/repositories"
	"neypot.backend/pkg/crypto"
)

const (
	DefaultGracePeriod = 24 * time.Hour
	rotatedNameSuffix  = " (rotated)"
	tokenNotFound      = "token not found"
)

var generateRawToken = crypto.GenerateToken

// ApiTokenUsecase issues and manages ingest tokens.
type ApiTokenUsecase struct {
	tokenRepo   repositories.ApiTokenRepository
	tenantRepo  repositories.TenantRepository
	uow         repositories.UnitOfWork
	hasher      crypto.TokenHasher
	gracePeriod time.Duration
	audit       *AuditLogUsecase
	now         func() time.Time
}

func NewApiTokenUsecase(
	tokenRepo repositories.ApiTokenRepository,
	tenantRepo repositories.TenantRepository,
	uow repositories.UnitOfWork,
	hasher crypto.TokenHasher,
	gracePeriod time.Duration,
	audit *AuditLogUsecase,
) *ApiTokenUsecase {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	return &ApiTokenUsecase{
		tokenRepo:   tokenRepo,
		tenantRepo:  tenantRepo,
		uow:         uow,
		hasher:      hasher,
		gracePeriod: gracePeriod,
		audit:       audit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *ApiTokenUsecase) SetClock(now func() time.Time) {
	u.now = now
}

// Create issues a token for an active tenant. The raw value is only ever
// returned here.
func (u *ApiTokenUsecase) Create(ctx context.Context, actor entities.Actor, input *entities.CreateApiTokenInput) (*entities.IssuedApiToken, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerrors.BadRequest("name is required")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(u.now()) {
		return nil, domainerrors.BadRequest("expires_at must be in the future")
	}

	tenant, err := u.tenantRepo.GetByID(ctx, input.TenantID)
	if err != nil {
		return nil, repoError(err, tenantNotFound)
	}
	if !tenant.IsActive {
		return nil, domainerrors.BadRequest("tenant is not active")
	}

	issued, err := u.issue(ctx, actor, tenant.ID, name, input.ExpiresAt)
	if err != nil {
		return nil, err
	}

	u.audit.Record(ctx, entities.AuditTokenCreated, actor,
		fmt.Sprintf("token %s (%s) for tenant %s", issued.ApiToken.Name, issued.ApiToken.TokenPreview, tenant.ID))
	return issued, nil
}

func (u *ApiTokenUsecase) issue(ctx context.Context, actor entities.Actor, tenantID uuid.UUID, name string, expiresAt *time.Time) (*entities.IssuedApiToken, error) {
	raw, err := generateRawToken()
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	token := &entities.ApiToken{
		TenantID:     tenantID,
		Name:         name,
		TokenHash:    u.hasher.Hash(raw),
		TokenPreview: crypto.Preview(raw),
		IsActive:     true,
		ExpiresAt:    expiresAt,
		CreatedBy:    actor.UserID,
	}
	if err := u.tokenRepo.Create(ctx, token); err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return &entities.IssuedApiToken{ApiToken: token, RawToken: raw}, nil
}

func (u *ApiTokenUsecase) List(ctx context.Context, tenantID *uuid.UUID) ([]*entities.ApiToken, error) {
	tokens, err := u.tokenRepo.List(ctx, entities.ApiTokenFilter{TenantID: tenantID})
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return tokens, nil
}

func (u *ApiTokenUsecase) Revoke(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.ApiToken, error) {
	token, err := u.tokenRepo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, tokenNotFound)
	}
	if err := u.tokenRepo.Revoke(ctx, id); err != nil {
		return nil, repoError(err, tokenNotFound)
	}
	token.IsActive = false

	u.audit.Record(ctx, entities.AuditTokenRevoked, actor, fmt.Sprintf("token %s (%s)", token.Name, token.TokenPreview))
	return token, nil
}

// Rotate opens a grace window on the current token and issues its
// replacement in one transaction. is_active is left unchanged. Only an
// active token that has not been rotated before qualifies.
func (u *ApiTokenUsecase) Rotate(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.RotateApiTokenResult, error) {
	token, err := u.tokenRepo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, tokenNotFound)
	}
	if state := token.State(u.now()); state != entities.TokenStateActive {
		return nil, domainerrors.Conflict(fmt.Sprintf("%s tokens cannot be rotated", state))
	}
	if token.GracePeriodUntil != nil {
		return nil, domainerrors.Conflict("token has already been rotated")
	}

	graceUntil := u.now().Add(u.gracePeriod)
	var replacement *entities.IssuedApiToken
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.tokenRepo.SetGracePeriod(txCtx, id, graceUntil); err != nil {
			return err
		}
		issued, err := u.issue(txCtx, actor, token.TenantID, token.Name+rotatedNameSuffix, token.ExpiresAt)
		if err != nil {
			return err
		}
		replacement = issued
		return nil
	})
	if err != nil {
		return nil, repoError(err, tokenNotFound)
	}
	token.GracePeriodUntil = &graceUntil

	u.audit.Record(ctx, entities.AuditTokenRotated, actor,
		fmt.Sprintf("token %s (%s) rotated to %s, grace until %s",
			token.Name, token.TokenPreview, replacement.ApiToken.TokenPreview, graceUntil.Format(time.RFC3339)))
	return &entities.RotateApiTokenResult{Previous: token, Replacement: replacement}, nil
}

func (u *ApiTokenUsecase) Delete(ctx context.Context, actor entities.Actor, id uuid.UUID) error {
	token, err := u.tokenRepo.FindByID(ctx, id)
	if err != nil {
		return repoError(err, tokenNotFound)
	}
	if err := u.tokenRepo.Delete(ctx, id); err != nil {
		return repoError(err, tokenNotFound)
	}

	u.audit.Record(ctx, entities.AuditTokenDeleted, actor, fmt.Sprintf("token %s (%s)", token.Name, token.TokenPreview))
	return nil
}

// HashToken exposes the lookup hash of a raw token for operator tooling.
func (u *ApiTokenUsecase) HashToken(raw string) string {
	return u.hasher.Hash(raw)
}
