package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/domain/repositories"
	"neypot.backend/pkg/crypto"
	"neypot.backend/pkg/logger"
)

const defaultLastUsedTimeout = 5 * time.Second

// TokenAuthUsecase resolves a raw ingest token to its tenant.
type TokenAuthUsecase struct {
	tokenRepo       repositories.ApiTokenRepository
	hashers         []crypto.TokenHasher
	lastUsedTimeout time.Duration
	now             func() time.Time
	pending         sync.WaitGroup
}

func NewTokenAuthUsecase(
	tokenRepo repositories.ApiTokenRepository,
	hashers []crypto.TokenHasher,
	lastUsedTimeout time.Duration,
) *TokenAuthUsecase {
	if lastUsedTimeout <= 0 {
		lastUsedTimeout = defaultLastUsedTimeout
	}
	return &TokenAuthUsecase{
		tokenRepo:       tokenRepo,
		hashers:         hashers,
		lastUsedTimeout: lastUsedTimeout,
		now:             time.Now,
	}
}

// SetClock replaces the time source.
func (u *TokenAuthUsecase) SetClock(now func() time.Time) {
	u.now = now
}

// Authenticate returns the outcome together with an *AppError for every
// rejection. A missing token never reaches the repository.
func (u *TokenAuthUsecase) Authenticate(ctx context.Context, rawToken string) (*entities.AuthResult, error) {
	if rawToken == "" {
		return &entities.AuthResult{Outcome: entities.AuthRejectedMissing}, domainerrors.MissingCredential()
	}

	token, err := u.lookup(ctx, rawToken)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return &entities.AuthResult{Outcome: entities.AuthRejectedNotFound}, domainerrors.InvalidCredential()
		}
		return nil, domainerrors.StorageFailure(err)
	}

	now := u.now()
	result := &entities.AuthResult{TenantID: token.TenantID, TokenID: token.ID}
	switch token.State(now) {
	case entities.TokenStateRevoked:
		result.Outcome = entities.AuthRejectedRevoked
		return result, domainerrors.RevokedCredential()
	case entities.TokenStateGraceLapsed:
		result.Outcome = entities.AuthRejectedExpired
		result.Expiry = entities.ExpiryGraceLapsed
		return result, domainerrors.ExpiredCredential(domainerrors.MsgGraceLapsed)
	case entities.TokenStateExpired:
		result.Outcome = entities.AuthRejectedExpired
		result.Expiry = entities.ExpiryHard
		return result, domainerrors.ExpiredCredential(domainerrors.MsgExpiredCredential)
	}

	result.Outcome = entities.AuthAuthenticated
	u.touchLastUsed(ctx, token.ID, now)
	return result, nil
}

func (u *TokenAuthUsecase) lookup(ctx context.Context, rawToken string) (*entities.ApiToken, error) {
	for _, hasher := range u.hashers {
		token, err := u.tokenRepo.FindByHash(ctx, hasher.Hash(rawToken))
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, domainerrors.ErrNotFound
}

// touchLastUsed records usage in the background. It outlives the request
// context but not the timeout; a failure is only logged.
func (u *TokenAuthUsecase) touchLastUsed(ctx context.Context, tokenID uuid.UUID, at time.Time) {
	detached := context.WithoutCancel(ctx)
	u.pending.Add(1)
	go func() {
		defer u.pending.Done()
		updateCtx, cancel := context.WithTimeout(detached, u.lastUsedTimeout)
		defer cancel()
		if err := u.tokenRepo.UpdateLastUsed(updateCtx, tokenID, at); err != nil {
			logger.Warn(detached, "Failed to update token last_used_at",
				zap.String("token_id", tokenID.String()),
				zap.Error(err),
			)
		}
	}()
}

// Drain blocks until in-flight last_used_at updates have finished.
func (u *TokenAuthUsecase) Drain() {
	u.pending.Wait()
}
