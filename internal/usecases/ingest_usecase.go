package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/domain/repositories"
	"neypot.backend/pkg/logger"
	"neypot.backend/pkg/metrics"
)

// TokenAuthenticator is satisfied by TokenAuthUsecase.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*entities.AuthResult, error)
}

type IngestResult struct {
	EventID   uuid.UUID
	RiskScore int
	Service   entities.ServiceType
}

// IngestUsecase runs authenticate, classify, score, normalize and persist.
type IngestUsecase struct {
	auth       TokenAuthenticator
	scorer     *RiskScorer
	normalizer *EventNormalizer
	eventRepo  repositories.EventRepository
}

func NewIngestUsecase(
	auth TokenAuthenticator,
	scorer *RiskScorer,
	normalizer *EventNormalizer,
	eventRepo repositories.EventRepository,
) *IngestUsecase {
	return &IngestUsecase{
		auth:       auth,
		scorer:     scorer,
		normalizer: normalizer,
		eventRepo:  eventRepo,
	}
}

// Ingest records one honeypot interaction. Every error it returns is an
// *AppError carrying the status and message for the caller.
func (u *IngestUsecase) Ingest(ctx context.Context, rawToken string, req RawRequest) (*IngestResult, error) {
	authResult, err := u.auth.Authenticate(ctx, rawToken)
	if err != nil {
		return nil, u.rejected(ctx, authResult, err)
	}

	declared := u.normalizer.ParseBody(req.Body)
	service := ClassifyService(declared.Service)
	fields := u.normalizer.Fields(req, declared)
	score := u.scorer.Score(ScoreInput{
		Service:   service,
		Path:      fields.Path,
		Method:    fields.Method,
		UserAgent: fields.UserAgent,
		Body:      req.Body,
	})

	event := u.normalizer.Normalize(req, declared, authResult.TenantID, service, score)
	eventID, err := u.eventRepo.Insert(ctx, event)
	if err != nil {
		metrics.ObserveIngest(string(service), metrics.OutcomeError)
		logger.Error(ctx, "Failed to insert event",
			zap.String("tenant_id", authResult.TenantID.String()),
			zap.String("service", string(service)),
			zap.Error(err),
		)
		return nil, domainerrors.InsertFailure(err)
	}

	metrics.ObserveIngest(string(service), metrics.OutcomeAccepted)
	metrics.ObserveRisk(string(service), score)
	logger.Info(ctx, "Event ingested",
		zap.String("event_id", eventID.String()),
		zap.String("tenant_id", authResult.TenantID.String()),
		zap.String("service", string(service)),
		zap.Int("risk_score", score),
		zap.String("source_ip", event.SourceIP),
	)

	return &IngestResult{EventID: eventID, RiskScore: score, Service: service}, nil
}

func (u *IngestUsecase) rejected(ctx context.Context, result *entities.AuthResult, err error) error {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.StorageFailure(err)
	}

	outcome := metrics.OutcomeError
	if result != nil {
		switch result.Outcome {
		case entities.AuthRejectedMissing:
			outcome = metrics.OutcomeRejectedMissing
		case entities.AuthRejectedNotFound:
			outcome = metrics.OutcomeRejectedInvalid
		case entities.AuthRejectedRevoked:
			outcome = metrics.OutcomeRejectedRevoked
		case entities.AuthRejectedExpired:
			outcome = metrics.OutcomeRejectedExpired
		}
	}
	metrics.ObserveIngest("", outcome)

	if outcome == metrics.OutcomeError {
		logger.Error(ctx, "Token lookup failed", zap.Error(err))
	} else {
		logger.Warn(ctx, "Ingest rejected",
			zap.String("outcome", outcome),
			zap.String("reason", appErr.Message),
		)
	}
	return appErr
}
