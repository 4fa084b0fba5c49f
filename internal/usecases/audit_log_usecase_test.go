package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"neypot.backend/internal/domain/entities"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/internal/usecases"
	"neypot.backend/pkg/utils"
)

func TestAuditLogUsecase_RecordSystemActor(t *testing.T) {
	repo := new(MockAuditLogRepository)
	uc := usecases.NewAuditLogUsecase(repo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *entities.AuditLog) bool {
		return l.UserEmail == "system" && l.UserID == nil && !l.IPAddress.Valid && l.Details.String == "3 tokens revoked"
	})).Return(nil)

	uc.Record(context.Background(), entities.AuditTokenRevoked, entities.SystemActor, "3 tokens revoked")
	repo.AssertExpectations(t)
}

func TestAuditLogUsecase_RecordOperator(t *testing.T) {
	repo := new(MockAuditLogRepository)
	uc := usecases.NewAuditLogUsecase(repo)
	userID := uuid.New()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *entities.AuditLog) bool {
		return l.UserID != nil && *l.UserID == userID && l.IPAddress.String == "10.0.0.1" && !l.Details.Valid
	})).Return(nil)

	uc.Record(context.Background(), entities.AuditExportData, entities.Actor{UserID: &userID, Email: "a@b.c", IP: "10.0.0.1"}, "")
	repo.AssertExpectations(t)
}

func TestAuditLogUsecase_List(t *testing.T) {
	repo := new(MockAuditLogRepository)
	uc := usecases.NewAuditLogUsecase(repo)
	page := utils.NewPage(1, 20)
	action := entities.AuditTokenCreated
	repo.On("List", mock.Anything, entities.AuditLogFilter{Action: &action}, page).
		Return([]*entities.AuditLog{{Action: action}}, int64(1), nil)

	items, meta, err := uc.List(context.Background(), "TOKEN_CREATED", page)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), meta.TotalCount)

	_, _, err = uc.List(context.Background(), "DROP_DATABASE", page)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}
