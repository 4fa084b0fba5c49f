package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	domainerrors "neypot.backend/internal/domain/errors"
	"neypot.backend/pkg/utils"
)

type listResponse struct {
	Items interface{}    `json:"items"`
	Meta  utils.PageMeta `json:"meta"`
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.BadRequest("invalid " + name)
	}
	return id, nil
}

func parseTenantQuery(c *gin.Context) (*uuid.UUID, error) {
	id, err := utils.ParseOptionalUUID(c.Query("tenant_id"))
	if err != nil {
		return nil, domainerrors.BadRequest("invalid tenant_id")
	}
	return id, nil
}

func parsePage(c *gin.Context) (utils.Page, error) {
	page, err := optionalInt(c.Query("page"))
	if err != nil {
		return utils.Page{}, domainerrors.BadRequest("invalid page")
	}
	limit, err := optionalInt(c.Query("limit"))
	if err != nil {
		return utils.Page{}, domainerrors.BadRequest("invalid limit")
	}
	return utils.NewPage(page, limit), nil
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return domainerrors.NewError(err.Error(), domainerrors.ErrInvalidInput)
	}
	return nil
}

func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domainerrors.BadRequest("since must be an RFC3339 timestamp")
	}
	return &t, nil
}
