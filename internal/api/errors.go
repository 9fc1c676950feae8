package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
)

// statusFor maps a query error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, analytics.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, analytics.ErrTooManyGroups):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, analytics.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
	} else {
		h.logger.Debug("Request rejected", "path", c.FullPath(), "status", status, "error", err)
	}

	body := gin.H{
		"success": false,
		"error":   err.Error(),
	}
	var tooMany *analytics.TooManyGroupsError
	if errors.As(err, &tooMany) {
		body["groups"] = tooMany.Groups
		body["limit"] = tooMany.Limit
	}
	c.JSON(status, body)
}

func respondData(c *gin.Context, data interface{}, extra ...gin.H) {
	body := gin.H{
		"success": true,
		"data":    data,
	}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}
