package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
	ErrorInternal  = "internal server error"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrUnsupportedPlatform):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrCredentialsMissing):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrSessionExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logger.GetLogger().WithField("path", ctx.FullPath()).WithField("error", err).Error("Request failed")
		msg = ErrorInternal
	case http.StatusUnauthorized:
		msg = "Unauthorized"
	case http.StatusForbidden:
		msg = "Forbidden"
	}
	ctx.JSON(status, gin.H{"error": msg})
}
