package http

import (
	"github.com/gin-gonic/gin"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/infrastructure/logger"
)

func respondError(ctx *gin.Context, err error) {
	respondErrorStatus(ctx, apperror.HTTPStatus(err), err)
}

func respondErrorStatus(ctx *gin.Context, status int, err error) {
	lg := logger.GetLogger().WithField("error", err.Error()).WithField("path", ctx.Request.URL.Path).WithField("status", status)
	if status >= 500 {
		lg.Error("Request failed")
	} else {
		lg.Warn("Request rejected")
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

// respondUpstream writes a provider response as-is; an empty body leaves only the status.
func respondUpstream(ctx *gin.Context, status int, body []byte) {
	if len(body) == 0 {
		ctx.Status(status)
		return
	}
	ctx.Data(status, "application/json; charset=utf-8", body)
}
