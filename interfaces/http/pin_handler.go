package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/interfaces/middleware"
	"pin-scheduler/usecase"
)

type IPinHandler interface {
	CreatePin(ctx *gin.Context)
}

type PinHandler struct {
	worker usecase.IPublishWorker
}

func NewPinHandler(worker usecase.IPublishWorker) IPinHandler {
	return &PinHandler{worker: worker}
}

// CreatePin handles POST /pins with body {"pin": {...}} and publishes immediately.
func (h *PinHandler) CreatePin(ctx *gin.Context) {
	authorization := middleware.Authorization(ctx)
	if authorization == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
		return
	}
	var req dto.CreatePinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Pin == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Pin data is required"})
		return
	}

	pin := model.ScheduledPin{
		Title:       req.Pin.Title,
		Description: req.Pin.Description,
		Link:        req.Pin.Link,
		ImageURL:    req.Pin.MediaSource.URL,
		BoardID:     req.Pin.Board(),
	}
	res, err := h.worker.Publish(ctx.Request.Context(), pin, authorization)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondUpstream(ctx, http.StatusOK, res.Raw)
}
