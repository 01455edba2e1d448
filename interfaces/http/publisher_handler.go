package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pin-scheduler/usecase"
)

type IPublisherHandler interface {
	Run(ctx *gin.Context)
}

type PublisherHandler struct {
	publisher usecase.IScheduledPublisher
}

func NewPublisherHandler(publisher usecase.IScheduledPublisher) IPublisherHandler {
	return &PublisherHandler{publisher: publisher}
}

// Run handles POST /scheduled-publisher, the manual trigger of the cron run.
func (h *PublisherHandler) Run(ctx *gin.Context) {
	summary, err := h.publisher.RunOnce(ctx.Request.Context())
	if err != nil {
		respondErrorStatus(ctx, http.StatusInternalServerError, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}
