package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"pin-scheduler/domain/dto"
	"pin-scheduler/interfaces/middleware"
	"pin-scheduler/usecase"
)

type IPinterestProxyHandler interface {
	Forward(ctx *gin.Context)
}

type PinterestProxyHandler struct {
	gateway usecase.IGateway
}

func NewPinterestProxyHandler(gateway usecase.IGateway) IPinterestProxyHandler {
	return &PinterestProxyHandler{gateway: gateway}
}

// Forward handles /pinterest-api?path=<api path> and /pinterest/*path
func (h *PinterestProxyHandler) Forward(ctx *gin.Context) {
	path := ctx.Query("path")
	if path == "" {
		path = ctx.Param("path")
	}
	query := ctx.Request.URL.Query()
	query.Del("path")

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		respondErrorStatus(ctx, http.StatusInternalServerError, err)
		return
	}

	resp, err := h.gateway.Forward(ctx.Request.Context(), dto.ProxyRequest{
		Method:        ctx.Request.Method,
		Path:          path,
		Query:         query,
		Body:          body,
		Authorization: middleware.Authorization(ctx),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondUpstream(ctx, resp.Status, resp.Body)
}
