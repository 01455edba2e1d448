package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pin-scheduler/domain/dto"
	"pin-scheduler/infrastructure/cache"
	"pin-scheduler/interfaces/middleware"
	"pin-scheduler/usecase"
)

type IBoardHandler interface {
	ListBoards(ctx *gin.Context)
}

type BoardHandler struct {
	gateway usecase.IGateway
	cache   cache.IBoardCache
}

func NewBoardHandler(gateway usecase.IGateway, boardCache cache.IBoardCache) IBoardHandler {
	return &BoardHandler{gateway: gateway, cache: boardCache}
}

// ListBoards handles GET /boards for the caller's token. Successful listings
// without a bookmark query are cached per token.
func (h *BoardHandler) ListBoards(ctx *gin.Context) {
	authorization := middleware.Authorization(ctx)
	query := ctx.Request.URL.Query()
	cacheable := h.cache != nil && authorization != "" && len(query) == 0

	if cacheable {
		if body, ok := h.cache.Get(ctx.Request.Context(), authorization); ok {
			respondUpstream(ctx, http.StatusOK, body)
			return
		}
	}

	resp, err := h.gateway.Forward(ctx.Request.Context(), dto.ProxyRequest{
		Method:        http.MethodGet,
		Path:          "/boards",
		Query:         query,
		Authorization: authorization,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if cacheable && resp.Status == http.StatusOK {
		h.cache.Set(ctx.Request.Context(), authorization, resp.Body)
	}
	respondUpstream(ctx, resp.Status, resp.Body)
}
