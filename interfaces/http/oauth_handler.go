package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/utils"
	"pin-scheduler/usecase"
)

type IOAuthHandler interface {
	AuthURL(ctx *gin.Context)
	Token(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

type OAuthHandler struct {
	broker       usecase.IOAuthBroker
	accounts     usecase.IAccountRegistry
	refreshAfter time.Duration
	now          utils.Clock
}

func NewOAuthHandler(broker usecase.IOAuthBroker, accounts usecase.IAccountRegistry, refreshAfter time.Duration, now utils.Clock) IOAuthHandler {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &OAuthHandler{broker: broker, accounts: accounts, refreshAfter: refreshAfter, now: now}
}

// AuthURL handles GET /oauth/url
func (h *OAuthHandler) AuthURL(ctx *gin.Context) {
	url, err := h.broker.AuthorizationURL()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.AuthURLResponse{URL: url})
}

// Token handles GET /token?code= and GET /token?refresh_token=
func (h *OAuthHandler) Token(ctx *gin.Context) {
	code := ctx.Query("code")
	refreshToken := ctx.Query("refresh_token")
	if code == "" && refreshToken == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Code or refresh token required"})
		return
	}

	if code != "" {
		h.exchange(ctx, code)
		return
	}

	resp, err := h.broker.Refresh(ctx.Request.Context(), refreshToken)
	if err != nil {
		respondTokenError(ctx, err)
		return
	}
	h.updateRefreshed(ctx, refreshToken, resp)
	ctx.JSON(http.StatusOK, resp)
}

// Callback handles the provider redirect: GET /callback?code=&state=
func (h *OAuthHandler) Callback(ctx *gin.Context) {
	if providerErr := ctx.Query("error"); providerErr != "" {
		msg := ctx.Query("error_description")
		if msg == "" {
			msg = providerErr
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	state := ctx.Query("state")
	if state == "" {
		respondError(ctx, apperror.Auth("Missing OAuth state"))
		return
	}
	if err := h.broker.VerifyState(state); err != nil {
		respondError(ctx, err)
		return
	}
	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Code or refresh token required"})
		return
	}
	h.exchange(ctx, code)
}

func (h *OAuthHandler) exchange(ctx *gin.Context, code string) {
	resp, err := h.broker.ExchangeCode(ctx.Request.Context(), code)
	if err != nil {
		respondTokenError(ctx, err)
		return
	}
	if resp.User != nil && resp.User.Username != "" {
		c := resp.Token.Credential(resp.User.Username, h.now(), h.refreshAfter)
		if err := h.accounts.Register(ctx.Request.Context(), c); err != nil {
			logger.GetLogger().WithField("username", c.Username).WithField("error", err).Error("Error while register account")
		}
	}
	ctx.JSON(http.StatusOK, resp)
}

// updateRefreshed replaces the stored credential that owned refreshToken, if any.
func (h *OAuthHandler) updateRefreshed(ctx *gin.Context, refreshToken string, resp *dto.TokenResponse) {
	for _, existing := range h.accounts.List().Credentials() {
		if existing.RefreshToken != refreshToken {
			continue
		}
		c := resp.Token.Credential(existing.Username, h.now(), h.refreshAfter)
		if c.RefreshToken == "" {
			c.RefreshToken = existing.RefreshToken
			c.RefreshTokenExpiresAt = existing.RefreshTokenExpiresAt
		}
		if err := h.accounts.Register(ctx.Request.Context(), c); err != nil {
			logger.GetLogger().WithField("username", c.Username).WithField("error", err).Error("Error while update refreshed account")
		}
		return
	}
}

// respondTokenError keeps 400 for bad input and reports every other failure as 500.
func respondTokenError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	if apperror.IsKind(err, apperror.KindValidation) {
		status = http.StatusBadRequest
	}
	respondErrorStatus(ctx, status, err)
}
