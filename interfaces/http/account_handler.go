package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/usecase"
)

type IAccountHandler interface {
	List(ctx *gin.Context)
	Switch(ctx *gin.Context)
	Remove(ctx *gin.Context)
}

type AccountHandler struct {
	accounts usecase.IAccountRegistry
}

func NewAccountHandler(accounts usecase.IAccountRegistry) IAccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) List(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, accountsView(h.accounts.List()))
}

// Switch handles PUT /accounts/active {"username": "..."}
func (h *AccountHandler) Switch(ctx *gin.Context) {
	var req dto.SwitchAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	if err := h.accounts.Switch(ctx.Request.Context(), req.Username); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, accountsView(h.accounts.List()))
}

func (h *AccountHandler) Remove(ctx *gin.Context) {
	if err := h.accounts.Remove(ctx.Request.Context(), ctx.Param("username")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, accountsView(h.accounts.List()))
}

// accountsView never exposes tokens.
func accountsView(set model.AccountSet) dto.AccountsResponse {
	active := set.ActiveUsername()
	return dto.AccountsResponse{
		Active: active,
		Accounts: lo.Map(set.Credentials(), func(c model.Credential, _ int) dto.AccountView {
			v := dto.AccountView{Username: c.Username, Active: c.Username == active}
			if !c.RefreshAfter.IsZero() {
				v.RefreshAfter = c.RefreshAfter.Format(time.RFC3339)
			}
			if c.ExpiresAt != nil {
				v.ExpiresAt = c.ExpiresAt.Format(time.RFC3339)
			}
			return v
		}),
	}
}
