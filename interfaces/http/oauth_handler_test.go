package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/persistence"
	handler "pin-scheduler/interfaces/http"
	"pin-scheduler/usecase"
)

var oauthNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func oauthRouter(b *MockOAuthBroker, accounts usecase.IAccountRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewOAuthHandler(b, accounts, 27*24*time.Hour, func() time.Time { return oauthNow })
	r := gin.New()
	r.GET("/oauth/url", h.AuthURL)
	r.GET("/token", h.Token)
	r.GET("/callback", h.Callback)
	return r
}

func TestTokenRequiresParam(t *testing.T) {
	b := new(MockOAuthBroker)
	w := serve(oauthRouter(b, usecase.NewAccountRegistry(persistence.NewCredentialRepositoryMemory())), httptest.NewRequest(http.MethodGet, "/token", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Code or refresh token required"}`, w.Body.String())
}

func TestTokenExchangeRegistersAccount(t *testing.T) {
	b := new(MockOAuthBroker)
	accounts := usecase.NewAccountRegistry(persistence.NewCredentialRepositoryMemory())
	b.On("ExchangeCode", mock.Anything, "c1").Return(&dto.TokenResponse{
		Token: model.PinterestToken{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600},
		User:  &model.PinterestUser{Username: "amy"},
	}, nil)

	w := serve(oauthRouter(b, accounts), httptest.NewRequest(http.MethodGet, "/token?code=c1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"at"`)
	active, ok := accounts.Active()
	require.True(t, ok)
	assert.Equal(t, "amy", active.Username)
	assert.Equal(t, oauthNow.Add(27*24*time.Hour), active.RefreshAfter)
	assert.Equal(t, oauthNow.Add(time.Hour), *active.ExpiresAt)
}

func TestTokenRefreshKeepsRefreshToken(t *testing.T) {
	b := new(MockOAuthBroker)
	accounts := usecase.NewAccountRegistry(persistence.NewCredentialRepositoryMemory())
	require.NoError(t, accounts.Register(context.Background(), model.Credential{Username: "amy", AccessToken: "old", RefreshToken: "rt"}))
	b.On("Refresh", mock.Anything, "rt").Return(&dto.TokenResponse{Token: model.PinterestToken{AccessToken: "new"}}, nil)

	w := serve(oauthRouter(b, accounts), httptest.NewRequest(http.MethodGet, "/token?refresh_token=rt", nil))

	require.Equal(t, http.StatusOK, w.Code)
	got, ok := accounts.Get("amy")
	require.True(t, ok)
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
}

func TestTokenFailureStatus(t *testing.T) {
	b := new(MockOAuthBroker)
	accounts := usecase.NewAccountRegistry(persistence.NewCredentialRepositoryMemory())
	b.On("ExchangeCode", mock.Anything, "expired").Return(nil, apperror.Auth("Invalid authorization code"))
	b.On("Refresh", mock.Anything, "down").Return(nil, apperror.Transport(errors.New("dial tcp: refused")))
	r := oauthRouter(b, accounts)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/token?code=expired", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Invalid authorization code"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/token?refresh_token=down", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, accounts.List().Credentials())
}

func TestCallback(t *testing.T) {
	b := new(MockOAuthBroker)
	accounts := usecase.NewAccountRegistry(persistence.NewCredentialRepositoryMemory())
	b.On("VerifyState", "forged").Return(apperror.Auth("Invalid OAuth state"))
	b.On("VerifyState", "good").Return(nil)
	b.On("ExchangeCode", mock.Anything, "c2").Return(&dto.TokenResponse{Token: model.PinterestToken{AccessToken: "at"}}, nil)
	r := oauthRouter(b, accounts)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=User+denied", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"User denied"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/callback?code=c2&state=forged", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/callback?code=c2", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Missing OAuth state"}`, w.Body.String())
	b.AssertNotCalled(t, "ExchangeCode", mock.Anything, "c2")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/callback?state=good", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/callback?code=c2&state=good", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	// no user in the response, so nothing is registered
	assert.Empty(t, accounts.List().Credentials())
}

func TestAuthURL(t *testing.T) {
	b := new(MockOAuthBroker)
	b.On("AuthorizationURL").Return("https://www.pinterest.com/oauth/?client_id=id", nil).Once()
	b.On("AuthorizationURL").Return("", usecase.ErrOAuthNotConfigured).Once()
	r := oauthRouter(b, usecase.NewAccountRegistry(persistence.NewCredentialRepositoryMemory()))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/oauth/url", nil))
	assert.JSONEq(t, `{"url":"https://www.pinterest.com/oauth/?client_id=id"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/oauth/url", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
