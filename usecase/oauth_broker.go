package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/utils"
)

var ErrOAuthNotConfigured = errors.New("pinterest oauth not configured")

type IOAuthBroker interface {
	AuthorizationURL() (string, error)
	VerifyState(state string) error
	ExchangeCode(ctx context.Context, code string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	APIBaseURL   string
	Scopes       []string
	SecretKey    string
	// HTTPClient is used for token calls when set.
	HTTPClient *http.Client
}

type authorizeParams struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	ResponseType string `url:"response_type"`
	Scope        string `url:"scope"`
	State        string `url:"state"`
}

type oauthBroker struct {
	cfg   OAuthConfig
	oauth *oauth2.Config
	api   repository.IPinterestAPI
	now   utils.Clock
}

func NewOAuthBroker(cfg OAuthConfig, api repository.IPinterestAPI, now utils.Clock) IOAuthBroker {
	if now == nil {
		now = utils.GetCurrentTime
	}
	return &oauthBroker{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  strings.TrimRight(cfg.APIBaseURL, "/") + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		api: api,
		now: now,
	}
}

func (b *oauthBroker) configured() bool {
	return b.cfg.ClientID != "" && b.cfg.ClientSecret != ""
}

func (b *oauthBroker) AuthorizationURL() (string, error) {
	if !b.configured() {
		return "", ErrOAuthNotConfigured
	}
	state, err := utils.GenerateState(b.cfg.SecretKey, b.now())
	if err != nil {
		return "", err
	}
	v, err := query.Values(authorizeParams{
		ClientID:     b.cfg.ClientID,
		RedirectURI:  b.cfg.RedirectURI,
		ResponseType: "code",
		Scope:        strings.Join(b.cfg.Scopes, ","),
		State:        state,
	})
	if err != nil {
		return "", err
	}
	return b.cfg.AuthorizeURL + "?" + v.Encode(), nil
}

func (b *oauthBroker) VerifyState(state string) error {
	if err := utils.VerifyState(state, b.cfg.SecretKey); err != nil {
		return apperror.Auth(err.Error()).Wrap(err)
	}
	return nil
}

func (b *oauthBroker) ExchangeCode(ctx context.Context, code string) (*dto.TokenResponse, error) {
	if !b.configured() {
		return nil, ErrOAuthNotConfigured
	}
	if code == "" {
		return nil, apperror.Validation("Code or refresh token required")
	}
	tok, err := b.oauth.Exchange(b.clientContext(ctx), code)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while exchange authorization code")
		return nil, exchangeError(err)
	}
	token := tokenFromOAuth(tok, b.now())

	user, err := b.api.GetUserAccount(ctx, token.AccessToken)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetch user account")
		return nil, err
	}
	return &dto.TokenResponse{Token: token, User: user}, nil
}

func (b *oauthBroker) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if !b.configured() {
		return nil, ErrOAuthNotConfigured
	}
	if refreshToken == "" {
		return nil, apperror.Validation("Code or refresh token required")
	}
	tok, err := b.oauth.TokenSource(b.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while refresh token")
		return nil, exchangeError(err)
	}
	return &dto.TokenResponse{Token: tokenFromOAuth(tok, b.now())}, nil
}

func (b *oauthBroker) clientContext(ctx context.Context) context.Context {
	if b.cfg.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, b.cfg.HTTPClient)
}

func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		msg := re.ErrorDescription
		if msg == "" {
			msg = re.ErrorCode
		}
		if msg == "" {
			msg = "Token exchange failed"
		}
		return apperror.Auth(msg).Wrap(err)
	}
	return apperror.Transport(err)
}

func tokenFromOAuth(tok *oauth2.Token, now time.Time) model.PinterestToken {
	t := model.PinterestToken{
		AccessToken:           tok.AccessToken,
		RefreshToken:          tok.RefreshToken,
		TokenType:             tok.TokenType,
		ExpiresIn:             extraInt(tok, "expires_in"),
		RefreshTokenExpiresIn: extraInt(tok, "refresh_token_expires_in"),
	}
	if t.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		t.ExpiresIn = int64(tok.Expiry.Sub(now).Seconds())
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	return t
}

func extraInt(tok *oauth2.Token, key string) int64 {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
