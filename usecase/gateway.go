package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
)

// IGateway forwards calls to the Pinterest API on behalf of a bearer token.
type IGateway interface {
	Forward(ctx context.Context, req dto.ProxyRequest) (*dto.ProxyResponse, error)
}

type gateway struct {
	api         repository.IPinterestAPI
	placeholder string
}

func NewGateway(api repository.IPinterestAPI, placeholderImageURL string) IGateway {
	return &gateway{api: api, placeholder: placeholderImageURL}
}

var (
	tokenExpiredBody       = []byte(`{"error":"Token expired"}`)
	errInvalidUpstreamJSON = errors.New("invalid JSON from Pinterest API")
)

func (g *gateway) Forward(ctx context.Context, req dto.ProxyRequest) (*dto.ProxyResponse, error) {
	if req.Authorization == "" {
		return nil, apperror.Auth("Authorization required")
	}
	if strings.Trim(req.Path, "/") == "" {
		return nil, apperror.NotFound("Not found")
	}
	if isPinCreatePath(req.Path) && len(req.Body) > 0 {
		body, err := g.substituteImage(req.Body)
		if err != nil {
			return nil, apperror.Transport(err)
		}
		req.Body = body
	}

	resp, err := g.api.Do(ctx, req)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("path", req.Path).Error("Error while forward pinterest request")
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized {
		return &dto.ProxyResponse{Status: http.StatusUnauthorized, Header: resp.Header, Body: tokenExpiredBody}, nil
	}
	if len(resp.Body) > 0 && !json.Valid(resp.Body) {
		return nil, apperror.Transport(errInvalidUpstreamJSON)
	}
	return resp, nil
}

// substituteImage swaps an embedded media_source.url for the placeholder and
// leaves every other field of the body as sent.
func (g *gateway) substituteImage(body []byte) ([]byte, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	raw, ok := payload["media_source"]
	if !ok {
		return body, nil
	}
	var media map[string]interface{}
	if err := json.Unmarshal(raw, &media); err != nil {
		return nil, err
	}
	url, _ := media["url"].(string)
	if !model.IsEmbeddedImage(url) {
		return body, nil
	}
	media["url"] = g.placeholder
	encoded, err := json.Marshal(media)
	if err != nil {
		return nil, err
	}
	payload["media_source"] = encoded
	return json.Marshal(payload)
}

func isPinCreatePath(path string) bool {
	return strings.Trim(path, "/") == "pins"
}

// NormalizeImageURL returns placeholder for data: and blob: URLs, url otherwise.
func NormalizeImageURL(url, placeholder string) string {
	if model.IsEmbeddedImage(url) {
		return placeholder
	}
	return url
}
