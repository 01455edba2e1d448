package pinterest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
)

// Config represents Pinterest REST client configuration
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the Pinterest v5 REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewPinterestClient(cfg Config) repository.IPinterestAPI {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: hc}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Do forwards req and returns the upstream status and body untouched.
// Only network failures are reported as errors.
func (c *Client) Do(ctx context.Context, req dto.ProxyRequest) (*dto.ProxyResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.url(req.Path)
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperror.Transport(err)
	}
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperror.Transport(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Transport(err)
	}
	return &dto.ProxyResponse{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

// ErrorMessage extracts message or error from a provider error body, else fallback.
func ErrorMessage(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return fallback
}

func (c *Client) GetUserAccount(ctx context.Context, accessToken string) (*model.PinterestUser, error) {
	resp, err := c.Do(ctx, dto.ProxyRequest{Method: http.MethodGet, Path: "/user_account", Authorization: "Bearer " + accessToken})
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, apperror.Upstream(resp.Status, ErrorMessage(resp.Body, "Failed to fetch user data"))
	}
	var user model.PinterestUser
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, apperror.Transport(err)
	}
	return &user, nil
}
