package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// serviceClient talks to the pin scheduler HTTP surface.
type serviceClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newServiceClient(baseURL, token string) *serviceClient {
	return &serviceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *serviceClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorBody
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%s %s: %d", method, path, resp.StatusCode)
	}
	switch v := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*v = raw
		return nil
	default:
		return json.Unmarshal(raw, out)
	}
}

type bulkOptions struct {
	File        string
	CSV         io.Reader
	PostsPerDay int
	BoardIDs    []string
	Account     string
	Preview     bool
}

func (c *serviceClient) bulk(ctx context.Context, opts bulkOptions, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", opts.File)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, opts.CSV); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("postsPerDay", strconv.Itoa(opts.PostsPerDay))
	for _, id := range opts.BoardIDs {
		q.Add("boardIds", id)
	}
	if opts.Account != "" {
		q.Set("account", opts.Account)
	}
	if opts.Preview {
		q.Set("preview", "true")
	}
	return c.do(ctx, http.MethodPost, "/pin-scheduler/bulk?"+q.Encode(), &buf, mw.FormDataContentType(), out)
}
