package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/cache"
	"pin-scheduler/infrastructure/clients/pinterest"
	"pin-scheduler/infrastructure/persistence"
	"pin-scheduler/infrastructure/realtime"
	httpHandler "pin-scheduler/interfaces/http"
	"pin-scheduler/server"
	"pin-scheduler/usecase"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakePinterest struct {
	mu      sync.Mutex
	created []map[string]interface{}
}

func (f *fakePinterest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer good-token" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":2,"message":"Authentication failed."}`))
		return
	}
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v5/pins":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/v5/boards":
		_, _ = w.Write([]byte(`{"items":[{"id":"b1","name":"Recipes"}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

type testApp struct {
	router   *gin.Engine
	clock    *testClock
	provider *fakePinterest
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	provider := &fakePinterest{}
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	clock := &testClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	store := persistence.NewPinRepositoryMemory(clock.Now)
	accounts := usecase.NewAccountRegistry(persistence.NewCredentialRepositoryMemory())
	require.NoError(t, accounts.Register(context.Background(), model.Credential{Username: "amy", AccessToken: "good-token"}))

	api := pinterest.NewPinterestClient(pinterest.Config{BaseURL: srv.URL + "/v5", Timeout: 5 * time.Second})
	gateway := usecase.NewGateway(api, "https://picsum.photos/800/600")
	worker := usecase.NewPublishWorker(gateway, "https://picsum.photos/800/600")
	hub := realtime.NewPinHub()
	publisher := usecase.NewScheduledPublisher(store, worker, accounts, usecase.NewEventFanout(usecase.NewNoopEventPublisher(), hub), clock.Now, 4)
	scheduler := usecase.NewPinScheduler(store, publisher, usecase.SchedulerConfig{MinLead: 5 * time.Minute, MaxPostsPerDay: 15, Location: time.UTC}, clock.Now, nil)
	broker := usecase.NewOAuthBroker(usecase.OAuthConfig{APIBaseURL: srv.URL + "/v5"}, api, clock.Now)

	router := server.InitiateRouter(
		httpHandler.NewHealthHandler(),
		httpHandler.NewOAuthHandler(broker, accounts, 27*24*time.Hour, clock.Now),
		httpHandler.NewPinterestProxyHandler(gateway),
		httpHandler.NewPinHandler(worker),
		httpHandler.NewBoardHandler(gateway, cache.NewBoardCache(nil, time.Minute)),
		httpHandler.NewPinSchedulerHandler(scheduler),
		httpHandler.NewPublisherHandler(publisher),
		httpHandler.NewAccountHandler(accounts),
		hub,
	)
	return &testApp{router: router, clock: clock, provider: provider}
}

func (a *testApp) do(method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestScheduleThenPublishOnTimer(t *testing.T) {
	app := newTestApp(t)
	at := app.clock.Now().Add(10 * time.Minute)

	w := app.do(http.MethodPost, "/pin-scheduler", dto.SchedulePinRequest{
		Title:         "Lemon tart",
		Description:   "Weekend bake",
		ImageURL:      "data:image/png;base64,AAAA",
		BoardID:       "b1",
		ScheduledTime: at.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created dto.PinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Pin scheduled successfully", created.Message)

	w = app.do(http.MethodGet, "/pin-scheduler", nil)
	var list dto.PinsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Pins, 1)
	assert.Equal(t, model.PinStatusScheduled, list.Pins[0].Status)

	w = app.do(http.MethodPost, "/scheduled-publisher", nil)
	assert.JSONEq(t, `{"message":"No pins to publish at this time","published":0,"failed":0}`, w.Body.String())

	app.clock.Advance(10 * time.Minute)
	w = app.do(http.MethodPost, "/scheduled-publisher", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary dto.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "Published 1 pins", summary.Message)

	w = app.do(http.MethodGet, "/pin-scheduler/"+created.Pin.ID, nil)
	var got dto.PinResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, model.PinStatusPublished, got.Pin.Status)
	require.NotNil(t, got.Pin.PinterestID)
	assert.Equal(t, "abc", *got.Pin.PinterestID)

	require.Len(t, app.provider.created, 1)
	media := app.provider.created[0]["media_source"].(map[string]interface{})
	assert.Equal(t, "https://picsum.photos/800/600", media["url"])
}

func TestScheduleRejectsTooSoon(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/pin-scheduler", dto.SchedulePinRequest{
		Title:         "t",
		Description:   "d",
		ImageURL:      "https://cdn/x.jpg",
		BoardID:       "b1",
		ScheduledTime: app.clock.Now().Add(2 * time.Minute).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Scheduled time must be at least 5 minutes in the future"}`, w.Body.String())
}

func TestProxy(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/pinterest-api?path=/boards", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authorization required"}`, w.Body.String())

	w = app.do(http.MethodGet, "/pinterest-api?path=/boards", nil, "Authorization", "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Recipes")

	w = app.do(http.MethodGet, "/pinterest/boards", nil, "Authorization", "Bearer stale")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Token expired"}`, w.Body.String())

	w = app.do(http.MethodGet, "/pinterest-api", nil, "Authorization", "Bearer good-token")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePinEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/pins", map[string]interface{}{"pin": map[string]interface{}{"title": "x"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"No authorization token provided"}`, w.Body.String())

	w = app.do(http.MethodPost, "/pins", map[string]interface{}{}, "Authorization", "Bearer good-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Pin data is required"}`, w.Body.String())

	w = app.do(http.MethodPost, "/pins", map[string]interface{}{"pin": map[string]interface{}{
		"title":        "x",
		"description":  "y",
		"board_id":     "b1",
		"media_source": map[string]string{"source_type": "image_url", "url": "blob:http://localhost/1"},
	}}, "Authorization", "Bearer good-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"abc"}`, w.Body.String())

	w = app.do(http.MethodGet, "/pins", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
}

func TestTokenAndOAuthErrors(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Code or refresh token required"}`, w.Body.String())

	w = app.do(http.MethodGet, "/oauth/url", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"pinterest oauth not configured"}`, w.Body.String())
}

func TestAccountsAndBulk(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/accounts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "good-token")
	var accounts dto.AccountsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accounts))
	assert.Equal(t, "amy", accounts.Active)

	w = app.do(http.MethodPut, "/accounts/active", map[string]string{"username": "zoe"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	csv := "title,description,imageUrl\nA,a,https://cdn/a.jpg\nB,b\nC,c,https://cdn/c.jpg\n"
	req := httptest.NewRequest(http.MethodPost, "/pin-scheduler/bulk?postsPerDay=2&boardIds=b1,b2", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bulk dto.BulkScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bulk))
	// day one starts at 09:xx and 15:xx; at 10:00 the first slot is already past
	assert.Equal(t, 1, bulk.Scheduled)
	require.Len(t, bulk.Skipped, 1)
	assert.Equal(t, 3, bulk.Skipped[0].Row)
	require.Len(t, bulk.Errors, 1)
	assert.Equal(t, 2, bulk.Errors[0].Row)
	assert.Equal(t, 15, bulk.Pins[0].ScheduledTime.Hour())

	w = app.do(http.MethodGet, "/pin-scheduler/bulk/template", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title,description,imageUrl")
}

func TestPreflightAndHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodOptions, "/pin-scheduler", nil, "Origin", "http://localhost:5173", "Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = app.do(http.MethodOptions, "/token", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(http.MethodGet, "/healthz", nil)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
