package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pin-scheduler/domain/model"
)

func TestHub_FiltersByAccount(t *testing.T) {
	h := NewPinHub()
	all := make(chan model.PinEvent, 1)
	amy := make(chan model.PinEvent, 1)
	h.addSubscriber(all, "")
	h.addSubscriber(amy, "amy")

	require.NoError(t, h.PublishPinEvent(context.Background(), model.PinEvent{PinID: "p1", Account: "zoe"}))
	assert.Len(t, all, 1)
	assert.Len(t, amy, 0)

	// full buffer: dropped, not blocked
	require.NoError(t, h.PublishPinEvent(context.Background(), model.PinEvent{PinID: "p2", Account: "zoe"}))
	assert.Len(t, all, 1)

	h.removeSubscriber(all)
	h.removeSubscriber(amy)
	assert.Equal(t, 0, h.Subscribers())
}

func TestHub_ServeStreamsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPinHub()
	router := gin.New()
	router.GET("/events", h.Serve)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":ok\n", line)

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, h.PublishPinEvent(ctx, model.PinEvent{Type: model.PinEventType, PinID: "p1", Status: model.PinStatusPublished}))

	var got []string
	for len(got) < 2 {
		l, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(l) != "" {
			got = append(got, strings.TrimSpace(l))
		}
	}
	assert.Equal(t, "event: pin_status", got[0])
	assert.Contains(t, got[1], `"pin_id":"p1"`)
}
