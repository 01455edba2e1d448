package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"pin-scheduler/domain/model"
)

// Hub fans pin status events out to SSE subscribers. A subscriber may narrow the
// stream to one account with ?account=; an empty filter receives everything.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan model.PinEvent]string
}

func NewPinHub() *Hub {
	return &Hub{subs: make(map[chan model.PinEvent]string)}
}

// Serve streams events until the client goes away.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Status(http.StatusOK)

	ch := make(chan model.PinEvent, 8)
	h.addSubscriber(ch, c.Query("account"))
	defer h.removeSubscriber(ch)

	// Initial comment to keep connection open
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + evt.Type + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) addSubscriber(ch chan model.PinEvent, account string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = account
}

func (h *Hub) removeSubscriber(ch chan model.PinEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishPinEvent never blocks; a slow subscriber simply misses events.
func (h *Hub) PublishPinEvent(ctx context.Context, evt model.PinEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, account := range h.subs {
		if account != "" && account != evt.Account {
			continue
		}
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	return nil
}
