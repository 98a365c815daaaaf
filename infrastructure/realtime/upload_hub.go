package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// Hub keeps per-user subscribers listening for upload events.
type Hub struct {
	mu     sync.RWMutex
	users  map[string]map[chan model.UploadEvent]struct{}
	closed bool
}

func NewUploadHub() *Hub {
	return &Hub{users: make(map[string]map[chan model.UploadEvent]struct{})}
}

var _ repository.IUploadEventSink = (*Hub)(nil)

// Serve streams the authenticated user's events (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := h.Subscribe(userID)
	defer h.Unsubscribe(userID, ch)

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
			data, err := json.Marshal(evt)
			if err != nil {
				logger.GetLogger().WithField("error", err).Error("Error while encoding upload event")
				continue
			}
			c.SSEvent("upload_status", string(data))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) Subscribe(userID string) chan model.UploadEvent {
	ch := make(chan model.UploadEvent, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.UploadEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(userID string, ch chan model.UploadEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// Publish delivers to every subscriber of the event's owner. Slow
// subscribers miss events instead of blocking the fan-out.
func (h *Hub) Publish(_ context.Context, event model.UploadEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Close ends every open stream so the HTTP server can drain.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for userID, subs := range h.users {
		for ch := range subs {
			close(ch)
		}
		delete(h.users, userID)
	}
}
