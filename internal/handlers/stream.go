package handlers

import (
	"io"
	"net/http"
	"time"

	"crushboard/internal/middleware"
	"crushboard/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const keepAliveInterval = 25 * time.Second

type StreamHandler struct {
	*Deps
}

func NewStreamHandler(d *Deps) *StreamHandler {
	return &StreamHandler{Deps: d}
}

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// Feed streams the requested list after every snapshot as "feed" events. The subscription is
// released when the client goes away.
func (h *StreamHandler) Feed(c *gin.Context) {
	ctx := c.Request.Context()
	state := queryState(c)
	userID := middleware.UserID(c)
	signals := h.Board.Watch(ctx)
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	send := func(w io.Writer) bool {
		list, rev, err := h.Board.Feed(state.Query())
		if err != nil {
			c.SSEvent("error", gin.H{"error": err.Error()})
			return true
		}
		c.SSEvent("feed", gin.H{
			"title":       state.Title(),
			"revision":    rev,
			"confessions": h.views(list, userID),
		})
		return true
	}

	sseHeaders(c)
	c.Status(http.StatusOK)
	first := true
	c.Stream(func(w io.Writer) bool {
		if first {
			first = false
			return send(w)
		}
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-signals:
			if !ok {
				return false
			}
			return send(w)
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
	log.Debug().Str("user", userID).Msg("feed stream closed")
}

func (h *StreamHandler) Replies(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	snapshots := h.Store.WatchReplies(ctx, id)
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	sseHeaders(c)
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-snapshots:
			if !ok {
				return false
			}
			if snap.Err != nil {
				c.SSEvent("error", gin.H{"error": snap.Err.Error()})
				return true
			}
			items := snap.Items
			if items == nil {
				items = []models.Reply{}
			}
			c.SSEvent("replies", gin.H{"confessionId": id, "replies": items})
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
