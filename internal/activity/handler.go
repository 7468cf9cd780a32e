package activity

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/server/respond"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// SnapshotViewer is the read side of the store.
type SnapshotViewer interface {
	View(ctx context.Context) (*hr.Snapshot, error)
}

// Handler serves the activity feed.
type Handler struct {
	Store SnapshotViewer
}

// List handles GET /activity?type=&since=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	f := Filter{Type: strings.TrimSpace(c.Query("type")), Limit: defaultListLimit}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			respond.BadRequest(c, "limit must be between 1 and 500", nil)
			return
		}
		f.Limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.BadRequest(c, "offset must be a non-negative integer", nil)
			return
		}
		f.Offset = n
	}
	if raw := c.Query("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.BadRequest(c, "since must be an RFC3339 timestamp", nil)
			return
		}
		f.Since = ts
	}

	snap, err := h.Store.View(c.Request.Context())
	if err != nil {
		respond.Internal(c, err)
		return
	}
	items := List(snap, f)
	respond.OK(c, gin.H{
		"items":  items,
		"limit":  f.Limit,
		"offset": f.Offset,
		"total":  len(snap.Activity),
	})
}
