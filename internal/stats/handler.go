package stats

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/server/middleware"
	"hrms-backend/internal/shared/server/respond"
)

// SnapshotViewer is the read side of the store.
type SnapshotViewer interface {
	View(ctx context.Context) (*hr.Snapshot, error)
}

// Handler serves dashboard and department statistics.
type Handler struct {
	Store SnapshotViewer
	Now   func() time.Time
}

// NewHandler constructs a Handler; a nil clock means time.Now.
func NewHandler(store SnapshotViewer, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{Store: store, Now: now}
}

// RegisterRoutes attaches stats routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard/stats", h.dashboard)
	rg.GET("/departments/stats", h.departments)
	rg.GET("/departments/:name/stats", h.department)
	rg.GET("/reports/daily", h.daily)
}

func (h *Handler) view(c *gin.Context) (*hr.Snapshot, bool) {
	snap, err := h.Store.View(c.Request.Context())
	if err != nil {
		respond.Internal(c, err)
		return nil, false
	}
	return snap, true
}

func (h *Handler) dashboard(c *gin.Context) {
	snap, ok := h.view(c)
	if !ok {
		return
	}
	respond.OK(c, Dashboard(snap))
}

func (h *Handler) departments(c *gin.Context) {
	snap, ok := h.view(c)
	if !ok {
		return
	}
	respond.OK(c, gin.H{"items": Departments(snap)})
}

func (h *Handler) department(c *gin.Context) {
	name := c.Param("name")
	c.Set(middleware.EntityKindKey, "department")
	c.Set(middleware.EntityIDKey, name)

	snap, ok := h.view(c)
	if !ok {
		return
	}
	out, err := Department(snap, name)
	if err != nil {
		if errors.Is(err, hr.ErrNotFound) {
			respond.NotFound(c, "department not found")
			return
		}
		respond.Internal(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) daily(c *gin.Context) {
	snap, ok := h.view(c)
	if !ok {
		return
	}
	respond.OK(c, DailyReport(snap, h.Now()))
}
