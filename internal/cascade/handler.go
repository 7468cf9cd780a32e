package cascade

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/server/middleware"
	"hrms-backend/internal/shared/server/respond"
)

// Handler exposes the cascade service over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches transition and HR operation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/transitions", h.transition)
	rg.PUT("/applications/:id/status", h.statusFor(hr.KindApplication))
	rg.PUT("/positions/:id/status", h.statusFor(hr.KindPosition))
	rg.PUT("/recruiters/:id/status", h.statusFor(hr.KindRecruiter))
	rg.PUT("/candidates/:id/status", h.statusFor(hr.KindCandidate))
	rg.GET("/entities/:kind/:id", h.getEntity)

	rg.POST("/applications", h.submitApplication)
	rg.POST("/applications/:id/hire", h.hire)
	rg.PUT("/applications/:id/recruiter", h.assignRecruiter)
	rg.PATCH("/onboarding/:id/tasks/:taskId", h.updateOnboardingTask)
	rg.PUT("/departments/:name/head", h.updateDepartmentHead)
	rg.POST("/recruiters/:id/performance", h.adjustPerformance)
}

func (h *Handler) transition(c *gin.Context) {
	var req transitionRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		respond.BadRequest(c, err.Error(), nil)
		return
	}
	kind, err := hr.ParseKind(req.Kind)
	if err != nil {
		respond.BadRequest(c, "unknown entity kind", gin.H{"kind": req.Kind})
		return
	}
	h.applyTransition(c, kind, req.ID, req.Status)
}

func (h *Handler) statusFor(kind hr.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req statusRequest
		if err := decodeJSON(c.Request.Body, &req); err != nil {
			respond.BadRequest(c, err.Error(), nil)
			return
		}
		h.applyTransition(c, kind, id, req.Status)
	}
}

func (h *Handler) applyTransition(c *gin.Context, kind hr.Kind, id int64, status string) {
	c.Set(middleware.EntityKindKey, string(kind))
	c.Set(middleware.EntityIDKey, strconv.FormatInt(id, 10))

	res, err := h.Svc.ApplyStatusTransition(c.Request.Context(), kind, id, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, res.Previous+"->"+res.Status)
	respond.OK(c, res)
}

func (h *Handler) getEntity(c *gin.Context) {
	kind, err := hr.ParseKind(c.Param("kind"))
	if err != nil {
		respond.BadRequest(c, "unknown entity kind", gin.H{"kind": c.Param("kind")})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.EntityKindKey, string(kind))
	c.Set(middleware.EntityIDKey, strconv.FormatInt(id, 10))

	entity, err := h.Svc.Get(c.Request.Context(), kind, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, entity)
}

func (h *Handler) submitApplication(c *gin.Context) {
	var req Intake
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		respond.BadRequest(c, err.Error(), nil)
		return
	}
	out, err := h.Svc.SubmitApplication(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.EntityKindKey, string(hr.KindApplication))
	c.Set(middleware.EntityIDKey, strconv.FormatInt(out.Application.ID, 10))
	respond.JSON(c, http.StatusCreated, out)
}

func (h *Handler) hire(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	c.Set(middleware.EntityKindKey, string(hr.KindApplication))
	c.Set(middleware.EntityIDKey, strconv.FormatInt(id, 10))

	out, err := h.Svc.ProcessNewHire(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if out.Created {
		c.Set(middleware.StatusTransitionKey, out.Transition.Previous+"->"+out.Transition.Status)
		respond.JSON(c, http.StatusCreated, out)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) assignRecruiter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignRecruiterRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		respond.BadRequest(c, err.Error(), nil)
		return
	}
	c.Set(middleware.EntityKindKey, string(hr.KindApplication))
	c.Set(middleware.EntityIDKey, strconv.FormatInt(id, 10))

	app, err := h.Svc.AssignRecruiter(c.Request.Context(), id, req.RecruiterID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, app)
}

func (h *Handler) updateOnboardingTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil || taskID <= 0 {
		respond.BadRequest(c, "taskId must be a positive integer", nil)
		return
	}
	var req onboardingTaskRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		respond.BadRequest(c, err.Error(), nil)
		return
	}
	if req.Completed == nil {
		respond.BadRequest(c, "completed is required", nil)
		return
	}
	c.Set(middleware.EntityKindKey, "onboarding")
	c.Set(middleware.EntityIDKey, strconv.FormatInt(id, 10))

	rec, err := h.Svc.UpdateOnboardingTask(c.Request.Context(), id, taskID, *req.Completed)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) updateDepartmentHead(c *gin.Context) {
	name := c.Param("name")
	var req departmentHeadRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		respond.BadRequest(c, err.Error(), nil)
		return
	}
	c.Set(middleware.EntityKindKey, "department")
	c.Set(middleware.EntityIDKey, name)

	d, err := h.Svc.UpdateDepartmentHead(c.Request.Context(), name, req.Head)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, d)
}

func (h *Handler) adjustPerformance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req performanceRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		respond.BadRequest(c, err.Error(), nil)
		return
	}
	c.Set(middleware.EntityKindKey, string(hr.KindRecruiter))
	c.Set(middleware.EntityIDKey, strconv.FormatInt(id, 10))

	rec, err := h.Svc.AdjustRecruiterPerformance(c.Request.Context(), id, req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, hr.ErrInvalidInput):
		respond.BadRequest(c, err.Error(), nil)
	case errors.Is(err, hr.ErrNotFound):
		respond.NotFound(c, err.Error())
	case errors.Is(err, hr.ErrConflict):
		respond.Error(c, http.StatusConflict, respond.CodeConflict, err.Error(), nil)
	default:
		respond.Internal(c, err)
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respond.BadRequest(c, name+" must be a positive integer", gin.H{name: c.Param(name)})
		return 0, false
	}
	return id, true
}

var errInvalidJSON = errors.New("invalid json body")

// decodeJSON requires exactly one JSON value in body.
func decodeJSON(body io.Reader, out any) error {
	if body == nil {
		return errInvalidJSON
	}
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(out); err != nil {
		return errInvalidJSON
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidJSON
	}
	return nil
}
