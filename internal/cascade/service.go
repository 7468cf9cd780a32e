package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrms-backend/internal/activity"
	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/metrics"
	"hrms-backend/internal/shared/telemetry"
	"hrms-backend/internal/store"
)

// Transactor is the unit-of-work side of the store.
type Transactor interface {
	View(ctx context.Context) (*hr.Snapshot, error)
	Update(ctx context.Context, fn func(*hr.Snapshot) error) (*hr.Snapshot, error)
}

// Publisher receives activity entries after their unit of work commits.
type Publisher interface {
	Publish(ctx context.Context, entries []hr.ActivityEntry) error
}

// Service applies status transitions and the related HR operations.
type Service struct {
	Store  Transactor
	Rules  *RuleSet
	Log    *activity.Logger
	Events Publisher
}

// NewService wires a Service. Nil rules mean the embedded defaults; events may be nil.
func NewService(st Transactor, rules *RuleSet, log *activity.Logger, events Publisher) *Service {
	if rules == nil {
		rules = NewRuleSet(nil)
	}
	if log == nil {
		log = activity.NewLogger(nil)
	}
	return &Service{Store: st, Rules: rules, Log: log, Events: events}
}

// Result describes one applied (or skipped) transition.
type Result struct {
	Kind     hr.Kind            `json:"kind"`
	ID       int64              `json:"id"`
	Previous string             `json:"previousStatus"`
	Status   string             `json:"status"`
	Changed  bool               `json:"changed"`
	Entity   any                `json:"entity"`
	Affected []string           `json:"affected"`
	Activity []hr.ActivityEntry `json:"activity"`
	Revision int64              `json:"revision"`
}

// ApplyStatusTransition sets the status of one entity and ripples the derived
// changes to related entities in a single unit of work. A transition to the
// current status changes nothing and records no activity.
func (s *Service) ApplyStatusTransition(ctx context.Context, kind hr.Kind, id int64, status string) (Result, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		metrics.IncTransitionFailed()
		return Result{}, fmt.Errorf("%w: status is required", hr.ErrInvalidInput)
	}
	if id <= 0 {
		metrics.IncTransitionFailed()
		return Result{}, fmt.Errorf("%w: id must be positive", hr.ErrInvalidInput)
	}

	start := time.Now()
	rules := s.Rules.Current()
	var res Result
	committed, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		c := newCascader(snap, rules, s.Log)
		r, err := c.apply(kind, id, status)
		res = r
		if err != nil {
			return err
		}
		if !r.Changed {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		metrics.IncTransitionFailed()
		telemetry.Warn("cascade.transition_failed", map[string]any{
			"entity_kind": kind,
			"entity_id":   id,
			"status":      status,
			"error":       err,
		})
		return Result{}, err
	}
	res.Revision = committed.Revision

	if !res.Changed {
		metrics.IncTransitionNoop()
		return res, nil
	}
	metrics.IncTransition(string(kind))
	metrics.ObserveTransitionDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	telemetry.Info("cascade.transition", map[string]any{
		"entity_kind":       kind,
		"entity_id":         id,
		"status_transition": res.Previous + "->" + res.Status,
		"affected":          res.Affected,
		"revision":          res.Revision,
	})
	s.publish(ctx, res.Activity)
	return res, nil
}

// Get returns a copy of one entity from the committed snapshot.
func (s *Service) Get(ctx context.Context, kind hr.Kind, id int64) (any, error) {
	snap, err := s.Store.View(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Entity(kind, id)
}

func (s *Service) publish(ctx context.Context, entries []hr.ActivityEntry) {
	if s.Events == nil || len(entries) == 0 {
		return
	}
	if err := s.Events.Publish(ctx, entries); err != nil {
		metrics.IncActivityPublishFailed()
		telemetry.Warn("activity.publish_failed", map[string]any{"count": len(entries), "error": err})
	}
}

// cascader mutates one working snapshot.
type cascader struct {
	snap     *hr.Snapshot
	idx      *hr.Index
	rules    *Rules
	log      *activity.Logger
	now      time.Time
	affected []string
	effects  []string
	entries  []hr.ActivityEntry
}

func newCascader(snap *hr.Snapshot, rules *Rules, log *activity.Logger) *cascader {
	return &cascader{
		snap:  snap,
		idx:   hr.BuildIndex(snap),
		rules: rules,
		log:   log,
		now:   log.Now(),
	}
}

func (c *cascader) apply(kind hr.Kind, id int64, status string) (Result, error) {
	res := Result{Kind: kind, ID: id, Status: status}
	var err error
	switch kind {
	case hr.KindApplication:
		err = c.application(&res, id, status)
	case hr.KindPosition:
		err = c.position(&res, id, status)
	case hr.KindRecruiter:
		err = c.recruiter(&res, id, status)
	case hr.KindCandidate:
		err = c.candidate(&res, id, status)
	default:
		err = fmt.Errorf("%w: unknown entity kind %q", hr.ErrInvalidInput, kind)
	}
	if err != nil {
		return res, err
	}
	res.Affected = append([]string{}, c.affected...)
	res.Activity = append([]hr.ActivityEntry{}, c.entries...)
	return res, nil
}

func (c *cascader) touch(kind hr.Kind, id int64) {
	c.affected = append(c.affected, fmt.Sprintf("%s:%d", kind, id))
}

func (c *cascader) record(typ, title, subject string) {
	desc := subject
	if len(c.effects) > 0 {
		desc += "; " + strings.Join(c.effects, "; ")
	}
	c.entries = append(c.entries, c.log.Record(c.snap, typ, title, desc))
	c.effects = nil
}

func (c *cascader) application(res *Result, id int64, status string) error {
	app, err := c.idx.Application(c.snap, id)
	if err != nil {
		return err
	}
	prev := app.Status
	res.Previous = prev
	if prev == status {
		res.Entity = *app
		return nil
	}

	completed, err := c.rules.Completed(status, prev)
	if err != nil {
		return fmt.Errorf("evaluate completed_when: %w", err)
	}
	fills, err := c.rules.FillsPosition(status, prev)
	if err != nil {
		return fmt.Errorf("evaluate fill_position_when: %w", err)
	}
	rewards, err := c.rules.RewardsRecruiter(status, prev)
	if err != nil {
		return fmt.Errorf("evaluate reward_recruiter_when: %w", err)
	}

	now := c.now
	app.Status = status
	app.UpdatedAt = &now
	if completed && app.CompletedAt == nil {
		app.CompletedAt = &now
	}
	c.touch(hr.KindApplication, app.ID)

	if candStatus, ok := c.rules.CandidateStatusFor(status); ok && app.CandidateID != 0 {
		if cand, err := c.idx.Candidate(c.snap, app.CandidateID); err == nil && cand.Status != candStatus {
			cand.Status = candStatus
			cand.UpdatedAt = &now
			c.touch(hr.KindCandidate, cand.ID)
			c.effects = append(c.effects, fmt.Sprintf("candidate %s set to %s", cand.Name, candStatus))
		}
	}

	if fills {
		if pos, err := c.idx.Position(c.snap, app.PositionID); err == nil && pos.Status != hr.PositionFilled {
			pos.Status = hr.PositionFilled
			pos.UpdatedAt = &now
			c.touch(hr.KindPosition, pos.ID)
			c.effects = append(c.effects, fmt.Sprintf("%s marked as %s", pos.Title, hr.PositionFilled))
		}
	}

	if rewards && app.RecruiterID != 0 {
		if rec, err := c.idx.Recruiter(c.snap, app.RecruiterID); err == nil {
			rec.Performance = clampPerformance(rec.Performance + c.rules.RecruiterReward)
			if rec.TaskCount > 0 {
				rec.TaskCount--
			}
			c.touch(hr.KindRecruiter, rec.ID)
			c.effects = append(c.effects, fmt.Sprintf("recruiter %s performance %d", rec.Name, rec.Performance))
			c.recomputeDepartment(rec.Department)
		}
	}

	res.Entity = *app
	res.Changed = true
	c.record(activity.TypeApplication, "Application "+strings.ToLower(status), app.CandidateName+" - "+app.Title)
	return nil
}

func (c *cascader) position(res *Result, id int64, status string) error {
	pos, err := c.idx.Position(c.snap, id)
	if err != nil {
		return err
	}
	res.Previous = pos.Status
	if pos.Status == status {
		res.Entity = *pos
		return nil
	}
	now := c.now
	pos.Status = status
	pos.UpdatedAt = &now
	c.touch(hr.KindPosition, pos.ID)

	res.Entity = *pos
	res.Changed = true
	c.record(activity.TypePosition, "Position status updated", fmt.Sprintf("%s marked as %s", pos.Title, status))
	return nil
}

func (c *cascader) recruiter(res *Result, id int64, status string) error {
	rec, err := c.idx.Recruiter(c.snap, id)
	if err != nil {
		return err
	}
	res.Previous = rec.Status
	if rec.Status == status {
		res.Entity = *rec
		return nil
	}
	rec.Status = status
	c.touch(hr.KindRecruiter, rec.ID)
	c.recomputeDepartment(rec.Department)

	res.Entity = *rec
	res.Changed = true
	c.record(activity.TypeRecruiter, "Recruiter status updated", fmt.Sprintf("%s is now %s", rec.Name, status))
	return nil
}

func (c *cascader) candidate(res *Result, id int64, status string) error {
	cand, err := c.idx.Candidate(c.snap, id)
	if err != nil {
		return err
	}
	prev := cand.Status
	res.Previous = prev
	if prev == status {
		res.Entity = *cand
		return nil
	}
	completes, err := c.rules.CompletesApplications(status, prev)
	if err != nil {
		return fmt.Errorf("evaluate complete_applications_when: %w", err)
	}

	now := c.now
	cand.Status = status
	cand.UpdatedAt = &now
	c.touch(hr.KindCandidate, cand.ID)

	if completes {
		target := c.rules.ApplicationStatus
		for _, app := range c.idx.ApplicationsOf(c.snap, cand.ID) {
			if app.Status == target {
				continue
			}
			app.Status = target
			app.UpdatedAt = &now
			if app.CompletedAt == nil {
				app.CompletedAt = &now
			}
			c.touch(hr.KindApplication, app.ID)
			c.effects = append(c.effects, fmt.Sprintf("application %d set to %s", app.ID, target))
		}
	}

	res.Entity = *cand
	res.Changed = true
	c.record(activity.TypeCandidate, "Candidate status updated", fmt.Sprintf("%s marked as %s", cand.Name, status))
	return nil
}

// recomputeDepartment skips departments that do not exist.
func (c *cascader) recomputeDepartment(name string) {
	d, err := c.idx.Department(c.snap, name)
	if err != nil {
		return
	}
	before := *d
	hr.RecomputeDepartment(c.snap, d)
	if *d != before {
		c.affected = append(c.affected, "department:"+d.Name)
	}
}

func clampPerformance(v int) int {
	return min(100, max(0, v))
}

// IsClientError reports whether err was caused by the request rather than the server.
func IsClientError(err error) bool {
	return errors.Is(err, hr.ErrInvalidInput) || errors.Is(err, hr.ErrNotFound) || errors.Is(err, hr.ErrConflict)
}
