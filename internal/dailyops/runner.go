package dailyops

import (
	"context"
	"fmt"
	"time"

	"hrms-backend/internal/activity"
	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/metrics"
	"hrms-backend/internal/shared/telemetry"
	"hrms-backend/internal/stats"
	"hrms-backend/internal/store"
)

const defaultStaleAfter = 30 * 24 * time.Hour

// Transactor is the unit-of-work side of the store.
type Transactor interface {
	Update(ctx context.Context, fn func(*hr.Snapshot) error) (*hr.Snapshot, error)
}

// Publisher receives activity entries after their unit of work commits.
type Publisher interface {
	Publish(ctx context.Context, entries []hr.ActivityEntry) error
}

// Runner performs the daily housekeeping pass.
type Runner struct {
	Store      Transactor
	Log        *activity.Logger
	Events     Publisher
	StaleAfter time.Duration
}

// Outcome is what one Run changed and reported.
type Outcome struct {
	StaleAlerts          []stats.StaleApplication `json:"staleAlerts"`
	DepartmentsRefreshed []string                 `json:"departmentsRefreshed"`
	Report               stats.DailyReportData    `json:"report"`
}

// NewRunner wires a Runner; zero staleAfter means 30 days.
func NewRunner(st Transactor, log *activity.Logger, events Publisher, staleAfter time.Duration) *Runner {
	if log == nil {
		log = activity.NewLogger(nil)
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &Runner{Store: st, Log: log, Events: events, StaleAfter: staleAfter}
}

// Run alerts on stale pending applications and refreshes department counters
// in one unit of work, then builds the daily report from the committed state.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	var out Outcome
	var entries []hr.ActivityEntry
	now := r.Log.Now()

	committed, err := r.Store.Update(ctx, func(snap *hr.Snapshot) error {
		out.StaleAlerts = stats.StaleApplications(snap, now, r.StaleAfter)
		for _, a := range out.StaleAlerts {
			entries = append(entries, r.Log.Record(snap, activity.TypeApplication, "Stale application alert",
				fmt.Sprintf("%s - %s pending for %d days", a.CandidateName, a.Title, a.AgeDays)))
		}
		for i := range snap.Departments {
			before := snap.Departments[i]
			hr.RecomputeDepartment(snap, &snap.Departments[i])
			if snap.Departments[i] != before {
				out.DepartmentsRefreshed = append(out.DepartmentsRefreshed, before.Name)
			}
		}
		if len(entries) == 0 && len(out.DepartmentsRefreshed) == 0 {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		telemetry.Error("dailyops.failed", map[string]any{"error": err})
		return Outcome{}, err
	}

	out.Report = stats.DailyReport(committed, now)
	metrics.IncDailyOpsRun()
	telemetry.Info("dailyops.report", map[string]any{
		"date":                   out.Report.Date,
		"stale_alerts":           len(out.StaleAlerts),
		"departments_refreshed":  len(out.DepartmentsRefreshed),
		"pending_applications":   out.Report.Summary.PendingApplications,
		"new_applications_today": out.Report.NewApplicationsToday,
		"activity_today":         out.Report.ActivityToday,
		"revision":               committed.Revision,
	})

	if r.Events != nil && len(entries) > 0 {
		if err := r.Events.Publish(ctx, entries); err != nil {
			metrics.IncActivityPublishFailed()
			telemetry.Warn("activity.publish_failed", map[string]any{"count": len(entries), "error": err})
		}
	}
	return out, nil
}
