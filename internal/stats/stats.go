package stats

import (
	"fmt"
	"sort"
	"time"

	"hrms-backend/internal/hr"
)

// activeCandidateStatuses are the statuses of candidates still in the pipeline.
var activeCandidateStatuses = map[string]bool{
	hr.CandidateApplied:            true,
	hr.CandidateUnderReview:        true,
	hr.CandidateInterviewScheduled: true,
}

// CountApplications counts applications whose status equals status exactly.
func CountApplications(s *hr.Snapshot, status string) int {
	n := 0
	for _, a := range s.Applications {
		if a.Status == status {
			n++
		}
	}
	return n
}

// ApplicationsByStatus groups application counts by status.
func ApplicationsByStatus(s *hr.Snapshot) map[string]int {
	out := make(map[string]int)
	for _, a := range s.Applications {
		out[a.Status]++
	}
	return out
}

func ActiveCandidates(s *hr.Snapshot) int {
	n := 0
	for _, c := range s.Candidates {
		if activeCandidateStatuses[c.Status] {
			n++
		}
	}
	return n
}

// HiredCandidates counts candidates marked Hired, whether or not they have a
// linked application.
func HiredCandidates(s *hr.Snapshot) int {
	n := 0
	for _, c := range s.Candidates {
		if c.Status == hr.CandidateHired {
			n++
		}
	}
	return n
}

func OpenPositions(s *hr.Snapshot) int {
	n := 0
	for _, p := range s.Positions {
		if p.Status == hr.PositionOpen {
			n++
		}
	}
	return n
}

// DashboardStats is the headline summary of the whole snapshot.
type DashboardStats struct {
	PendingApplications  int            `json:"pendingApplications"`
	ActiveCandidates     int            `json:"activeCandidates"`
	AvailablePositions   int            `json:"availablePositions"`
	CompletedHires       int            `json:"completedHires"`
	RecruitersActive     int            `json:"recruitersActive"`
	OnboardingInProgress int            `json:"onboardingInProgress"`
	Departments          int            `json:"departments"`
	ApplicationsByStatus map[string]int `json:"applicationsByStatus"`
	Revision             int64          `json:"revision"`
}

func Dashboard(s *hr.Snapshot) DashboardStats {
	out := DashboardStats{
		PendingApplications:  CountApplications(s, hr.AppPending),
		ActiveCandidates:     ActiveCandidates(s),
		AvailablePositions:   OpenPositions(s),
		CompletedHires:       HiredCandidates(s),
		Departments:          len(s.Departments),
		ApplicationsByStatus: ApplicationsByStatus(s),
		Revision:             s.Revision,
	}
	for _, r := range s.Recruiters {
		if r.Status == hr.RecruiterActive {
			out.RecruitersActive++
		}
	}
	for _, o := range s.Onboarding {
		if o.Status == hr.OnboardingInProgress {
			out.OnboardingInProgress++
		}
	}
	return out
}

// DepartmentStats is computed live from recruiters and positions; it does
// not trust the stored department counters.
type DepartmentStats struct {
	Name             string  `json:"name"`
	Head             string  `json:"head,omitempty"`
	RecruiterCount   int     `json:"recruiterCount"`
	ActiveRecruiters int     `json:"activeRecruiters"`
	Performance      float64 `json:"performance"`
	OpenPositions    int     `json:"openPositions"`
}

// Department reports stats for one department by name.
func Department(s *hr.Snapshot, name string) (DepartmentStats, error) {
	for _, d := range s.Departments {
		if d.Name == name {
			return departmentStats(s, d), nil
		}
	}
	return DepartmentStats{}, fmt.Errorf("%w: department %q", hr.ErrNotFound, name)
}

// Departments reports every department, ordered by name.
func Departments(s *hr.Snapshot) []DepartmentStats {
	out := make([]DepartmentStats, 0, len(s.Departments))
	for _, d := range s.Departments {
		out = append(out, departmentStats(s, d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func departmentStats(s *hr.Snapshot, d hr.Department) DepartmentStats {
	live := d
	hr.RecomputeDepartment(s, &live)
	out := DepartmentStats{
		Name:           d.Name,
		Head:           d.Head,
		RecruiterCount: live.RecruiterCount,
		Performance:    live.Performance,
	}
	for _, r := range s.Recruiters {
		if r.Department == d.Name && r.Status == hr.RecruiterActive {
			out.ActiveRecruiters++
		}
	}
	for _, p := range s.Positions {
		if p.Department == d.Name && p.Status == hr.PositionOpen {
			out.OpenPositions++
		}
	}
	return out
}

// StaleApplication is a pending application older than the threshold.
type StaleApplication struct {
	ID            int64  `json:"id"`
	CandidateName string `json:"candidateName"`
	Title         string `json:"title"`
	AgeDays       int    `json:"ageDays"`
}

// StaleApplications lists PENDING applications created more than threshold
// before now, oldest first.
func StaleApplications(s *hr.Snapshot, now time.Time, threshold time.Duration) []StaleApplication {
	var out []StaleApplication
	for _, a := range s.Applications {
		if a.Status != hr.AppPending || a.CreatedAt.IsZero() {
			continue
		}
		age := now.Sub(a.CreatedAt)
		if age <= threshold {
			continue
		}
		out = append(out, StaleApplication{
			ID:            a.ID,
			CandidateName: a.CandidateName,
			Title:         a.Title,
			AgeDays:       int(age / (24 * time.Hour)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AgeDays != out[j].AgeDays {
			return out[i].AgeDays > out[j].AgeDays
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DailyReportData summarises one UTC day.
type DailyReportData struct {
	Date                 string         `json:"date"`
	Summary              DashboardStats `json:"summary"`
	NewApplicationsToday int            `json:"newApplicationsToday"`
	ActivityToday        int            `json:"activityToday"`
	GeneratedAt          time.Time      `json:"generatedAt"`
}

// DailyReport counts what happened on now's UTC calendar day.
func DailyReport(s *hr.Snapshot, now time.Time) DailyReportData {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	within := func(t time.Time) bool { return !t.Before(start) && t.Before(end) }

	out := DailyReportData{
		Date:        start.Format("2006-01-02"),
		Summary:     Dashboard(s),
		GeneratedAt: now,
	}
	for _, a := range s.Applications {
		if within(a.CreatedAt) {
			out.NewApplicationsToday++
		}
	}
	for _, e := range s.Activity {
		if within(e.Timestamp) {
			out.ActivityToday++
		}
	}
	return out
}
