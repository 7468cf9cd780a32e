package activity

import (
	"sort"
	"strings"
	"time"

	"hrms-backend/internal/hr"
)

// Activity types written by the services.
const (
	TypeApplication = "application"
	TypeCandidate   = "candidate"
	TypePosition    = "position"
	TypeRecruiter   = "recruiter"
	TypeDepartment  = "department"
	TypeOnboarding  = "onboarding"
)

// Logger appends audit entries to a snapshot inside a unit of work.
type Logger struct {
	now func() time.Time
}

// NewLogger builds a Logger; a nil clock means time.Now.
func NewLogger(now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{now: now}
}

// Record appends one entry with the next activity ID and returns it.
func (l *Logger) Record(s *hr.Snapshot, typ, title, description string) hr.ActivityEntry {
	entry := hr.ActivityEntry{
		ID:          s.NextID(hr.CollActivity),
		Type:        typ,
		Title:       title,
		Description: description,
		Timestamp:   l.now().UTC(),
		Status:      hr.ActivityLogged,
	}
	s.Activity = append(s.Activity, entry)
	return entry
}

// Now exposes the logger clock so callers stamp entities consistently.
func (l *Logger) Now() time.Time {
	return l.now().UTC()
}

// Filter narrows List results. Zero Limit means no limit.
type Filter struct {
	Type   string
	Since  time.Time
	Limit  int
	Offset int
}

// List returns matching entries newest first. Ties on timestamp order by ID.
func List(s *hr.Snapshot, f Filter) []hr.ActivityEntry {
	out := make([]hr.ActivityEntry, 0, len(s.Activity))
	for _, a := range s.Activity {
		if f.Type != "" && !strings.EqualFold(a.Type, f.Type) {
			continue
		}
		if !f.Since.IsZero() && a.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []hr.ActivityEntry{}
	}
	end := len(out)
	if f.Limit > 0 && offset+f.Limit < end {
		end = offset + f.Limit
	}
	return out[offset:end]
}

// Since returns the entries appended after lastID, oldest first.
func Since(s *hr.Snapshot, lastID int64) []hr.ActivityEntry {
	var out []hr.ActivityEntry
	for _, a := range s.Activity {
		if a.ID > lastID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
