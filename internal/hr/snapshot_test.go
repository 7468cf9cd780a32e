package hr

import (
	"errors"
	"testing"
	"time"
)

func TestNextIDIsMonotonicAboveExisting(t *testing.T) {
	s := &Snapshot{Activity: []ActivityEntry{{ID: 7}, {ID: 3}}}
	if got := s.NextID(CollActivity); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	if got := s.NextID(CollActivity); got != 9 {
		t.Fatalf("expected 9 without append, got %d", got)
	}
	s.Sequences[CollApplications] = 40
	if got := s.NextID(CollApplications); got != 41 {
		t.Fatalf("expected sequence to win over empty collection, got %d", got)
	}
}

func TestNormalizeBackfillsUniqueCandidateNames(t *testing.T) {
	s := &Snapshot{
		Candidates: []Candidate{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "B"}},
		Applications: []Application{
			{ID: 1, CandidateName: "A"},
			{ID: 2, CandidateName: "B"},
			{ID: 3, CandidateName: "C"},
		},
	}
	s.Normalize()

	if s.Applications[0].CandidateID != 1 {
		t.Fatalf("expected backfill for unique name, got %d", s.Applications[0].CandidateID)
	}
	if s.Applications[1].CandidateID != 0 {
		t.Fatalf("expected no backfill for duplicate name, got %d", s.Applications[1].CandidateID)
	}
	if s.Applications[2].CandidateID != 0 {
		t.Fatalf("expected no backfill for unknown name")
	}
	if s.Sequences[CollCandidates] != 3 {
		t.Fatalf("expected candidate sequence 3, got %d", s.Sequences[CollCandidates])
	}
	if s.Activity == nil || s.Onboarding == nil {
		t.Fatalf("expected empty collections to be non-nil")
	}
}

func TestCloneSharesNoMemory(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	orig := DemoSnapshot(now)
	orig.Applications[0].UpdatedAt = &now
	orig.Onboarding = append(orig.Onboarding, OnboardingRecord{ID: 1, Tasks: DefaultOnboardingTasks()})

	cp := orig.Clone()
	cp.Applications[0].Status = AppCompleted
	*cp.Applications[0].UpdatedAt = now.Add(time.Hour)
	cp.Candidates[0].Skills[0] = "Rust"
	cp.Onboarding[0].Tasks[0].Completed = true
	cp.Sequences[CollActivity] = 99

	if orig.Applications[0].Status != AppPending {
		t.Fatalf("status leaked into original")
	}
	if !orig.Applications[0].UpdatedAt.Equal(now) {
		t.Fatalf("time pointer shared with clone")
	}
	if orig.Candidates[0].Skills[0] != "Go" {
		t.Fatalf("skills slice shared with clone")
	}
	if orig.Onboarding[0].Tasks[0].Completed {
		t.Fatalf("tasks slice shared with clone")
	}
	if orig.Sequences[CollActivity] == 99 {
		t.Fatalf("sequences map shared with clone")
	}
}

func TestIndexLookups(t *testing.T) {
	s := DemoSnapshot(time.Now())
	idx := BuildIndex(s)

	app, err := idx.Application(s, 2)
	if err != nil {
		t.Fatalf("lookup application: %v", err)
	}
	app.Status = AppRejected
	if s.Applications[1].Status != AppRejected {
		t.Fatalf("expected pointer into snapshot")
	}

	if _, err := idx.Position(s, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := idx.Department(s, "Nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for department, got %v", err)
	}
	if apps := idx.ApplicationsOf(s, 1); len(apps) != 1 || apps[0].ID != 1 {
		t.Fatalf("unexpected applications for candidate 1: %v", apps)
	}
}

func TestRecomputeDepartmentAverages(t *testing.T) {
	s := &Snapshot{Recruiters: []Recruiter{
		{ID: 1, Department: "Eng", Performance: 80},
		{ID: 2, Department: "Eng", Performance: 75},
		{ID: 3, Department: "Sales", Performance: 10},
	}}
	d := Department{Name: "Eng"}
	RecomputeDepartment(s, &d)
	if d.RecruiterCount != 2 || d.Performance != 77.5 {
		t.Fatalf("unexpected department %+v", d)
	}

	empty := Department{Name: "Legal", Performance: 42}
	RecomputeDepartment(s, &empty)
	if empty.RecruiterCount != 0 || empty.Performance != 0 {
		t.Fatalf("expected zero stats for empty department, got %+v", empty)
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"application":  KindApplication,
		"Applications": KindApplication,
		" recruiter ":  KindRecruiter,
		"positions":    KindPosition,
		"CANDIDATE":    KindCandidate,
	}
	for raw, want := range cases {
		got, err := ParseKind(raw)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseKind("department"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSnapshotEntityReturnsCopy(t *testing.T) {
	s := DemoSnapshot(time.Now())
	v, err := s.Entity(KindCandidate, 1)
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	c, ok := v.(Candidate)
	if !ok || c.Name != "Alex Kim" {
		t.Fatalf("unexpected entity %#v", v)
	}
	if _, err := s.Entity(KindRecruiter, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
