package hr

import "time"

// DemoSnapshot returns a small, internally consistent data set for local runs.
func DemoSnapshot(now time.Time) *Snapshot {
	now = now.UTC()
	day := 24 * time.Hour
	s := &Snapshot{
		Departments: []Department{
			{ID: 1, Name: "Engineering", Head: "Priya Nair"},
			{ID: 2, Name: "Sales", Head: "Marcus Lee"},
			{ID: 3, Name: "People Ops", Head: "Dana Whitfield"},
		},
		Recruiters: []Recruiter{
			{ID: 1, Name: "Sam Ortiz", Department: "Engineering", Status: RecruiterActive, Performance: 88, TaskCount: 3},
			{ID: 2, Name: "Lena Brooks", Department: "Engineering", Status: RecruiterBreak, Performance: 74, TaskCount: 1},
			{ID: 3, Name: "Omar Haddad", Department: "Sales", Status: RecruiterActive, Performance: 91, TaskCount: 2},
		},
		Positions: []Position{
			{ID: 1, Title: "Backend Engineer", Department: "Engineering", Status: PositionOpen},
			{ID: 2, Title: "Account Executive", Department: "Sales", Status: PositionOpen},
			{ID: 3, Title: "HR Generalist", Department: "People Ops", Status: PositionOnHold},
		},
		Candidates: []Candidate{
			{ID: 1, Name: "Alex Kim", Email: "alex.kim@example.com", PositionApplied: "Backend Engineer", Status: CandidateApplied, Skills: []string{"Go", "PostgreSQL"}, Experience: "5 years", AppliedDate: now.Add(-2 * day)},
			{ID: 2, Name: "Jordan Patel", Email: "jordan.patel@example.com", PositionApplied: "Account Executive", Status: CandidateUnderReview, Skills: []string{"Negotiation"}, Experience: "3 years", AppliedDate: now.Add(-9 * day)},
			{ID: 3, Name: "Riley Chen", Email: "riley.chen@example.com", PositionApplied: "Backend Engineer", Status: CandidateApplied, Skills: []string{"Kubernetes"}, Experience: "2 years", AppliedDate: now.Add(-45 * day)},
		},
		Applications: []Application{
			{ID: 1, CandidateID: 1, CandidateName: "Alex Kim", PositionID: 1, RecruiterID: 1, Title: "Backend Engineer Application", Department: "Engineering", Priority: "HIGH", Status: AppPending, CreatedAt: now.Add(-2 * day)},
			{ID: 2, CandidateID: 2, CandidateName: "Jordan Patel", PositionID: 2, RecruiterID: 3, Title: "Account Executive Application", Department: "Sales", Priority: "MEDIUM", Status: AppInProgress, CreatedAt: now.Add(-9 * day)},
			{ID: 3, CandidateID: 3, CandidateName: "Riley Chen", PositionID: 1, Title: "Backend Engineer Application", Department: "Engineering", Priority: "LOW", Status: AppPending, CreatedAt: now.Add(-45 * day)},
		},
		Onboarding: []OnboardingRecord{},
		Activity:   []ActivityEntry{},
	}
	for i := range s.Departments {
		RecomputeDepartment(s, &s.Departments[i])
	}
	s.Normalize()
	return s
}

// RecomputeDepartment refreshes d's counters from the recruiter collection.
// An empty department averages to 0.
func RecomputeDepartment(s *Snapshot, d *Department) {
	count := 0
	total := 0
	for _, r := range s.Recruiters {
		if r.Department != d.Name {
			continue
		}
		count++
		total += r.Performance
	}
	d.RecruiterCount = count
	if count == 0 {
		d.Performance = 0
		return
	}
	d.Performance = float64(total) / float64(count)
}
