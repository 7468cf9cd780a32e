package cascade

import (
	"context"
	"fmt"
	"strings"

	"hrms-backend/internal/activity"
	"hrms-backend/internal/hr"
	"hrms-backend/internal/store"
)

// Intake is a new candidate application.
type Intake struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	PositionID  int64    `json:"positionId"`
	RecruiterID int64    `json:"recruiterId"`
	Skills      []string `json:"skills"`
	Experience  string   `json:"experience"`
	Resume      string   `json:"resume"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
}

// Submission is what SubmitApplication created.
type Submission struct {
	Candidate   hr.Candidate     `json:"candidate"`
	Application hr.Application   `json:"application"`
	Activity    hr.ActivityEntry `json:"activity"`
}

// SubmitApplication creates an Applied candidate and a PENDING application
// for an existing position.
func (s *Service) SubmitApplication(ctx context.Context, in Intake) (Submission, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Submission{}, fmt.Errorf("%w: name is required", hr.ErrInvalidInput)
	}
	if in.PositionID <= 0 {
		return Submission{}, fmt.Errorf("%w: positionId is required", hr.ErrInvalidInput)
	}
	priority := strings.ToUpper(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = "MEDIUM"
	}

	var out Submission
	_, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		idx := hr.BuildIndex(snap)
		pos, err := idx.Position(snap, in.PositionID)
		if err != nil {
			return fmt.Errorf("%w: position %d does not exist", hr.ErrInvalidInput, in.PositionID)
		}
		var rec *hr.Recruiter
		if in.RecruiterID != 0 {
			if rec, err = idx.Recruiter(snap, in.RecruiterID); err != nil {
				return fmt.Errorf("%w: recruiter %d does not exist", hr.ErrInvalidInput, in.RecruiterID)
			}
			rec.TaskCount++
		}

		now := s.Log.Now()
		experience := strings.TrimSpace(in.Experience)
		if experience == "" {
			experience = "Not specified"
		}
		resume := strings.TrimSpace(in.Resume)
		if resume == "" {
			resume = "Not provided"
		}
		cand := hr.Candidate{
			ID:              snap.NextID(hr.CollCandidates),
			Name:            in.Name,
			Email:           strings.TrimSpace(in.Email),
			Phone:           strings.TrimSpace(in.Phone),
			PositionApplied: pos.Title,
			Status:          hr.CandidateApplied,
			Skills:          append([]string(nil), in.Skills...),
			Experience:      experience,
			Resume:          resume,
			AppliedDate:     now,
		}
		description := strings.TrimSpace(in.Description)
		if description == "" {
			description = "No description"
		}
		app := hr.Application{
			ID:            snap.NextID(hr.CollApplications),
			CandidateID:   cand.ID,
			CandidateName: cand.Name,
			PositionID:    pos.ID,
			RecruiterID:   in.RecruiterID,
			Title:         pos.Title + " Application",
			Description:   description,
			Department:    pos.Department,
			Priority:      priority,
			Status:        hr.AppPending,
			CreatedAt:     now,
		}
		snap.Candidates = append(snap.Candidates, cand)
		snap.Applications = append(snap.Applications, app)
		entry := s.Log.Record(snap, activity.TypeApplication, "New application received", cand.Name+" - "+pos.Title)

		out = Submission{Candidate: cand, Application: app, Activity: entry}
		return nil
	})
	if err != nil {
		return Submission{}, err
	}
	s.publish(ctx, []hr.ActivityEntry{out.Activity})
	return out, nil
}

// Hire is the outcome of ProcessNewHire.
type Hire struct {
	Transition Result              `json:"transition"`
	Onboarding hr.OnboardingRecord `json:"onboarding"`
	Created    bool                `json:"created"`
}

// ProcessNewHire completes the application (with its cascade) and opens an
// onboarding record. Repeating it for the same application returns the
// existing record. Rejected applications cannot be hired.
func (s *Service) ProcessNewHire(ctx context.Context, applicationID int64) (Hire, error) {
	rules := s.Rules.Current()
	var out Hire
	_, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		for _, o := range snap.Onboarding {
			if o.ApplicationID == applicationID {
				out.Onboarding = o
				return store.ErrNoChange
			}
		}

		c := newCascader(snap, rules, s.Log)
		app, err := c.idx.Application(snap, applicationID)
		if err != nil {
			return err
		}
		if app.Status == hr.AppRejected {
			return fmt.Errorf("%w: application %d was rejected", hr.ErrConflict, applicationID)
		}
		res, err := c.apply(hr.KindApplication, applicationID, hr.AppCompleted)
		if err != nil {
			return err
		}

		rec := hr.OnboardingRecord{
			ID:            snap.NextID(hr.CollOnboarding),
			CandidateID:   app.CandidateID,
			ApplicationID: app.ID,
			PositionID:    app.PositionID,
			HireDate:      c.now.Format("2006-01-02"),
			Status:        hr.OnboardingInProgress,
			Tasks:         hr.DefaultOnboardingTasks(),
			CreatedAt:     c.now,
		}
		snap.Onboarding = append(snap.Onboarding, rec)
		entry := s.Log.Record(snap, activity.TypeOnboarding, "New hire onboarding started",
			fmt.Sprintf("%s hired for %s", app.CandidateName, app.Title))
		res.Activity = append(res.Activity, entry)

		out = Hire{Transition: res, Onboarding: rec, Created: true}
		return nil
	})
	if err != nil {
		return Hire{}, err
	}
	if out.Created {
		s.publish(ctx, out.Transition.Activity)
	}
	return out, nil
}

// UpdateOnboardingTask marks one checklist task; the record is COMPLETED
// exactly when every task is done.
func (s *Service) UpdateOnboardingTask(ctx context.Context, onboardingID int64, taskID int, completed bool) (hr.OnboardingRecord, error) {
	var out hr.OnboardingRecord
	var entries []hr.ActivityEntry
	_, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		rec, err := hr.BuildIndex(snap).Onboarding(snap, onboardingID)
		if err != nil {
			return err
		}
		found := false
		changed := false
		for i := range rec.Tasks {
			if rec.Tasks[i].ID != taskID {
				continue
			}
			found = true
			if rec.Tasks[i].Completed != completed {
				rec.Tasks[i].Completed = completed
				changed = true
			}
		}
		if !found {
			return fmt.Errorf("%w: task %d in onboarding %d", hr.ErrNotFound, taskID, onboardingID)
		}

		prevStatus := rec.Status
		if rec.AllTasksCompleted() {
			rec.Status = hr.OnboardingCompleted
		} else {
			rec.Status = hr.OnboardingInProgress
		}
		out = *rec
		if !changed && prevStatus == rec.Status {
			return store.ErrNoChange
		}
		if rec.Status == hr.OnboardingCompleted && prevStatus != hr.OnboardingCompleted {
			entries = append(entries, s.Log.Record(snap, activity.TypeOnboarding, "Onboarding completed",
				fmt.Sprintf("onboarding %d finished all tasks", rec.ID)))
		}
		out = *rec
		return nil
	})
	if err != nil {
		return hr.OnboardingRecord{}, err
	}
	s.publish(ctx, entries)
	return out, nil
}

// AssignRecruiter moves an application to recruiterID and rebalances task counts.
func (s *Service) AssignRecruiter(ctx context.Context, applicationID, recruiterID int64) (hr.Application, error) {
	if recruiterID <= 0 {
		return hr.Application{}, fmt.Errorf("%w: recruiterId is required", hr.ErrInvalidInput)
	}
	var out hr.Application
	var entries []hr.ActivityEntry
	_, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		idx := hr.BuildIndex(snap)
		app, err := idx.Application(snap, applicationID)
		if err != nil {
			return err
		}
		next, err := idx.Recruiter(snap, recruiterID)
		if err != nil {
			return fmt.Errorf("%w: recruiter %d does not exist", hr.ErrInvalidInput, recruiterID)
		}
		out = *app
		if app.RecruiterID == recruiterID {
			return store.ErrNoChange
		}
		if prev, err := idx.Recruiter(snap, app.RecruiterID); err == nil && prev.TaskCount > 0 {
			prev.TaskCount--
		}
		next.TaskCount++
		now := s.Log.Now()
		app.RecruiterID = recruiterID
		app.UpdatedAt = &now
		entries = append(entries, s.Log.Record(snap, activity.TypeRecruiter, "Recruiter assigned",
			fmt.Sprintf("%s assigned to %s", next.Name, app.Title)))
		out = *app
		return nil
	})
	if err != nil {
		return hr.Application{}, err
	}
	s.publish(ctx, entries)
	return out, nil
}

// AdjustRecruiterPerformance adds delta to the score, clamped to 0..100, and
// refreshes the recruiter's department.
func (s *Service) AdjustRecruiterPerformance(ctx context.Context, recruiterID int64, delta int) (hr.Recruiter, error) {
	if delta == 0 {
		return hr.Recruiter{}, fmt.Errorf("%w: delta must be non-zero", hr.ErrInvalidInput)
	}
	var out hr.Recruiter
	var entries []hr.ActivityEntry
	_, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		idx := hr.BuildIndex(snap)
		rec, err := idx.Recruiter(snap, recruiterID)
		if err != nil {
			return err
		}
		next := clampPerformance(rec.Performance + delta)
		out = *rec
		if next == rec.Performance {
			return store.ErrNoChange
		}
		rec.Performance = next
		if d, err := idx.Department(snap, rec.Department); err == nil {
			hr.RecomputeDepartment(snap, d)
		}
		entries = append(entries, s.Log.Record(snap, activity.TypeRecruiter, "Recruiter performance adjusted",
			fmt.Sprintf("%s performance now %d", rec.Name, rec.Performance)))
		out = *rec
		return nil
	})
	if err != nil {
		return hr.Recruiter{}, err
	}
	s.publish(ctx, entries)
	return out, nil
}

// UpdateDepartmentHead replaces the head of department name.
func (s *Service) UpdateDepartmentHead(ctx context.Context, name, head string) (hr.Department, error) {
	head = strings.TrimSpace(head)
	if head == "" {
		return hr.Department{}, fmt.Errorf("%w: head is required", hr.ErrInvalidInput)
	}
	var out hr.Department
	var entries []hr.ActivityEntry
	_, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		d, err := hr.BuildIndex(snap).Department(snap, name)
		if err != nil {
			return err
		}
		out = *d
		if d.Head == head {
			return store.ErrNoChange
		}
		d.Head = head
		entries = append(entries, s.Log.Record(snap, activity.TypeDepartment, "Department head updated",
			fmt.Sprintf("%s head changed to %s", name, head)))
		out = *d
		return nil
	})
	if err != nil {
		return hr.Department{}, err
	}
	s.publish(ctx, entries)
	return out, nil
}

// RecomputeDepartments refreshes every department's counters. It is a no-op
// when nothing drifted.
func (s *Service) RecomputeDepartments(ctx context.Context) ([]hr.Department, error) {
	var out []hr.Department
	_, err := s.Store.Update(ctx, func(snap *hr.Snapshot) error {
		changed := false
		for i := range snap.Departments {
			before := snap.Departments[i]
			hr.RecomputeDepartment(snap, &snap.Departments[i])
			if snap.Departments[i] != before {
				changed = true
			}
		}
		out = append([]hr.Department{}, snap.Departments...)
		if !changed {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
