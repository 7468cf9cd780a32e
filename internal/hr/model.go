package hr

import (
	"fmt"
	"strings"
	"time"
)

// Kind names an entity collection that accepts status transitions.
type Kind string

const (
	KindApplication Kind = "application"
	KindPosition    Kind = "position"
	KindRecruiter   Kind = "recruiter"
	KindCandidate   Kind = "candidate"
)

// Kinds lists every transitionable kind.
var Kinds = []Kind{KindApplication, KindPosition, KindRecruiter, KindCandidate}

// ParseKind accepts singular or plural names, case-insensitively.
func ParseKind(raw string) (Kind, error) {
	k := strings.ToLower(strings.TrimSpace(raw))
	k = strings.TrimSuffix(k, "s")
	switch Kind(k) {
	case KindApplication, KindPosition, KindRecruiter, KindCandidate:
		return Kind(k), nil
	}
	return "", fmt.Errorf("%w: unknown entity kind %q", ErrInvalidInput, raw)
}

// Application statuses used by the cascade rules.
const (
	AppPending    = "PENDING"
	AppInProgress = "IN_PROGRESS"
	AppCompleted  = "COMPLETED"
	AppRejected   = "REJECTED"
)

// Candidate statuses.
const (
	CandidateApplied            = "Applied"
	CandidateUnderReview        = "Under Review"
	CandidateInterviewScheduled = "Interview Scheduled"
	CandidateHired              = "Hired"
	CandidateRejected           = "Rejected"
)

// Position statuses.
const (
	PositionOpen     = "OPEN"
	PositionInReview = "IN_REVIEW"
	PositionFilled   = "FILLED"
	PositionOnHold   = "ON_HOLD"
)

// Recruiter statuses.
const (
	RecruiterActive = "Active"
	RecruiterBreak  = "Break"
)

const (
	OnboardingInProgress = "IN_PROGRESS"
	OnboardingCompleted  = "COMPLETED"

	ActivityLogged = "LOGGED"
)

type Application struct {
	ID            int64      `json:"id"`
	CandidateID   int64      `json:"candidateId,omitempty"`
	CandidateName string     `json:"candidateName"`
	PositionID    int64      `json:"positionId"`
	RecruiterID   int64      `json:"recruiterId,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Department    string     `json:"department,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

type Candidate struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	PositionApplied string     `json:"positionApplied,omitempty"`
	Status          string     `json:"status"`
	Skills          []string   `json:"skills,omitempty"`
	Experience      string     `json:"experience,omitempty"`
	Resume          string     `json:"resume,omitempty"`
	AppliedDate     time.Time  `json:"appliedDate"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

type Position struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Department string     `json:"department"`
	Status     string     `json:"status"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Recruiter performance is a 0..100 score.
type Recruiter struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	Status      string `json:"status"`
	Performance int    `json:"performance"`
	TaskCount   int    `json:"taskCount"`
}

// Department counters are derived from the recruiter collection.
type Department struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Head           string  `json:"head,omitempty"`
	RecruiterCount int     `json:"recruiterCount"`
	Performance    float64 `json:"performance"`
}

type OnboardingTask struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type OnboardingRecord struct {
	ID            int64            `json:"id"`
	CandidateID   int64            `json:"candidateId,omitempty"`
	ApplicationID int64            `json:"applicationId"`
	PositionID    int64            `json:"positionId"`
	HireDate      string           `json:"hireDate"`
	Status        string           `json:"status"`
	Tasks         []OnboardingTask `json:"tasks"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// DefaultOnboardingTasks returns the fixed new-hire checklist.
func DefaultOnboardingTasks() []OnboardingTask {
	return []OnboardingTask{
		{ID: 1, Title: "Complete paperwork"},
		{ID: 2, Title: "IT setup"},
		{ID: 3, Title: "Orientation"},
		{ID: 4, Title: "Meet team"},
	}
}

// AllTasksCompleted reports whether every checklist item is done.
func (o OnboardingRecord) AllTasksCompleted() bool {
	if len(o.Tasks) == 0 {
		return false
	}
	for _, t := range o.Tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

// ActivityEntry is one append-only audit record.
type ActivityEntry struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
}
