package hr

import (
	"fmt"
	"time"
)

// Collection names match the JSON document keys.
type Collection string

const (
	CollApplications Collection = "applications"
	CollCandidates   Collection = "candidates"
	CollPositions    Collection = "positions"
	CollRecruiters   Collection = "recruiters"
	CollDepartments  Collection = "departments"
	CollOnboarding   Collection = "onboarding"
	CollActivity     Collection = "activity"
)

// Snapshot is the full state of every collection at one revision.
type Snapshot struct {
	Applications []Application      `json:"applications"`
	Candidates   []Candidate        `json:"candidates"`
	Positions    []Position         `json:"positions"`
	Recruiters   []Recruiter        `json:"recruiters"`
	Departments  []Department       `json:"departments"`
	Onboarding   []OnboardingRecord `json:"onboarding"`
	Activity     []ActivityEntry    `json:"activity"`

	// Sequences holds the last ID issued per collection.
	Sequences map[Collection]int64 `json:"sequences"`
	Revision  int64                `json:"revision"`
}

// Empty reports whether the snapshot holds no entities at all.
func (s *Snapshot) Empty() bool {
	return len(s.Applications) == 0 && len(s.Candidates) == 0 && len(s.Positions) == 0 &&
		len(s.Recruiters) == 0 && len(s.Departments) == 0 && len(s.Onboarding) == 0 &&
		len(s.Activity) == 0
}

// NextID issues the next monotonic ID for c. It never returns an ID at or
// below one already present in the collection.
func (s *Snapshot) NextID(c Collection) int64 {
	if s.Sequences == nil {
		s.Sequences = make(map[Collection]int64)
	}
	last := s.Sequences[c]
	if m := s.maxID(c); m > last {
		last = m
	}
	last++
	s.Sequences[c] = last
	return last
}

func (s *Snapshot) maxID(c Collection) int64 {
	var m int64
	switch c {
	case CollApplications:
		for _, v := range s.Applications {
			m = max(m, v.ID)
		}
	case CollCandidates:
		for _, v := range s.Candidates {
			m = max(m, v.ID)
		}
	case CollPositions:
		for _, v := range s.Positions {
			m = max(m, v.ID)
		}
	case CollRecruiters:
		for _, v := range s.Recruiters {
			m = max(m, v.ID)
		}
	case CollDepartments:
		for _, v := range s.Departments {
			m = max(m, v.ID)
		}
	case CollOnboarding:
		for _, v := range s.Onboarding {
			m = max(m, v.ID)
		}
	case CollActivity:
		for _, v := range s.Activity {
			m = max(m, v.ID)
		}
	}
	return m
}

// Normalize fills nil collections, raises sequences to the stored maxima and
// backfills Application.CandidateID where the candidate name is unambiguous.
func (s *Snapshot) Normalize() {
	if s.Applications == nil {
		s.Applications = []Application{}
	}
	if s.Candidates == nil {
		s.Candidates = []Candidate{}
	}
	if s.Positions == nil {
		s.Positions = []Position{}
	}
	if s.Recruiters == nil {
		s.Recruiters = []Recruiter{}
	}
	if s.Departments == nil {
		s.Departments = []Department{}
	}
	if s.Onboarding == nil {
		s.Onboarding = []OnboardingRecord{}
	}
	if s.Activity == nil {
		s.Activity = []ActivityEntry{}
	}
	if s.Sequences == nil {
		s.Sequences = make(map[Collection]int64)
	}
	for _, c := range []Collection{CollApplications, CollCandidates, CollPositions, CollRecruiters, CollDepartments, CollOnboarding, CollActivity} {
		if m := s.maxID(c); m > s.Sequences[c] {
			s.Sequences[c] = m
		}
	}

	byName := make(map[string]int64, len(s.Candidates))
	dup := make(map[string]bool)
	for _, c := range s.Candidates {
		if _, seen := byName[c.Name]; seen {
			dup[c.Name] = true
		}
		byName[c.Name] = c.ID
	}
	for i := range s.Applications {
		a := &s.Applications[i]
		if a.CandidateID != 0 || dup[a.CandidateName] {
			continue
		}
		if id, ok := byName[a.CandidateName]; ok {
			a.CandidateID = id
		}
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Applications: make([]Application, len(s.Applications)),
		Candidates:   make([]Candidate, len(s.Candidates)),
		Positions:    make([]Position, len(s.Positions)),
		Recruiters:   append([]Recruiter{}, s.Recruiters...),
		Departments:  append([]Department{}, s.Departments...),
		Onboarding:   make([]OnboardingRecord, len(s.Onboarding)),
		Activity:     append([]ActivityEntry{}, s.Activity...),
		Sequences:    make(map[Collection]int64, len(s.Sequences)),
		Revision:     s.Revision,
	}
	for i, a := range s.Applications {
		a.UpdatedAt = cloneTime(a.UpdatedAt)
		a.CompletedAt = cloneTime(a.CompletedAt)
		out.Applications[i] = a
	}
	for i, c := range s.Candidates {
		c.Skills = append([]string(nil), c.Skills...)
		c.UpdatedAt = cloneTime(c.UpdatedAt)
		out.Candidates[i] = c
	}
	for i, p := range s.Positions {
		p.UpdatedAt = cloneTime(p.UpdatedAt)
		out.Positions[i] = p
	}
	for i, o := range s.Onboarding {
		o.Tasks = append([]OnboardingTask(nil), o.Tasks...)
		out.Onboarding[i] = o
	}
	for k, v := range s.Sequences {
		out.Sequences[k] = v
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Index maps IDs to slice positions. Build it after the last append.
type Index struct {
	applications map[int64]int
	candidates   map[int64]int
	positions    map[int64]int
	recruiters   map[int64]int
	onboarding   map[int64]int
	departments  map[string]int
	appsByCand   map[int64][]int
}

// BuildIndex scans every collection once.
func BuildIndex(s *Snapshot) *Index {
	idx := &Index{
		applications: make(map[int64]int, len(s.Applications)),
		candidates:   make(map[int64]int, len(s.Candidates)),
		positions:    make(map[int64]int, len(s.Positions)),
		recruiters:   make(map[int64]int, len(s.Recruiters)),
		onboarding:   make(map[int64]int, len(s.Onboarding)),
		departments:  make(map[string]int, len(s.Departments)),
		appsByCand:   make(map[int64][]int),
	}
	for i, a := range s.Applications {
		idx.applications[a.ID] = i
		if a.CandidateID != 0 {
			idx.appsByCand[a.CandidateID] = append(idx.appsByCand[a.CandidateID], i)
		}
	}
	for i, c := range s.Candidates {
		idx.candidates[c.ID] = i
	}
	for i, p := range s.Positions {
		idx.positions[p.ID] = i
	}
	for i, r := range s.Recruiters {
		idx.recruiters[r.ID] = i
	}
	for i, o := range s.Onboarding {
		idx.onboarding[o.ID] = i
	}
	for i, d := range s.Departments {
		if _, ok := idx.departments[d.Name]; !ok {
			idx.departments[d.Name] = i
		}
	}
	return idx
}

func notFound(what string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
}

func (idx *Index) Application(s *Snapshot, id int64) (*Application, error) {
	if i, ok := idx.applications[id]; ok {
		return &s.Applications[i], nil
	}
	return nil, notFound("application", id)
}

func (idx *Index) Candidate(s *Snapshot, id int64) (*Candidate, error) {
	if i, ok := idx.candidates[id]; ok {
		return &s.Candidates[i], nil
	}
	return nil, notFound("candidate", id)
}

func (idx *Index) Position(s *Snapshot, id int64) (*Position, error) {
	if i, ok := idx.positions[id]; ok {
		return &s.Positions[i], nil
	}
	return nil, notFound("position", id)
}

func (idx *Index) Recruiter(s *Snapshot, id int64) (*Recruiter, error) {
	if i, ok := idx.recruiters[id]; ok {
		return &s.Recruiters[i], nil
	}
	return nil, notFound("recruiter", id)
}

func (idx *Index) Onboarding(s *Snapshot, id int64) (*OnboardingRecord, error) {
	if i, ok := idx.onboarding[id]; ok {
		return &s.Onboarding[i], nil
	}
	return nil, notFound("onboarding record", id)
}

func (idx *Index) Department(s *Snapshot, name string) (*Department, error) {
	if i, ok := idx.departments[name]; ok {
		return &s.Departments[i], nil
	}
	return nil, notFound("department", name)
}

// ApplicationsOf returns the applications whose CandidateID is candidateID.
func (idx *Index) ApplicationsOf(s *Snapshot, candidateID int64) []*Application {
	positions := idx.appsByCand[candidateID]
	out := make([]*Application, 0, len(positions))
	for _, i := range positions {
		out = append(out, &s.Applications[i])
	}
	return out
}

// Entity returns a copy of the entity kind/id for read paths.
func (s *Snapshot) Entity(kind Kind, id int64) (any, error) {
	idx := BuildIndex(s)
	switch kind {
	case KindApplication:
		v, err := idx.Application(s, id)
		if err != nil {
			return nil, err
		}
		return *v, nil
	case KindCandidate:
		v, err := idx.Candidate(s, id)
		if err != nil {
			return nil, err
		}
		return *v, nil
	case KindPosition:
		v, err := idx.Position(s, id)
		if err != nil {
			return nil, err
		}
		return *v, nil
	case KindRecruiter:
		v, err := idx.Recruiter(s, id)
		if err != nil {
			return nil, err
		}
		return *v, nil
	}
	return nil, fmt.Errorf("%w: unknown entity kind %q", ErrInvalidInput, kind)
}
