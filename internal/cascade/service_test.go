package cascade

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"hrms-backend/internal/activity"
	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/telemetry"
	"hrms-backend/internal/store"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	entries []hr.ActivityEntry
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, entries []hr.ActivityEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entries...)
	return p.err
}

type failingSaveStore struct {
	*store.MemoryStore
}

func (f *failingSaveStore) Save(ctx context.Context, snap *hr.Snapshot) error {
	return errors.New("disk full")
}

func newTestService(t *testing.T) (*Service, *store.Transactor, *recordingPublisher) {
	t.Helper()
	t.Cleanup(telemetry.SetOutput(io.Discard))
	tr := store.NewTransactor(store.NewMemoryStore(hr.DemoSnapshot(testNow)))
	pub := &recordingPublisher{}
	log := activity.NewLogger(func() time.Time { return testNow })
	return NewService(tr, nil, log, pub), tr, pub
}

func mustView(t *testing.T, tr *store.Transactor) *hr.Snapshot {
	t.Helper()
	snap, err := tr.View(context.Background())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return snap
}

func TestCompletingApplicationCascades(t *testing.T) {
	svc, tr, pub := newTestService(t)
	before := mustView(t, tr)

	res, err := svc.ApplyStatusTransition(context.Background(), hr.KindApplication, 1, hr.AppCompleted)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !res.Changed || res.Previous != hr.AppPending || res.Revision != before.Revision+1 {
		t.Fatalf("unexpected result %+v", res)
	}

	after := mustView(t, tr)
	app := after.Applications[0]
	if app.Status != hr.AppCompleted || app.CompletedAt == nil || !app.CompletedAt.Equal(testNow) {
		t.Fatalf("application not completed: %+v", app)
	}
	if got := after.Candidates[0].Status; got != hr.CandidateHired {
		t.Fatalf("expected candidate Hired, got %q", got)
	}
	if got := after.Positions[0].Status; got != hr.PositionFilled {
		t.Fatalf("expected position FILLED, got %q", got)
	}
	rec := after.Recruiters[0]
	if rec.Performance != 91 || rec.TaskCount != 2 {
		t.Fatalf("recruiter not rewarded: %+v", rec)
	}
	eng := after.Departments[0]
	if eng.RecruiterCount != 2 || eng.Performance != 82.5 {
		t.Fatalf("department not recomputed: %+v", eng)
	}
	if len(after.Activity) != len(before.Activity)+1 {
		t.Fatalf("expected exactly one new activity entry, got %d", len(after.Activity)-len(before.Activity))
	}
	entry := after.Activity[len(after.Activity)-1]
	if entry.Type != activity.TypeApplication || !strings.Contains(entry.Description, "FILLED") {
		t.Fatalf("unexpected activity entry %+v", entry)
	}
	if len(pub.entries) != 1 || pub.entries[0].ID != entry.ID {
		t.Fatalf("expected the entry to be published, got %+v", pub.entries)
	}
	for _, want := range []string{"application:1", "candidate:1", "position:1", "recruiter:1", "department:Engineering"} {
		found := false
		for _, a := range res.Affected {
			if a == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("affected %v missing %s", res.Affected, want)
		}
	}
}

func TestRepeatedTransitionIsNoop(t *testing.T) {
	svc, tr, pub := newTestService(t)
	ctx := context.Background()
	if _, err := svc.ApplyStatusTransition(ctx, hr.KindApplication, 1, hr.AppCompleted); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	first := mustView(t, tr)

	res, err := svc.ApplyStatusTransition(ctx, hr.KindApplication, 1, hr.AppCompleted)
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if res.Changed {
		t.Fatalf("expected no change, got %+v", res)
	}
	second := mustView(t, tr)
	if second.Revision != first.Revision || len(second.Activity) != len(first.Activity) {
		t.Fatalf("no-op transition wrote state: rev %d->%d", first.Revision, second.Revision)
	}
	if second.Recruiters[0].Performance != 91 {
		t.Fatalf("recruiter rewarded twice: %d", second.Recruiters[0].Performance)
	}
	if len(pub.entries) != 1 {
		t.Fatalf("expected one published entry, got %d", len(pub.entries))
	}
}

func TestUnknownEntityIsNotFound(t *testing.T) {
	svc, tr, _ := newTestService(t)
	before := mustView(t, tr)

	_, err := svc.ApplyStatusTransition(context.Background(), hr.KindPosition, 999, hr.PositionFilled)
	if !errors.Is(err, hr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if after := mustView(t, tr); after.Revision != before.Revision {
		t.Fatalf("failed transition committed revision %d", after.Revision)
	}
}

func TestTransitionRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cases := []struct {
		name   string
		kind   hr.Kind
		id     int64
		status string
	}{
		{"empty status", hr.KindApplication, 1, "  "},
		{"zero id", hr.KindApplication, 0, hr.AppCompleted},
		{"unknown kind", hr.Kind("department"), 1, "X"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ApplyStatusTransition(ctx, tc.kind, tc.id, tc.status)
			if !errors.Is(err, hr.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !IsClientError(err) {
				t.Fatalf("expected client error")
			}
		})
	}
}

func TestSaveFailureLeavesCommittedState(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	mem := store.NewMemoryStore(hr.DemoSnapshot(testNow))
	tr := store.NewTransactor(&failingSaveStore{MemoryStore: mem})
	pub := &recordingPublisher{}
	svc := NewService(tr, nil, activity.NewLogger(func() time.Time { return testNow }), pub)

	_, err := svc.ApplyStatusTransition(context.Background(), hr.KindApplication, 1, hr.AppCompleted)
	if err == nil || IsClientError(err) {
		t.Fatalf("expected server error, got %v", err)
	}
	snap, _ := mem.Load(context.Background())
	if snap.Applications[0].Status != hr.AppPending || snap.Positions[0].Status != hr.PositionOpen {
		t.Fatalf("partial cascade committed: %+v", snap.Applications[0])
	}
	if len(snap.Activity) != 0 || len(pub.entries) != 0 {
		t.Fatalf("activity leaked from failed unit of work")
	}
}

func TestPositionTransitionDoesNotTouchApplications(t *testing.T) {
	svc, tr, _ := newTestService(t)
	res, err := svc.ApplyStatusTransition(context.Background(), hr.KindPosition, 2, hr.PositionOnHold)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(res.Affected) != 1 || res.Affected[0] != "position:2" {
		t.Fatalf("unexpected affected %v", res.Affected)
	}
	snap := mustView(t, tr)
	if snap.Positions[1].Status != hr.PositionOnHold || snap.Positions[1].UpdatedAt == nil {
		t.Fatalf("position not updated: %+v", snap.Positions[1])
	}
	if snap.Applications[1].Status != hr.AppInProgress {
		t.Fatalf("application changed: %+v", snap.Applications[1])
	}
}

func TestRecruiterTransitionRecomputesDepartment(t *testing.T) {
	svc, tr, _ := newTestService(t)
	if _, err := svc.ApplyStatusTransition(context.Background(), hr.KindRecruiter, 2, hr.RecruiterActive); err != nil {
		t.Fatalf("transition: %v", err)
	}
	snap := mustView(t, tr)
	if snap.Recruiters[1].Status != hr.RecruiterActive {
		t.Fatalf("recruiter not updated: %+v", snap.Recruiters[1])
	}
	if snap.Departments[0].RecruiterCount != 2 || snap.Departments[0].Performance != 81 {
		t.Fatalf("department stats wrong: %+v", snap.Departments[0])
	}
}

func TestHiringCandidateCompletesTheirApplications(t *testing.T) {
	svc, tr, _ := newTestService(t)
	res, err := svc.ApplyStatusTransition(context.Background(), hr.KindCandidate, 2, hr.CandidateHired)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !res.Changed {
		t.Fatalf("expected change")
	}
	snap := mustView(t, tr)
	app := snap.Applications[1]
	if app.Status != hr.AppCompleted || app.CompletedAt == nil {
		t.Fatalf("application not completed: %+v", app)
	}
	if snap.Applications[0].Status != hr.AppPending || snap.Applications[2].Status != hr.AppPending {
		t.Fatalf("other candidates' applications changed")
	}
	if snap.Positions[1].Status != hr.PositionOpen {
		t.Fatalf("candidate hire should not fill the position: %+v", snap.Positions[1])
	}
}

func TestConcurrentTransitionsAssignUniqueActivityIDs(t *testing.T) {
	svc, tr, _ := newTestService(t)
	statuses := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	var wg sync.WaitGroup
	for i, st := range statuses {
		wg.Add(1)
		go func(id int64, status string) {
			defer wg.Done()
			if _, err := svc.ApplyStatusTransition(context.Background(), hr.KindPosition, id, status); err != nil {
				t.Errorf("transition: %v", err)
			}
		}(int64(i%3+1), st)
	}
	wg.Wait()

	snap := mustView(t, tr)
	seen := map[int64]bool{}
	for _, a := range snap.Activity {
		if seen[a.ID] {
			t.Fatalf("duplicate activity id %d", a.ID)
		}
		seen[a.ID] = true
	}
	if len(snap.Activity) != len(statuses) {
		t.Fatalf("expected %d entries, got %d", len(statuses), len(snap.Activity))
	}
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("stream down")
	res, err := svc.ApplyStatusTransition(context.Background(), hr.KindPosition, 1, hr.PositionInReview)
	if err != nil || !res.Changed {
		t.Fatalf("expected committed transition, got %+v %v", res, err)
	}
}

func TestGetReturnsEntity(t *testing.T) {
	svc, _, _ := newTestService(t)
	got, err := svc.Get(context.Background(), hr.KindRecruiter, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rec, ok := got.(hr.Recruiter)
	if !ok || rec.Name != "Omar Haddad" {
		t.Fatalf("unexpected entity %#v", got)
	}
}
