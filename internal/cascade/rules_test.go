package cascade

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hrms-backend/internal/shared/telemetry"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	cases := []struct {
		name string
		fn   func(string, string) (bool, error)
		st   string
		prev string
		want bool
	}{
		{"completed", r.Completed, "COMPLETED", "PENDING", true},
		{"not completed", r.Completed, "IN_PROGRESS", "PENDING", false},
		{"fills position", r.FillsPosition, "COMPLETED", "IN_PROGRESS", true},
		{"rewards on first completion", r.RewardsRecruiter, "COMPLETED", "PENDING", true},
		{"no reward when already completed", r.RewardsRecruiter, "COMPLETED", "COMPLETED", false},
		{"hire completes applications", r.CompletesApplications, "Hired", "Applied", true},
		{"rejection does not", r.CompletesApplications, "Rejected", "Applied", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(tc.st, tc.prev)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
	if st, ok := r.CandidateStatusFor("IN_PROGRESS"); !ok || st != "Under Review" {
		t.Fatalf("unexpected candidate status %q %v", st, ok)
	}
	if _, ok := r.CandidateStatusFor("ARCHIVED"); ok {
		t.Fatalf("unmapped status should not map")
	}
	if r.RecruiterReward != 3 || r.ApplicationStatus != "COMPLETED" {
		t.Fatalf("unexpected defaults %+v", r)
	}
}

func TestParseRulesErrors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "application: [",
		"syntax error":   "application:\n  completed_when: 'status =='\n",
		"non bool":       "application:\n  completed_when: 'status'\n",
		"unknown var":    "application:\n  completed_when: 'stage == \"X\"'\n",
		"negative bonus": "application:\n  recruiter_reward: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRules([]byte(doc), "test"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestEmptyConditionNeverFires(t *testing.T) {
	r, err := ParseRules([]byte("application:\n  candidate_status:\n    COMPLETED: Hired\n"), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fires, err := r.FillsPosition("COMPLETED", "PENDING")
	if err != nil || fires {
		t.Fatalf("expected empty rule not to fire, got %v %v", fires, err)
	}
}

func TestRuleSetReplaceIgnoresNil(t *testing.T) {
	rs := NewRuleSet(nil)
	before := rs.Current()
	rs.Replace(nil)
	if rs.Current() != before {
		t.Fatalf("nil replace swapped rules")
	}
}

func TestWatchRulesFileReloads(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	doc := string(defaultRulesYAML)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	initial, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rs := NewRuleSet(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := WatchRulesFile(ctx, path, rs); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("application: ["), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if rs.Current().RecruiterReward != 3 {
		t.Fatalf("broken file replaced rules")
	}

	updated := strings.Replace(doc, "recruiter_reward: 3", "recruiter_reward: 5", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("write updated: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for rs.Current().RecruiterReward != 5 {
		if time.Now().After(deadline) {
			t.Fatalf("rules were not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
