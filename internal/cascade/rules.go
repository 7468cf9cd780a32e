package cascade

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

//go:embed rules_default.yaml
var defaultRulesYAML []byte

type rulesDoc struct {
	Application struct {
		CandidateStatus     map[string]string `yaml:"candidate_status"`
		CompletedWhen       string            `yaml:"completed_when"`
		FillPositionWhen    string            `yaml:"fill_position_when"`
		RewardRecruiterWhen string            `yaml:"reward_recruiter_when"`
		RecruiterReward     int               `yaml:"recruiter_reward"`
	} `yaml:"application"`
	Candidate struct {
		CompleteApplicationsWhen string `yaml:"complete_applications_when"`
		ApplicationStatus        string `yaml:"application_status"`
	} `yaml:"candidate"`
}

// Rules is a compiled, immutable rule set.
type Rules struct {
	Source            string
	CandidateStatus   map[string]string
	RecruiterReward   int
	ApplicationStatus string

	completed       cel.Program
	fillPosition    cel.Program
	rewardRecruiter cel.Program
	completeApps    cel.Program
}

var newRulesEnv = func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("status", cel.StringType),
		cel.Variable("previous", cel.StringType),
	)
}

// ParseRules decodes and compiles a YAML rule document.
func ParseRules(data []byte, source string) (*Rules, error) {
	var doc rulesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rules %s: %w", source, err)
	}
	env, err := newRulesEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	r := &Rules{
		Source:            source,
		CandidateStatus:   doc.Application.CandidateStatus,
		RecruiterReward:   doc.Application.RecruiterReward,
		ApplicationStatus: strings.TrimSpace(doc.Candidate.ApplicationStatus),
	}
	if r.CandidateStatus == nil {
		r.CandidateStatus = map[string]string{}
	}
	if r.ApplicationStatus == "" {
		r.ApplicationStatus = "COMPLETED"
	}
	if r.RecruiterReward < 0 {
		return nil, fmt.Errorf("rules %s: recruiter_reward must not be negative", source)
	}

	compile := []struct {
		name string
		expr string
		dst  *cel.Program
	}{
		{"application.completed_when", doc.Application.CompletedWhen, &r.completed},
		{"application.fill_position_when", doc.Application.FillPositionWhen, &r.fillPosition},
		{"application.reward_recruiter_when", doc.Application.RewardRecruiterWhen, &r.rewardRecruiter},
		{"candidate.complete_applications_when", doc.Candidate.CompleteApplicationsWhen, &r.completeApps},
	}
	for _, c := range compile {
		p, err := compileCondition(env, c.expr)
		if err != nil {
			return nil, fmt.Errorf("rules %s: %s: %w", source, c.name, err)
		}
		*c.dst = p
	}
	return r, nil
}

// LoadRulesFile reads and compiles the rule file at path.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data, path)
}

// DefaultRules returns the embedded rule set.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML, "embedded")
	if err != nil {
		panic(fmt.Sprintf("embedded cascade rules invalid: %v", err))
	}
	return r
}

// An empty expression compiles to nil, which never fires.
func compileCondition(env *cel.Env, expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must evaluate to bool", expr)
	}
	return env.Program(ast)
}

func eval(p cel.Program, status, previous string) (bool, error) {
	if p == nil {
		return false, nil
	}
	out, _, err := p.Eval(map[string]any{"status": status, "previous": previous})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T", out.Value())
	}
	return v, nil
}

func (r *Rules) Completed(status, previous string) (bool, error) {
	return eval(r.completed, status, previous)
}

func (r *Rules) FillsPosition(status, previous string) (bool, error) {
	return eval(r.fillPosition, status, previous)
}

func (r *Rules) RewardsRecruiter(status, previous string) (bool, error) {
	return eval(r.rewardRecruiter, status, previous)
}

func (r *Rules) CompletesApplications(status, previous string) (bool, error) {
	return eval(r.completeApps, status, previous)
}

// CandidateStatusFor maps an application status to the candidate status, if any.
func (r *Rules) CandidateStatusFor(appStatus string) (string, bool) {
	v, ok := r.CandidateStatus[appStatus]
	return v, ok
}

// RuleSet holds the active rules and swaps them atomically on reload.
type RuleSet struct {
	current atomic.Pointer[Rules]
}

func NewRuleSet(initial *Rules) *RuleSet {
	rs := &RuleSet{}
	if initial == nil {
		initial = DefaultRules()
	}
	rs.current.Store(initial)
	return rs
}

func (rs *RuleSet) Current() *Rules {
	return rs.current.Load()
}

func (rs *RuleSet) Replace(r *Rules) {
	if r != nil {
		rs.current.Store(r)
	}
}
