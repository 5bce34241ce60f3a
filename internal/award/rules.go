package award

import (
	"context"
	"fmt"

	"awardbook/internal/records"
)

// Severity captures rule outcomes.
type Severity string

// Severities decide whether a save may proceed.
const (
	// SeverityBlock stops the database from being saved.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported but allows saving.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Table    string
	Key      string
}

// Result aggregates rule violations.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	n := 0
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			n++
		}
	}
	return fmt.Sprintf("save blocked by %d rule violation(s)", n)
}

// Rule inspects the whole database.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, db *records.Database) (Result, error)
}

// Engine orchestrates rule evaluation.
type Engine struct {
	rules []Rule
}

// NewEngine constructs an empty engine.
func NewEngine() *Engine {
	return &Engine{}
}

// NewDefaultEngine builds an engine with the built-in rule set.
func NewDefaultEngine() *Engine {
	e := NewEngine()
	e.Register(SectionReportUniqueRule())
	e.Register(StudentSectionLinksRule())
	e.Register(CredentialOwnerRule())
	e.Register(ResourceParentRule())
	return e
}

// Register appends a rule to the engine.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules lists the registered rule names.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate executes all registered rules and aggregates their results.
func (e *Engine) Evaluate(ctx context.Context, db *records.Database) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := rule.Evaluate(ctx, db)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}
