package casemodel

import (
	"fmt"

	"github.com/jihwankim/caseforge/pkg/result"
)

// Evaluator is one precondition gate. Evaluate writes exactly one INFO step
// describing the outcome and returns whether the case may run.
type Evaluator interface {
	Evaluate(w ResultWriter) bool
}

// Chain runs evaluators in order and is the logical AND of all of them: the
// first failing evaluator short-circuits the rest (the case is skipped, not
// failed).
type Chain []Evaluator

// Run evaluates the chain; returns true iff every evaluator passed.
func (c Chain) Run(w ResultWriter) bool {
	for _, e := range c {
		if !e.Evaluate(w) {
			return false
		}
	}
	return true
}

// IsTestCaseType checks case.test_type & mask != 0.
type IsTestCaseType struct {
	CaseType TestType
	Mask     TestType
}

func (e IsTestCaseType) Evaluate(w ResultWriter) bool {
	ok := e.CaseType&e.Mask != 0
	if ok {
		w.Add(result.StatusInfo, "IsTestCaseType", "test type matches requested mask")
	} else {
		w.Add(result.StatusInfo, "IsTestCaseType", "test type does not match requested mask")
	}
	return ok
}

// IsTestCasePriority checks case.priority is in the given set, skipped
// (always true) when the list's priority_to_run is empty.
type IsTestCasePriority struct {
	Priority       int
	PriorityToRun  []int
}

func (e IsTestCasePriority) Evaluate(w ResultWriter) bool {
	if len(e.PriorityToRun) == 0 {
		w.Add(result.StatusInfo, "IsTestCasePriority", "no priority filter configured")
		return true
	}
	for _, p := range e.PriorityToRun {
		if p == e.Priority {
			w.Add(result.StatusInfo, "IsTestCasePriority", "priority is in the requested set")
			return true
		}
	}
	// Open question (b): the original passes what looks like a tuple to
	// reporter.add here due to a stray leading '+' before the f-string
	// argument; treated as a single formatted message in this rewrite.
	w.Add(result.StatusInfo, "IsTestCasePriority", fmt.Sprintf("priority %d is not in the requested set", e.Priority))
	return false
}

// IsPreCasePassed checks every name in case.pre_tests appears in results
// with Result == true; a missing name fails.
type IsPreCasePassed struct {
	PreTests []string
	Results  map[string]CaseResult
}

func (e IsPreCasePassed) Evaluate(w ResultWriter) bool {
	for _, name := range e.PreTests {
		r, ok := e.Results[name]
		if !ok || !r.Result {
			w.Add(result.StatusInfo, "IsPreCasePassed", fmt.Sprintf("%s的执行结果不成功", name))
			return false
		}
	}
	w.Add(result.StatusInfo, "IsPreCasePassed", "all pre-tests passed")
	return true
}

// IsHigherPriorityPassed is a no-op (always true) unless
// skip_if_high_priority_failed is set; otherwise every recorded case with a
// lower priority number (= higher priority) than threshold must have
// Result == true.
type IsHigherPriorityPassed struct {
	SkipIfHighPriorityFailed bool
	Threshold                int
	Results                  map[string]CaseResult
}

func (e IsHigherPriorityPassed) Evaluate(w ResultWriter) bool {
	if !e.SkipIfHighPriorityFailed {
		// Open question (a): the original returns None (falsy-looking but
		// meant as success) on this no-op path; treated explicitly as true.
		w.Add(result.StatusInfo, "IsHigherPriorityPassed", "skip_if_high_priority_failed not set")
		return true
	}
	for name, r := range e.Results {
		if r.Priority < e.Threshold && !r.Result {
			w.Add(result.StatusInfo, "IsHigherPriorityPassed", fmt.Sprintf("higher priority case %s did not pass", name))
			return false
		}
	}
	w.Add(result.StatusInfo, "IsHigherPriorityPassed", "all higher priority cases passed")
	return true
}
