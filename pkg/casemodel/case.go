// Package casemodel implements the base contract of a test case, an
// explicit case registry (REDESIGN FLAG, replacing dynamic class
// discovery), descriptor records (REDESIGN FLAG, replacing decorator
// metadata), and the declarative precondition evaluators.
package casemodel

import (
	"fmt"
	"strings"

	"github.com/jihwankim/caseforge/pkg/engineerr"
	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/result"
)

// TestType is a bitmask classifying a case (documented default: ALL).
type TestType uint32

const (
	TestTypeSmoke      TestType = 1 << iota
	TestTypeRegression
	TestTypeStress
	TestTypeFunctional
	TestTypeAll = TestTypeSmoke | TestTypeRegression | TestTypeStress | TestTypeFunctional
)

// Case is the four-phase lifecycle contract every test case implements.
type Case interface {
	CollectResource(pool *resource.Pool) error
	Setup() error
	Test() error
	Cleanup() error
}

// Settings is satisfied by a case's nested settings object when it wants
// per-case configuration bound from the static setting store.
type Settings any

// Descriptor is the descriptor record produced at registration time,
// replacing decorator-attached class metadata. Defaults match spec §4.C:
// {priority:999, test_type:ALL, pre_tests:[], skip_if_high_priority_failed:false}.
type Descriptor struct {
	Name                      string
	Priority                  int
	TestType                  TestType
	FeatureName               string
	TestCaseID                string
	PreTests                  []string
	SkipIfHighPriorityFailed  bool

	// DataFile, if non-empty, names the per-case JSON file (§4.C
	// "<case-file>.json") driving the data-driven wrap. A case whose
	// Factory produces a DataDrivenCase is only run record-by-record when
	// this is set; otherwise the runner calls its plain Test().
	DataFile string

	Factory func() Case
}

// DefaultDescriptor returns the documented defaults for a descriptor whose
// Factory and Name are then filled in by the registering package.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Priority: 999,
		TestType: TestTypeAll,
		PreTests: []string{},
	}
}

// Registry is an explicit case registry (REDESIGN FLAG) populated at build
// time via Register, replacing module-scan/import-based dynamic discovery.
// It preserves the original "module.Class[,setting_file]" textual form
// used by test list files: Register keys a descriptor by "module.Class".
type Registry struct {
	byRef map[string]Descriptor
}

// NewRegistry returns an empty case registry.
func NewRegistry() *Registry {
	return &Registry{byRef: map[string]Descriptor{}}
}

// Register associates a "module.Class" reference with a descriptor. Called
// at program init time by each case's own package, the idiomatic
// replacement for the original's import-and-scan discovery.
func (r *Registry) Register(ref string, d Descriptor) {
	d.Name = ref
	r.byRef[ref] = d
}

// Resolve parses a "module.Class[,setting_file]" case reference (the exact
// textual form used by test list files) and returns its descriptor plus the
// optional setting file name. A reference naming an unregistered case fails
// with engineerr.ErrCaseImport.
func (r *Registry) Resolve(caseRef string) (Descriptor, string, error) {
	ref := caseRef
	settingFile := ""
	if idx := strings.IndexByte(caseRef, ','); idx >= 0 {
		ref = strings.TrimSpace(caseRef[:idx])
		settingFile = strings.TrimSpace(caseRef[idx+1:])
	}
	d, ok := r.byRef[ref]
	if !ok {
		return Descriptor{}, "", fmt.Errorf("casemodel: %w: %q", engineerr.ErrCaseImport, ref)
	}
	return d, settingFile, nil
}

// CaseResult is the per-campaign case-result record consumed by subsequent
// preconditions (spec §3 "Case-result record"): priority plus a coarse
// pass/fail bit, pre-seeded to false before the case runs.
type CaseResult struct {
	Priority int
	Result   bool
}

// ResultWriter is the subset of result.Reporter the precondition evaluators
// and data-driven wrap need, named as an interface here so casemodel does
// not import the concrete Reporter type's full surface unnecessarily.
type ResultWriter interface {
	Add(status result.Status, header string, message string) *result.Node
}
