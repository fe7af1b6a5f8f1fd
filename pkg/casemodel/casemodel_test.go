package casemodel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/casemodel"
	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/result"
)

// TestPreTestGating_S1 reproduces spec §8 scenario S1: case B has
// pre_tests=[A], A failed, so B's IsPreCasePassed gate fails with the
// documented Chinese message and the chain is false (case not invoked).
func TestPreTestGating_S1(t *testing.T) {
	r := result.New()
	r.AddTest("B")
	defer r.EndTest()

	gate := casemodel.IsPreCasePassed{
		PreTests: []string{"A"},
		Results: map[string]casemodel.CaseResult{
			"A": {Priority: 1, Result: false},
		},
	}
	ok := gate.Evaluate(r)
	require.False(t, ok)

	node := r.Root().Children[0]
	require.Len(t, node.Children, 1)
	require.Contains(t, node.Children[0].Message, "A的执行结果不成功")
}

func TestHigherPriorityGateIsNoOpByDefault(t *testing.T) {
	r := result.New()
	gate := casemodel.IsHigherPriorityPassed{SkipIfHighPriorityFailed: false}
	require.True(t, gate.Evaluate(r))
}

func TestHigherPriorityGateBlocksOnUnpassedHigherPriority(t *testing.T) {
	r := result.New()
	gate := casemodel.IsHigherPriorityPassed{
		SkipIfHighPriorityFailed: true,
		Threshold:                5,
		Results: map[string]casemodel.CaseResult{
			"X": {Priority: 1, Result: false},
		},
	}
	require.False(t, gate.Evaluate(r))
}

func TestIsTestCasePriority_EmptyFilterSkips(t *testing.T) {
	r := result.New()
	gate := casemodel.IsTestCasePriority{Priority: 7, PriorityToRun: nil}
	require.True(t, gate.Evaluate(r))
}

func TestRegistryResolvesModuleClassSettingFileForm(t *testing.T) {
	reg := casemodel.NewRegistry()
	d := casemodel.DefaultDescriptor()
	d.Priority = 3
	reg.Register("pkgname.CaseA", d)

	got, settingFile, err := reg.Resolve("pkgname.CaseA,custom.settings")
	require.NoError(t, err)
	require.Equal(t, 3, got.Priority)
	require.Equal(t, "custom.settings", settingFile)
}

func TestRegistryResolveUnknownFails(t *testing.T) {
	reg := casemodel.NewRegistry()
	_, _, err := reg.Resolve("pkgname.Missing")
	require.Error(t, err)
}

// substitutionCase exercises SubstituteMethodCalls's method dispatch.
type substitutionCase struct{}

func (substitutionCase) CollectResource(_ *resource.Pool) error { return nil }
func (substitutionCase) Setup() error                           { return nil }
func (substitutionCase) Test() error                            { return nil }
func (substitutionCase) Cleanup() error                          { return nil }
func (substitutionCase) Token() string                           { return "resolved" }

func TestDataDrivenSubstitution_S6Shape(t *testing.T) {
	record := map[string]any{"header": "%(name)s case", "value": "<func:Token>"}
	vars := map[string]any{"name": "record-1"}

	afterVars := casemodel.SubstituteVariables(record, vars)
	require.Equal(t, "record-1 case", afterVars["header"])

	afterFuncs, err := casemodel.SubstituteMethodCalls(afterVars, substitutionCase{})
	require.NoError(t, err)
	require.Equal(t, "resolved", afterFuncs["value"])
}
