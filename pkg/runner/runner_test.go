package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/casemodel"
	"github.com/jihwankim/caseforge/pkg/engineerr"
	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/result"
	"github.com/jihwankim/caseforge/pkg/runner"
	"github.com/jihwankim/caseforge/pkg/testlist"
)

type scriptedCase struct {
	collectErr, setupErr, testErr, cleanupErr error
	cleanupCalled                             *bool
}

func (c scriptedCase) CollectResource(_ *resource.Pool) error { return c.collectErr }
func (c scriptedCase) Setup() error                           { return c.setupErr }
func (c scriptedCase) Test() error                             { return c.testErr }
func (c scriptedCase) Cleanup() error                          {
	if c.cleanupCalled != nil {
		*c.cleanupCalled = true
	}
	return c.cleanupErr
}

func newList(t *testing.T, cases []string) *testlist.List {
	t.Helper()
	return &testlist.List{
		Name:     "root",
		Cases:    cases,
		Settings: testlist.DefaultSettings(),
	}
}

func TestRunnerStartFailsWithoutPoolOrList(t *testing.T) {
	reg := casemodel.NewRegistry()
	r := runner.New(result.New(), reg)
	err := r.Start(context.Background())
	require.ErrorIs(t, err, engineerr.ErrEngineNotReady)
}

func TestRunnerRunsPassingCase(t *testing.T) {
	reg := casemodel.NewRegistry()
	d := casemodel.DefaultDescriptor()
	d.Factory = func() casemodel.Case { return scriptedCase{} }
	reg.Register("pkg.Pass", d)

	rep := result.New()
	r := runner.New(rep, reg)
	r.LoadPool(resource.NewPool(resource.NewRegistry()))
	r.LoadTestList(newList(t, []string{"pkg.Pass"}))

	require.NoError(t, r.Start(context.Background()))
	r.WaitForTestDone()

	results := r.Results()
	require.True(t, results["pkg.Pass"].Result)
}

func TestRunnerCleanupStillRunsAfterSetupFailure(t *testing.T) {
	reg := casemodel.NewRegistry()
	cleanupCalled := false
	d := casemodel.DefaultDescriptor()
	d.Factory = func() casemodel.Case {
		return scriptedCase{setupErr: errors.New("boom"), cleanupCalled: &cleanupCalled}
	}
	reg.Register("pkg.SetupFails", d)

	rep := result.New()
	r := runner.New(rep, reg)
	r.LoadPool(resource.NewPool(resource.NewRegistry()))
	r.LoadTestList(newList(t, []string{"pkg.SetupFails"}))

	require.NoError(t, r.Start(context.Background()))
	r.WaitForTestDone()

	require.True(t, cleanupCalled)
	results := r.Results()
	require.False(t, results["pkg.SetupFails"].Result)
}

func TestRunnerSkipsCleanupWhenCollectResourceFails(t *testing.T) {
	reg := casemodel.NewRegistry()
	cleanupCalled := false
	d := casemodel.DefaultDescriptor()
	d.Factory = func() casemodel.Case {
		return scriptedCase{collectErr: errors.New("no resource"), cleanupCalled: &cleanupCalled}
	}
	reg.Register("pkg.CollectFails", d)

	rep := result.New()
	r := runner.New(rep, reg)
	r.LoadPool(resource.NewPool(resource.NewRegistry()))
	r.LoadTestList(newList(t, []string{"pkg.CollectFails"}))

	require.NoError(t, r.Start(context.Background()))
	r.WaitForTestDone()

	require.False(t, cleanupCalled)
}

func TestRunnerUnregisteredCaseReportsError(t *testing.T) {
	reg := casemodel.NewRegistry()
	rep := result.New()
	r := runner.New(rep, reg)
	r.LoadPool(resource.NewPool(resource.NewRegistry()))
	r.LoadTestList(newList(t, []string{"pkg.Missing"}))

	require.NoError(t, r.Start(context.Background()))
	r.WaitForTestDone()

	node := rep.SearchResult("pkg.Missing")
	require.NotNil(t, node)
	require.Equal(t, result.StatusError, node.Status)
}

func TestRunnerHigherPriorityGateSkipsLowerPriorityCase(t *testing.T) {
	reg := casemodel.NewRegistry()
	ran := false
	high := casemodel.DefaultDescriptor()
	high.Priority = 1
	high.Factory = func() casemodel.Case {
		return scriptedCase{testErr: errors.New("fails")}
	}
	reg.Register("pkg.High", high)

	low := casemodel.DefaultDescriptor()
	low.Priority = 5
	low.SkipIfHighPriorityFailed = true
	low.Factory = func() casemodel.Case {
		ran = true
		return scriptedCase{}
	}
	reg.Register("pkg.Low", low)

	rep := result.New()
	r := runner.New(rep, reg)
	r.LoadPool(resource.NewPool(resource.NewRegistry()))
	r.LoadTestList(newList(t, []string{"pkg.High", "pkg.Low"}))

	require.NoError(t, r.Start(context.Background()))
	r.WaitForTestDone()

	require.False(t, ran)
}

// dataDrivenCase reproduces spec §8 scenario S6: three records, the middle
// one raises inside TestRecord with stop_on_error=false, the third still
// runs.
type dataDrivenCase struct {
	seen *[]string
}

func (c dataDrivenCase) CollectResource(_ *resource.Pool) error { return nil }
func (c dataDrivenCase) Setup() error                           { return nil }
func (c dataDrivenCase) Test() error                            { return nil }
func (c dataDrivenCase) Cleanup() error                         { return nil }
func (c dataDrivenCase) StopOnError() bool                      { return false }
func (c dataDrivenCase) TestRecord(record map[string]any) error {
	name, _ := record["name"].(string)
	*c.seen = append(*c.seen, name)
	if name == "record-2" {
		return errors.New("record 2 raised")
	}
	return nil
}

func TestRunnerDataDrivenIteration_S6(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "case.json")
	data, err := json.Marshal(map[string]any{
		"data": []map[string]any{
			{"header": "record_1", "name": "record-1"},
			{"header": "record_2", "name": "record-2"},
			{"header": "record_3", "name": "record-3"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dataPath, data, 0o644))

	var seen []string
	reg := casemodel.NewRegistry()
	d := casemodel.DefaultDescriptor()
	d.DataFile = dataPath
	d.Factory = func() casemodel.Case { return dataDrivenCase{seen: &seen} }
	reg.Register("pkg.DataDriven", d)

	rep := result.New()
	r := runner.New(rep, reg)
	r.LoadPool(resource.NewPool(resource.NewRegistry()))
	r.LoadTestList(newList(t, []string{"pkg.DataDriven"}))

	require.NoError(t, r.Start(context.Background()))
	r.WaitForTestDone()

	require.Equal(t, []string{"record-1", "record-2", "record-3"}, seen)

	caseNode := rep.SearchResult("pkg.DataDriven")
	require.NotNil(t, caseNode)
	var testGroup *result.Node
	for _, c := range caseNode.Children {
		if c.Header == "TEST" {
			testGroup = c
		}
	}
	require.NotNil(t, testGroup)
	// Three record step groups, then the TEST phase's own PASS step.
	require.Len(t, testGroup.Children, 4)
	require.Equal(t, "TEST", testGroup.Children[3].Header)

	require.Equal(t, "record_1", testGroup.Children[0].Header)
	require.Equal(t, result.StatusPass, testGroup.Children[0].Status)

	require.Equal(t, "record_2", testGroup.Children[1].Header)
	require.Equal(t, result.StatusException, testGroup.Children[1].Status)
	var exceptionChild *result.Node
	for _, c := range testGroup.Children[1].Children {
		if c.Status == result.StatusException {
			exceptionChild = c
		}
	}
	require.NotNil(t, exceptionChild)

	require.Equal(t, "record_3", testGroup.Children[2].Header)
	require.Equal(t, result.StatusPass, testGroup.Children[2].Status)

	// The mid-record exception still promotes the case node's overall
	// status (the promotion rule recurses unconditionally), even though
	// stop_on_error=false let record 3 run — status promotion and
	// continue-vs-abort are separate concerns.
	results := r.Results()
	require.False(t, results["pkg.DataDriven"].Result)
}
