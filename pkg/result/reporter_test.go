package result_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/result"
)

func TestStatusPromotion(t *testing.T) {
	r := result.New()
	caseNode := r.AddTest("CaseA")
	r.AddStepGroup("SETUP")
	r.Add(result.StatusFail, "step one", "something failed")
	r.EndStepGroup()
	r.EndTest()

	require.Equal(t, result.StatusFail, caseNode.Status, "invariant 1: case status equals max severity of its steps")
}

func TestInfoNeverPromotes(t *testing.T) {
	r := result.New()
	caseNode := r.AddTest("CaseB")
	r.Add(result.StatusInfo, "just info", "")
	require.Equal(t, result.StatusPass, caseNode.Status, "a leaf INFO must not change any ancestor's status")
	r.EndTest()
}

func TestEndTestRestoresCursorDespiteUnbalancedStepGroups(t *testing.T) {
	r := result.New()
	r.AddTest("CaseC")
	r.AddStepGroup("SETUP")
	r.AddStepGroup("nested") // left open on purpose
	r.EndTest()

	list := r.AddList("ListX")
	require.Equal(t, "ListX", list.Header)
	r.EndList()
}

func TestGetTestPointStats(t *testing.T) {
	r := New_stats_fixture()
	stats := result.GetTestPointStats(r.Root())
	require.Equal(t, 1, stats[result.StatusFail])
	require.Equal(t, 1, stats[result.StatusPass])
}

func New_stats_fixture() *result.Reporter {
	r := result.New()
	r.AddTest("Case1")
	r.Add(result.StatusFail, "bad step", "")
	r.EndTest()
	r.AddTest("Case2")
	r.Add(result.StatusPass, "good step", "")
	r.EndTest()
	return r
}

func TestToDictRoundTripIsLossless(t *testing.T) {
	r := result.New()
	caseNode := r.AddTest("CaseD")
	r.Add(result.StatusWarning, "warn step", "careful")
	r.EndTest()

	d := caseNode.ToDict()
	require.Equal(t, "CaseD", d.Header)
	require.Equal(t, "WARNING", d.Status)
	require.Len(t, d.Children, 1)
	require.Equal(t, "warn step", d.Children[0].Header)
	require.Equal(t, "careful", d.Children[0].Message)
}

func TestHaltOnFailureSuspendsUntilReleased(t *testing.T) {
	r := result.New()
	r.SetHalt(true, false)

	done := make(chan struct{})
	go func() {
		r.Add(result.StatusFail, "blocking step", "")
		close(done)
	}()

	released := false
	for !released {
		released = r.Halt().Release()
	}

	<-done
}
