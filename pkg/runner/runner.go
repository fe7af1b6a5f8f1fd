package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jihwankim/caseforge/pkg/casemodel"
	"github.com/jihwankim/caseforge/pkg/engineerr"
	"github.com/jihwankim/caseforge/pkg/logicmodule"
	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/result"
	"github.com/jihwankim/caseforge/pkg/testlist"
)

// Runner drives one campaign: a loaded resource pool, a loaded (recursive)
// test list, and the case registry used to resolve each case reference.
type Runner struct {
	mu       sync.Mutex
	state    State
	reporter *result.Reporter
	registry *casemodel.Registry
	modules  *logicmodule.Manager

	pool *resource.Pool
	list *testlist.List

	caseLogRoot string
	caseLogZip  bool
	runStamp    string

	results       map[string]casemodel.CaseResult
	stopRequested bool
	done          chan struct{}
}

// New creates an idle runner bound to a reporter and a case registry.
func New(reporter *result.Reporter, registry *casemodel.Registry) *Runner {
	return &Runner{
		reporter: reporter,
		registry: registry,
		results:  map[string]casemodel.CaseResult{},
	}
}

// SetModules attaches the PRE/PARALLEL/POST logic module manager. Optional —
// a nil manager means no hooks fire.
func (r *Runner) SetModules(m *logicmodule.Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = m
}

// SetCaseLogRoot configures where per-case log files are written and
// whether they are zipped on case completion (spec §6's
// "<case_log>/<ts>/<list-path>/<case>.log" layout).
func (r *Runner) SetCaseLogRoot(path string, zip bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caseLogRoot = path
	r.caseLogZip = zip
}

// LoadPool binds the resource pool the campaign runs against.
func (r *Runner) LoadPool(pool *resource.Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pool = pool
}

// LoadTestList binds the (already recursively loaded) test list to run.
func (r *Runner) LoadTestList(list *testlist.List) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = list
}

// State reports the runner's current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start launches the campaign in a background goroutine. It fails fast with
// engineerr.ErrEngineNotReady if no pool or no test list has been loaded.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.pool == nil || r.list == nil {
		r.mu.Unlock()
		return fmt.Errorf("runner: %w: pool and test list must be loaded before Start", engineerr.ErrEngineNotReady)
	}
	if r.state == StateRunning {
		r.mu.Unlock()
		return fmt.Errorf("runner: %w: already running", engineerr.ErrEngineNotReady)
	}
	r.state = StateRunning
	r.stopRequested = false
	r.runStamp = time.Now().Format("20060102-150405")
	r.done = make(chan struct{})
	list := r.list
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		r.runList(ctx, list)
		r.mu.Lock()
		r.state = StateIdle
		r.mu.Unlock()
	}()
	return nil
}

// WaitForTestDone blocks until the in-flight campaign's goroutine returns.
func (r *Runner) WaitForTestDone() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop requests cooperative cancellation: the main DFS loop checks this flag
// between cases and between sub-lists, it does not preempt a case already in
// flight.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopRequested = true
}

// RunStamp returns the "20060102-150405" timestamp of the most recent
// Start call, used to name persisted result reports and case log
// directories consistently.
func (r *Runner) RunStamp() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runStamp
}

func (r *Runner) shouldStop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRequested
}

// Results returns a snapshot of the per-case result map accumulated so far.
func (r *Runner) Results() map[string]casemodel.CaseResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]casemodel.CaseResult, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out
}

func (r *Runner) runList(ctx context.Context, list *testlist.List) {
	r.reporter.AddList(list.Name)
	defer r.reporter.EndList()

	for _, ref := range list.Cases {
		if r.shouldStop() {
			return
		}
		r.runCase(ctx, list, ref)
	}
	for _, sub := range list.SubLists {
		if r.shouldStop() {
			return
		}
		r.runList(ctx, sub)
	}
}

// runCase resolves one "module.Class[,setting_file]" reference, evaluates
// its precondition chain, and — if the chain passes — runs its four-phase
// lifecycle, grounded on original_source/core/testengine/caserunner.py.
func (r *Runner) runCase(ctx context.Context, list *testlist.List, ref string) {
	descriptor, _, err := r.registry.Resolve(ref)
	if err != nil {
		r.reporter.AddTest(ref)
		r.reporter.Add(result.StatusError, "Resolve", err.Error())
		r.reporter.EndTest()
		return
	}

	caseNode := r.reporter.AddTest(descriptor.Name)
	defer r.reporter.EndTest()

	r.mu.Lock()
	r.results[descriptor.Name] = casemodel.CaseResult{Priority: descriptor.Priority, Result: false}
	r.mu.Unlock()

	mask := casemodel.TestTypeAll
	if list.Settings.RunType >= 0 {
		mask = casemodel.TestType(list.Settings.RunType)
	}
	threshold := descriptor.Priority
	skipIfHigherFailed := list.Settings.SkipIfHighPriorityFailed || descriptor.SkipIfHighPriorityFailed

	chain := casemodel.Chain{
		casemodel.IsTestCaseType{CaseType: descriptor.TestType, Mask: mask},
		casemodel.IsTestCasePriority{Priority: descriptor.Priority, PriorityToRun: list.Settings.PriorityToRun},
		casemodel.IsPreCasePassed{PreTests: descriptor.PreTests, Results: r.results},
		casemodel.IsHigherPriorityPassed{SkipIfHighPriorityFailed: skipIfHigherFailed, Threshold: threshold, Results: r.results},
	}
	if !chain.Run(r.reporter) {
		return
	}

	if descriptor.Factory == nil {
		r.reporter.Add(result.StatusError, "Factory", "case has no registered factory")
		return
	}
	inst := descriptor.Factory()

	sink, sinkErr := r.openCaseLogSink(list, descriptor.Name)
	if sinkErr == nil && sink != nil {
		r.reporter.RegisterCaseLogSink(caseNode, sink)
		defer func() {
			r.reporter.UnregisterCaseLogSink(caseNode)
			_ = sink.Close()
		}()
	}

	var parallelInstances []logicmodule.Module
	if r.modules != nil {
		preInstances := r.modules.GetModuleInstances(logicmodule.TypePre)
		for _, e := range logicmodule.RunModule(ctx, logicmodule.TypePre, preInstances, r.reporter, r.pool) {
			r.reporter.Add(result.StatusError, "PreModule", e.Error())
		}
		parallelInstances = r.modules.GetModuleInstances(logicmodule.TypeParallel)
		logicmodule.RunModule(ctx, logicmodule.TypeParallel, parallelInstances, r.reporter, r.pool)
		defer logicmodule.StopModule(parallelInstances)
	}

	ok := r.runPhase("COLLECT_RESOURCE", func() error { return inst.CollectResource(r.pool) })
	if ok {
		ok = r.runPhase("SETUP", inst.Setup)
		if ok {
			r.runPhase("TEST", func() error { return r.runTest(inst, descriptor) })
		}
		// Cleanup runs whenever CollectResource succeeded, regardless of
		// whether Setup or Test failed.
		r.runPhase("CLEANUP", inst.Cleanup)
	}

	if r.modules != nil {
		postInstances := r.modules.GetModuleInstances(logicmodule.TypePost)
		for _, e := range logicmodule.RunModule(ctx, logicmodule.TypePost, postInstances, r.reporter, r.pool) {
			r.reporter.Add(result.StatusError, "PostModule", e.Error())
		}
	}

	// spec §4.E point 5: a case is recorded as passed only on exact PASS,
	// matching original_source/core/testengine/caserunner.py's
	// `== StepResult.PASS` check — WARNING does not count as a pass.
	success := caseNode.Status == result.StatusPass
	r.mu.Lock()
	r.results[descriptor.Name] = casemodel.CaseResult{Priority: descriptor.Priority, Result: success}
	r.mu.Unlock()
}

// runTest drives the TEST phase. A case whose descriptor names a DataFile
// and whose Factory-produced instance implements casemodel.DataDrivenCase
// runs the §4.C data-driven wrap (one step group per record, two
// substitution stages, then TestRecord); any other case just calls Test().
func (r *Runner) runTest(inst casemodel.Case, descriptor casemodel.Descriptor) error {
	dd, ok := inst.(casemodel.DataDrivenCase)
	if !ok || descriptor.DataFile == "" {
		return inst.Test()
	}

	df, err := casemodel.LoadDataFile(descriptor.DataFile)
	if err != nil {
		return err
	}

	for i, record := range df.Data {
		header, _ := record["header"].(string)
		if header == "" {
			header = fmt.Sprintf("record_%d", i+1)
		}

		r.reporter.AddStepGroup(header)
		err := r.runDataDrivenRecord(dd, record)
		if err != nil {
			r.reporter.Add(result.StatusException, "TestRecord", err.Error())
			r.reporter.EndStepGroup()
			if dd.StopOnError() {
				return err
			}
			continue
		}
		r.reporter.Add(result.StatusPass, "TestRecord", "")
		r.reporter.EndStepGroup()
	}
	return nil
}

// runDataDrivenRecord runs the two substitution stages and then TestRecord
// for a single data-file record, recovering a panic the same way safeCall
// does for the whole-phase case.
func (r *Runner) runDataDrivenRecord(dd casemodel.DataDrivenCase, record map[string]any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	substituted := casemodel.SubstituteVariables(record, record)
	substituted, err = casemodel.SubstituteMethodCalls(substituted, dd)
	if err != nil {
		return err
	}
	return dd.TestRecord(substituted)
}

// runPhase runs one lifecycle phase under its own step group, converting any
// returned error (or recovered panic) into a single EXCEPTION step, and
// reports whether the phase completed without one.
func (r *Runner) runPhase(name string, fn func() error) (ok bool) {
	r.reporter.AddStepGroup(name)
	defer r.reporter.EndStepGroup()

	err := safeCall(fn)
	if err != nil {
		r.reporter.Add(result.StatusException, name, err.Error())
		return false
	}
	r.reporter.Add(result.StatusPass, name, "")
	return true
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

func (r *Runner) openCaseLogSink(list *testlist.List, caseName string) (*result.CaseLogSink, error) {
	r.mu.Lock()
	root, zip, stamp := r.caseLogRoot, r.caseLogZip, r.runStamp
	r.mu.Unlock()
	if root == "" {
		return nil, nil
	}
	safeName := strings.NewReplacer(",", "_", "/", "_").Replace(caseName)
	return result.NewCaseLogSink(root, stamp, list.Name, safeName, zip)
}
