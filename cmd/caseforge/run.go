package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jihwankim/caseforge/pkg/casemodel"
	"github.com/jihwankim/caseforge/pkg/config"
	"github.com/jihwankim/caseforge/pkg/emergency"
	"github.com/jihwankim/caseforge/pkg/obslog"
	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/resource/dockercomm"
	"github.com/jihwankim/caseforge/pkg/runner"
	"github.com/jihwankim/caseforge/pkg/testlist"

	"github.com/docker/docker/client"

	"github.com/jihwankim/caseforge/pkg/result"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Load a resource pool and test list, then run the case runner",
	RunE:  runCaseRunner,
}

func init() {
	runCmd.Flags().String("setting", "", "path to the static setting store directory (required)")
	runCmd.Flags().String("testlist", "", "path to the root test list file (required)")
	runCmd.Flags().String("resource", "", "path to the resource pool JSON file (required)")
	runCmd.Flags().String("user", "", "reservation owner for the resource pool (required)")
	_ = runCmd.MarkFlagRequired("setting")
	_ = runCmd.MarkFlagRequired("testlist")
	_ = runCmd.MarkFlagRequired("resource")
	_ = runCmd.MarkFlagRequired("user")
}

func runCaseRunner(cmd *cobra.Command, args []string) error {
	settingPath, _ := cmd.Flags().GetString("setting")
	testlistPath, _ := cmd.Flags().GetString("testlist")
	resourcePath, _ := cmd.Flags().GetString("resource")
	user, _ := cmd.Flags().GetString("user")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("caseforge: failed to load engine config: %w", err)
	}

	logLevel := obslog.LevelInfo
	if verbose {
		logLevel = obslog.LevelDebug
	}
	logger := obslog.New(obslog.Config{Level: logLevel, Format: obslog.Format(cfg.Framework.LogFormat), Output: os.Stdout})
	logger.Info("caseforge starting", map[string]any{"version": version})

	reg := resource.NewRegistry()
	if cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation()); err == nil {
		reg.RegisterDeviceFactory("docker-container", dockercomm.NewFactory(cli).Build)
	} else {
		logger.Warn("docker client unavailable, docker-backed devices will fail to connect", map[string]any{"error": err.Error()})
	}

	logger.Info("loading resource pool", map[string]any{"path": resourcePath, "user": user})
	pool, err := resource.LoadPool(resourcePath, reg, user)
	if err != nil {
		return fmt.Errorf("caseforge: failed to load resource pool: %w", err)
	}

	logger.Info("loading test list", map[string]any{"path": testlistPath})
	list, err := testlist.Load(testlistPath, testlist.LoadOptions{})
	if err != nil {
		return fmt.Errorf("caseforge: failed to load test list: %w", err)
	}

	caseRegistry := casemodel.NewRegistry()
	_ = settingPath // the --setting value is not passed to the runner or to any casemodel.SettingStore

	rep := result.New()
	rep.SetHalt(cfg.Emergency.HaltOnFailure, cfg.Emergency.HaltOnException)

	r := runner.New(rep, caseRegistry)
	r.SetCaseLogRoot(cfg.Reporting.CaseLogDir, cfg.Reporting.ZipCaseLogs)
	r.LoadPool(pool)
	r.LoadTestList(list)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	estop := emergency.New(emergency.Config{StopFile: cfg.Emergency.StopFile, EnableSignalHandlers: true})
	estop.OnStop(r.Stop)
	estop.Start(ctx)
	defer estop.RemoveStopFile()

	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("caseforge: failed to start case runner: %w", err)
	}
	r.WaitForTestDone()

	fmt.Println(rep.Root().ToText(0))

	if cfg.Reporting.OutputDir != "" {
		store, err := result.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN)
		if err != nil {
			return fmt.Errorf("caseforge: failed to open report storage: %w", err)
		}
		if _, err := store.SaveReport(rep.Root(), r.RunStamp(), list.Name); err != nil {
			return fmt.Errorf("caseforge: failed to save report: %w", err)
		}
	}
	return nil
}
