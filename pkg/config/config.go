// Package config loads and saves the engine's own YAML configuration file —
// distinct from the JSON wire formats (resource files, test lists, setting
// files) spec.md defines, which each have their own loaders. Grounded on
// the teacher's pkg/config/config.go, trimmed of chaos-scenario-only
// sections and extended with the case-runner's own knobs (case log root,
// lock timeout, halt/emergency stop file, REST bind address).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine's top-level configuration.
type Config struct {
	Framework  FrameworkConfig  `yaml:"framework"`
	Kurtosis   KurtosisConfig   `yaml:"kurtosis"`
	Docker     DockerConfig     `yaml:"docker"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Reporting  ReportingConfig  `yaml:"reporting"`
	Emergency  EmergencyConfig  `yaml:"emergency"`
	Runner     RunnerConfig     `yaml:"runner"`
	RestAPI    RestAPIConfig    `yaml:"rest_api"`
}

// FrameworkConfig contains general engine settings.
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// KurtosisConfig contains Kurtosis enclave discovery settings. They are
// loaded but not read by resource/kurtosiscomm.DiscoverFromEnclave, which
// takes the enclave name as an argument.
type KurtosisConfig struct {
	EnclaveName string `yaml:"enclave_name"`
}

// DockerConfig contains docker-backed device settings. They are loaded but
// not read by resource/dockercomm.Factory.
type DockerConfig struct {
	SidecarImage string `yaml:"sidecar_image"`
	PullPolicy   string `yaml:"pull_policy"`
}

// PrometheusConfig contains the metrics scrape/push endpoint settings. They
// are loaded but not read by pkg/obsmetrics.
type PrometheusConfig struct {
	URL             string        `yaml:"url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// ReportingConfig contains result-tree and case-log output settings.
type ReportingConfig struct {
	OutputDir   string `yaml:"output_dir"`
	CaseLogDir  string `yaml:"case_log_dir"`
	ZipCaseLogs bool   `yaml:"zip_case_logs"`
	KeepLastN   int    `yaml:"keep_last_n"`
}

// EmergencyConfig contains halt-on-failure/exception and emergency-stop
// settings consumed by result.Reporter.SetHalt and a stop-file watcher.
type EmergencyConfig struct {
	StopFile        string `yaml:"stop_file"`
	HaltOnFailure   bool   `yaml:"halt_on_failure"`
	HaltOnException bool   `yaml:"halt_on_exception"`
}

// RunnerConfig contains case-runner and lock-pool settings.
type RunnerConfig struct {
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// RestAPIConfig contains the REST facade's bind address.
type RestAPIConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Kurtosis: KurtosisConfig{
			EnclaveName: "",
		},
		Docker: DockerConfig{
			PullPolicy: "if_not_present",
		},
		Prometheus: PrometheusConfig{
			URL:             "http://localhost:9090",
			Timeout:         30 * time.Second,
			RefreshInterval: 15 * time.Second,
		},
		Reporting: ReportingConfig{
			OutputDir:  "./reports",
			CaseLogDir: "./case-logs",
			KeepLastN:  50,
		},
		Emergency: EmergencyConfig{
			StopFile: "/tmp/caseforge-emergency-stop",
		},
		Runner: RunnerConfig{
			LockTimeout: 60 * time.Second,
		},
		RestAPI: RestAPIConfig{
			Address: ":8088",
		},
	}
}

// Load reads a YAML config file, falling back to DefaultConfig if path does
// not exist. Environment variables in the file content are expanded before
// parsing, matching the teacher's ${VAR}/$VAR substitution convention.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %q: %w", path, err)
	}
	return nil
}

// Validate checks the handful of settings the engine cannot safely default
// around.
func (c *Config) Validate() error {
	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("config: reporting.output_dir is required")
	}
	if c.Runner.LockTimeout <= 0 {
		return fmt.Errorf("config: runner.lock_timeout must be positive")
	}
	return nil
}
