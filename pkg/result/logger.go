package result

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// CaseLogSink is a per-case log file, registered with the Reporter via
// RegisterCaseLogSink for the duration of one case's lifecycle, matching
// §6's "<case_log>/<ts>/<list-path>/<case>.log" layout. Internally it wraps
// a zerolog.Logger the same way the teacher's reporting.Logger wraps one,
// so case logs share the rest of the engine's structured-logging format.
type CaseLogSink struct {
	path   string
	file   *os.File
	zl     zerolog.Logger
	zip    bool
}

// NewCaseLogSink opens (creating parent directories) the log file for one
// case run.
func NewCaseLogSink(caseLogRoot, ts, listPath, caseName string, zip bool) (*CaseLogSink, error) {
	dir := filepath.Join(caseLogRoot, ts, listPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("case log sink: %w", err)
	}
	path := filepath.Join(dir, caseName+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("case log sink: %w", err)
	}
	zl := zerolog.New(f).With().Timestamp().Str("case", caseName).Logger()
	return &CaseLogSink{path: path, file: f, zl: zl, zip: zip}, nil
}

// Writeln satisfies the LogSink interface used by Reporter.WriteCaseLog.
func (c *CaseLogSink) Writeln(line string) {
	c.zl.Info().Msg(line)
}

// Close closes the underlying file. If the sink was opened with zip=true,
// Close instead archives the log into achieved_logs_<ts>.zip alongside it
// and deletes the raw file, per §6's log archive contract.
func (c *CaseLogSink) Close() error {
	if err := c.file.Close(); err != nil {
		return err
	}
	if !c.zip {
		return nil
	}
	return c.archiveAndRemove()
}

func (c *CaseLogSink) archiveAndRemove() error {
	dir := filepath.Dir(c.path)
	zipPath := filepath.Join(dir, fmt.Sprintf("achieved_logs_%s.zip", time.Now().Format("20060102-150405")))

	zf, err := os.OpenFile(zipPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("case log sink archive: %w", err)
	}
	defer zf.Close()

	zw := zip.NewWriter(zf)
	defer zw.Close()

	raw, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("case log sink archive: %w", err)
	}
	defer raw.Close()

	w, err := zw.Create(filepath.Base(c.path))
	if err != nil {
		return fmt.Errorf("case log sink archive: %w", err)
	}
	if _, err := io.Copy(w, raw); err != nil {
		return fmt.Errorf("case log sink archive: %w", err)
	}

	return os.Remove(c.path)
}

// Path returns the raw log file path (before any archival).
func (c *CaseLogSink) Path() string { return c.path }
