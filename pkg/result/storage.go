package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Storage persists a run's result tree to disk as JSON, grounded on the
// teacher's pkg/reporting/storage.go — same save/list/cleanup shape,
// retargeted from a TestReport struct to a result.DictNode tree.
type Storage struct {
	outputDir string
	keepLastN int
}

// NewStorage returns a Storage rooted at outputDir, creating it if absent.
// keepLastN <= 0 disables retention cleanup.
func NewStorage(outputDir string, keepLastN int) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("result: create output dir: %w", err)
	}
	return &Storage{outputDir: outputDir, keepLastN: keepLastN}, nil
}

// SaveReport writes root's DictNode projection to
// "run-<stamp>-<label>.json" under the storage directory, then applies
// retention cleanup if configured.
func (s *Storage) SaveReport(root *Node, runStamp, label string) (string, error) {
	filename := fmt.Sprintf("run-%s-%s.json", runStamp, sanitizeLabel(label))
	path := filepath.Join(s.outputDir, filename)

	data, err := json.MarshalIndent(root.ToDict(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("result: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("result: write report: %w", err)
	}
	log.Info().Str("path", path).Msg("result report saved")

	if s.keepLastN > 0 {
		if err := s.cleanupOldReports(); err != nil {
			log.Warn().Err(err).Msg("result: report retention cleanup failed")
		}
	}
	return path, nil
}

// LoadReport reads a previously saved DictNode tree back from disk.
func (s *Storage) LoadReport(path string) (*DictNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("result: read report: %w", err)
	}
	var d DictNode
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("result: unmarshal report: %w", err)
	}
	return &d, nil
}

// reportFile pairs a stored report's path with its modification time, used
// to order retention cleanup newest-first.
type reportFile struct {
	path    string
	modTime time.Time
}

func (s *Storage) listReportFiles() ([]reportFile, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("result: read output dir: %w", err)
	}
	files := make([]reportFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, reportFile{path: filepath.Join(s.outputDir, e.Name()), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })
	return files, nil
}

// cleanupOldReports removes all but the keepLastN most recent report files.
func (s *Storage) cleanupOldReports() error {
	files, err := s.listReportFiles()
	if err != nil {
		return err
	}
	if len(files) <= s.keepLastN {
		return nil
	}
	for _, f := range files[s.keepLastN:] {
		if err := os.Remove(f.path); err != nil {
			log.Warn().Str("path", f.path).Err(err).Msg("result: failed to delete old report")
		}
	}
	return nil
}

func sanitizeLabel(label string) string {
	b := []byte(label)
	for i, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			b[i] = '_'
		}
	}
	if len(b) == 0 {
		return "run"
	}
	return string(b)
}
