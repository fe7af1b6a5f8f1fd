package obslog_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/obslog"
)

func TestInfoWritesJSONLineWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := obslog.New(obslog.Config{Level: obslog.LevelInfo, Format: obslog.FormatJSON, Output: &buf})

	logger.Info("case started", map[string]any{"case": "pkg.CaseA"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "case started", line["message"])
	require.Equal(t, "pkg.CaseA", line["case"])
}

func TestDebugSuppressedBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := obslog.New(obslog.Config{Level: obslog.LevelWarn, Format: obslog.FormatJSON, Output: &buf})

	logger.Debug("should not appear", nil)
	require.Empty(t, buf.Bytes())
}

func TestWithAttachesFieldToChildLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := obslog.New(obslog.Config{Level: obslog.LevelInfo, Format: obslog.FormatJSON, Output: &buf})
	child := logger.With("run_id", "abc123")

	child.Info("tick", nil)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "abc123", line["run_id"])
}
