package testlist_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/testlist"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadRecursiveSubLists(t *testing.T) {
	dir := t.TempDir()
	subPath := filepath.Join(dir, "child.testlist")
	writeJSON(t, subPath, map[string]any{
		"name": "child", "description": "", "setting_path": "",
		"cases": []string{"pkg.CaseA"}, "sublist": []string{},
	})

	rootPath := filepath.Join(dir, "root.testlist")
	writeJSON(t, rootPath, map[string]any{
		"name": "root", "description": "", "setting_path": "",
		"cases": []string{}, "sublist": []string{"child.testlist"},
	})

	l, err := testlist.Load(rootPath, testlist.LoadOptions{})
	require.NoError(t, err)
	require.Len(t, l.SubLists, 1)
	require.Equal(t, "child", l.SubLists[0].Name)
}

func TestLoadSwallowsBrokenSubListByDefault(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.testlist")
	writeJSON(t, rootPath, map[string]any{
		"name": "root", "description": "", "setting_path": "",
		"cases": []string{}, "sublist": []string{"missing.testlist"},
	})

	l, err := testlist.Load(rootPath, testlist.LoadOptions{Strict: false})
	require.NoError(t, err)
	require.Empty(t, l.SubLists)
}

func TestLoadStrictSurfacesBrokenSubList(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.testlist")
	writeJSON(t, rootPath, map[string]any{
		"name": "root", "description": "", "setting_path": "",
		"cases": []string{}, "sublist": []string{"missing.testlist"},
	})

	_, err := testlist.Load(rootPath, testlist.LoadOptions{Strict: true})
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "root.testlist")
	writeJSON(t, path, map[string]any{
		"name": "root", "description": "desc", "setting_path": "",
		"cases": []string{"pkg.CaseA", "pkg.CaseB"}, "sublist": []string{},
	})

	l, err := testlist.Load(path, testlist.LoadOptions{})
	require.NoError(t, err)

	l.Description = "desc updated"
	require.NoError(t, l.Save())

	reloaded, err := testlist.Load(path, testlist.LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, "desc updated", reloaded.Description)
	require.Equal(t, l.Cases, reloaded.Cases)
}
