package casemodel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
)

// SettingStore persists named sections to
// "<setting_path>/<Section>.setting" JSON files (spec §6's static setting
// store), a supplemented feature grounded on
// original_source/core/config/setting.py's StaticSettingManager. Every
// registered section writes its public (exported) fields; unknown keys on
// load are ignored.
type SettingStore struct {
	path string
}

// NewSettingStore binds a store to a setting directory.
func NewSettingStore(path string) *SettingStore {
	return &SettingStore{path: path}
}

// Load reads "<path>/<section>.setting" into into, a pointer to a struct.
// If the file does not exist, into keeps its zero values — the original's
// get_setting default-value fallback (a supplemented feature; see
// SPEC_FULL.md Part Four).
func (s *SettingStore) Load(section string, into any) error {
	p := filepath.Join(s.path, section+".setting")
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("casemodel: load setting %q: %w", section, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("casemodel: parse setting %q: %w", section, err)
	}

	v := reflect.ValueOf(into).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			key = tag
		}
		raw, ok := raw[key]
		if !ok {
			continue // unknown/missing keys are ignored on load
		}
		fv := v.Field(i)
		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
			continue
		}
		fv.Set(ptr.Elem())
	}
	return nil
}

// Save writes every exported field of from (a struct or pointer to one) to
// "<path>/<section>.setting".
func (s *SettingStore) Save(section string, from any) error {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return fmt.Errorf("casemodel: save setting %q: %w", section, err)
	}
	data, err := json.MarshalIndent(from, "", "  ")
	if err != nil {
		return fmt.Errorf("casemodel: save setting %q: %w", section, err)
	}
	p := filepath.Join(s.path, section+".setting")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("casemodel: save setting %q: %w", section, err)
	}
	return nil
}

// BindSettings loads a case's settings file if present, leaving into at its
// zero value otherwise.
func BindSettings(store *SettingStore, section string, into any) error {
	return store.Load(section, into)
}
