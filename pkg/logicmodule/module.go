// Package logicmodule implements named hook modules run PRE / PARALLEL /
// POST around each case, grounded on
// original_source/core/config/logicmodule.py.
package logicmodule

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/result"
)

// Type classifies when a module runs relative to a case.
type Type int

const (
	TypePre Type = iota
	TypeParallel
	TypePost
)

func (t Type) String() string {
	switch t {
	case TypePre:
		return "PRE"
	case TypeParallel:
		return "PARALLEL"
	case TypePost:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

// Module is one hook instance. Do runs the hook; Stop must interrupt a
// PARALLEL module cooperatively (Do is expected to watch ctx.Done()).
type Module interface {
	Do(ctx context.Context, reporter *result.Reporter, pool *resource.Pool) error
	Stop()
}

// Factory builds a fresh Module instance for one case invocation.
type Factory func() Module

// Descriptor is a registered module's metadata, persisted to the
// module-list JSON file.
type Descriptor struct {
	Name        string `json:"name"`
	Type        Type   `json:"-"`
	TypeName    string `json:"type"`
	Priority    int    `json:"priority"`
	SettingFile string `json:"setting_file"`
	SettingPath string `json:"setting_path"`
}

// Manager is a registry (name -> descriptor) persisted to a JSON
// module-list file, plus the in-memory factories needed to actually
// instantiate modules (the JSON file alone cannot carry Go constructors).
type Manager struct {
	path        string
	descriptors map[string]Descriptor
	factories   map[string]Factory
	order       []string
}

// NewManager creates an empty manager bound to a module-list file path.
func NewManager(path string) *Manager {
	return &Manager{
		path:        path,
		descriptors: map[string]Descriptor{},
		factories:   map[string]Factory{},
	}
}

// Register associates a name with a descriptor and a factory, in
// registration order — replacing the original's implicit import-order
// registration with an explicit call, the same REDESIGN FLAG pattern used
// by casemodel.Registry.
func (m *Manager) Register(name string, typ Type, priority int, settingFile, settingPath string, f Factory) {
	m.descriptors[name] = Descriptor{
		Name: name, Type: typ, TypeName: typ.String(), Priority: priority,
		SettingFile: settingFile, SettingPath: settingPath,
	}
	m.factories[name] = f
	m.order = append(m.order, name)
}

// Save persists the current descriptor set to the module-list JSON file.
func (m *Manager) Save() error {
	list := make([]Descriptor, 0, len(m.order))
	for _, name := range m.order {
		list = append(list, m.descriptors[name])
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("logicmodule: marshal module list: %w", err)
	}
	return os.WriteFile(m.path, data, 0o644)
}

// GetModuleInstances returns fresh instances for the given phase, in
// ascending Priority, ties kept in registration order.
func (m *Manager) GetModuleInstances(typ Type) []Module {
	var names []string
	for _, name := range m.order {
		if m.descriptors[name].Type == typ {
			names = append(names, name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return m.descriptors[names[i]].Priority < m.descriptors[names[j]].Priority
	})

	out := make([]Module, 0, len(names))
	for _, name := range names {
		out = append(out, m.factories[name]())
	}
	return out
}

// RunModule runs every PRE/POST module of typ synchronously (blocking,
// priority order) and every PARALLEL module as a background goroutine that
// the caller must later stop with StopModule. This resolves §9 open
// question (e): the original's run_module/stop_module are empty stubs
// despite being called from caserunner.py — here they have real behavior,
// because the runner's main loop genuinely depends on them.
func RunModule(ctx context.Context, typ Type, instances []Module, reporter *result.Reporter, pool *resource.Pool) []error {
	if typ == TypeParallel {
		for _, inst := range instances {
			go func(inst Module) {
				_ = inst.Do(ctx, reporter, pool)
			}(inst)
		}
		return nil
	}

	var errs []error
	for _, inst := range instances {
		if err := inst.Do(ctx, reporter, pool); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// StopModule cooperatively stops every PARALLEL module instance previously
// started by RunModule.
func StopModule(instances []Module) {
	for _, inst := range instances {
		inst.Stop()
	}
}
