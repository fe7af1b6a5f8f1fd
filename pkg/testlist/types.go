// Package testlist implements the recursive test list loader: nested JSON
// test lists with per-list settings, grounded on
// original_source/core/testengine/testlist.py.
package testlist

// Settings is a test list's per-list execution settings (spec §3/§6).
type Settings struct {
	RandomSeed                int    `json:"random_seed"`
	CaseSettingPath           string `json:"case_setting_path"`
	SkipIfHighPriorityFailed  bool   `json:"skip_if_high_priority_failed"`
	FollowPriority            bool   `json:"follow_priority"`
	RunType                   int    `json:"run_type"`
	PriorityToRun             []int  `json:"priority_to_run"`
}

// DefaultSettings mirrors the original's TestListSetting nested-class
// defaults.
func DefaultSettings() Settings {
	return Settings{
		RunType:       -1, // -1 == "all bits", i.e. no type filtering
		PriorityToRun: []int{},
	}
}

// List is a named, recursive grouping of cases (spec §3 Test List).
type List struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SettingPath string   `json:"setting_path"`
	Cases       []string `json:"cases"`
	SubListRefs []string `json:"sublist"`

	// Settings is loaded separately (see loader.go) from
	// "<setting_path>/<basename>.settings"; it is never read from the list
	// file itself.
	Settings Settings `json:"-"`

	// SubLists holds the recursively loaded children, in SubListRefs order;
	// a sub-list whose load failed is simply absent (see Open Question (c)
	// in DESIGN.md / SPEC_FULL.md).
	SubLists []*List `json:"-"`

	// sourcePath is the file this list was loaded from, used to resolve
	// SubListRefs relative paths and to round-trip Save.
	sourcePath string
}

// SourcePath returns the file path this list was loaded from.
func (l *List) SourcePath() string { return l.sourcePath }
