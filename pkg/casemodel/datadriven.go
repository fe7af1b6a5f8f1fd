package casemodel

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"

	"github.com/jihwankim/caseforge/pkg/engineerr"
)

// DataFile is the JSON shape of a case's data-driven wrap file
// ("<case-file>.json"), §4.C.
type DataFile struct {
	Data []map[string]any `json:"data"`
}

// LoadDataFile reads and parses a case's data file.
func LoadDataFile(path string) (*DataFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("casemodel: read data file: %w", err)
	}
	var df DataFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("casemodel: parse data file: %w", err)
	}
	return &df, nil
}

var varSubstitutionPattern = regexp.MustCompile(`%\(([A-Za-z_][A-Za-z0-9_]*)\)s`)
var funcSubstitutionPattern = regexp.MustCompile(`<func:([A-Za-z_][A-Za-z0-9_]*)>`)

// SubstituteVariables recursively replaces "%(name)s" tokens in every
// string value of record using vars, the first of the two data-driven
// substitution stages.
func SubstituteVariables(record map[string]any, vars map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = substituteValue(v, vars)
	}
	return out
}

func substituteValue(v any, vars map[string]any) any {
	switch t := v.(type) {
	case string:
		return varSubstitutionPattern.ReplaceAllStringFunc(t, func(m string) string {
			name := varSubstitutionPattern.FindStringSubmatch(m)[1]
			if val, ok := vars[name]; ok {
				return fmt.Sprintf("%v", val)
			}
			return m
		})
	case map[string]any:
		return SubstituteVariables(t, vars)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = substituteValue(e, vars)
		}
		return out
	default:
		return v
	}
}

// SubstituteMethodCalls performs the second substitution stage: every
// "<func:name>" token in a string value is replaced by invoking the case's
// method named "name" (no arguments, returning a value convertible to
// string). A token naming a method the case does not have fails with
// engineerr.ErrMethodNotFound.
func SubstituteMethodCalls(record map[string]any, c Case) (map[string]any, error) {
	out := make(map[string]any, len(record))
	for k, v := range record {
		nv, err := substituteMethodValue(v, c)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

func substituteMethodValue(v any, c Case) (any, error) {
	switch t := v.(type) {
	case string:
		var outerErr error
		result := funcSubstitutionPattern.ReplaceAllStringFunc(t, func(m string) string {
			name := funcSubstitutionPattern.FindStringSubmatch(m)[1]
			val, err := invokeMethod(c, name)
			if err != nil {
				outerErr = err
				return m
			}
			return fmt.Sprintf("%v", val)
		})
		if outerErr != nil {
			return nil, outerErr
		}
		return result, nil
	case map[string]any:
		return SubstituteMethodCalls(t, c)
	default:
		return v, nil
	}
}

// invokeMethod calls a zero-argument method named name on c via reflection.
func invokeMethod(c Case, name string) (any, error) {
	v := reflect.ValueOf(c)
	m := v.MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("casemodel: %w: %q", engineerr.ErrMethodNotFound, name)
	}
	results := m.Call(nil)
	if len(results) == 0 {
		return "", nil
	}
	return results[0].Interface(), nil
}

// DataDrivenCase is implemented by cases whose Test method runs once per
// data record rather than once per case.
type DataDrivenCase interface {
	Case
	TestRecord(record map[string]any) error
	// StopOnError, if true, means a record-level exception propagates
	// instead of becoming an EXCEPTION step and continuing.
	StopOnError() bool
}
