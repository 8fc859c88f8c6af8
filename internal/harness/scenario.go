package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one rewrite test case.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Graph is the path of the input graph file.
	Graph string `yaml:"graph"`

	// Profile selects the accelerator profile. Defaults to "default".
	Profile string `yaml:"profile,omitempty"`

	// ProfileDir is a CUE profile directory. When empty the built-in default
	// profile is used.
	ProfileDir string `yaml:"profile_dir,omitempty"`

	// RunID pins the recorded run id. Defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Expect holds the pass result checks.
	Expect Expect `yaml:"expect"`

	// Assertions are additional checks on the rewritten graph.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect checks the pass result. Nil fields are not checked.
type Expect struct {
	Modified *bool    `yaml:"modified,omitempty"`
	Inserted *int     `yaml:"inserted,omitempty"`
	Order    []string `yaml:"order,omitempty"`
}

// Assertion checks one property of the rewritten graph.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Target is the call target (target_count, output_target).
	Target string `yaml:"target,omitempty"`

	// Targets is the expected relative order (target_order).
	Targets []string `yaml:"targets,omitempty"`

	// Count is the expected number of calls (target_count).
	Count int `yaml:"count,omitempty"`

	// Line is a rendered node line (contains_line).
	Line string `yaml:"line,omitempty"`

	// Index is the output position (output_target).
	Index int `yaml:"index,omitempty"`
}

// Assertion type constants.
const (
	AssertTargetCount  = "target_count"
	AssertTargetOrder  = "target_order"
	AssertContainsLine = "contains_line"
	AssertOutputTarget = "output_target"
	AssertComplete     = "complete"
)

// LoadScenario reads a scenario file and resolves its paths relative to the
// file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Graph = resolve(base, scenario.Graph)
	scenario.ProfileDir = resolve(base, scenario.ProfileDir)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}
	if _, err := os.Stat(s.Graph); err != nil {
		return fmt.Errorf("graph file not found: %s", s.Graph)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTargetCount:
		if a.Target == "" {
			return fmt.Errorf("target_count requires target")
		}
	case AssertTargetOrder:
		if len(a.Targets) < 2 {
			return fmt.Errorf("target_order requires at least two targets")
		}
	case AssertContainsLine:
		if a.Line == "" {
			return fmt.Errorf("contains_line requires line")
		}
	case AssertOutputTarget:
		if a.Target == "" {
			return fmt.Errorf("output_target requires target")
		}
		if a.Index < 0 {
			return fmt.Errorf("output_target index must not be negative")
		}
	case AssertComplete:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
