package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/datamove/internal/classify"
)

// Set is a collection of profiles keyed by name.
type Set map[string]*classify.Profile

// Names returns the profile names in lexical order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named profile.
func (s Set) Get(name string) (*classify.Profile, error) {
	p, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found (have %v)", name, s.Names())
	}
	return p, nil
}

// Load builds the CUE package in dir and compiles every profile under the
// top-level "profile" field. It fails on the first malformed profile.
func Load(dir string) (Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("profile directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("profile directory: not a directory: %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan profile directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("load CUE files: %w", err)
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return FromValue(value)
}

// FromValue compiles every profile under v's "profile" field.
func FromValue(v cue.Value) (Set, error) {
	profilesVal := v.LookupPath(cue.ParsePath("profile"))
	if !profilesVal.Exists() {
		return nil, &CompileError{Field: "profile", Message: "no profiles declared", Pos: v.Pos()}
	}
	iter, err := profilesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	set := make(Set)
	for iter.Next() {
		p, err := Compile(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("profile.%s: %w", iter.Selector(), err)
		}
		set[p.Name] = p
	}
	return set, nil
}

// Resolve returns the named profile from dir, or the built-in default
// profile when dir is empty. An empty name selects "default".
func Resolve(dir, name string) (*classify.Profile, error) {
	if name == "" {
		name = classify.DefaultProfileName
	}
	if dir == "" {
		if name != classify.DefaultProfileName {
			return nil, fmt.Errorf("profile %q requires a profile directory", name)
		}
		return classify.DefaultProfile(), nil
	}
	set, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return set.Get(name)
}
