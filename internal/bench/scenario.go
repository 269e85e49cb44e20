package bench

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/pvec"
)

// Execution modes.
const (
	ModePersistent = "persistent"
	ModeTransient  = "transient"
)

// defaultElements is the operation budget used when a scenario does
// not set one.
const defaultElements = 10_000

// Scenario describes one benchmark workload.
type Scenario struct {
	// Name identifies the scenario in reports. Defaults to the file
	// name without extension.
	Name string `toml:"name"`

	// Elements is the element count the vector is prefilled to and
	// the number of mix operations each iteration performs.
	Elements int `toml:"elements"`

	// Iterations repeats the workload on a fresh vector. Each
	// iteration derives its own seed, so iterations differ from each
	// other but are identical across runs.
	Iterations int `toml:"iterations"`

	// Mode selects persistent (path-copying) or transient (in-place)
	// mutation.
	Mode string `toml:"mode"`

	// Seed makes the operation stream reproducible.
	Seed int64 `toml:"seed"`

	// Policy is the memory policy under test.
	Policy PolicyConfig `toml:"policy"`

	// Mix weights the operations of the generated stream. Ignored
	// when Script is set.
	Mix Mix `toml:"mix"`

	// Data optionally sources element values from a JSON file.
	Data *DataSource `toml:"data"`

	// Script optionally replaces the generated mix with a Lua
	// workload.
	Script *ScriptRef `toml:"script"`
}

// PolicyConfig maps scenario TOML onto vector construction options.
type PolicyConfig struct {
	// MoveReuse toggles Detach tree adoption. Unset means the library
	// default (on).
	MoveReuse *bool `toml:"move_reuse"`

	// Pooling recycles released nodes through a sync.Pool.
	Pooling bool `toml:"pooling"`

	// EagerSizeTables forces size tables onto every fresh inner node.
	EagerSizeTables bool `toml:"eager_size_tables"`
}

// Options converts the config into construction options. Defaults
// produce no options at all, which keeps the library's nil-policy
// fast path.
func (p PolicyConfig) Options() []pvec.Option {
	var opts []pvec.Option
	if p.MoveReuse != nil {
		opts = append(opts, pvec.WithMoveReuse(*p.MoveReuse))
	}
	if p.Pooling {
		opts = append(opts, pvec.WithPooling(true))
	}
	if p.EagerSizeTables {
		opts = append(opts, pvec.WithEagerSizeTables(true))
	}
	return opts
}

// Mix holds relative operation weights. Weights need not sum to any
// particular total; zero disables an operation.
type Mix struct {
	Append  int `toml:"append"`
	Set     int `toml:"set"`
	Update  int `toml:"update"`
	Take    int `toml:"take"`
	Drop    int `toml:"drop"`
	Iterate int `toml:"iterate"`
}

func (m Mix) total() int {
	return m.Append + m.Set + m.Update + m.Take + m.Drop + m.Iterate
}

// DataSource names a JSON file and a gjson path selecting the element
// values.
type DataSource struct {
	File string `toml:"file"`
	Path string `toml:"path"`
}

// ScriptRef names a Lua workload file.
type ScriptRef struct {
	File string `toml:"file"`
}

// Load reads a scenario from a TOML file. Relative data and script
// paths resolve against the scenario file's directory.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if sc.Name == "" {
		base := filepath.Base(path)
		sc.Name = base[:len(base)-len(filepath.Ext(base))]
	}

	baseDir := filepath.Dir(path)
	if sc.Data != nil && sc.Data.File != "" && !filepath.IsAbs(sc.Data.File) {
		sc.Data.File = filepath.Join(baseDir, sc.Data.File)
	}
	if sc.Script != nil && sc.Script.File != "" && !filepath.IsAbs(sc.Script.File) {
		sc.Script.File = filepath.Join(baseDir, sc.Script.File)
	}

	return sc, nil
}

// Parse decodes scenario TOML, applies defaults, and validates.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := toml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) applyDefaults() {
	if s.Elements == 0 {
		s.Elements = defaultElements
	}
	if s.Iterations <= 0 {
		s.Iterations = 1
	}
	if s.Mode == "" {
		s.Mode = ModePersistent
	}
}

// Validate rejects scenarios the runner cannot execute.
func (s *Scenario) Validate() error {
	if s.Elements < 0 {
		return fmt.Errorf("elements must be positive, got %d", s.Elements)
	}
	switch s.Mode {
	case ModePersistent, ModeTransient:
	default:
		return fmt.Errorf("unknown mode %q (want %q or %q)", s.Mode, ModePersistent, ModeTransient)
	}
	for name, w := range map[string]int{
		"append":  s.Mix.Append,
		"set":     s.Mix.Set,
		"update":  s.Mix.Update,
		"take":    s.Mix.Take,
		"drop":    s.Mix.Drop,
		"iterate": s.Mix.Iterate,
	} {
		if w < 0 {
			return fmt.Errorf("mix weight %s must not be negative, got %d", name, w)
		}
	}
	if s.Script == nil && s.Mix.total() == 0 {
		return fmt.Errorf("scenario has no operations: set a mix or a script")
	}
	if s.Script != nil && s.Script.File == "" {
		return fmt.Errorf("script table needs a file")
	}
	if s.Data != nil {
		if s.Data.File == "" {
			return fmt.Errorf("data table needs a file")
		}
		if s.Data.Path == "" {
			return fmt.Errorf("data table needs a gjson path")
		}
	}
	return nil
}
