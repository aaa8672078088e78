package model

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/timewinder-dev/unwind/sched"
	"github.com/timewinder-dev/unwind/script"
	"github.com/timewinder-dev/unwind/trace"
	"gopkg.in/yaml.v3"
)

const DefaultMaxTurns = 64

type Scenario struct {
	Scenario ScenarioDetails `toml:"Scenario" yaml:"scenario"`
	Expect   Expectations    `toml:"Expect" yaml:"expect"`

	// Source holds the script text when it was read from somewhere other
	// than the local filesystem.
	Source []byte `toml:"-" yaml:"-"`
}

type ScenarioDetails struct {
	File     string `toml:",omitempty" yaml:"file,omitempty"`
	MaxTurns int    `toml:",omitempty" yaml:"max_turns,omitempty"`
	// By default an unhandled error ends the run like a crashed process:
	// nothing left in the queue is drained.
	ContinueAfterCrash bool `toml:",omitempty" yaml:"continue_after_crash,omitempty"`
}

// Expectations are outcome patterns, see MatchOutcome. Empty means unchecked.
type Expectations struct {
	Main      string   `toml:",omitempty" yaml:"main,omitempty"`
	Callbacks []string `toml:",omitempty" yaml:"callbacks,omitempty"`
}

type format int

const (
	formatTOML format = iota
	formatYAML
)

func formatFor(name string) format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatTOML
	}
}

func parseScenario(f io.Reader, fm format) (*Scenario, error) {
	var out Scenario
	switch fm {
	case formatYAML:
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&out); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		if _, err := toml.NewDecoder(f).Decode(&out); err != nil {
			return nil, err
		}
	}
	if out.Scenario.MaxTurns < 0 {
		return nil, fmt.Errorf("max turns must not be negative, got %d", out.Scenario.MaxTurns)
	}
	if out.Scenario.MaxTurns == 0 {
		out.Scenario.MaxTurns = DefaultMaxTurns
	}
	return &out, nil
}

// scriptNameFor swaps the description's extension for .star.
func scriptNameFor(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + ".star"
}

func LoadScenarioFromFile(p string) (*Scenario, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := parseScenario(f, formatFor(p))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	if s.Scenario.File == "" {
		s.Scenario.File = scriptNameFor(filepath.Base(p))
	}
	filedir := filepath.Dir(p)
	s.Scenario.File = filepath.Clean(filepath.Join(filedir, s.Scenario.File))
	return s, nil
}

// LoadScenarioFromFS loads a description and its script from fsys.
func LoadScenarioFromFS(fsys fs.FS, p string) (*Scenario, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}
	s, err := parseScenario(bytes.NewReader(data), formatFor(p))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	if s.Scenario.File == "" {
		s.Scenario.File = scriptNameFor(path.Base(p))
	}
	s.Scenario.File = path.Join(path.Dir(p), s.Scenario.File)
	s.Source, err = fs.ReadFile(fsys, s.Scenario.File)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// BuildRunner wires a fresh scheduler, trace log and interpreter for one run
// of s. A nil store gets an in-memory one.
func (s *Scenario) BuildRunner(store trace.Store) (*Runner, error) {
	if s.Source == nil {
		if _, err := os.Stat(s.Scenario.File); err != nil {
			return nil, err
		}
	}
	if store == nil {
		store = NewStore()
	}
	l := trace.NewLog(store)
	sch := sched.New(nil)
	return &Runner{
		Scenario:  s,
		Scheduler: sch,
		Log:       l,
		Interp:    script.New(sch, l),
		Reporter:  &SilentReporter{},
	}, nil
}

// NewStore is the snapshot store runs use by default.
func NewStore() trace.Store {
	return trace.NewLRUCache(trace.NewMemoryStore(), 10000)
}
