package model

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed demos
var demoFS embed.FS

// DemoNames lists the built-in tutorial scenarios.
func DemoNames() []string {
	entries, err := fs.ReadDir(demoFS, "demos")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".toml") {
			out = append(out, strings.TrimSuffix(e.Name(), ".toml"))
		}
	}
	sort.Strings(out)
	return out
}

func LoadDemo(name string) (*Scenario, error) {
	s, err := LoadScenarioFromFS(demoFS, path.Join("demos", name+".toml"))
	if err != nil {
		return nil, fmt.Errorf("no demo %q (have %s): %w", name, strings.Join(DemoNames(), ", "), err)
	}
	return s, nil
}
