// Package project reads and writes cstmt.yaml, the per-directory settings
// file used when commands are run without explicit source files.
package project

import (
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const FileName = "cstmt.yaml"

type Config struct {
	Name     string       `yaml:"name"`
	Version  string       `yaml:"version"`
	Requires string       `yaml:"requires,omitempty"`
	Sources  []string     `yaml:"sources"`
	Output   string       `yaml:"output"`
	Parser   ParserConfig `yaml:"parser"`

	// Dir is the directory the file was loaded from. Relative paths in the
	// file are resolved against it.
	Dir string `yaml:"-"`
}

type ParserConfig struct {
	MaxDepth  int `yaml:"max_depth,omitempty"`
	MaxErrors int `yaml:"max_errors,omitempty"`
}

func (c *Config) CreateDefault(name string) {
	if name == "." || name == "" {
		name = "NewProject"
	}
	c.Name = name
	c.Version = "0.1.0"
	c.Sources = []string{"src/*.c"}
	c.Output = "build"
}

// Save writes c to path. An existing file is replaced only when overwrite is
// set or confirm approves; the result reports whether anything was written.
func (c *Config) Save(path string, overwrite bool, confirm func(prompt string) bool) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		if !overwrite && (confirm == nil || !confirm(path+" already exists. Overwrite?")) {
			return false, nil
		}
	}

	yml, err := yaml.Marshal(c)
	if err != nil {
		return false, errors.Wrap(err, "encoding project config")
	}
	if err := os.WriteFile(path, yml, 0644); err != nil {
		return false, errors.Wrapf(err, "writing %s", path)
	}
	return true, nil
}

// Load reads FileName from dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var conf Config
	if err := yaml.NewDecoder(file).Decode(&conf); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	conf.Dir = dir
	return &conf, nil
}

// CheckVersion fails when the running tool does not satisfy Requires.
func (c *Config) CheckVersion(tool string) error {
	if c.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return errors.Wrapf(err, "invalid requires constraint %q", c.Requires)
	}
	v, err := semver.NewVersion(tool)
	if err != nil {
		return errors.Wrapf(err, "invalid tool version %q", tool)
	}
	if !constraint.Check(v) {
		return errors.Errorf("project %s requires cstmt %s, have %s", c.Name, c.Requires, tool)
	}
	return nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// OutputDir is where build writes its files, or "" when unset.
func (c *Config) OutputDir() string {
	return c.resolve(c.Output)
}

// SourceFiles expands the Sources globs. Patterns that match nothing are
// skipped.
func (c *Config) SourceFiles() ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range c.Sources {
		pattern = c.resolve(pattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad source pattern %q", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}
