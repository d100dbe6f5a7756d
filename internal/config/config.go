// Package config handles vero.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chriserin/vero/internal/compiler"
	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/transpiler"
)

// FileName is the name of the project configuration file.
const FileName = "vero.toml"

// Config represents a vero.toml project configuration.
type Config struct {
	Project     Project     `toml:"project"`
	Source      Source      `toml:"source"`
	Output      Output      `toml:"output"`
	Diagnostics Diagnostics `toml:"diagnostics"`
	Codegen     Codegen     `toml:"codegen"`

	// Dir is the directory containing the vero.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Source configures source file locations.
type Source struct {
	Dirs []string `toml:"dirs"`
}

// Output configures where generated files go.
type Output struct {
	Dir         string `toml:"dir"`
	Screenshots string `toml:"screenshots"`
}

// Diagnostics tunes "did you mean" suggestions.
type Diagnostics struct {
	MaxDistance    int `toml:"max-distance"`
	MaxSuggestions int `toml:"max-suggestions"`
}

// Codegen tunes the generated TypeScript.
type Codegen struct {
	ScrollAmount  int    `toml:"scroll-amount"`
	RuntimeImport string `toml:"runtime-import"`
}

// Default returns the configuration used when a key is missing.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses a vero.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a vero.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	if len(c.Source.Dirs) == 0 {
		c.Source.Dirs = []string{"vero"}
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "generated"
	}
	if c.Output.Screenshots == "" {
		c.Output.Screenshots = transpiler.DefaultScreenshotDir
	}
	if c.Diagnostics.MaxDistance <= 0 {
		c.Diagnostics.MaxDistance = diag.DefaultMaxDistance
	}
	if c.Diagnostics.MaxSuggestions <= 0 {
		c.Diagnostics.MaxSuggestions = diag.DefaultMaxResults
	}
	if c.Codegen.ScrollAmount <= 0 {
		c.Codegen.ScrollAmount = transpiler.DefaultScrollAmount
	}
	if c.Codegen.RuntimeImport == "" {
		c.Codegen.RuntimeImport = transpiler.DefaultRuntimeImport
	}
}

// CompilerOptions converts the configuration into pipeline options.
func (c *Config) CompilerOptions() compiler.Options {
	return compiler.Options{
		Suggester: diag.Suggester{
			MaxDistance: c.Diagnostics.MaxDistance,
			MaxResults:  c.Diagnostics.MaxSuggestions,
		},
		Codegen: transpiler.Options{
			ScrollAmount:  c.Codegen.ScrollAmount,
			RuntimeImport: c.Codegen.RuntimeImport,
			ScreenshotDir: c.Output.Screenshots,
		},
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (c *Config) SourceDirPaths() []string {
	var paths []string
	for _, d := range c.Source.Dirs {
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}

// OutputPath returns the absolute path of the generated output directory.
func (c *Config) OutputPath() string {
	return filepath.Join(c.Dir, c.Output.Dir)
}

// IndexPath returns the path to .vero/index.db.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Dir, ".vero", "index.db")
}
