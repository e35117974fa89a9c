package config

import (
	"fmt"
	"path/filepath"
)

const (
	DefaultPropertiesFile = "env.properties"
	DefaultProdFile       = "docker-compose.prod.yml"
	DefaultStagingFile    = "docker-compose.sg.yml"
	DefaultDevFile        = "docker-compose.yml"
	DefaultHistoryFile    = ".launch/history.db"
)

// Config is built once from flags and handed by value to everything that
// launches compose. Nothing reads launcher settings from the process
// environment after this point.
type Config struct {
	Dir            string
	PropertiesFile string

	// ComposeBin is the compose executable followed by any leading
	// arguments, e.g. ["docker", "compose"]. Empty means auto-detect.
	ComposeBin []string

	ProdFile    string
	StagingFile string
	DevFile     string

	HistoryFile string

	Strict  bool
	DryRun  bool
	Verbose bool

	Properties Properties
}

func DefaultConfig() Config {
	return Config{
		Dir:            ".",
		PropertiesFile: DefaultPropertiesFile,
		ProdFile:       DefaultProdFile,
		StagingFile:    DefaultStagingFile,
		DevFile:        DefaultDevFile,
		HistoryFile:    DefaultHistoryFile,
	}
}

// Resolve makes p relative to the working directory unless it is absolute.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, p)
}

// AbsDir pins Dir to an absolute path so the compose child, which runs with
// Dir as its working directory, sees the same files the launcher checked.
func (c Config) AbsDir() (Config, error) {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return c, fmt.Errorf("project directory %s: %w", dir, err)
	}
	c.Dir = abs
	return c, nil
}
