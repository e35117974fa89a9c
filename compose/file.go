package compose

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrComposeFileNotFound = errors.New("compose file not found")
	ErrUnknownService      = errors.New("service not declared in compose file")
)

// File is the slice of a compose file the launcher cares about.
type File struct {
	Name     string             `yaml:"name"`
	Services map[string]Service `yaml:"services"`
}

type Service struct {
	Image    string   `yaml:"image"`
	Build    any      `yaml:"build"`
	Profiles []string `yaml:"profiles"`
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrComposeFileNotFound, path)
		}
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// ServiceNames returns the declared services in sorted order.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *File) HasService(name string) bool {
	_, ok := f.Services[name]
	return ok
}

func Services(path string) ([]string, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return f.ServiceNames(), nil
}

// CheckFile fails if path is missing. When service is set it must be
// declared in the file.
func CheckFile(path, service string) error {
	if service == "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrComposeFileNotFound, path)
			}
			return err
		}
		return nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return err
	}
	if !f.HasService(service) {
		return fmt.Errorf("%w: %q in %s", ErrUnknownService, service, path)
	}
	return nil
}
