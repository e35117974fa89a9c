package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
)

var (
	ErrPropertiesNotFound  = errors.New("properties file not found")
	ErrMalformedProperties = errors.New("malformed properties file")
)

// Properties holds the KEY=VALUE pairs read from a properties file.
// Keys are kept sorted so the environment handed to a child is stable.
type Properties struct {
	values map[string]string
	keys   []string
}

func NewProperties(values map[string]string) Properties {
	p := Properties{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.values[k] = v
		p.keys = append(p.keys, k)
	}
	sort.Strings(p.keys)
	return p
}

// ParseProperties reads dotenv formatted lines. Comment lines starting with
// '#' and blank lines are skipped.
func ParseProperties(r io.Reader) (Properties, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return Properties{}, fmt.Errorf("%w: %v", ErrMalformedProperties, err)
	}
	return NewProperties(values), nil
}

func LoadProperties(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Properties{}, fmt.Errorf("%w: %s", ErrPropertiesNotFound, path)
		}
		return Properties{}, fmt.Errorf("open properties %s: %w", path, err)
	}
	defer f.Close()

	props, err := ParseProperties(f)
	if err != nil {
		return Properties{}, fmt.Errorf("%s: %w", path, err)
	}
	return props, nil
}

func (p Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p Properties) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p Properties) Len() int {
	return len(p.keys)
}

// Environ returns the pairs in KEY=VALUE form, sorted by key.
func (p Properties) Environ() []string {
	env := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		env = append(env, k+"="+p.values[k])
	}
	return env
}
