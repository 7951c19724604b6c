package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/animedata/jikan"
	"github.com/jonwraymond/animedata/observe"
)

// DefaultServiceName names the telemetry resource when the file does not.
const DefaultServiceName = "animectl"

var (
	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("config: file not found")

	// ErrInvalidFormat indicates the file is not valid YAML for this schema.
	ErrInvalidFormat = errors.New("config: invalid format")

	// ErrMissingEnv indicates a ${VAR} reference with no such variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")

	// ErrValidationFailed indicates a section failed validation.
	ErrValidationFailed = errors.New("config: validation failed")
)

// File is the full configuration document.
type File struct {
	Client  jikan.Config   `yaml:"client"`
	Observe observe.Config `yaml:"observe"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Client:  jikan.DefaultConfig(),
		Observe: observe.DefaultConfig(DefaultServiceName),
	}
}

// Load reads and validates the file at path. An empty path yields Default.
func Load(path string) (File, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return File{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a YAML document over the defaults and validates it.
func Decode(r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("config: read: %w", err)
	}

	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return File{}, err
	}

	cfg := Default()
	if len(bytes.TrimSpace([]byte(expanded))) > 0 {
		dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Validate checks both sections.
func (f *File) Validate() error {
	if err := f.Client.Validate(); err != nil {
		return fmt.Errorf("%w: client: %w", ErrValidationFailed, err)
	}
	if err := f.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrValidationFailed, err)
	}
	return nil
}
