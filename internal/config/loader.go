package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SYNCACCESS_"

// maxIncludeDepth limits nested @include directives.
const maxIncludeDepth = 8

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader assembles a Config from defaults, a TOML file and the environment.
type Loader struct {
	fs   FileSystem
	path string
	env  *EnvLoader
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem reads the TOML file through fsys.
func WithFileSystem(fsys FileSystem) LoaderOption {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithEnv replaces the environment layer. A nil loader disables it.
func WithEnv(env *EnvLoader) LoaderOption {
	return func(l *Loader) {
		l.env = env
	}
}

// NewLoader creates a loader for the TOML file at path. An empty path or
// a missing file leaves the file layer empty.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:   OSFS{},
		path: path,
		env:  NewEnvLoader(EnvPrefix),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the TOML file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads every layer, merges them and returns the validated result.
func (l *Loader) Load() (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	if l.path != "" {
		file, err := l.loadFile(l.path, maxIncludeDepth)
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, file)
	}

	if l.env != nil {
		env, err := l.env.Load()
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, env)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration at path with the default layers.
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// loadFile parses a TOML file and its @include directives. Included files
// have lower priority than the including file.
func (l *Loader) loadFile(path string, depth int) (map[string]any, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrIncludeDepthExceeded)
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	config, err := parseTOML(path, data)
	if err != nil {
		return nil, err
	}

	includes, ok := config["@include"]
	if !ok {
		return config, nil
	}
	delete(config, "@include")

	var list []string
	switch v := includes.(type) {
	case string:
		list = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: @include must be string or array of strings", path)
			}
			list = append(list, s)
		}
	default:
		return nil, fmt.Errorf("%s: @include must be string or array of strings, got %T", path, includes)
	}

	base := make(map[string]any)
	for _, inc := range list {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		sub, err := l.loadFile(inc, depth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", inc, err)
		}
		base = DeepMerge(base, sub)
	}
	return DeepMerge(base, config), nil
}

// parseTOML parses TOML data into a map.
func parseTOML(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}
	return config, nil
}

// ParseReader parses a TOML document on top of the defaults, without the
// environment layer.
func ParseReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	doc, err := parseTOML("<reader>", data)
	if err != nil {
		return nil, err
	}
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}
	cfg, err := fromMap(DeepMerge(merged, doc))
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(cfg)
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

// fromMap decodes a merged settings map, rejecting unknown keys.
func fromMap(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	cfg := &Config{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, &ParseError{Path: "<merged>", Message: strict.String(), Err: err}
		}
		return nil, &ParseError{Path: "<merged>", Message: err.Error(), Err: err}
	}
	if cfg.Styles == nil {
		cfg.Styles = map[string]uint32{}
	}
	return cfg, nil
}

// DeepMerge recursively merges src into dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	if src == nil {
		return dst
	}

	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			dst[key] = srcVal
			continue
		}

		// If both are maps, merge recursively
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = srcVal
		}
	}

	return dst
}
