package project

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"quill/internal/diag"
)

// DefaultMaxDiagnostics caps a run when neither config nor flags say otherwise.
const DefaultMaxDiagnostics = 200

// Config is the decoded quill.toml.
type Config struct {
	Check CheckConfig `toml:"check"`
	Trace TraceConfig `toml:"trace"`
	Cache CacheConfig `toml:"cache"`
}

type CheckConfig struct {
	// Jobs bounds parallel function checks; 0 means GOMAXPROCS.
	Jobs             int      `toml:"jobs"`
	MaxDiagnostics   int      `toml:"max_diagnostics"`
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
	NoWarnings       bool     `toml:"no_warnings"`
	Allow            []string `toml:"allow"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Dir is relative to the project root.
	Dir string `toml:"dir"`
}

// Manifest is a located and decoded quill.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// ErrBadConfig wraps every validation failure of quill.toml.
var ErrBadConfig = errors.New("invalid quill.toml")

// Default returns the configuration used without quill.toml.
func Default() Config {
	return Config{
		Check: CheckConfig{MaxDiagnostics: DefaultMaxDiagnostics},
		Trace: TraceConfig{Level: "off", Mode: "stream"},
		Cache: CacheConfig{Dir: ".quill/cache"},
	}
}

// LoadConfig decodes path on top of Default. Sections and keys that are
// absent keep their defaults; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrBadConfig, strings.Join(keys, ", "))
	}
	if meta.IsDefined("check", "max_diagnostics") && cfg.Check.MaxDiagnostics <= 0 {
		return Config{}, fmt.Errorf("%s: %w: [check].max_diagnostics must be positive", path, ErrBadConfig)
	}
	if cfg.Check.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: %w: [check].jobs must not be negative", path, ErrBadConfig)
	}
	if meta.IsDefined("cache", "dir") && strings.TrimSpace(cfg.Cache.Dir) == "" {
		return Config{}, fmt.Errorf("%s: %w: [cache].dir is empty", path, ErrBadConfig)
	}
	if _, err := cfg.Check.AllowedCodes(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds quill.toml above startDir and loads it. Without one the
// default configuration is returned with ok=false.
func Discover(startDir string) (*Manifest, bool, error) {
	manifestPath, err := FindManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	if manifestPath == "" {
		return &Manifest{Config: Default()}, false, nil
	}
	return Load(manifestPath)
}

// Load reads an explicit manifest path.
func Load(manifestPath string) (*Manifest, bool, error) {
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   rootOf(manifestPath),
		Config: cfg,
	}, true, nil
}

// AllowedCodes resolves [check].allow into diagnostic codes.
func (c CheckConfig) AllowedCodes() ([]diag.Code, error) {
	codes := make([]diag.Code, 0, len(c.Allow))
	for _, id := range c.Allow {
		code, ok := diag.ParseCode(id)
		if !ok {
			return nil, fmt.Errorf("%w: [check].allow: unknown code %q", ErrBadConfig, id)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
