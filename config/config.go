// Package config resolves the generator's own settings: which optional
// probes run, where the artifact goes, and how timestamps are rendered.
//
// Values are resolved via a priority chain, lowest to highest:
//
//	code defaults -> buildstamp.yaml -> .env file -> OS environment -> CLI flags
//
// Capability selection happens exactly once here; a disabled probe never
// executes and its descriptor field is absent.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"buildstamp/descriptor"
)

// envPrefix is prepended to every environment key, e.g. BUILDSTAMP_OUTPUT.
const envPrefix = "buildstamp"

// ConfigFile is the conventional name of the optional YAML config file,
// looked up in the source directory.
const ConfigFile = "buildstamp.yaml"

// Probes selects which optional probes run. Disabling one is equivalent to
// its input always being unavailable.
type Probes struct {
	VCS       bool `yaml:"vcs"`
	LockFile  bool `yaml:"lockfile"`
	SemVer    bool `yaml:"semver"`
	Timestamp bool `yaml:"timestamp"`
}

// Config is the generator configuration, populated once at startup and
// immutable thereafter.
type Config struct {
	Output     string `yaml:"output" validate:"required"`
	Package    string `yaml:"package" validate:"required"`
	SrcDir     string `yaml:"src_dir" envconfig:"SRC_DIR" validate:"required"`
	TimeFormat string `yaml:"time_format" envconfig:"TIME_FORMAT" validate:"oneof=date date-time rfc3339"`
	LogLevel   string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Probes     Probes `yaml:"probes"`
}

// Default returns the code-level defaults: artifact buildinfo.go in the
// current directory, package buildinfo, every probe enabled.
func Default() Config {
	return Config{
		Output:     "buildinfo.go",
		Package:    "buildinfo",
		SrcDir:     ".",
		TimeFormat: "rfc3339",
		LogLevel:   "info",
		Probes: Probes{
			VCS:       true,
			LockFile:  true,
			SemVer:    true,
			Timestamp: true,
		},
	}
}

// Load resolves the configuration chain. A missing buildstamp.yaml or .env
// file is not an error; a present-but-malformed one is.
func Load(srcDir string) (Config, error) {
	cfg := Default()
	if srcDir != "" {
		cfg.SrcDir = srcDir
	}

	if err := overlayYAML(&cfg); err != nil {
		return Config{}, err
	}

	// .env values become part of the environment, so envconfig sees them.
	// Real environment variables win because godotenv never overwrites.
	dotenv := filepath.Join(cfg.SrcDir, ".env")
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, &descriptor.ConfigError{Key: dotenv, Err: err}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, &descriptor.ConfigError{Key: "environment", Err: err}
	}

	return cfg, nil
}

// Validate checks the assembled configuration, including flag overrides
// applied after Load.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return &descriptor.ConfigError{
				Key: f.StructNamespace(),
				Err: fmt.Errorf("failed %q validation on value %q", f.Tag(), f.Value()),
			}
		}
		return &descriptor.ConfigError{Key: "config", Err: err}
	}
	if err := ValidatePackageName(c.Package); err != nil {
		return &descriptor.ConfigError{Key: "Config.Package", Err: err}
	}
	return nil
}

// ValidatePackageName validates the package clause of the generated file.
// Rules:
//   - ASCII lowercase letters, digits, and underscore only
//   - must not start with a digit
//   - no uppercase letters (mixed-case package names are conventionally
//     rejected here even though the language allows them)
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			return fmt.Errorf("uppercase letter %q at position %d: package names must be lowercase", r, i)
		case r >= '0' && r <= '9':
			if i == 0 {
				return fmt.Errorf("package name cannot start with digit %q", r)
			}
		case r >= 'a' && r <= 'z', r == '_':
			// valid
		default:
			return fmt.Errorf("invalid character %q at position %d in package name", r, i)
		}
	}
	return nil
}

// TimestampFormat maps the configured directive onto the descriptor enum.
// Validate guarantees the string is one of the known directives.
func (c Config) TimestampFormat() descriptor.TimeFormat {
	switch c.TimeFormat {
	case "date":
		return descriptor.FormatDate
	case "date-time":
		return descriptor.FormatDateTime
	default:
		return descriptor.FormatRFC3339
	}
}

func overlayYAML(cfg *Config) error {
	path := filepath.Join(cfg.SrcDir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &descriptor.ConfigError{Key: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &descriptor.ParseError{Path: path, Err: err}
	}
	return nil
}
