// Package probe gathers build facts. Each probe reports one category and
// either returns a value, fails with a typed error, or signals
// descriptor.ErrUnavailable when its input does not exist in this
// environment.
package probe

import (
	"strings"

	"github.com/kelseyhightower/envconfig"

	"buildstamp/descriptor"
)

// envPrefix is the prefix of the build-system environment contract,
// e.g. BUILDSTAMP_COMPILER.
const envPrefix = "buildstamp"

// Environment is the baseline build context exposed by the surrounding
// build system. Compiler and Target are the only hard requirements of the
// whole pipeline; everything else degrades gracefully.
type Environment struct {
	Compiler string `envconfig:"COMPILER"`
	Target   string `envconfig:"TARGET"`
	Host     string `envconfig:"HOST"`
	Profile  string `envconfig:"PROFILE"`
	Features string `envconfig:"FEATURES"` // comma separated
	SrcDir   string `envconfig:"SRC_DIR"`
	OutDir   string `envconfig:"OUT_DIR"`
	Version  string `envconfig:"VERSION"` // the project's own declared version
}

// ReadEnvironment reads the BUILDSTAMP_* baseline variables. A missing
// compiler or target is a ConfigError naming the variable.
func ReadEnvironment() (Environment, error) {
	var env Environment
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return Environment{}, &descriptor.ConfigError{Key: "environment", Err: err}
	}
	if env.Compiler == "" {
		return Environment{}, &descriptor.ConfigError{Key: "BUILDSTAMP_COMPILER"}
	}
	if env.Target == "" {
		return Environment{}, &descriptor.ConfigError{Key: "BUILDSTAMP_TARGET"}
	}
	if env.Host == "" {
		env.Host = env.Target
	}
	return env, nil
}

// FeatureList splits the comma-separated feature set, dropping empty
// entries. Ordering is irrelevant here; the aggregator sorts before
// emission.
func (e Environment) FeatureList() []string {
	if e.Features == "" {
		return nil
	}
	var features []string
	for _, f := range strings.Split(e.Features, ",") {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return features
}
