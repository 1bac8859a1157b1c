// Package pipeline aggregates probe results into one BuildDescriptor.
// Capability selection is resolved once at construction; probes run in a
// fixed order, each contributing its field independently. Probe absence
// degrades the field; any probe error aborts the whole run so that no
// descriptor built from partially-corrupt data is ever emitted.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"buildstamp/config"
	"buildstamp/descriptor"
	"buildstamp/emit"
	"buildstamp/probe"
	"buildstamp/semver"
)

type Pipeline struct {
	cfg config.Config
	log *slog.Logger
}

func New(cfg config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// SrcDir is the directory probes start from: the build-system contract wins
// over the configured source directory.
func (p *Pipeline) SrcDir(env probe.Environment) string {
	if env.SrcDir != "" {
		return env.SrcDir
	}
	return p.cfg.SrcDir
}

// Run executes the whole pipeline: read the environment, collect the
// descriptor, emit the artifact. It returns the written output path.
func (p *Pipeline) Run() (string, error) {
	env, err := probe.ReadEnvironment()
	if err != nil {
		return "", fmt.Errorf("environment probe: %w", err)
	}
	d, err := p.Collect(env)
	if err != nil {
		return "", err
	}
	path := p.OutputPath(env)
	if err := emit.New(p.cfg.Package).WriteFile(path, d); err != nil {
		return "", err
	}
	p.log.Info("emitted build metadata", "path", path)
	return path, nil
}

// OutputPath resolves where the artifact goes: an absolute configured output
// wins; otherwise the build-system output directory anchors it.
func (p *Pipeline) OutputPath(env probe.Environment) string {
	if filepath.IsAbs(p.cfg.Output) || env.OutDir == "" {
		return p.cfg.Output
	}
	return filepath.Join(env.OutDir, p.cfg.Output)
}

// Collect runs every enabled probe and merges the results. The returned
// descriptor is complete: every optional field is either fully populated or
// nil.
func (p *Pipeline) Collect(env probe.Environment) (*descriptor.BuildDescriptor, error) {
	srcDir := p.SrcDir(env)

	d := &descriptor.BuildDescriptor{
		Compiler: env.Compiler,
		Target:   env.Target,
		Host:     env.Host,
		Profile:  descriptor.ParseProfile(env.Profile),
		Features: sortedSet(env.FeatureList()),
	}

	if p.cfg.Probes.VCS {
		vcs, err := probe.VCS(srcDir)
		switch {
		case errors.Is(err, descriptor.ErrUnavailable):
			p.log.Debug("vcs probe: no repository", "src", srcDir)
		case err != nil:
			return nil, fmt.Errorf("vcs probe: %w", err)
		default:
			d.VCS = vcs
			p.log.Debug("vcs probe", "commit", vcs.ShortHash, "dirty", vcs.Dirty)
		}
	}

	if p.cfg.Probes.LockFile {
		deps, err := probe.Lock(srcDir)
		switch {
		case errors.Is(err, descriptor.ErrUnavailable):
			p.log.Debug("lock probe: no lock file", "src", srcDir)
		case err != nil:
			return nil, fmt.Errorf("lock probe: %w", err)
		default:
			d.Dependencies = deps
			p.log.Debug("lock probe", "dependencies", len(deps))
		}
	}

	if p.cfg.Probes.SemVer {
		if env.Version != "" {
			v, err := semver.Parse(env.Version)
			if err != nil {
				return nil, fmt.Errorf("version probe: %w", err)
			}
			d.Version = &v
		} else {
			p.log.Debug("version probe: no declared version")
		}
		parseDependencyVersions(d.Dependencies)
	}

	if p.cfg.Probes.Timestamp {
		ts, err := probe.BuildTime(p.cfg.TimestampFormat())
		if err != nil {
			return nil, fmt.Errorf("timestamp probe: %w", err)
		}
		d.BuildTime = &ts
	}

	return d, nil
}

// parseDependencyVersions attaches a structured version to each record that
// carries a well-formed one. Lock versions are opaque strings first; an
// unparsable one stays raw rather than failing the probe.
func parseDependencyVersions(deps []descriptor.DependencyRecord) {
	for i := range deps {
		raw := strings.TrimPrefix(deps[i].Version, "v")
		if v, err := semver.Parse(raw); err == nil {
			deps[i].Parsed = &v
		}
	}
}

// sortedSet sorts and deduplicates the feature flags. The input set carries
// no meaningful order, so a defined sort keeps emission deterministic.
func sortedSet(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	sort.Strings(items)
	out := items[:1]
	for _, s := range items[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
