package pipeline

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildstamp/config"
	"buildstamp/descriptor"
	"buildstamp/probe"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseEnv(srcDir string) probe.Environment {
	return probe.Environment{
		Compiler: "go1.25.5 gc",
		Target:   "linux/amd64",
		Host:     "linux/amd64",
		Profile:  "release",
		SrcDir:   srcDir,
	}
}

func clearProbeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BUILDSTAMP_GIT_COMMIT", "BUILDSTAMP_GIT_BRANCH",
		"BUILDSTAMP_GIT_TAG", "BUILDSTAMP_GIT_DIRTY",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SOURCE_DATE_EPOCH", "1784000000")
}

// Capability configuration {vcs, semver} with no repository present: the
// version fields are populated, VCS is entirely absent, and the pipeline
// succeeds.
func TestCollectVcsAndSemverOnly(t *testing.T) {
	clearProbeEnv(t)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Probes = config.Probes{VCS: true, SemVer: true}

	env := baseEnv(dir)
	env.Version = "1.4.0-beta.2"

	d, err := New(cfg, discard()).Collect(env)
	require.NoError(t, err)

	require.NotNil(t, d.Version)
	assert.Equal(t, uint64(1), d.Version.Major)
	assert.Equal(t, uint64(4), d.Version.Minor)
	assert.Equal(t, uint64(0), d.Version.Patch)
	assert.Equal(t, "beta.2", d.Version.Pre)

	assert.Nil(t, d.VCS)
	assert.Nil(t, d.Dependencies)
	assert.Nil(t, d.BuildTime)
}

func TestCollectBaseline(t *testing.T) {
	clearProbeEnv(t)
	cfg := config.Default()
	cfg.Probes = config.Probes{}

	env := baseEnv(t.TempDir())
	env.Features = "tls,alpha,tls,postgres"

	d, err := New(cfg, discard()).Collect(env)
	require.NoError(t, err)

	assert.Equal(t, "go1.25.5 gc", d.Compiler)
	assert.Equal(t, descriptor.ProfileRelease, d.Profile)
	// The feature set is sorted and deduplicated for deterministic emission.
	assert.Equal(t, []string{"alpha", "postgres", "tls"}, d.Features)
}

func TestCollectInvalidPrimaryVersion(t *testing.T) {
	clearProbeEnv(t)
	cfg := config.Default()
	cfg.Probes = config.Probes{SemVer: true}

	env := baseEnv(t.TempDir())
	env.Version = "1.4"

	_, err := New(cfg, discard()).Collect(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version probe")
}

// An unparsable dependency version stays a raw opaque string instead of
// failing the probe.
func TestParseDependencyVersions(t *testing.T) {
	deps := []descriptor.DependencyRecord{
		{Name: "a", Version: "v1.2.3"},
		{Name: "b", Version: "v1.bad"},
		{Name: "c", Version: "v0.0.0-20240101120000-abcdef012345"},
	}
	parseDependencyVersions(deps)

	require.NotNil(t, deps[0].Parsed)
	assert.Equal(t, uint64(1), deps[0].Parsed.Major)
	assert.Nil(t, deps[1].Parsed)
	require.NotNil(t, deps[2].Parsed)
	assert.Equal(t, "20240101120000-abcdef012345", deps[2].Parsed.Pre)
}

func TestRunEmitsArtifact(t *testing.T) {
	clearProbeEnv(t)
	dir := t.TempDir()
	t.Setenv("BUILDSTAMP_COMPILER", "go1.25.5 gc")
	t.Setenv("BUILDSTAMP_TARGET", "linux/amd64")
	t.Setenv("BUILDSTAMP_SRC_DIR", dir)
	t.Setenv("BUILDSTAMP_OUT_DIR", "")

	cfg := config.Default()
	cfg.SrcDir = dir
	cfg.Probes = config.Probes{Timestamp: true}
	cfg.Output = filepath.Join(dir, "buildinfo.go")

	path, err := New(cfg, discard()).Run()
	require.NoError(t, err)
	assert.Equal(t, cfg.Output, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "package buildinfo")
	assert.Contains(t, string(content), "Code generated by buildstamp. DO NOT EDIT.")
}

// A corrupted lock file aborts the pipeline and leaves no artifact behind.
func TestRunCorruptLockLeavesNoArtifact(t *testing.T) {
	clearProbeEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.sum"), []byte("garbage\n"), 0644))
	t.Setenv("BUILDSTAMP_COMPILER", "go1.25.5 gc")
	t.Setenv("BUILDSTAMP_TARGET", "linux/amd64")
	t.Setenv("BUILDSTAMP_SRC_DIR", dir)
	t.Setenv("BUILDSTAMP_OUT_DIR", "")

	cfg := config.Default()
	cfg.SrcDir = dir
	cfg.Output = filepath.Join(dir, "buildinfo.go")

	_, err := New(cfg, discard()).Run()
	require.Error(t, err)
	var perr *descriptor.ParseError
	assert.ErrorAs(t, err, &perr)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunMissingRequiredEnv(t *testing.T) {
	clearProbeEnv(t)
	t.Setenv("BUILDSTAMP_COMPILER", "")
	t.Setenv("BUILDSTAMP_TARGET", "")

	_, err := New(config.Default(), discard()).Run()
	require.Error(t, err)
	var cerr *descriptor.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestOutputPath(t *testing.T) {
	cfg := config.Default()
	cfg.Output = "buildinfo.go"
	p := New(cfg, discard())

	assert.Equal(t, "buildinfo.go", p.OutputPath(probe.Environment{}))
	assert.Equal(t, filepath.Join("/tmp/out", "buildinfo.go"),
		p.OutputPath(probe.Environment{OutDir: "/tmp/out"}))

	cfg.Output = "/abs/buildinfo.go"
	p = New(cfg, discard())
	assert.Equal(t, "/abs/buildinfo.go", p.OutputPath(probe.Environment{OutDir: "/tmp/out"}))
}
