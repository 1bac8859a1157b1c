// Package emit serializes a BuildDescriptor into a generated Go source
// file. Emission is a pure function of the descriptor: re-running with an
// unchanged descriptor produces byte-identical output.
//
// Absence policy: each optional group carries a Has* boolean constant; when
// it is false the group's value constants are omitted entirely. An absent
// string is never rendered as "" (which would be indistinguishable from a
// value that is the empty string).
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"buildstamp/descriptor"
)

const header = `// Code generated by buildstamp. DO NOT EDIT.
//
// Optional values that were unavailable at build time are omitted; check
// the corresponding Has constant before referring to them.
`

type Emitter struct {
	pkg string
}

// New returns an emitter targeting the given package clause.
func New(pkg string) *Emitter {
	return &Emitter{pkg: pkg}
}

// Generate renders the full artifact. Emission order is fixed: baseline
// fields, VCS, dependencies, version, build time.
func (e *Emitter) Generate(d *descriptor.BuildDescriptor) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("package " + e.pkg + "\n")

	e.baseline(&b, d)
	e.vcs(&b, d.VCS)
	e.dependencies(&b, d.Dependencies)
	e.version(&b, d)
	e.buildTime(&b, d.BuildTime)

	return b.String()
}

func (e *Emitter) baseline(b *strings.Builder, d *descriptor.BuildDescriptor) {
	b.WriteString("\nconst (\n")
	writeConst(b, "Compiler", d.Compiler)
	writeConst(b, "Target", d.Target)
	writeConst(b, "Host", d.Host)
	writeConst(b, "Profile", d.Profile.String())
	b.WriteString(")\n")

	// Features is a set; the aggregator sorts it so the literal is stable.
	b.WriteString("\nvar Features = [...]string{")
	for i, f := range d.Features {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(f))
	}
	b.WriteString("}\n")
}

func (e *Emitter) vcs(b *strings.Builder, v *descriptor.VcsInfo) {
	if v == nil {
		b.WriteString("\nconst HasVCS = false\n")
		return
	}
	b.WriteString("\nconst HasVCS = true\n")
	b.WriteString("\nconst (\n")
	writeConst(b, "CommitHash", v.CommitHash)
	writeConst(b, "ShortHash", v.ShortHash)
	fmt.Fprintf(b, "\tDirty = %t\n", v.Dirty)
	b.WriteString(")\n")

	writeOptStr(b, "Branch", v.Branch)
	writeOptStr(b, "Tag", v.Tag)

	if v.CommitTime == nil {
		b.WriteString("\nconst HasCommitTime = false\n")
	} else {
		b.WriteString("\nconst HasCommitTime = true\n")
		fmt.Fprintf(b, "const CommitTime = %s\n", strconv.Quote(v.CommitTime.RFC3339()))
	}
}

func (e *Emitter) dependencies(b *strings.Builder, deps []descriptor.DependencyRecord) {
	if deps == nil {
		b.WriteString("\nconst HasDependencies = false\n")
		return
	}
	b.WriteString("\nconst HasDependencies = true\n")
	b.WriteString("\ntype Dependency struct{ Name, Version, Source string }\n")
	b.WriteString("\nvar Dependencies = [...]Dependency{\n")
	for _, dep := range deps {
		fmt.Fprintf(b, "\t{Name: %s, Version: %s, Source: %s},\n",
			strconv.Quote(dep.Name), strconv.Quote(dep.Version), strconv.Quote(dep.Source.String()))
	}
	b.WriteString("}\n")
}

func (e *Emitter) version(b *strings.Builder, d *descriptor.BuildDescriptor) {
	v := d.Version
	if v == nil {
		b.WriteString("\nconst HasVersion = false\n")
		return
	}
	b.WriteString("\nconst HasVersion = true\n")
	b.WriteString("\nconst (\n")
	writeConst(b, "Version", v.String())
	fmt.Fprintf(b, "\tVersionMajor = %d\n", v.Major)
	fmt.Fprintf(b, "\tVersionMinor = %d\n", v.Minor)
	fmt.Fprintf(b, "\tVersionPatch = %d\n", v.Patch)
	b.WriteString(")\n")

	writeOptGroup(b, "PreRelease", v.Pre)
	writeOptGroup(b, "BuildMetadata", v.Build)
}

func (e *Emitter) buildTime(b *strings.Builder, ts *descriptor.Timestamp) {
	if ts == nil {
		b.WriteString("\nconst HasBuildTime = false\n")
		return
	}
	b.WriteString("\nconst HasBuildTime = true\n")
	fmt.Fprintf(b, "const BuildTime = %s\n", strconv.Quote(ts.String()))
}

func writeConst(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "\t%s = %s\n", name, strconv.Quote(value))
}

// writeOptStr emits a Has constant plus the value when present.
func writeOptStr(b *strings.Builder, name string, value *string) {
	if value == nil {
		fmt.Fprintf(b, "\nconst Has%s = false\n", name)
		return
	}
	fmt.Fprintf(b, "\nconst Has%s = true\n", name)
	fmt.Fprintf(b, "const %s = %s\n", name, strconv.Quote(*value))
}

// writeOptGroup is writeOptStr for optional semver segments, where the empty
// string means absent.
func writeOptGroup(b *strings.Builder, name, value string) {
	if value == "" {
		fmt.Fprintf(b, "\nconst Has%s = false\n", name)
		return
	}
	fmt.Fprintf(b, "\nconst Has%s = true\n", name)
	fmt.Fprintf(b, "const %s = %s\n", name, strconv.Quote(value))
}

// WriteFile writes the artifact atomically: the content lands in a temp file
// in the target directory and is renamed over the destination, so a failed
// run never leaves a partial artifact behind. A file lock serializes
// concurrent invocations against the same output path.
func (e *Emitter) WriteFile(path string, d *descriptor.BuildDescriptor) error {
	content := e.Generate(d)

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return &descriptor.EmitError{Path: path, Err: fmt.Errorf("acquire output lock: %w", err)}
	}
	defer lock.Unlock()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".buildstamp-*")
	if err != nil {
		return &descriptor.EmitError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &descriptor.EmitError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &descriptor.EmitError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return &descriptor.EmitError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &descriptor.EmitError{Path: path, Err: err}
	}
	return nil
}
