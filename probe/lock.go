package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"buildstamp/descriptor"
)

// Lock reads the dependency lock at its conventional location: go.sum for
// the ordered (module, version) records, go.mod for source classification
// via replace directives. An absent go.sum is descriptor.ErrUnavailable; a
// malformed go.sum or go.mod is a descriptor.ParseError carrying the line of
// the first structural violation, and aborts the run.
func Lock(srcDir string) ([]descriptor.DependencyRecord, error) {
	sumPath := filepath.Join(srcDir, "go.sum")
	data, err := os.ReadFile(sumPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, descriptor.ErrUnavailable
		}
		return nil, &descriptor.ParseError{Path: sumPath, Err: err}
	}

	replaced, err := pathReplacements(srcDir)
	if err != nil {
		return nil, err
	}

	records := []descriptor.DependencyRecord{}
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, &descriptor.ParseError{
				Path: sumPath,
				Line: i + 1,
				Err:  fmt.Errorf("expected 3 fields, got %d", len(fields)),
			}
		}
		name, version, sum := fields[0], fields[1], fields[2]
		if !strings.HasPrefix(version, "v") {
			return nil, &descriptor.ParseError{
				Path: sumPath,
				Line: i + 1,
				Err:  fmt.Errorf("version %q does not start with %q", version, "v"),
			}
		}
		if !strings.Contains(sum, ":") {
			return nil, &descriptor.ParseError{
				Path: sumPath,
				Line: i + 1,
				Err:  fmt.Errorf("malformed checksum %q", sum),
			}
		}
		// Each locked version appears twice: once for the module tree and
		// once for its go.mod hash. Only the former becomes a record.
		if strings.HasSuffix(version, "/go.mod") {
			continue
		}
		records = append(records, descriptor.DependencyRecord{
			Name:    name,
			Version: version,
			Source:  classify(name, version, replaced),
		})
	}
	return records, nil
}

// pathReplacements collects the module paths that go.mod redirects to a
// filesystem directory. Modules under such a replace are path dependencies.
func pathReplacements(srcDir string) (map[string]bool, error) {
	modPath := filepath.Join(srcDir, "go.mod")
	data, err := os.ReadFile(modPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &descriptor.ParseError{Path: modPath, Err: err}
	}
	f, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		return nil, modParseError(modPath, err)
	}
	replaced := make(map[string]bool)
	for _, r := range f.Replace {
		if modfile.IsDirectoryPath(r.New.Path) {
			replaced[r.Old.Path] = true
		}
	}
	return replaced, nil
}

// classify resolves a lock entry's source: a local replace is a path
// dependency, a pseudo-version points at a bare VCS commit, a canonical
// tagged version comes from the module registry.
func classify(name, version string, replaced map[string]bool) descriptor.Source {
	switch {
	case replaced[name]:
		return descriptor.SourcePath
	case module.IsPseudoVersion(version):
		return descriptor.SourceGit
	case semver.IsValid(version):
		return descriptor.SourceRegistry
	default:
		return descriptor.SourceUnknown
	}
}

// modParseError extracts the first positioned error from a modfile error
// list, so the ParseError names the offending line.
func modParseError(path string, err error) error {
	var list modfile.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return &descriptor.ParseError{Path: path, Line: list[0].Pos.Line, Err: list[0].Err}
	}
	return &descriptor.ParseError{Path: path, Err: err}
}
