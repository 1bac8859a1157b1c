// Package descriptor holds the data model shared by every probe and the
// emitter: the BuildDescriptor aggregate, its sub-records, and the error
// taxonomy of the pipeline.
package descriptor

import (
	"time"

	"buildstamp/semver"
)

// Profile is the optimization profile the surrounding build runs under.
type Profile int

const (
	ProfileDebug Profile = iota
	ProfileRelease
	ProfileOther
)

var profiles = [...]string{
	ProfileDebug:   "debug",
	ProfileRelease: "release",
	ProfileOther:   "other",
}

func (p Profile) String() string {
	if 0 <= p && int(p) < len(profiles) {
		return profiles[p]
	}
	return "other"
}

// ParseProfile maps a profile string from the build environment onto the
// enum. Anything that is not exactly "debug" or "release" is ProfileOther.
func ParseProfile(s string) Profile {
	switch s {
	case "debug":
		return ProfileDebug
	case "release":
		return ProfileRelease
	default:
		return ProfileOther
	}
}

// Source classifies where a locked dependency is fetched from.
type Source int

const (
	SourceRegistry Source = iota
	SourceGit
	SourcePath
	SourceUnknown
)

var sources = [...]string{
	SourceRegistry: "registry",
	SourceGit:      "git",
	SourcePath:     "path",
	SourceUnknown:  "unknown",
}

func (s Source) String() string {
	if 0 <= s && int(s) < len(sources) {
		return sources[s]
	}
	return "unknown"
}

// TimeFormat is the formatting directive applied to a Timestamp at emission.
type TimeFormat int

const (
	FormatDate TimeFormat = iota
	FormatDateTime
	FormatRFC3339
)

// Timestamp is an instant captured once per run. The raw instant is held
// immutably; the directive only decides how the emitter renders it, so the
// same instant can be rendered at several precisions without recapture.
type Timestamp struct {
	instant time.Time
	format  TimeFormat
}

// NewTimestamp captures an instant in UTC with the given directive.
func NewTimestamp(at time.Time, format TimeFormat) Timestamp {
	return Timestamp{instant: at.UTC(), format: format}
}

// Instant returns the captured instant.
func (t Timestamp) Instant() time.Time {
	return t.instant
}

// String renders the instant per the stored directive.
func (t Timestamp) String() string {
	switch t.format {
	case FormatDate:
		return t.instant.Format("2006-01-02")
	case FormatDateTime:
		return t.instant.Format("2006-01-02 15:04:05")
	default:
		return t.instant.Format(time.RFC3339)
	}
}

// RFC3339 renders the instant at full precision regardless of the directive.
// Commit times are always emitted this way.
func (t Timestamp) RFC3339() string {
	return t.instant.Format(time.RFC3339)
}

// VcsInfo is the fully resolved repository state at HEAD. A nil *VcsInfo on
// the descriptor means no repository was found; a non-nil one is complete.
type VcsInfo struct {
	CommitHash string // full 40-hex SHA-1
	ShortHash  string // 8-char prefix
	Dirty      bool
	Branch     *string // full ref name, nil when HEAD is detached
	Tag        *string // tag pointing at HEAD, nil when untagged
	CommitTime *Timestamp
}

// DependencyRecord is one entry of the dependency lock, in lock order.
// Duplicate names at different versions may coexist.
type DependencyRecord struct {
	Name    string
	Version string // raw version string as the lock declares it
	Source  Source
	Parsed  *semver.Version // best-effort structured version, nil when unparsable
}

// BuildDescriptor is the root aggregate: everything collected for one build
// invocation. It is constructed once, handed to the emitter, and discarded.
// Optional fields are nil when the corresponding probe reported unavailable
// or was disabled; a non-nil optional field is always fully populated.
type BuildDescriptor struct {
	Compiler string
	Target   string
	Host     string
	Profile  Profile
	Features []string // sorted by the aggregator before emission

	VCS          *VcsInfo
	Dependencies []DependencyRecord
	Version      *semver.Version
	BuildTime    *Timestamp
}
