// Package semver parses semantic version strings per the SemVer 2.0.0
// grammar: major.minor.patch[-prerelease][+buildmetadata]. Parsing is strict
// so that String always round-trips to the exact input.
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a structured semantic version. Pre and Build are empty when the
// corresponding segment is absent; an empty segment is a parse error, so the
// empty string is unambiguous here.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	Pre   string
	Build string
}

// ParseError reports the first grammar violation with its byte offset into
// the input.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid semantic version %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

// Parse parses a strict SemVer 2.0.0 string. Rules:
//   - major, minor, patch are non-negative integers without leading zeros
//     (the literal "0" is allowed)
//   - pre-release and build-metadata are dot-separated identifiers of
//     [0-9A-Za-z-]; identifiers must be non-empty
//   - numeric pre-release identifiers must not have leading zeros
func Parse(input string) (Version, error) {
	var v Version
	p := &parser{input: input}

	var err error
	if v.Major, err = p.number("major"); err != nil {
		return Version{}, err
	}
	if err = p.expect('.'); err != nil {
		return Version{}, err
	}
	if v.Minor, err = p.number("minor"); err != nil {
		return Version{}, err
	}
	if err = p.expect('.'); err != nil {
		return Version{}, err
	}
	if v.Patch, err = p.number("patch"); err != nil {
		return Version{}, err
	}

	if p.curr() == '-' {
		p.pos++
		if v.Pre, err = p.identifiers("pre-release", true); err != nil {
			return Version{}, err
		}
	}
	if p.curr() == '+' {
		p.pos++
		if v.Build, err = p.identifiers("build metadata", false); err != nil {
			return Version{}, err
		}
	}
	if p.pos != len(input) {
		return Version{}, p.errorf("unexpected character %q", p.curr())
	}
	return v, nil
}

// MustParse is Parse for trusted inputs; it panics on error.
func MustParse(input string) Version {
	v, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return v
}

// String re-serializes the version. For any input accepted by Parse,
// Parse(s).String() == s.
func (v Version) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(v.Major, 10))
	sb.WriteByte('.')
	sb.WriteString(strconv.FormatUint(v.Minor, 10))
	sb.WriteByte('.')
	sb.WriteString(strconv.FormatUint(v.Patch, 10))
	if v.Pre != "" {
		sb.WriteByte('-')
		sb.WriteString(v.Pre)
	}
	if v.Build != "" {
		sb.WriteByte('+')
		sb.WriteString(v.Build)
	}
	return sb.String()
}

type parser struct {
	input string
	pos   int
}

// curr returns the byte under examination, or 0 at end of input.
func (p *parser) curr() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.input, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(ch byte) error {
	if p.curr() != ch {
		return p.errorf("expected %q", ch)
	}
	p.pos++
	return nil
}

// number reads a non-negative integer without leading zeros.
func (p *parser) number(part string) (uint64, error) {
	start := p.pos
	for isDigit(p.curr()) {
		p.pos++
	}
	lit := p.input[start:p.pos]
	if lit == "" {
		return 0, p.errorf("%s version must be a number", part)
	}
	if len(lit) > 1 && lit[0] == '0' {
		p.pos = start
		return 0, p.errorf("%s version has a leading zero", part)
	}
	n, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		p.pos = start
		return 0, p.errorf("%s version %q overflows", part, lit)
	}
	return n, nil
}

// identifiers reads a dot-separated identifier sequence. When numeric is
// true, all-digit identifiers are rejected if they carry a leading zero
// (the pre-release rule; build metadata has no such restriction).
func (p *parser) identifiers(part string, numeric bool) (string, error) {
	start := p.pos
	for {
		idStart := p.pos
		for isIdentChar(p.curr()) {
			p.pos++
		}
		id := p.input[idStart:p.pos]
		if id == "" {
			return "", p.errorf("%s has an empty identifier", part)
		}
		if numeric && len(id) > 1 && id[0] == '0' && allDigits(id) {
			p.pos = idStart
			return "", p.errorf("%s identifier %q has a leading zero", part, id)
		}
		if p.curr() != '.' {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos], nil
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentChar(ch byte) bool {
	return isDigit(ch) ||
		'a' <= ch && ch <= 'z' ||
		'A' <= ch && ch <= 'Z' ||
		ch == '-'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
