package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Version
	}{
		{"zeros", "0.0.0", Version{}},
		{"plain", "1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"large numbers", "10.20.30", Version{Major: 10, Minor: 20, Patch: 30}},
		{"pre-release", "1.4.0-beta.2", Version{Major: 1, Minor: 4, Pre: "beta.2"}},
		{"numeric pre-release", "1.0.0-1", Version{Major: 1, Pre: "1"}},
		{"hyphenated pre-release", "1.0.0-x-y-z.-", Version{Major: 1, Pre: "x-y-z.-"}},
		{"build metadata", "1.0.0+20130313144700", Version{Major: 1, Build: "20130313144700"}},
		{"pre-release and build", "1.0.0-alpha+001", Version{Major: 1, Pre: "alpha", Build: "001"}},
		{"build with leading zero", "1.0.0+0001", Version{Major: 1, Build: "0001"}},
		{"zero pre-release identifier", "1.0.0-0.3.7", Version{Major: 1, Pre: "0.3.7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"empty", "", "major version must be a number"},
		{"missing minor", "1", "expected '.'"},
		{"missing patch", "1.2", "expected '.'"},
		{"leading zero major", "01.2.3", "leading zero"},
		{"leading zero minor", "1.02.3", "leading zero"},
		{"leading zero patch", "1.2.03", "leading zero"},
		{"leading zero numeric pre-release", "1.2.3-01", "leading zero"},
		{"empty pre-release", "1.2.3-", "empty identifier"},
		{"empty pre-release identifier", "1.2.3-alpha..1", "empty identifier"},
		{"empty build metadata", "1.2.3+", "empty identifier"},
		{"negative", "-1.2.3", "must be a number"},
		{"v prefix", "v1.2.3", "must be a number"},
		{"trailing garbage", "1.2.3 ", "unexpected character"},
		{"underscore identifier", "1.2.3-a_b", "unexpected character"},
		{"spaces", "1.2 .3", "expected '.'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.input, perr.Input)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

// Parsing a well-formed version and re-serializing it yields the original
// string.
func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"0.0.0",
		"1.2.3",
		"1.4.0-beta.2",
		"10.0.0-alpha.1.2.3",
		"2.0.0-rc.1+build.123",
		"1.0.0+meta-with-hyphen",
		"999.999.999",
	}
	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			v, err := Parse(s)
			require.NoError(t, err)
			assert.Equal(t, s, v.String())
		})
	}
}

func TestParseErrorOffset(t *testing.T) {
	_, err := Parse("1.2.x")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 4, perr.Offset)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("not-a-version") })
	assert.NotPanics(t, func() { MustParse("1.0.0") })
}
