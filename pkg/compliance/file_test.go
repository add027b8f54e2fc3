package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	p, rules, err := ReadFile(strings.NewReader(`
policy:
  minimum: 10.13.6
  exempt_marker: ""
  floors:
    - {above: 10.14.0, min_build: 99999}
rules:
  - attribute: FileVault
    values: ["False"]
    reason: FileVault
`))
	require.NoError(t, err)
	assert.Equal(t, "10.13.6", p.Minimum)
	assert.Empty(t, p.ExemptMarker)
	require.Len(t, p.Floors, 1)
	assert.Equal(t, int64(99999), p.Floors[0].MinBuild)
	require.Len(t, rules, 1)
	assert.Equal(t, "FileVault", rules[0].Reason)

	c, err := New(p, rules)
	require.NoError(t, err)
	res, err := c.CheckOS("10.13.5", "17G65")
	require.NoError(t, err)
	assert.Equal(t, ReasonOSUpgrade, res.Reason)
}

func TestReadFileDefaults(t *testing.T) {
	p, rules, err := ReadFile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
	assert.Equal(t, DefaultRules(), rules)
}

func TestReadFileErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":  "polcy: {}",
		"bad version":  "policy: {minimum: latest}",
		"empty rule":   "rules: [{attribute: SIP status}]",
		"invalid yaml": "policy: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := ReadFile(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, _, err := LoadFile("/nonexistent/policy.yaml")
	assert.Error(t, err)
}
