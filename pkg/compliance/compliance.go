// Package compliance decides whether a computer meets the fleet's OS and
// security baseline.
package compliance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Honestpuck/jss-tools/pkg/normalize"
	"github.com/hashicorp/go-version"
)

// Reasons reported for non-compliant computers.
const (
	ReasonOSUpgrade = "os_upgrade"
	ReasonOSUpdate  = "os_update"
)

var (
	ErrInvalidVersion = errors.New("invalid os version")
	ErrInvalidBuild   = errors.New("invalid os build")
	ErrMissingOS      = errors.New("record has no os version")
)

// BuildFloor requires builds of any OS newer than Above to be at least
// MinBuild, comparing the build string as a base-16 number.
type BuildFloor struct {
	Above    string `json:"above" yaml:"above"`
	MinBuild int64  `json:"min_build" yaml:"min_build"`
}

// Policy holds the OS thresholds.
type Policy struct {
	Minimum string       `json:"minimum" yaml:"minimum" default:"10.12.6"`
	Floors  []BuildFloor `json:"floors" yaml:"floors"`
	// Builds containing ExemptMarker are always compliant. Apple shipped two
	// 10.12.6 builds with a G in them and both are patched.
	ExemptMarker string `json:"exempt_marker" yaml:"exempt_marker" default:"G"`
}

// DefaultPolicy returns the stock thresholds: at least 10.12.6, and patched
// builds for 10.13 (0x17C88) and 10.12 (0x16F73).
func DefaultPolicy() Policy {
	return Policy{
		Minimum: "10.12.6",
		Floors: []BuildFloor{
			{Above: "10.13.0", MinBuild: 97416},
			{Above: "10.12.0", MinBuild: 94067},
		},
		ExemptMarker: "G",
	}
}

// Result is the outcome of an OS check. Reason is empty when compliant.
type Result struct {
	Compliant bool   `json:"compliant"`
	Reason    string `json:"reason,omitempty"`
}

type floor struct {
	above *version.Version
	min   int64
}

// Checker evaluates computers against a policy and a set of attribute rules.
type Checker struct {
	minimum *version.Version
	floors  []floor
	exempt  string
	rules   []AttributeRule
}

// New compiles p and rules into a Checker.
func New(p Policy, rules []AttributeRule) (*Checker, error) {
	minimum, err := version.NewVersion(p.Minimum)
	if err != nil {
		return nil, fmt.Errorf("%w: minimum %q: %v", ErrInvalidVersion, p.Minimum, err)
	}
	c := &Checker{minimum: minimum, exempt: p.ExemptMarker, rules: rules}
	for _, f := range p.Floors {
		v, err := version.NewVersion(f.Above)
		if err != nil {
			return nil, fmt.Errorf("%w: floor %q: %v", ErrInvalidVersion, f.Above, err)
		}
		c.floors = append(c.floors, floor{above: v, min: f.MinBuild})
	}
	return c, nil
}

// CheckOS applies the rules in order, first match wins:
// older than the minimum needs an upgrade; an exempt build passes; a build
// below the floor of any newer OS needs an update; anything else passes.
func (c *Checker) CheckOS(osVersion, build string) (Result, error) {
	v, err := version.NewVersion(strings.TrimSpace(osVersion))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, osVersion, err)
	}
	if v.LessThan(c.minimum) {
		return Result{Reason: ReasonOSUpgrade}, nil
	}
	if c.exempt != "" && strings.Contains(build, c.exempt) {
		return Result{Compliant: true}, nil
	}
	for _, f := range c.floors {
		if !v.GreaterThan(f.above) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(build), 16, 64)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %q", ErrInvalidBuild, build)
		}
		if n < f.min {
			return Result{Reason: ReasonOSUpdate}, nil
		}
	}
	return Result{Compliant: true}, nil
}

// CheckOS runs the default policy.
func CheckOS(osVersion, build string) (Result, error) {
	c, err := New(DefaultPolicy(), nil)
	if err != nil {
		return Result{}, err
	}
	return c.CheckOS(osVersion, build)
}

// Finding is one reason a computer is out of compliance.
type Finding struct {
	ComputerID string    `json:"computer_id"`
	Machine    string    `json:"machine"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Reason     string    `json:"reason"`
	OS         string    `json:"os"`
	Build      string    `json:"build"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Line renders the finding as a tab-separated report line without newline.
func (f Finding) Line() string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s-%s", f.Machine, f.Name, f.Email, f.Reason, f.OS, f.Build)
}

// Evaluate checks a normalized computer record and its extension attributes.
// attrs may be nil to skip the attribute rules.
func (c *Checker) Evaluate(info *normalize.Record, attrs map[string]normalize.Attribute) ([]Finding, error) {
	osVersion := info.Text("os")
	if osVersion == "" {
		return nil, ErrMissingOS
	}
	base := Finding{
		ComputerID: info.Text("id"),
		Machine:    info.Text("machine_name"),
		Name:       info.Text("name"),
		Email:      info.Text("email"),
		OS:         osVersion,
		Build:      info.Text("os_build"),
		CheckedAt:  time.Now().UTC(),
	}

	var findings []Finding
	res, err := c.CheckOS(base.OS, base.Build)
	if err != nil {
		return nil, err
	}
	if !res.Compliant {
		f := base
		f.Reason = res.Reason
		findings = append(findings, f)
	}
	for _, rule := range c.rules {
		if rule.Matches(attrs) {
			f := base
			f.Reason = rule.Reason
			findings = append(findings, f)
		}
	}
	return findings, nil
}
