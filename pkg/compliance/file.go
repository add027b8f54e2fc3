package compliance

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a policy and its attribute rules:
//
//	policy:
//	  minimum: 10.12.6
//	  exempt_marker: G
//	  floors:
//	    - {above: 10.13.0, min_build: 97416}
//	rules:
//	  - {attribute: SIP status, values: [disabled], reason: SIP status}
//
// Omitted sections keep their defaults.
type File struct {
	Policy *Policy         `yaml:"policy"`
	Rules  []AttributeRule `yaml:"rules"`
}

// ReadFile decodes a policy file. Unknown keys are rejected and the result
// is compiled once so mistakes surface at load time.
func ReadFile(r io.Reader) (Policy, []AttributeRule, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, nil, fmt.Errorf("decode policy: %w", err)
	}

	p := DefaultPolicy()
	if f.Policy != nil {
		p = *f.Policy
	}
	rules := f.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	for i, rule := range rules {
		if rule.Attribute == "" || rule.Reason == "" || len(rule.Values) == 0 {
			return Policy{}, nil, fmt.Errorf("rule %d: attribute, values and reason are required", i)
		}
	}
	if _, err := New(p, rules); err != nil {
		return Policy{}, nil, err
	}
	return p, rules, nil
}

// LoadFile reads a policy file from disk.
func LoadFile(path string) (Policy, []AttributeRule, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Policy{}, nil, err
	}
	defer fh.Close()
	return ReadFile(fh)
}
