package compliance

import (
	"github.com/Honestpuck/jss-tools/pkg/normalize"
)

// AttributeRule flags a computer whose extension attribute holds one of
// Values. Comparison is against the attribute's raw form, so a
// True/False attribute matches "True" or "False".
type AttributeRule struct {
	Attribute string   `json:"attribute" yaml:"attribute"`
	Values    []string `json:"values" yaml:"values"`
	Reason    string   `json:"reason" yaml:"reason"`
}

// DefaultRules are the security checks run alongside the OS check.
func DefaultRules() []AttributeRule {
	return []AttributeRule{
		{Attribute: "SIP status", Values: []string{"disabled"}, Reason: "SIP status"},
		{Attribute: "Virus Running", Values: []string{"disabled", "missing"}, Reason: "Virus"},
		{Attribute: "Internet Sharing", Values: []string{"Enabled"}, Reason: "Internet Sharing"},
	}
}

// Matches reports whether attrs violate the rule. A missing attribute never
// matches.
func (r AttributeRule) Matches(attrs map[string]normalize.Attribute) bool {
	a, ok := attrs[r.Attribute]
	if !ok || !a.Value.Valid {
		return false
	}
	raw := a.Value.String()
	for _, v := range r.Values {
		if raw == v {
			return true
		}
	}
	return false
}
