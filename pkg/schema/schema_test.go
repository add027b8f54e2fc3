package schema

import (
	"testing"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalSchemasValidate(t *testing.T) {
	for _, name := range Resources() {
		t.Run(name, func(t *testing.T) {
			s, err := ForResource(name)
			require.NoError(t, err)
			assert.NoError(t, s.Validate())
		})
	}

	for _, s := range []*Schema{
		PolicyPackage(), PolicyScript(), GroupCriterion(), GroupComputer(),
		Certificate(), LocalAccount(), Application(), ConfigurationProfileSummary(),
		ManagementPolicy(), ManagementItem(),
	} {
		assert.NoError(t, s.Validate(), s.Name)
	}
}

func TestForResourceUnknown(t *testing.T) {
	_, err := ForResource("printers")
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestForResourceFreshValues(t *testing.T) {
	a, _ := ForResource(ResourceComputers)
	b, _ := ForResource(ResourceComputers)
	a.Fields[0].Key = "changed"
	assert.Equal(t, "id", b.Fields[0].Key)
}

func TestComputerNaming(t *testing.T) {
	s := Computer()
	keys := s.Keys()
	assert.Contains(t, keys, "machine_name")
	assert.Contains(t, keys, "master")
	assert.Contains(t, keys, "mdm")
	assert.NotContains(t, keys, "master_set")
	assert.NotContains(t, keys, "mdm_capable")

	path, ok := s.Fields.Path("name")
	require.True(t, ok)
	assert.Equal(t, "location/real_name", path)

	assert.Equal(t, convert.Bool, s.Conversions.Kind("master"))
	assert.Equal(t, convert.String, s.Conversions.Kind("serial"))
}

func TestValidateRejects(t *testing.T) {
	base := func() *Schema {
		return &Schema{
			Name:        "t",
			Fields:      FieldMap{{"a/b", "ab"}, {"c", "count"}},
			Conversions: ConversionMap{{"ab", convert.Bool}},
		}
	}

	tests := []struct {
		name   string
		mutate func(s *Schema)
	}{
		{"empty key", func(s *Schema) { s.Fields[0].Key = "" }},
		{"empty path", func(s *Schema) { s.Fields[0].Path = " " }},
		{"duplicate key", func(s *Schema) { s.Fields[1].Key = "ab" }},
		{"bad path", func(s *Schema) { s.Fields[0].Path = "a/[" }},
		{"conversion for unknown key", func(s *Schema) { s.Conversions[0].Key = "zz" }},
		{"unknown kind", func(s *Schema) { s.Conversions[0].Kind = convert.Kind(42) }},
		{"collection counting unknown key", func(s *Schema) {
			s.Collections = []Collection{{Name: "kids", Path: "kids/kid", CountKey: "nope", Schema: Application()}}
		}},
		{"collection without path", func(s *Schema) {
			s.Collections = []Collection{{Name: "kids", Schema: Application()}}
		}},
		{"collection shadowing a field", func(s *Schema) {
			s.Collections = []Collection{{Name: "ab", Path: "kids/kid", Schema: Application()}}
		}},
		{"invalid nested schema", func(s *Schema) {
			s.Collections = []Collection{{Name: "kids", Path: "kids/kid", Schema: &Schema{Name: "kid", Fields: FieldMap{{"", "x"}}}}}
		}},
		{"nil nested schema", func(s *Schema) {
			s.Collections = []Collection{{Name: "kids", Path: "kids/kid", CountKey: "count"}}
		}},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			assert.ErrorIs(t, s.Validate(), ErrInvalid)
		})
	}
}

func TestFieldMapKeysLastWins(t *testing.T) {
	m := FieldMap{{"general/name", "name"}, {"location/real_name", "name"}, {"general/id", "id"}}
	assert.Equal(t, []string{"name", "id"}, m.Keys())
	path, _ := m.Path("name")
	assert.Equal(t, "location/real_name", path)
}
