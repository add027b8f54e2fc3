package normalize

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeKind(t *testing.T) {
	tests := []struct {
		declared string
		raw      string
		want     convert.Kind
	}{
		{"String", "True", convert.TrueFalse},
		{"String", "False", convert.TrueFalse},
		{"String", "1", convert.OneZero},
		{"String", "0", convert.OneZero},
		{"String", "true", convert.String},
		{"String", "enabled", convert.String},
		{"Date", "2018-05-09 22:00:00", convert.DateTime},
		{"Number", "42", convert.Int},
		{"Integer", "42", convert.Int},
	}
	for _, tt := range tests {
		got, err := AttributeKind(tt.declared, tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %q", tt.declared, tt.raw)
	}

	_, err := AttributeKind("Boolean", "true")
	assert.ErrorIs(t, err, ErrUnknownAttributeType)
}

func TestAttributes(t *testing.T) {
	attrs, err := Attributes(record.MustParse(computerXML))
	require.NoError(t, err)
	require.Len(t, attrs, 6)

	sharing := attrs["Internet Sharing Disabled"]
	assert.Equal(t, convert.TrueFalse, sharing.Kind)
	assert.Equal(t, true, sharing.Value.Interface())

	tickets := attrs["Open Tickets"]
	assert.Equal(t, convert.Int, tickets.Kind)
	assert.Equal(t, int64(42), tickets.Value.Int())

	virus := attrs["Virus Running"]
	assert.Equal(t, convert.OneZero, virus.Kind)
	assert.True(t, virus.Value.Bool())

	sip := attrs["SIP status"]
	assert.Equal(t, "enabled", sip.Value.Str())
	assert.Equal(t, "1", sip.ID)

	seat := attrs["Seat"]
	assert.False(t, seat.Value.Valid)

	b, err := json.Marshal(sharing)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":true,"type":"BTRU"}`, string(b))
}

func TestAttributesUnknownType(t *testing.T) {
	rec := record.MustParse(`<computer><extension_attributes>
	  <extension_attribute><id>1</id><name>Odd</name><type>Blob</type><value>x</value></extension_attribute>
	</extension_attributes></computer>`)
	_, err := Attributes(rec)
	assert.ErrorIs(t, err, ErrUnknownAttributeType)
}

func TestWriteAttributesOnlyChanged(t *testing.T) {
	rec := record.MustParse(computerXML)
	attrs, err := Attributes(rec)
	require.NoError(t, err)

	changed, err := WriteAttributes(attrs, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, changed, "untouched attributes are not rewritten")

	sharing, err := attrs["Internet Sharing Disabled"].WithRaw("False")
	require.NoError(t, err)
	attrs["Internet Sharing Disabled"] = sharing
	tickets, err := attrs["Open Tickets"].WithRaw("43")
	require.NoError(t, err)
	attrs["Open Tickets"] = tickets

	var saves int
	changed, err = CommitAttributes(context.Background(), attrs, rec, SaverFunc(func(context.Context, *record.Record) error {
		saves++
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, 1, saves)

	again, err := Attributes(rec)
	require.NoError(t, err)
	assert.False(t, again["Internet Sharing Disabled"].Value.Bool())
	assert.Equal(t, int64(43), again["Open Tickets"].Value.Int())
}

func TestWriteAttributesStringFreeText(t *testing.T) {
	rec := record.MustParse(computerXML)
	attrs, err := Attributes(rec)
	require.NoError(t, err)
	require.Equal(t, convert.OneZero, attrs["Virus Running"].Kind)

	ring, err := attrs["Virus Running"].WithRaw("Ring 2")
	require.NoError(t, err)
	assert.Equal(t, convert.String, ring.Kind)
	attrs["Virus Running"] = ring

	sharing, err := attrs["Internet Sharing Disabled"].WithRaw("0")
	require.NoError(t, err)
	assert.Equal(t, convert.OneZero, sharing.Kind)
	attrs["Internet Sharing Disabled"] = sharing

	changed, err := WriteAttributes(attrs, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	again, err := Attributes(rec)
	require.NoError(t, err)
	assert.Equal(t, "Ring 2", again["Virus Running"].Value.String())
	assert.Equal(t, convert.String, again["Virus Running"].Kind)
	assert.Equal(t, convert.OneZero, again["Internet Sharing Disabled"].Kind)
	assert.False(t, again["Internet Sharing Disabled"].Value.Bool())
}

func TestCommitAttributesUnchangedSkipsSave(t *testing.T) {
	rec := record.MustParse(computerXML)
	attrs, err := Attributes(rec)
	require.NoError(t, err)

	tickets, err := attrs["Open Tickets"].WithRaw("42")
	require.NoError(t, err)
	attrs["Open Tickets"] = tickets

	saves := 0
	changed, err := CommitAttributes(context.Background(), attrs, rec, SaverFunc(func(context.Context, *record.Record) error {
		saves++
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, 0, saves)
}

func TestAttributeWithRawMalformed(t *testing.T) {
	attrs, err := Attributes(record.MustParse(computerXML))
	require.NoError(t, err)
	_, err = attrs["Open Tickets"].WithRaw("lots")
	assert.ErrorIs(t, err, convert.ErrMalformed)
}
