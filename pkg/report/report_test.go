package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Honestpuck/jss-tools/pkg/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history", "findings.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	base := time.Date(2018, 5, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, []compliance.Finding{
		{ComputerID: "1", Machine: "mac-1", Name: "A", Email: "a@example.com", Reason: compliance.ReasonOSUpgrade, OS: "10.11.6", Build: "15G31", CheckedAt: base},
		{ComputerID: "2", Machine: "mac-2", Name: "B", Email: "b@example.com", Reason: compliance.ReasonOSUpdate, OS: "10.13.1", Build: "17B48", CheckedAt: base.Add(time.Minute)},
	}))
	require.NoError(t, s.Save(ctx, nil))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ComputerID)
	assert.Equal(t, "mac-2\tB\tb@example.com\tos_update\t10.13.1-17B48", got[0].Line())
	assert.True(t, base.Equal(got[1].CheckedAt))

	got, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, s.Close())

	// History survives reopening.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err = s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
