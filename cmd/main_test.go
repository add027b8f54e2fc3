package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Honestpuck/jss-tools/internal/config"
	"github.com/Honestpuck/jss-tools/pkg/compliance"
	"github.com/Honestpuck/jss-tools/pkg/report"
	"github.com/kumarabd/gokit/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.JSS.URL = "https://jss.example.com:8443"
	cfg.Report.Path = filepath.Join(t.TempDir(), "findings.db")
	cfg.Server.HTTP = nil
	return cfg
}

func TestRunStopsOnContext(t *testing.T) {
	log, err := logger.New("test", logger.Options{Format: logger.JSONLogFormat})
	require.NoError(t, err)
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, run(ctx, log, cfg))

	store, err := report.Open(context.Background(), cfg.Report.Path)
	require.NoError(t, err)
	defer store.Close()
	recent, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestRunReturnsSetupErrors(t *testing.T) {
	log, err := logger.New("test", logger.Options{Format: logger.JSONLogFormat})
	require.NoError(t, err)

	// Fails after the report store is open.
	cfg := testConfig(t)
	cfg.Service.Compliance = &compliance.Policy{Minimum: "not a version"}
	err = run(context.Background(), log, cfg)
	assert.ErrorIs(t, err, compliance.ErrInvalidVersion)

	cfg = testConfig(t)
	cfg.JSS.URL = "ftp://jss.example.com"
	assert.Error(t, run(context.Background(), log, cfg))
}
