package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"percently/internal/config"
	"percently/internal/percent"
)

func TestNewFromConfigPersistsHistoryInSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Locale = "de"

	svc, closeAll, err := NewFromConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	c := svc.Open(ctx, "client-1")
	c.Calculate(ctx, percent.ModePercentOf, map[string]string{"x": "20", "y": "1.234,5"})
	out := c.Calculate(ctx, percent.ModePercentOf, map[string]string{"x": "50", "y": "3"})
	require.True(t, out.Result.OK)
	assert.Equal(t, "1,5", out.Result.Display)
	require.NoError(t, closeAll())

	// History survives a restart; the in-memory session does not.
	svc, closeAll, err = NewFromConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeAll() })

	c = svc.Open(ctx, "client-1")
	entries := c.History(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "246,9", entries[0].Display)
	assert.Nil(t, c.Held())
}

func TestNewFromConfigRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.History.Driver = "memory"
	cfg.Session.Driver = "etcd"

	_, _, err := NewFromConfig(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
