package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invoicegen/internal/app"
	"invoicegen/internal/assets"
	"invoicegen/internal/config"
	"invoicegen/internal/layout"
	"invoicegen/mocks"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Invoice: config.InvoiceConfig{DefaultCurrency: "JPY", DateFormat: "2006-01-02"},
		Batch:   config.BatchConfig{Concurrency: 2},
		Assets: config.AssetsConfig{
			Source:      "dir",
			Dir:         t.TempDir(),
			RegularFont: "regular.ttf",
			Logo:        "logo.png",
		},
		Email: config.EmailConfig{Provider: "noop"},
	}
}

func TestNeedsStorage(t *testing.T) {
	cfg := baseConfig(t)
	assert.False(t, app.NeedsStorage(cfg))

	s, err := app.Storage(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.Publish.Enabled = true
	assert.True(t, app.NeedsStorage(cfg))
}

func TestAssets(t *testing.T) {
	cfg := baseConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Assets.Dir, "regular.ttf"), []byte("font"), 0o600))

	p, err := app.Assets(cfg, nil)
	require.NoError(t, err)
	a, err := p.Get(context.Background(), assets.FontRegular)
	require.NoError(t, err)
	assert.Equal(t, []byte("font"), a.Data)

	cfg.Assets.Source = "s3"
	_, err = app.Assets(cfg, nil)
	assert.Error(t, err)

	_, err = app.Assets(cfg, new(mocks.MockObjectStorage))
	assert.NoError(t, err)
}

func TestPageConfig_Profile(t *testing.T) {
	cfg := baseConfig(t)

	pc, err := app.PageConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, layout.DefaultPageConfig(), pc)

	profile := filepath.Join(t.TempDir(), "letter.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("page_width: 215.9\npage_height: 279.4\n"), 0o600))
	cfg.Layout.Profile = profile
	pc, err = app.PageConfig(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 215.9, pc.PageWidth, 0.001)

	cfg.Layout.Profile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = app.PageConfig(cfg)
	assert.Error(t, err)
}

func TestProcessor(t *testing.T) {
	cfg := baseConfig(t)
	p, err := app.Processor(cfg, assets.Memory{}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, p.Parser())
}

func TestEmailSender(t *testing.T) {
	cfg := baseConfig(t)
	s, err := app.EmailSender(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)

	cfg.Email.Provider = "carrier-pigeon"
	_, err = app.EmailSender(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
