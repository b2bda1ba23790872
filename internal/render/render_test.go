package render_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen/internal/assets"
	"invoicegen/internal/domain"
	"invoicegen/internal/layout"
	"invoicegen/internal/render"
	"invoicegen/internal/tax"
)

func asciiConfig() layout.PageConfig {
	cfg := layout.DefaultPageConfig()
	cfg.Title = "INVOICE"
	cfg.Labels = layout.EnglishLabels()
	return cfg
}

func buildPlan(t *testing.T, seller string, items int, cfg layout.PageConfig) *layout.Plan {
	t.Helper()
	inv := &domain.Invoice{
		Number:    "INV-1",
		IssueDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		Seller:    domain.Party{Name: seller},
		Buyer:     domain.Party{Name: "Buyer"},
		Currency:  "JPY",
	}
	for i := 0; i < items; i++ {
		inv.Items = append(inv.Items, domain.LineItem{
			Description: fmt.Sprintf("Item %d", i+1),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(1000),
			TaxRate:     1000,
		})
	}
	p, err := layout.Layout(inv, tax.Aggregate(inv.Items, 0), cfg)
	require.NoError(t, err)
	return p
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestRender_FallbackFontForASCII(t *testing.T) {
	r := render.New(nil)
	plan := buildPlan(t, "Acme Ltd", 3, asciiConfig())

	out, err := r.Render(context.Background(), plan, assets.Memory{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "Helvetica")
}

func TestRender_Deterministic(t *testing.T) {
	r := render.New(nil)
	plan := buildPlan(t, "Acme Ltd", 5, asciiConfig())

	a, err := r.Render(context.Background(), plan, assets.Memory{})
	require.NoError(t, err)
	b, err := r.Render(context.Background(), plan, assets.Memory{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRender_MissingFontForJapanese(t *testing.T) {
	r := render.New(nil)
	plan := buildPlan(t, "株式会社サンプル", 1, asciiConfig())

	_, err := r.Render(context.Background(), plan, assets.Memory{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingFont))

	var re *domain.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.RenderMissingFont, re.Kind)
}

func TestRender_InvalidFont(t *testing.T) {
	r := render.New(nil)
	plan := buildPlan(t, "Acme", 1, asciiConfig())
	provider := assets.Memory{assets.FontRegular: {Name: assets.FontRegular, Data: []byte("definitely not a font")}}

	_, err := r.Render(context.Background(), plan, provider)
	assert.True(t, errors.Is(err, domain.ErrInvalidAsset))
}

func TestRender_Logo(t *testing.T) {
	cfg := asciiConfig()
	cfg.Logo = true
	plan := buildPlan(t, "Acme", 1, cfg)
	r := render.New(nil)

	t.Run("valid png", func(t *testing.T) {
		out, err := r.Render(context.Background(), plan, assets.Memory{assets.Logo: {Name: assets.Logo, Data: pngBytes(t)}})
		require.NoError(t, err)
		assert.Contains(t, string(out), "/Subtype /Image")
	})
	t.Run("missing logo is omitted", func(t *testing.T) {
		out, err := r.Render(context.Background(), plan, assets.Memory{})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "/Subtype /Image")
	})
	t.Run("undecodable logo", func(t *testing.T) {
		_, err := r.Render(context.Background(), plan, assets.Memory{assets.Logo: {Name: assets.Logo, Data: []byte("GIF89a")}})
		assert.True(t, errors.Is(err, domain.ErrInvalidAsset))
	})
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

func TestRender_OnePDFPagePerPlanPage(t *testing.T) {
	plan := buildPlan(t, "Acme", 90, asciiConfig())
	require.Greater(t, len(plan.Pages), 1)

	out, err := render.New(nil).Render(context.Background(), plan, assets.Memory{})
	require.NoError(t, err)
	assert.Len(t, pageObject.FindAll(out, -1), len(plan.Pages))
}

func TestRender_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := render.New(nil).Render(ctx, buildPlan(t, "Acme", 1, asciiConfig()), assets.Memory{})
	assert.ErrorIs(t, err, context.Canceled)
}

// systemFont returns a TrueType font installed on the machine, if any.
func systemFont(t *testing.T) []byte {
	t.Helper()
	for _, p := range []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
	} {
		if b, err := os.ReadFile(p); err == nil {
			return b
		}
	}
	t.Skip("no TrueType font installed")
	return nil
}

func TestRender_EmbedsFont(t *testing.T) {
	font := systemFont(t)
	plan := buildPlan(t, "Acme", 2, asciiConfig())

	out, err := render.New(nil).Render(context.Background(), plan, assets.Memory{
		assets.FontRegular: {Name: assets.FontRegular, Type: "ttf", Data: font},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "/FontFile2")
}
