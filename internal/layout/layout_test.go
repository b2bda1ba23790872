package layout_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen/internal/domain"
	"invoicegen/internal/layout"
	"invoicegen/internal/tax"
)

func testInvoice(items ...domain.LineItem) *domain.Invoice {
	if len(items) == 0 {
		items = []domain.LineItem{lineItem("Design work", "10", "5000", 1000)}
	}
	return &domain.Invoice{
		Number:    "INV-001",
		IssueDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		Seller:    domain.Party{Name: "株式会社サンプル", Address: "東京都千代田区丸の内1-1-1", Email: "billing@example.co.jp"},
		Buyer:     domain.Party{Name: "Buyer Inc", Address: "1 Main St"},
		Currency:  "JPY",
		Items:     items,
	}
}

func lineItem(desc, qty, price string, rate domain.TaxRate) domain.LineItem {
	return domain.LineItem{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		TaxRate:     rate,
	}
}

func plan(t *testing.T, inv *domain.Invoice, cfg layout.PageConfig) *layout.Plan {
	t.Helper()
	p, err := layout.Layout(inv, tax.Aggregate(inv.Items, tax.Scale(inv.Currency)), cfg)
	require.NoError(t, err)
	return p
}

func texts(p layout.Page) []string {
	out := make([]string, len(p.Texts))
	for i, t := range p.Texts {
		out[i] = t.Text
	}
	return out
}

func containsText(p layout.Page, sub string) bool {
	for _, t := range p.Texts {
		if strings.Contains(t.Text, sub) {
			return true
		}
	}
	return false
}

func countText(pl *layout.Plan, s string) int {
	n := 0
	for _, v := range pl.Strings() {
		if v == s {
			n++
		}
	}
	return n
}

func TestLayout_SinglePage(t *testing.T) {
	inv := testInvoice()
	inv.Note = "お振込手数料はご負担ください。"
	p := plan(t, inv, layout.DefaultPageConfig())

	require.Len(t, p.Pages, 1)
	pg := p.Pages[0]
	all := texts(pg)
	assert.Contains(t, all, "請求書 / INVOICE")
	assert.Contains(t, all, "INV-001")
	assert.Contains(t, all, "2025-04-01")
	assert.Contains(t, all, "2025-04-30")
	assert.Contains(t, all, "Design work")
	assert.Contains(t, all, "¥50,000")
	assert.Contains(t, all, "¥5,000")
	assert.Contains(t, all, "¥55,000")
	assert.Contains(t, all, "お振込手数料はご負担ください。")
	assert.Contains(t, all, "1 / 1")
	assert.Equal(t, inv.IssueDate, p.Created)
	assert.Equal(t, 210.0, p.Width)
}

func TestLayout_OptionalBlocksOmitted(t *testing.T) {
	p := plan(t, testInvoice(), layout.DefaultPageConfig())

	assert.Empty(t, p.Pages[0].Images)
	assert.False(t, containsText(p.Pages[0], "登録番号"))
	assert.False(t, containsText(p.Pages[0], "備考"))
}

func TestLayout_OptionalBlocksPresent(t *testing.T) {
	inv := testInvoice()
	inv.RegistrationID = "T1234567890123"
	cfg := layout.DefaultPageConfig()
	cfg.Logo = true

	p := plan(t, inv, cfg)

	require.Len(t, p.Pages[0].Images, 1)
	img := p.Pages[0].Images[0]
	assert.Equal(t, layout.LogoAsset, img.Asset)
	assert.InDelta(t, cfg.PageWidth-cfg.Margin, img.X+img.W, 1e-9)
	assert.True(t, containsText(p.Pages[0], "T1234567890123"))
}

func TestLayout_TaxGroupsAscending(t *testing.T) {
	inv := testInvoice(
		lineItem("A", "1", "1000", 1000),
		lineItem("B", "1", "1000", 800),
		lineItem("C", "1", "1000", 0),
	)
	p := plan(t, inv, layout.DefaultPageConfig())

	var labels []string
	for _, s := range p.Strings() {
		if strings.HasPrefix(s, "消費税（") {
			labels = append(labels, s)
		}
	}
	assert.Equal(t, []string{"消費税（0%）", "消費税（8%）", "消費税（10%）"}, labels)
}

func TestLayout_WrapsLongDescription(t *testing.T) {
	long := strings.Repeat("長い説明文", 30)
	p := plan(t, testInvoice(lineItem(long, "1", "100", 1000)), layout.DefaultPageConfig())

	var joined strings.Builder
	for _, tx := range p.Pages[0].Texts {
		if strings.Contains(long, tx.Text) && tx.Text != "" && tx.Align == layout.AlignLeft && !tx.Bold {
			assert.LessOrEqual(t, layout.Measure(tx.Text)*18, int(tx.W*10)+1, "line %q exceeds its box", tx.Text)
			joined.WriteString(tx.Text)
		}
	}
	assert.Equal(t, long, joined.String())
}

func TestLayout_PaginatesAndRepeatsHeader(t *testing.T) {
	var items []domain.LineItem
	for i := 1; i <= 80; i++ {
		items = append(items, lineItem(fmt.Sprintf("Item %02d", i), "1", "100", 1000))
	}
	cfg := layout.DefaultPageConfig()
	p := plan(t, testInvoice(items...), cfg)

	require.Greater(t, len(p.Pages), 1)
	bottom := cfg.PageHeight - cfg.Margin - cfg.LineHeight
	for i, pg := range p.Pages {
		assert.Contains(t, texts(pg), "内容 / Description", "page %d lacks the table header", i+1)
		assert.Contains(t, texts(pg), fmt.Sprintf("%d / %d", i+1, len(p.Pages)))
		for _, tx := range pg.Texts {
			if strings.Contains(tx.Text, " / ") && tx.Align == layout.AlignCenter {
				continue
			}
			assert.LessOrEqual(t, tx.Y+tx.H, bottom+1e-9, "page %d: %q crosses the bottom margin", i+1, tx.Text)
		}
	}

	for i := 1; i <= 80; i++ {
		assert.Equal(t, 1, countText(p, fmt.Sprintf("Item %02d", i)))
	}

	last := p.Pages[len(p.Pages)-1]
	assert.Contains(t, texts(last), "合計 / Total")
	assert.Contains(t, texts(last), "Item 80")
	for _, pg := range p.Pages[:len(p.Pages)-1] {
		assert.NotContains(t, texts(pg), "合計 / Total")
	}
}

func TestLayout_LastRowMovesWithTotals(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	// Find an item count where the items alone fit on page one but the
	// totals do not, then check the last item moved to page two.
	for n := 20; n < 60; n++ {
		var items []domain.LineItem
		for i := 1; i <= n; i++ {
			items = append(items, lineItem(fmt.Sprintf("Row %02d", i), "1", "100", 1000))
		}
		p := plan(t, testInvoice(items...), cfg)
		if len(p.Pages) < 2 {
			continue
		}
		last := p.Pages[len(p.Pages)-1]
		assert.Contains(t, texts(last), fmt.Sprintf("Row %02d", n))
		assert.Contains(t, texts(last), "合計 / Total")
		return
	}
	t.Fatal("no item count produced a second page")
}

func TestLayout_AmountColumnWidensForWholeDocument(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	small := plan(t, testInvoice(lineItem("a", "1", "100", 1000)), cfg)

	wide := plan(t, testInvoice(
		lineItem("a", "1", "100", 1000),
		lineItem("b", "1", "1000000000000", 1000),
	), cfg)

	boxW := func(p *layout.Plan, s string) float64 {
		for _, tx := range p.Pages[0].Texts {
			if tx.Text == s {
				return tx.W
			}
		}
		t.Fatalf("text %q not found", s)
		return 0
	}
	assert.Greater(t, boxW(wide, "¥100"), boxW(small, "¥100"), "small values share the widened column")
	assert.Less(t, boxW(wide, "a"), boxW(small, "a"), "description gives up the room")
	assert.True(t, containsText(wide.Pages[0], "¥1,000,000,000,000"))

	for _, tx := range wide.Pages[0].Texts {
		if tx.Align == layout.AlignRight && strings.HasPrefix(tx.Text, "¥") {
			assert.LessOrEqual(t, float64(layout.Measure(tx.Text))*cfg.UnitWidth, tx.W+1e-9, "%q truncated", tx.Text)
		}
	}
}

func TestLayout_ColumnOverflow(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	cfg.MinDescriptionUnits = 48

	inv := testInvoice(lineItem("a", "2", "1000000000000", 1000))
	_, err := layout.Layout(inv, tax.Aggregate(inv.Items, 0), cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLayoutOverflow))
	var re *domain.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.RenderLayoutOverflow, re.Kind)
}

func TestLayout_RowTallerThanPage(t *testing.T) {
	desc := strings.TrimSuffix(strings.Repeat("line\n", 80), "\n")
	inv := testInvoice(lineItem(desc, "1", "1", 0))

	_, err := layout.Layout(inv, tax.Aggregate(inv.Items, 0), layout.DefaultPageConfig())
	assert.True(t, errors.Is(err, domain.ErrLayoutOverflow))
}

func TestLayout_Deterministic(t *testing.T) {
	inv := testInvoice(
		lineItem(strings.Repeat("word ", 40), "3", "1250.5", 800),
		lineItem("short", "1", "99", 1000),
	)
	inv.Note = strings.Repeat("備考 ", 50)
	cfg := layout.DefaultPageConfig()

	assert.Equal(t, plan(t, inv, cfg), plan(t, inv, cfg))
}

func TestLayout_InvalidConfig(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	cfg.UnitWidth = 0
	_, err := layout.Layout(testInvoice(), tax.Aggregate(testInvoice().Items, 0), cfg)
	assert.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	base := layout.DefaultPageConfig()
	cfg, err := layout.LoadProfile(strings.NewReader("margin: 12\ntitle: INVOICE\nqty_units: 10\n"), base)
	require.NoError(t, err)

	assert.Equal(t, 12.0, cfg.Margin)
	assert.Equal(t, "INVOICE", cfg.Title)
	assert.Equal(t, 10, cfg.QtyUnits)
	assert.Equal(t, base.PageWidth, cfg.PageWidth)

	_, err = layout.LoadProfile(strings.NewReader("margin: 200\n"), base)
	assert.Error(t, err)

	cfg, err = layout.LoadProfile(strings.NewReader(""), base)
	require.NoError(t, err)
	assert.Equal(t, base, cfg)
}

func TestLayout_EnglishLabels(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	cfg.Title = "INVOICE"
	cfg.Labels = layout.EnglishLabels()

	inv := testInvoice(lineItem("A", "1", "100", 800))
	inv.Seller.Name, inv.Seller.Address = "Seller", "1 Road"
	p := plan(t, inv, cfg)

	for _, s := range p.Strings() {
		for _, r := range s {
			assert.Less(t, r, rune(0x3000), "unexpected wide rune in %q", s)
		}
	}
	assert.Contains(t, p.Strings(), "Tax (8%)")
}

func TestLoadProfile_Labels(t *testing.T) {
	cfg, err := layout.LoadProfile(strings.NewReader("labels:\n  total: Amount due\n"), layout.DefaultPageConfig())
	require.NoError(t, err)
	assert.Equal(t, "Amount due", cfg.Labels.Total)
	assert.Equal(t, layout.BilingualLabels().Note, cfg.Labels.Note)
}

// assertInsideMargins checks that nothing but the page footer reaches
// below the bottom margin.
func assertInsideMargins(t *testing.T, p *layout.Plan, cfg layout.PageConfig) {
	t.Helper()
	bottom := cfg.PageHeight - cfg.Margin - cfg.LineHeight
	for i, pg := range p.Pages {
		footer := fmt.Sprintf("%d / %d", i+1, len(p.Pages))
		for _, tx := range pg.Texts {
			if tx.Text == footer && tx.Align == layout.AlignCenter {
				continue
			}
			assert.LessOrEqual(t, tx.Y+tx.H, bottom+1e-9, "page %d: %q crosses the bottom margin", i+1, tx.Text)
			assert.GreaterOrEqual(t, tx.Y, cfg.Margin-1e-9, "page %d: %q above the top margin", i+1, tx.Text)
		}
	}
}

// joinedParts concatenates, in page order, every text that is a piece of s.
func joinedParts(p *layout.Plan, s string) string {
	var b strings.Builder
	for _, v := range p.Strings() {
		if v != "" && strings.Contains(s, v) {
			b.WriteString(v)
		}
	}
	return b.String()
}

func TestLayout_LongSellerAddressContinuesOnNextPages(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	inv := testInvoice()
	inv.Seller.Address = strings.Repeat("千代田区丸の内", 950)

	p := plan(t, inv, cfg)

	require.Greater(t, len(p.Pages), 2)
	assertInsideMargins(t, p, cfg)
	assert.Equal(t, inv.Seller.Address, joinedParts(p, inv.Seller.Address), "address lost or reordered")
	assert.True(t, containsText(p.Pages[0], "INV-001"))
	assert.Equal(t, 1, countText(p, "請求先 / Bill To"))
	last := p.Pages[len(p.Pages)-1]
	assert.Contains(t, texts(last), "合計 / Total")
}

func TestLayout_LongBuyerBlockDoesNotStrandTableHeader(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	inv := testInvoice()
	inv.Buyer.Address = strings.Repeat("大阪市北区梅田", 300)

	p := plan(t, inv, cfg)

	assertInsideMargins(t, p, cfg)
	for i, pg := range p.Pages {
		if containsText(pg, "明細 / Items") {
			assert.True(t, containsText(pg, "Design work"), "page %d has the table heading but no row", i+1)
		}
	}
}

func TestLayout_LongNoteContinuesAfterTotals(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	inv := testInvoice()
	inv.Note = strings.Repeat("お振込手数料はご負担ください。", 390)

	p := plan(t, inv, cfg)

	require.Greater(t, len(p.Pages), 1)
	assertInsideMargins(t, p, cfg)
	assert.Contains(t, texts(p.Pages[0]), "Design work")
	assert.Contains(t, texts(p.Pages[0]), "合計 / Total")
	assert.Equal(t, 1, countText(p, "合計 / Total"))
	assert.Equal(t, inv.Note, joinedParts(p, inv.Note))
	assert.True(t, containsText(p.Pages[len(p.Pages)-1], "ください。"))
}

func TestLayout_NoteHeadingKeptWithText(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	inv := testInvoice()
	inv.Note = "Short note"

	for n := 20; n < 60; n++ {
		var items []domain.LineItem
		for i := 1; i <= n; i++ {
			items = append(items, lineItem(fmt.Sprintf("Row %02d", i), "1", "100", 1000))
		}
		inv.Items = items
		p := plan(t, inv, cfg)
		for _, pg := range p.Pages {
			if containsText(pg, "備考 / Note") {
				assert.True(t, containsText(pg, "Short note"), "%d items: note heading stranded", n)
			}
		}
		assertInsideMargins(t, p, cfg)
	}
}

func TestLayout_DefaultTaxRateInMeta(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	inv := testInvoice()

	p := plan(t, inv, cfg)
	assert.False(t, containsText(p.Pages[0], "税率 / Tax Rate"))

	rate := domain.TaxRate(800)
	inv.DefaultTaxRate = &rate
	p = plan(t, inv, cfg)
	assert.Contains(t, texts(p.Pages[0]), "税率 / Tax Rate")
	assert.Contains(t, texts(p.Pages[0]), "8%")
}

func TestLayout_LineHeightMustLeaveRoom(t *testing.T) {
	cfg := layout.DefaultPageConfig()
	cfg.LineHeight = 90
	_, err := layout.Layout(testInvoice(), tax.Aggregate(testInvoice().Items, 0), cfg)
	assert.Error(t, err)
}
