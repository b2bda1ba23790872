// Package layout turns an invoice and its tax breakdown into a paginated
// plan of positioned text, rules and images. It performs no I/O.
package layout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"invoicegen/internal/domain"
	"invoicegen/internal/tax"
)

// cellPad is the padding, in units, on each side of a table cell.
const cellPad = 1

const (
	colDesc = iota
	colQty
	colUnit
	colAmount
	numCols
)

type column struct {
	x, w  float64 // cell box
	units int     // text width
	align Align
}

func (c column) textX(unit float64) float64 { return c.x + cellPad*unit }

type row struct {
	item  int
	cells [numCols][]string
	lines int
}

type engine struct {
	cfg   PageConfig
	inv   *domain.Invoice
	b     *domain.Breakdown
	scale int32

	cols  [numCols]column
	pages []*Page
	y     float64
}

// Layout places inv on pages described by cfg. It fails with a
// *domain.RenderError of kind RenderLayoutOverflow when content cannot be
// placed without truncation.
func Layout(inv *domain.Invoice, b *domain.Breakdown, cfg PageConfig) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &engine{cfg: cfg, inv: inv, b: b, scale: tax.Scale(inv.Currency)}

	cells := e.formatItems()
	if err := e.sizeColumns(cells); err != nil {
		return nil, err
	}
	rows := e.wrapRows(cells)

	e.newPage()
	e.header()
	if err := e.table(rows); err != nil {
		return nil, err
	}
	e.footers()

	plan := &Plan{
		Width:   cfg.PageWidth,
		Height:  cfg.PageHeight,
		Title:   fmt.Sprintf("Invoice %s", inv.Number),
		Author:  inv.Seller.Name,
		Created: inv.IssueDate,
		Pages:   make([]Page, len(e.pages)),
	}
	for i, p := range e.pages {
		plan.Pages[i] = *p
	}
	return plan, nil
}

func (e *engine) lh() float64 { return e.cfg.LineHeight }

func (e *engine) page() *Page { return e.pages[len(e.pages)-1] }

func (e *engine) bottom() float64 {
	return e.cfg.PageHeight - e.cfg.Margin - e.lh()
}

func (e *engine) newPage() {
	e.pages = append(e.pages, &Page{Number: len(e.pages) + 1})
	e.y = e.cfg.Margin
}

func (e *engine) text(x, y, w float64, s string, align Align, bold bool) {
	p := e.page()
	p.Texts = append(p.Texts, Text{X: x, Y: y, W: w, H: e.lh(), Text: s, Size: e.cfg.FontSize, Bold: bold, Align: align})
}

func (e *engine) rule(y float64) {
	p := e.page()
	p.Rules = append(p.Rules, Rule{X1: e.cfg.Margin, Y1: y, X2: e.cfg.PageWidth - e.cfg.Margin, Y2: y})
}

// formatItems renders every cell of the item table as plain strings.
func (e *engine) formatItems() [][numCols]string {
	out := make([][numCols]string, len(e.inv.Items))
	for i, it := range e.inv.Items {
		out[i] = [numCols]string{
			colDesc:   it.Description,
			colQty:    FormatQuantity(it.Quantity),
			colUnit:   FormatAmount(it.UnitPrice, e.inv.Currency, e.scale),
			colAmount: FormatAmount(it.Amount(), e.inv.Currency, e.scale),
		}
	}
	return out
}

// sizeColumns fixes the table geometry for the whole document. A numeric
// column too narrow for its widest value grows, and the description
// column gives up the room.
func (e *engine) sizeColumns(cells [][numCols]string) error {
	cfg := e.cfg
	units := [numCols]int{colQty: cfg.QtyUnits, colUnit: cfg.UnitPriceUnits, colAmount: cfg.AmountUnits}
	grow := func(col int, s string) {
		if w := Measure(s); w > units[col] {
			units[col] = w
		}
	}
	for _, c := range cells {
		grow(colQty, c[colQty])
		grow(colUnit, c[colUnit])
		grow(colAmount, c[colAmount])
	}
	for _, s := range e.closingAmounts() {
		grow(colAmount, s)
	}

	contentW := cfg.contentWidth()
	right := cfg.PageWidth - cfg.Margin
	for col := colAmount; col > colDesc; col-- {
		w := float64(units[col]+2*cellPad) * cfg.UnitWidth
		right -= w
		e.cols[col] = column{x: right, w: w, units: units[col], align: AlignRight}
	}
	descW := right - cfg.Margin
	descUnits := cfg.units(descW) - 2*cellPad
	if descUnits < cfg.MinDescriptionUnits {
		return domain.NewRenderError(domain.RenderLayoutOverflow,
			"amount columns need %.1fmm of %.1fmm, leaving %d units for descriptions (minimum %d)",
			contentW-descW, contentW, max(descUnits, 0), cfg.MinDescriptionUnits)
	}
	e.cols[colDesc] = column{x: cfg.Margin, w: descW, units: descUnits, align: AlignLeft}
	return nil
}

func (e *engine) wrapRows(cells [][numCols]string) []row {
	rows := make([]row, len(cells))
	for i, c := range cells {
		r := row{item: i + 1}
		for col := range numCols {
			r.cells[col] = Wrap(c[col], e.cols[col].units)
			r.lines = max(r.lines, len(r.cells[col]))
		}
		rows[i] = r
	}
	return rows
}

// line is one wrapped line of a flowed text block.
type line struct {
	text string
	bold bool
}

// textColumn is a column of lines flowed down the page.
type textColumn struct {
	x     float64
	units int
	lines []line
}

// blockLines wraps a bold heading and the non-empty values below it.
func blockLines(units int, heading string, values ...string) []line {
	var out []line
	for _, ln := range Wrap(heading, units) {
		out = append(out, line{text: ln, bold: true})
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		for _, ln := range Wrap(v, units) {
			out = append(out, line{text: ln})
		}
	}
	return out
}

// ensure starts a new page when h more millimetres do not fit above the
// bottom margin.
func (e *engine) ensure(h float64) {
	if e.y+h > e.bottom() {
		e.newPage()
	}
}

// flow writes columns side by side from e.y, one line at a time, moving to
// a new page whenever the next line would cross the bottom margin. A
// heading line is never left alone at the foot of a page.
func (e *engine) flow(cols ...textColumn) {
	n := 0
	for _, c := range cols {
		n = max(n, len(c.lines))
	}
	for i := 0; i < n; i++ {
		need := e.lh()
		for _, c := range cols {
			if i+1 < len(c.lines) && c.lines[i].bold && !c.lines[i+1].bold {
				need = 2 * e.lh()
			}
		}
		e.ensure(need)
		for _, c := range cols {
			if i < len(c.lines) {
				w := float64(c.units) * e.cfg.UnitWidth
				e.text(c.x, e.y, w, c.lines[i].text, AlignLeft, c.lines[i].bold)
			}
		}
		e.y += e.lh()
	}
}

// header lays out the title, the seller and meta columns, the optional
// logo and the bill-to block. Long blocks continue on following pages.
func (e *engine) header() {
	cfg := e.cfg
	titleH := cfg.TitleSize * 0.5
	p := e.page()
	p.Texts = append(p.Texts, Text{
		X: cfg.Margin, Y: e.y, W: cfg.contentWidth(), H: titleH,
		Text: cfg.Title, Size: cfg.TitleSize, Bold: true,
	})

	logoBottom := e.y
	if cfg.Logo {
		x := cfg.PageWidth - cfg.Margin - cfg.LogoSize
		p.Images = append(p.Images, Image{Asset: LogoAsset, X: x, Y: cfg.Margin, W: cfg.LogoSize, H: cfg.LogoSize})
		logoBottom = cfg.Margin + cfg.LogoSize
	}

	e.y += titleH + e.lh()
	leftUnits := cfg.units(cfg.HeaderSplit) - 2
	metaX := cfg.Margin + cfg.HeaderSplit + 2*cfg.UnitWidth
	metaW := cfg.PageWidth - cfg.Margin - metaX
	if cfg.Logo {
		metaW -= cfg.LogoSize + cfg.UnitWidth
	}
	metaUnits := cfg.units(metaW)

	seller := []string{e.inv.Seller.Name, e.inv.Seller.Address, e.inv.Seller.Phone, e.inv.Seller.Email}
	if e.inv.RegistrationID != "" {
		seller = append(seller, cfg.Labels.RegistrationID+": "+e.inv.RegistrationID)
	}

	meta := blockLines(metaUnits, cfg.Labels.InvoiceNo, e.inv.Number)
	meta = append(meta, blockLines(metaUnits, cfg.Labels.Date, e.inv.IssueDate.Format(cfg.DateLayout))...)
	meta = append(meta, blockLines(metaUnits, cfg.Labels.DueDate, e.inv.DueDate.Format(cfg.DateLayout))...)
	meta = append(meta, blockLines(metaUnits, cfg.Labels.Currency, e.inv.Currency)...)
	if r := e.inv.DefaultTaxRate; r != nil {
		meta = append(meta, blockLines(metaUnits, cfg.Labels.TaxRate, r.String())...)
	}

	e.flow(
		textColumn{x: cfg.Margin, units: leftUnits, lines: blockLines(leftUnits, cfg.Labels.From, seller...)},
		textColumn{x: metaX, units: metaUnits, lines: meta},
	)
	if len(e.pages) == 1 {
		e.y = max(e.y, logoBottom)
	}
	e.y += e.lh()

	buyer := blockLines(leftUnits, cfg.Labels.BillTo, e.inv.Buyer.Name, e.inv.Buyer.Address, e.inv.Buyer.Phone, e.inv.Buyer.Email)
	e.flow(textColumn{x: cfg.Margin, units: leftUnits, lines: buyer})
	e.y += e.lh()
}

func (e *engine) tableHeader() {
	labels := e.headerLabels()
	lines := 0
	for col, c := range e.cols {
		wrapped := Wrap(labels[col], c.units)
		for i, ln := range wrapped {
			e.text(c.textX(e.cfg.UnitWidth), e.y+float64(i)*e.lh(), float64(c.units)*e.cfg.UnitWidth, ln, c.align, true)
		}
		lines = max(lines, len(wrapped))
	}
	e.y += float64(lines) * e.lh()
	e.rule(e.y)
	e.y += e.lh() / 2
}

func (e *engine) headerLabels() [numCols]string {
	l := e.cfg.Labels
	return [numCols]string{l.Description, l.Quantity, l.UnitPrice, l.Amount}
}

func (e *engine) tableHeaderHeight() float64 {
	labels := e.headerLabels()
	lines := 0
	for col, c := range e.cols {
		lines = max(lines, len(Wrap(labels[col], c.units)))
	}
	return float64(lines)*e.lh() + e.lh()/2
}

// table places the item rows, breaking pages before any row that does not
// fit. The last row must fit together with the totals so they always
// follow it on the same page. The note flows after the totals.
func (e *engine) table(rows []row) error {
	closing := e.closingBlock()
	fresh := e.bottom() - e.cfg.Margin - e.tableHeaderHeight()
	need := func(i int) float64 {
		h := float64(rows[i].lines) * e.lh()
		if i == len(rows)-1 {
			h += closing.height
		}
		return h
	}

	lead := e.lh() + e.tableHeaderHeight()
	if len(rows) > 0 && need(0) <= fresh {
		lead += need(0)
	}
	e.ensure(lead)
	e.text(e.cfg.Margin, e.y, e.cfg.contentWidth(), e.cfg.Labels.Items, AlignLeft, true)
	e.y += e.lh()
	e.tableHeader()

	for i, r := range rows {
		h := need(i)
		if h > fresh {
			return domain.NewRenderError(domain.RenderLayoutOverflow,
				"item %d needs %.1fmm but a page holds at most %.1fmm", r.item, h, fresh)
		}
		if e.y+h > e.bottom() {
			e.newPage()
			e.tableHeader()
		}
		e.row(r)
	}

	if len(rows) == 0 && e.y+closing.height > e.bottom() {
		if closing.height > e.bottom()-e.cfg.Margin {
			return domain.NewRenderError(domain.RenderLayoutOverflow,
				"totals need %.1fmm but a page holds at most %.1fmm", closing.height, e.bottom()-e.cfg.Margin)
		}
		e.newPage()
	}
	e.place(closing)
	e.note()
	return nil
}

// note flows the wrapped note across as many pages as it needs.
func (e *engine) note() {
	if e.inv.Note == "" {
		return
	}
	units := e.cfg.units(e.cfg.contentWidth())
	e.y += e.lh()
	e.flow(textColumn{x: e.cfg.Margin, units: units, lines: blockLines(units, e.cfg.Labels.Note, e.inv.Note)})
}

func (e *engine) row(r row) {
	for col, c := range e.cols {
		for i, ln := range r.cells[col] {
			e.text(c.textX(e.cfg.UnitWidth), e.y+float64(i)*e.lh(), float64(c.units)*e.cfg.UnitWidth, ln, c.align, false)
		}
	}
	e.y += float64(r.lines) * e.lh()
}

// fragment is content positioned relative to its own top edge.
type fragment struct {
	texts  []Text
	rules  []Rule
	height float64
}

func (e *engine) place(f fragment) {
	p := e.page()
	for _, t := range f.texts {
		t.Y += e.y
		p.Texts = append(p.Texts, t)
	}
	for _, r := range f.rules {
		r.Y1 += e.y
		r.Y2 += e.y
		p.Rules = append(p.Rules, r)
	}
	e.y += f.height
}

func (e *engine) closingAmounts() []string {
	var out []string
	for _, g := range e.b.Groups {
		out = append(out, e.money(g.Subtotal), e.money(g.Tax))
	}
	return append(out, e.money(e.b.Subtotal), e.money(e.b.Tax), e.money(e.b.GrandTotal))
}

func (e *engine) money(d decimal.Decimal) string {
	return FormatAmount(d, e.inv.Currency, e.scale)
}

// closingBlock builds the tax breakdown and totals.
func (e *engine) closingBlock() fragment {
	var (
		f   fragment
		y   float64
		lh  = e.lh()
		cfg = e.cfg
		amt = e.cols[colAmount]
	)
	labelW := amt.x - cfg.Margin - cfg.UnitWidth
	valueX := amt.textX(cfg.UnitWidth)
	valueW := float64(amt.units) * cfg.UnitWidth

	rule := func() {
		y += lh / 2
		f.rules = append(f.rules, Rule{X1: cfg.Margin, Y1: y, X2: cfg.PageWidth - cfg.Margin, Y2: y})
		y += lh / 2
	}
	line := func(label, value string, bold bool) {
		f.texts = append(f.texts,
			Text{X: cfg.Margin, Y: y, W: labelW, H: lh, Text: label, Size: cfg.FontSize, Bold: bold, Align: AlignRight},
			Text{X: valueX, Y: y, W: valueW, H: lh, Text: value, Size: cfg.FontSize, Bold: bold, Align: AlignRight},
		)
		y += lh
	}

	rule()
	for _, g := range e.b.Groups {
		line(fmt.Sprintf(cfg.Labels.TaxableByRate, g.Rate), e.money(g.Subtotal), false)
		line(fmt.Sprintf(cfg.Labels.TaxByRate, g.Rate), e.money(g.Tax), false)
	}
	rule()
	line(e.cfg.Labels.Subtotal, e.money(e.b.Subtotal), false)
	line(e.cfg.Labels.Tax, e.money(e.b.Tax), false)
	line(e.cfg.Labels.Total, e.money(e.b.GrandTotal), true)

	f.height = y
	return f
}

// footers numbers every page as "n / N".
func (e *engine) footers() {
	total := len(e.pages)
	for _, p := range e.pages {
		p.Texts = append(p.Texts, Text{
			X: e.cfg.Margin, Y: e.bottom(), W: e.cfg.contentWidth(), H: e.lh(),
			Text: fmt.Sprintf("%d / %d", p.Number, total), Size: e.cfg.FontSize, Align: AlignCenter,
		})
	}
}
