package layout

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PageConfig controls page geometry. Lengths are millimetres, font sizes
// points. Column widths are cell units, see Measure.
type PageConfig struct {
	PageWidth   float64 `yaml:"page_width"`
	PageHeight  float64 `yaml:"page_height"`
	Margin      float64 `yaml:"margin"`
	FontSize    float64 `yaml:"font_size"`
	TitleSize   float64 `yaml:"title_size"`
	LineHeight  float64 `yaml:"line_height"`
	UnitWidth   float64 `yaml:"unit_width"`
	HeaderSplit float64 `yaml:"header_split"`

	QtyUnits            int `yaml:"qty_units"`
	UnitPriceUnits      int `yaml:"unit_price_units"`
	AmountUnits         int `yaml:"amount_units"`
	MinDescriptionUnits int `yaml:"min_description_units"`

	Title      string `yaml:"title"`
	DateLayout string `yaml:"date_layout"`
	Labels     Labels `yaml:"labels"`

	// Logo reserves the top-right logo box. Set by the caller when a logo
	// asset exists.
	Logo     bool    `yaml:"-"`
	LogoSize float64 `yaml:"logo_size"`
}

// DefaultPageConfig returns an A4 portrait page.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		PageWidth:           210,
		PageHeight:          297,
		Margin:              18,
		FontSize:            10,
		TitleSize:           18,
		LineHeight:          5,
		UnitWidth:           1.8,
		HeaderSplit:         90,
		QtyUnits:            8,
		UnitPriceUnits:      14,
		AmountUnits:         16,
		MinDescriptionUnits: 16,
		Title:               "請求書 / INVOICE",
		Labels:              BilingualLabels(),
		DateLayout:          "2006-01-02",
		LogoSize:            24,
	}
}

// Labels are the fixed captions printed on an invoice. TaxableByRate and
// TaxByRate are format strings taking the rate ("10%").
type Labels struct {
	From           string `yaml:"from"`
	BillTo         string `yaml:"bill_to"`
	InvoiceNo      string `yaml:"invoice_no"`
	Date           string `yaml:"date"`
	DueDate        string `yaml:"due_date"`
	Currency       string `yaml:"currency"`
	TaxRate        string `yaml:"tax_rate"`
	RegistrationID string `yaml:"registration_id"`
	Items          string `yaml:"items"`
	Description    string `yaml:"description"`
	Quantity       string `yaml:"quantity"`
	UnitPrice      string `yaml:"unit_price"`
	Amount         string `yaml:"amount"`
	TaxableByRate  string `yaml:"taxable_by_rate"`
	TaxByRate      string `yaml:"tax_by_rate"`
	Subtotal       string `yaml:"subtotal"`
	Tax            string `yaml:"tax"`
	Total          string `yaml:"total"`
	Note           string `yaml:"note"`
}

// BilingualLabels returns Japanese captions with English glosses.
func BilingualLabels() Labels {
	return Labels{
		From:           "請求元 / From",
		BillTo:         "請求先 / Bill To",
		InvoiceNo:      "請求書番号 / Invoice No.",
		Date:           "請求日 / Date",
		DueDate:        "支払期日 / Due Date",
		Currency:       "通貨 / Currency",
		TaxRate:        "税率 / Tax Rate",
		RegistrationID: "登録番号 / Registration No.",
		Items:          "明細 / Items",
		Description:    "内容 / Description",
		Quantity:       "数量 / Qty",
		UnitPrice:      "単価 / Unit",
		Amount:         "金額 / Amount",
		TaxableByRate:  "対象小計（%s）",
		TaxByRate:      "消費税（%s）",
		Subtotal:       "小計 / Subtotal",
		Tax:            "消費税 / Tax",
		Total:          "合計 / Total",
		Note:           "備考 / Note",
	}
}

// EnglishLabels returns captions that need no CJK glyphs.
func EnglishLabels() Labels {
	return Labels{
		From:           "From",
		BillTo:         "Bill To",
		InvoiceNo:      "Invoice No.",
		Date:           "Date",
		DueDate:        "Due Date",
		Currency:       "Currency",
		TaxRate:        "Tax Rate",
		RegistrationID: "Registration No.",
		Items:          "Items",
		Description:    "Description",
		Quantity:       "Qty",
		UnitPrice:      "Unit Price",
		Amount:         "Amount",
		TaxableByRate:  "Taxable (%s)",
		TaxByRate:      "Tax (%s)",
		Subtotal:       "Subtotal",
		Tax:            "Tax",
		Total:          "Total",
		Note:           "Note",
	}
}

// LoadProfile reads a YAML layout profile. Keys present in the profile
// override base, absent keys keep the base value.
func LoadProfile(r io.Reader, base PageConfig) (PageConfig, error) {
	cfg := base
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("decoding layout profile: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate reports geometry that cannot produce a page.
func (c PageConfig) Validate() error {
	switch {
	case c.PageWidth <= 0 || c.PageHeight <= 0:
		return fmt.Errorf("layout: page size must be positive")
	case c.Margin < 0 || 2*c.Margin >= c.PageWidth || 2*c.Margin >= c.PageHeight:
		return fmt.Errorf("layout: margin %.1fmm leaves no printable area", c.Margin)
	case c.FontSize <= 0 || c.TitleSize <= 0:
		return fmt.Errorf("layout: font sizes must be positive")
	case c.LineHeight <= 0 || c.UnitWidth <= 0:
		return fmt.Errorf("layout: line height and unit width must be positive")
	case c.PageHeight-2*c.Margin < 3*c.LineHeight:
		return fmt.Errorf("layout: line height %.1fmm leaves no room for text between the margins", c.LineHeight)
	case c.HeaderSplit <= 0 || c.HeaderSplit >= c.contentWidth():
		return fmt.Errorf("layout: header split %.1fmm must lie inside the content width", c.HeaderSplit)
	case c.QtyUnits < 1 || c.UnitPriceUnits < 1 || c.AmountUnits < 1 || c.MinDescriptionUnits < 1:
		return fmt.Errorf("layout: column widths must be at least one unit")
	case c.Logo && c.LogoSize <= 0:
		return fmt.Errorf("layout: logo size must be positive")
	}
	return nil
}

func (c PageConfig) contentWidth() float64 {
	return c.PageWidth - 2*c.Margin
}

func (c PageConfig) units(mm float64) int {
	return int(mm / c.UnitWidth)
}
