package parser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen/internal/domain"
	"invoicegen/internal/parser"
)

func validRow() parser.Row {
	return parser.Row{
		Number: 1,
		Fields: map[string]string{
			parser.ColInvoiceNo:     "INV-2025-001",
			parser.ColDate:          "2025-04-01",
			parser.ColDueDate:       "2025-04-30",
			parser.ColSellerName:    "株式会社サンプル",
			parser.ColSellerAddress: "東京都千代田区丸の内1-1-1",
			parser.ColSellerEmail:   "billing@example.co.jp",
			parser.ColSellerPhone:   "03-1234-5678",
			parser.ColBuyerName:     "Buyer Inc",
			parser.ColBuyerAddress:  "1 Main St",
			parser.ColBuyerEmail:    "ap@buyer.example",
			parser.ColBuyerPhone:    "",
			parser.ColCurrency:      "JPY",
			parser.ColItems:         "Design work|10|5000|10%; Drinks|5|200|8%; Exempt|1|1000|0",
			parser.ColTaxRate:       "0.1",
			parser.ColNote:          "いつもありがとうございます。",
		},
	}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var fe *domain.FieldErrors
	require.True(t, errors.As(err, &fe), "expected *domain.FieldErrors, got %T", err)
	names := make([]string, 0, len(fe.Fields))
	for _, f := range fe.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestParse_Valid(t *testing.T) {
	p := parser.New(parser.Options{})

	inv, err := p.Parse(validRow())
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-001", inv.Number)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), inv.DueDate)
	assert.Equal(t, "株式会社サンプル", inv.Seller.Name)
	assert.Equal(t, "JPY", inv.Currency)
	require.Len(t, inv.Items, 3)
	assert.Equal(t, "Design work", inv.Items[0].Description)
	assert.True(t, decimal.NewFromInt(10).Equal(inv.Items[0].Quantity))
	assert.True(t, decimal.NewFromInt(5000).Equal(inv.Items[0].UnitPrice))
	assert.Equal(t, domain.TaxRate(1000), inv.Items[0].TaxRate)
	assert.Equal(t, domain.TaxRate(800), inv.Items[1].TaxRate)
	assert.Equal(t, domain.TaxRate(0), inv.Items[2].TaxRate)
}

func TestParse_ItemInheritsRowTaxRate(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColItems] = "Consulting|2|1000"
	row.Fields[parser.ColTaxRate] = "8%"

	inv, err := p.Parse(row)
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, domain.TaxRate(800), inv.Items[0].TaxRate)
}

func TestParse_CurrencyDefaultsAndNormalizes(t *testing.T) {
	p := parser.New(parser.Options{DefaultCurrency: "jpy"})

	row := validRow()
	row.Fields[parser.ColCurrency] = ""
	inv, err := p.Parse(row)
	require.NoError(t, err)
	assert.Equal(t, "JPY", inv.Currency)

	row.Fields[parser.ColCurrency] = "usd"
	inv, err = p.Parse(row)
	require.NoError(t, err)
	assert.Equal(t, "USD", inv.Currency)
}

func TestParse_ReportsEveryFailingField(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColInvoiceNo] = ""
	row.Fields[parser.ColDate] = "01/04/2025"
	row.Fields[parser.ColSellerEmail] = "not-an-email"
	row.Fields[parser.ColCurrency] = "ZZZ"
	row.Fields[parser.ColItems] = "Widget|0|-5|12%"

	_, err := p.Parse(row)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	assert.ElementsMatch(t, []string{
		parser.ColInvoiceNo,
		parser.ColDate,
		parser.ColSellerEmail,
		parser.ColCurrency,
		"items[1].quantity",
		"items[1].unit_price",
		"items[1].tax_rate",
	}, fieldNames(t, err))
}

func TestParse_RowWithRecordProblem(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Problem = "record has 1 values outside the 15 header columns; check for an unquoted comma"

	_, err := p.Parse(row)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, []string{parser.FieldRecord}, fieldNames(t, err))
}

func TestParse_DueDateBeforeIssueDate(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColDueDate] = "2025-03-31"

	_, err := p.Parse(row)
	assert.Equal(t, []string{parser.ColDueDate}, fieldNames(t, err))
}

func TestParse_SameDayDueDateIsValid(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColDueDate] = row.Fields[parser.ColDate]

	_, err := p.Parse(row)
	assert.NoError(t, err)
}

func TestParse_MissingItems(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColItems] = " ; ; "

	_, err := p.Parse(row)
	assert.Equal(t, []string{parser.ColItems}, fieldNames(t, err))
}

func TestParse_MalformedItemReportedOnce(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColItems] = "only-a-description"

	_, err := p.Parse(row)
	assert.Equal(t, []string{"items[1]"}, fieldNames(t, err))
}

func TestParse_ItemErrorsNamePosition(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColItems] = "broken; ;Good|1|100;Bad|x|100"

	_, err := p.Parse(row)
	assert.Equal(t, []string{"items[1]", "items[4].quantity"}, fieldNames(t, err))
}

func TestParse_InvalidRowRateReportedOnce(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColTaxRate] = "abc"
	row.Fields[parser.ColItems] = "Widget|1|100;Gadget|2|50;Snack|1|100|8%"

	_, err := p.Parse(row)
	assert.Equal(t, []string{parser.ColTaxRate}, fieldNames(t, err))
}

func TestParse_ItemWithoutAnyRate(t *testing.T) {
	p := parser.New(parser.Options{})
	row := validRow()
	row.Fields[parser.ColTaxRate] = ""
	row.Fields[parser.ColItems] = "Widget|1|100"

	_, err := p.Parse(row)
	assert.Equal(t, []string{"items[1].tax_rate"}, fieldNames(t, err))
}

func TestParse_UnrecognizedRateForConfiguredSet(t *testing.T) {
	p := parser.New(parser.Options{TaxRates: []domain.TaxRate{0, 1900, 700}})
	row := validRow()

	_, err := p.Parse(row)
	assert.Contains(t, fieldNames(t, err), parser.ColTaxRate)
}

func TestParse_RegistrationID(t *testing.T) {
	p := parser.New(parser.Options{})

	row := validRow()
	row.Fields[parser.ColRegistrationID] = "T1234567890123"
	inv, err := p.Parse(row)
	require.NoError(t, err)
	assert.Equal(t, "T1234567890123", inv.RegistrationID)

	row.Fields[parser.ColRegistrationID] = "1234567890123"
	_, err = p.Parse(row)
	assert.Equal(t, []string{parser.ColRegistrationID}, fieldNames(t, err))
}

func TestParse_CustomDateLayout(t *testing.T) {
	p := parser.New(parser.Options{DateLayout: "2006/01/02"})
	row := validRow()
	row.Fields[parser.ColDate] = "2025/04/01"
	row.Fields[parser.ColDueDate] = "2025/04/30"

	_, err := p.Parse(row)
	assert.NoError(t, err)
}

func TestParseForm(t *testing.T) {
	p := parser.New(parser.Options{})

	form := parser.Form{
		InvoiceNo:  "F-1",
		Date:       "2025-05-01",
		DueDate:    "2025-05-31",
		SellerName: "Seller",
		BuyerName:  "Buyer",
		TaxRate:    "0.1",
		Items: []parser.FormItem{
			{Description: "Hosting", Quantity: "1", UnitPrice: "12000"},
			{},
			{Description: "Snacks", Quantity: "3", UnitPrice: "150", TaxRate: "8%"},
		},
	}

	inv, err := p.ParseForm(form)
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, domain.TaxRate(1000), inv.Items[0].TaxRate)
	assert.Equal(t, domain.TaxRate(800), inv.Items[1].TaxRate)
}

func TestParseForm_SameRulesAsRows(t *testing.T) {
	p := parser.New(parser.Options{})

	_, err := p.ParseForm(parser.Form{
		Date:  "2025-05-01",
		Items: []parser.FormItem{{Description: "x", Quantity: "abc", UnitPrice: "1", TaxRate: "10%"}},
	})
	assert.ElementsMatch(t, []string{
		parser.ColInvoiceNo,
		parser.ColSellerName,
		parser.ColBuyerName,
		parser.ColDueDate,
		"items[1].quantity",
	}, fieldNames(t, err))
}

func TestParseForm_ItemPositionCountsBlankEntries(t *testing.T) {
	p := parser.New(parser.Options{})
	form := parser.Form{
		InvoiceNo:  "F-2",
		Date:       "2025-05-01",
		DueDate:    "2025-05-31",
		SellerName: "Seller",
		BuyerName:  "Buyer",
		Items: []parser.FormItem{
			{Description: "Hosting", Quantity: "1", UnitPrice: "12000", TaxRate: "10%"},
			{},
			{Description: "Snacks", Quantity: "-3", UnitPrice: "150", TaxRate: "8%"},
		},
	}

	_, err := p.ParseForm(form)
	assert.Equal(t, []string{"items[3].quantity"}, fieldNames(t, err))
}
