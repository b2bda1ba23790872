package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"invoicegen/internal/domain"
)

// Input column names. The first fifteen form the mandatory batch header.
const (
	ColInvoiceNo      = "invoice_no"
	ColDate           = "date"
	ColDueDate        = "due_date"
	ColSellerName     = "seller_name"
	ColSellerAddress  = "seller_address"
	ColSellerEmail    = "seller_email"
	ColSellerPhone    = "seller_phone"
	ColBuyerName      = "buyer_name"
	ColBuyerAddress   = "buyer_address"
	ColBuyerEmail     = "buyer_email"
	ColBuyerPhone     = "buyer_phone"
	ColCurrency       = "currency"
	ColItems          = "items"
	ColTaxRate        = "tax_rate"
	ColNote           = "note"
	ColRegistrationID = "registration_id"
)

// FieldRecord names errors that concern a whole input record rather than
// one of its columns.
const FieldRecord = "record"

// Columns is the exact set of columns every batch header must carry.
var Columns = []string{
	ColInvoiceNo, ColDate, ColDueDate,
	ColSellerName, ColSellerAddress, ColSellerEmail, ColSellerPhone,
	ColBuyerName, ColBuyerAddress, ColBuyerEmail, ColBuyerPhone,
	ColCurrency, ColItems, ColTaxRate, ColNote,
}

// OptionalColumns may appear in a header in addition to Columns.
var OptionalColumns = []string{ColRegistrationID}

// DefaultDateLayout is the only accepted date format unless configured otherwise.
const DefaultDateLayout = "2006-01-02"

var registrationIDPattern = regexp.MustCompile(`^T\d{13}$`)

// Row is one raw input record keyed by column name. Problem is set when
// the record could not be read cleanly; such a row never parses.
type Row struct {
	Number  int
	Fields  map[string]string
	Problem string
}

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r.Fields[col])
}

// Options configures a Parser. Zero values select the defaults.
type Options struct {
	DateLayout      string
	DefaultCurrency string
	TaxRates        []domain.TaxRate
}

// DefaultTaxRates is the recognized rate set of the target locale.
var DefaultTaxRates = []domain.TaxRate{0, 800, 1000}

// Parser turns raw rows and forms into validated invoices. It holds no
// mutable state and is safe for concurrent use.
type Parser struct {
	dateLayout      string
	defaultCurrency string
	rates           map[domain.TaxRate]bool
	validate        *validator.Validate
}

// New creates a Parser.
func New(opts Options) *Parser {
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "JPY"
	}
	if len(opts.TaxRates) == 0 {
		opts.TaxRates = DefaultTaxRates
	}
	rates := make(map[domain.TaxRate]bool, len(opts.TaxRates))
	for _, r := range opts.TaxRates {
		rates[r] = true
	}
	return &Parser{
		dateLayout:      opts.DateLayout,
		defaultCurrency: strings.ToUpper(opts.DefaultCurrency),
		rates:           rates,
		validate:        validator.New(),
	}
}

// Parse validates one batch row. On failure the error is a
// *domain.FieldErrors naming every failing field.
func (p *Parser) Parse(row Row) (*domain.Invoice, error) {
	errs := &domain.FieldErrors{}
	if row.Problem != "" {
		errs.Add(FieldRecord, row.Problem, "")
		return nil, errs
	}
	items, itemErrs := decodeItems(row.Get(ColItems))
	errs.Fields = append(errs.Fields, itemErrs...)
	return p.build(row.Get, items, errs)
}

// rawItem is a line item before numeric validation. Pos is its 1-based
// position in the input.
type rawItem struct {
	Pos         int
	Description string
	Quantity    string
	UnitPrice   string
	TaxRate     string
}

func (p *Parser) build(get func(string) string, items []rawItem, errs *domain.FieldErrors) (*domain.Invoice, error) {
	inv := &domain.Invoice{
		Number: get(ColInvoiceNo),
		Seller: domain.Party{
			Name:    get(ColSellerName),
			Address: get(ColSellerAddress),
			Email:   get(ColSellerEmail),
			Phone:   get(ColSellerPhone),
		},
		Buyer: domain.Party{
			Name:    get(ColBuyerName),
			Address: get(ColBuyerAddress),
			Email:   get(ColBuyerEmail),
			Phone:   get(ColBuyerPhone),
		},
		Note:           get(ColNote),
		RegistrationID: get(ColRegistrationID),
	}

	required(errs, ColInvoiceNo, inv.Number)
	required(errs, ColSellerName, inv.Seller.Name)
	required(errs, ColBuyerName, inv.Buyer.Name)

	issue, issueOK := p.date(errs, ColDate, get(ColDate))
	due, dueOK := p.date(errs, ColDueDate, get(ColDueDate))
	if issueOK && dueOK && due.Before(issue) {
		errs.Add(ColDueDate, "must not be before "+ColDate, get(ColDueDate))
	}
	inv.IssueDate, inv.DueDate = issue, due

	p.email(errs, ColSellerEmail, inv.Seller.Email)
	p.email(errs, ColBuyerEmail, inv.Buyer.Email)
	inv.Currency = p.currency(errs, get(ColCurrency))

	if inv.RegistrationID != "" && !registrationIDPattern.MatchString(inv.RegistrationID) {
		errs.Add(ColRegistrationID, "must be T followed by 13 digits", inv.RegistrationID)
	}

	rowRate := get(ColTaxRate)
	var defaultRate *domain.TaxRate
	if rowRate != "" {
		if r, ok := p.rate(errs, ColTaxRate, rowRate); ok {
			defaultRate = &r
			inv.DefaultTaxRate = &r
		}
	}

	if len(items) == 0 && !hasItemError(errs) {
		errs.Add(ColItems, "at least one item is required", "")
	}
	for _, it := range items {
		if li, ok := p.item(errs, it, defaultRate, rowRate != ""); ok {
			inv.Items = append(inv.Items, li)
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return inv, nil
}

// item validates one raw item. rowRateGiven reports that the row carried a
// tax_rate, valid or not, so an invalid one is reported only once.
func (p *Parser) item(errs *domain.FieldErrors, it rawItem, defaultRate *domain.TaxRate, rowRateGiven bool) (domain.LineItem, bool) {
	prefix := itemField(it.Pos)
	before := errs.Len()

	li := domain.LineItem{Description: it.Description}
	if it.Description == "" {
		errs.Add(prefix+".description", "is required", "")
	}

	qty, err := decimal.NewFromString(it.Quantity)
	switch {
	case it.Quantity == "":
		errs.Add(prefix+".quantity", "is required", "")
	case err != nil:
		errs.Add(prefix+".quantity", "must be a number", it.Quantity)
	case !qty.IsPositive():
		errs.Add(prefix+".quantity", "must be greater than zero", it.Quantity)
	default:
		li.Quantity = qty
	}

	price, err := decimal.NewFromString(it.UnitPrice)
	switch {
	case it.UnitPrice == "":
		errs.Add(prefix+".unit_price", "is required", "")
	case err != nil:
		errs.Add(prefix+".unit_price", "must be a number", it.UnitPrice)
	case price.IsNegative():
		errs.Add(prefix+".unit_price", "must not be negative", it.UnitPrice)
	default:
		li.UnitPrice = price
	}

	switch {
	case it.TaxRate != "":
		if r, ok := p.rate(errs, prefix+".tax_rate", it.TaxRate); ok {
			li.TaxRate = r
		}
	case defaultRate != nil:
		li.TaxRate = *defaultRate
	case rowRateGiven:
		return li, false
	default:
		errs.Add(prefix+".tax_rate", "is required when the row has no "+ColTaxRate, "")
	}

	return li, errs.Len() == before
}

func (p *Parser) date(errs *domain.FieldErrors, field, value string) (time.Time, bool) {
	if value == "" {
		errs.Add(field, "is required", "")
		return time.Time{}, false
	}
	t, err := time.Parse(p.dateLayout, value)
	if err != nil {
		errs.Add(field, "must be a date in the form "+p.dateLayout, value)
		return time.Time{}, false
	}
	return t, true
}

func (p *Parser) email(errs *domain.FieldErrors, field, value string) {
	if value == "" {
		return
	}
	if err := p.validate.Var(value, "email"); err != nil {
		errs.Add(field, "must be a valid email address", value)
	}
}

func (p *Parser) currency(errs *domain.FieldErrors, value string) string {
	if value == "" {
		return p.defaultCurrency
	}
	code := strings.ToUpper(value)
	if len(code) != 3 {
		errs.Add(ColCurrency, "must be a 3-letter ISO 4217 code", value)
		return code
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		errs.Add(ColCurrency, "is not a recognized currency", value)
		return code
	}
	return unit.String()
}

func (p *Parser) rate(errs *domain.FieldErrors, field, value string) (domain.TaxRate, bool) {
	r, err := domain.ParseTaxRate(value)
	if err != nil {
		errs.Add(field, "must be a percentage like 10% or a fraction like 0.1", value)
		return 0, false
	}
	if !p.rates[r] {
		errs.Add(field, "is not a recognized tax rate", value)
		return 0, false
	}
	return r, true
}

func required(errs *domain.FieldErrors, field, value string) {
	if value == "" {
		errs.Add(field, "is required", "")
	}
}

func hasItemError(errs *domain.FieldErrors) bool {
	for _, f := range errs.Fields {
		if f.Field == ColItems || strings.HasPrefix(f.Field, ColItems+"[") {
			return true
		}
	}
	return false
}
