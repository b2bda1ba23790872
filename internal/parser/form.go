package parser

import (
	"strings"

	"invoicegen/internal/domain"
)

// FormItem is one line item of a single-invoice request.
type FormItem struct {
	Description string `json:"description" form:"item_desc"`
	Quantity    string `json:"quantity" form:"item_qty"`
	UnitPrice   string `json:"unit_price" form:"item_unit"`
	TaxRate     string `json:"tax_rate,omitempty" form:"item_rate"`
}

// Form is a single-invoice request. Field names match the batch columns.
type Form struct {
	InvoiceNo      string     `json:"invoice_no" form:"invoice_no"`
	Date           string     `json:"date" form:"date"`
	DueDate        string     `json:"due_date" form:"due_date"`
	SellerName     string     `json:"seller_name" form:"seller_name"`
	SellerAddress  string     `json:"seller_address" form:"seller_address"`
	SellerEmail    string     `json:"seller_email" form:"seller_email"`
	SellerPhone    string     `json:"seller_phone" form:"seller_phone"`
	BuyerName      string     `json:"buyer_name" form:"buyer_name"`
	BuyerAddress   string     `json:"buyer_address" form:"buyer_address"`
	BuyerEmail     string     `json:"buyer_email" form:"buyer_email"`
	BuyerPhone     string     `json:"buyer_phone" form:"buyer_phone"`
	Currency       string     `json:"currency" form:"currency"`
	TaxRate        string     `json:"tax_rate" form:"tax_rate"`
	Note           string     `json:"note" form:"note"`
	RegistrationID string     `json:"registration_id" form:"registration_id"`
	Items          []FormItem `json:"items" form:"-"`
}

func (f *Form) field(col string) string {
	var v string
	switch col {
	case ColInvoiceNo:
		v = f.InvoiceNo
	case ColDate:
		v = f.Date
	case ColDueDate:
		v = f.DueDate
	case ColSellerName:
		v = f.SellerName
	case ColSellerAddress:
		v = f.SellerAddress
	case ColSellerEmail:
		v = f.SellerEmail
	case ColSellerPhone:
		v = f.SellerPhone
	case ColBuyerName:
		v = f.BuyerName
	case ColBuyerAddress:
		v = f.BuyerAddress
	case ColBuyerEmail:
		v = f.BuyerEmail
	case ColBuyerPhone:
		v = f.BuyerPhone
	case ColCurrency:
		v = f.Currency
	case ColTaxRate:
		v = f.TaxRate
	case ColNote:
		v = f.Note
	case ColRegistrationID:
		v = f.RegistrationID
	}
	return strings.TrimSpace(v)
}

// ParseForm validates a single-invoice request with the same rules as
// Parse. Items whose fields are all blank are ignored, as empty rows of an
// HTML item table are.
func (p *Parser) ParseForm(f Form) (*domain.Invoice, error) {
	items := make([]rawItem, 0, len(f.Items))
	for i, fi := range f.Items {
		it := rawItem{
			Description: strings.TrimSpace(fi.Description),
			Quantity:    strings.TrimSpace(fi.Quantity),
			UnitPrice:   strings.TrimSpace(fi.UnitPrice),
			TaxRate:     strings.TrimSpace(fi.TaxRate),
		}
		if it == (rawItem{}) {
			continue
		}
		it.Pos = i + 1
		items = append(items, it)
	}
	return p.build(f.field, items, &domain.FieldErrors{})
}
