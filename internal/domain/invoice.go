package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party represents a seller or buyer printed on the invoice.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// LineItem is one billable entry of an invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     TaxRate         `json:"tax_rate"`
}

// Amount returns quantity × unit price without rounding.
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Invoice is the validated record built from one input row or form.
// It is constructed once and never mutated afterwards.
type Invoice struct {
	Number         string     `json:"invoice_no"`
	IssueDate      time.Time  `json:"date"`
	DueDate        time.Time  `json:"due_date"`
	Seller         Party      `json:"seller"`
	Buyer          Party      `json:"buyer"`
	Currency       string     `json:"currency"`
	DefaultTaxRate *TaxRate   `json:"tax_rate,omitempty"`
	Items          []LineItem `json:"items"`
	Note           string     `json:"note,omitempty"`
	RegistrationID string     `json:"registration_id,omitempty"`
}

// TaxGroup is the aggregate of all line items sharing one tax rate.
type TaxGroup struct {
	Rate     TaxRate         `json:"rate"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
}

// Breakdown is the per-rate tax summary of an invoice. Groups are
// ordered by ascending rate.
type Breakdown struct {
	Groups     []TaxGroup      `json:"groups"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}
