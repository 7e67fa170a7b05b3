package testutil

import (
	"github.com/Veraticus/invoice-memory/internal/model"
)

// InvoiceBuilder builds test invoices fluently.
//
//	inv := testutil.NewInvoice("INV-1").
//		From("Supplier GmbH").
//		WithRawText("Leistungsdatum: 01.02.2024").
//		Build()
type InvoiceBuilder struct {
	invoice model.Invoice
}

// NewInvoice starts an invoice with id, a fixed date and total, and no
// optional fields.
func NewInvoice(id string) *InvoiceBuilder {
	return &InvoiceBuilder{invoice: model.Invoice{
		ID:          id,
		VendorName:  "Parts AG",
		Date:        "2024-03-01",
		TotalAmount: 100,
		LineItems:   []model.LineItem{},
	}}
}

// From sets the vendor.
func (b *InvoiceBuilder) From(vendor string) *InvoiceBuilder {
	b.invoice.VendorName = vendor
	return b
}

// On sets the invoice date.
func (b *InvoiceBuilder) On(date string) *InvoiceBuilder {
	b.invoice.Date = date
	return b
}

// WithTotal sets the total amount.
func (b *InvoiceBuilder) WithTotal(total float64) *InvoiceBuilder {
	b.invoice.TotalAmount = total
	return b
}

// WithCurrency sets the currency.
func (b *InvoiceBuilder) WithCurrency(currency string) *InvoiceBuilder {
	b.invoice.Currency = currency
	return b
}

// WithTax sets the tax amount.
func (b *InvoiceBuilder) WithTax(tax float64) *InvoiceBuilder {
	b.invoice.TaxAmount = &tax
	return b
}

// WithRawText sets the raw text.
func (b *InvoiceBuilder) WithRawText(text string) *InvoiceBuilder {
	b.invoice.RawText = text
	return b
}

// WithServiceDate sets the service date.
func (b *InvoiceBuilder) WithServiceDate(date string) *InvoiceBuilder {
	b.invoice.ServiceDate = date
	return b
}

// WithSkonto sets the Skonto terms.
func (b *InvoiceBuilder) WithSkonto(skonto string) *InvoiceBuilder {
	b.invoice.Skonto = skonto
	return b
}

// WithPONumber sets the purchase order number.
func (b *InvoiceBuilder) WithPONumber(po string) *InvoiceBuilder {
	b.invoice.PONumber = po
	return b
}

// WithItem appends a line item.
func (b *InvoiceBuilder) WithItem(description, sku string, quantity, price float64) *InvoiceBuilder {
	b.invoice.LineItems = append(b.invoice.LineItems, model.LineItem{
		Description: description,
		SKU:         sku,
		Quantity:    quantity,
		Price:       price,
		Total:       quantity * price,
	})
	return b
}

// Build returns a copy of the built invoice.
func (b *InvoiceBuilder) Build() model.Invoice {
	return b.invoice.Clone()
}
