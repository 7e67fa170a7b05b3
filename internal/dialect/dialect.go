// Package dialect translates incoming invoice documents into the canonical
// flat model.Invoice. Two shapes are accepted: the canonical one, and a nested
// vendor export of the form
//
//	{"invoiceId": ..., "vendor": ..., "fields": {"invoiceDate", "grossTotal",
//	 "currency", "lineItems", "serviceDate", "poNumber", ...}, "rawText": ...}
//
// For nested documents the nested values win; canonical top-level values only
// fill in what the nested shape lacks.
package dialect

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/Veraticus/invoice-memory/internal/model"
)

// Keys consumed by the nested shape; they are not carried into Extra.
var nestedEnvelopeKeys = []string{"invoiceId", "vendor", "fields"}

var nestedFieldKeys = map[string]struct{}{
	"invoiceDate": {}, "grossTotal": {}, "currency": {}, "lineItems": {},
	"serviceDate": {}, "poNumber": {},
}

type nestedDocument struct {
	InvoiceID string       `json:"invoiceId"`
	Vendor    string       `json:"vendor"`
	Fields    nestedFields `json:"fields"`
}

type nestedFields struct {
	GrossTotal  *float64   `json:"grossTotal"`
	ServiceDate *string    `json:"serviceDate"`
	PONumber    *string    `json:"poNumber"`
	InvoiceDate string     `json:"invoiceDate"`
	Currency    string     `json:"currency"`
	LineItems   []lineItem `json:"lineItems"`
}

// Keys consumed by lineItem; anything else is carried into LineItem.Extra.
var nestedItemKeys = map[string]struct{}{
	"quantity": {}, "qty": {}, "price": {}, "unitPrice": {}, "total": {},
	"description": {}, "unit": {}, "sku": {},
}

// lineItem accepts both canonical names and the short export names.
type lineItem struct {
	Quantity    *float64 `json:"quantity"`
	Qty         *float64 `json:"qty"`
	Price       *float64 `json:"price"`
	UnitPrice   *float64 `json:"unitPrice"`
	Total       float64  `json:"total"`
	Description string   `json:"description"`
	Unit        string   `json:"unit"`
	SKU         string   `json:"sku"`

	extra map[string]json.RawMessage
}

func (li *lineItem) UnmarshalJSON(data []byte) error {
	type plain lineItem
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range nestedItemKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		decoded.extra = raw
	}

	*li = lineItem(decoded)
	return nil
}

func (li lineItem) canonical() model.LineItem {
	return model.LineItem{
		Extra:       li.extra,
		Description: li.Description,
		Quantity:    firstFloat(li.Quantity, li.Qty),
		Price:       firstFloat(li.Price, li.UnitPrice),
		Total:       li.Total,
		Unit:        li.Unit,
		SKU:         li.SKU,
	}
}

// IsNested reports whether data uses the nested export shape, i.e. has a
// "fields" object at the top level.
func IsNested(data []byte) bool {
	var probe struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	trimmed := bytes.TrimSpace(probe.Fields)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Decode parses data in either shape into a canonical invoice.
func Decode(data []byte) (model.Invoice, error) {
	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Invoice{}, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	if !IsNested(data) {
		return inv, nil
	}

	var doc nestedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Invoice{}, fmt.Errorf("%w: nested invoice: %v", common.ErrInvalidInput, err)
	}

	inv.ID = firstString(doc.InvoiceID, inv.ID)
	inv.VendorName = firstString(doc.Vendor, inv.VendorName)
	inv.Date = firstString(doc.Fields.InvoiceDate, inv.Date)
	inv.Currency = firstString(doc.Fields.Currency, inv.Currency)
	if doc.Fields.GrossTotal != nil && *doc.Fields.GrossTotal != 0 {
		inv.TotalAmount = *doc.Fields.GrossTotal
	}
	if doc.Fields.ServiceDate != nil {
		inv.ServiceDate = firstString(*doc.Fields.ServiceDate, inv.ServiceDate)
	}
	if doc.Fields.PONumber != nil {
		inv.PONumber = firstString(*doc.Fields.PONumber, inv.PONumber)
	}
	if len(doc.Fields.LineItems) > 0 {
		inv.LineItems = make([]model.LineItem, 0, len(doc.Fields.LineItems))
		for _, li := range doc.Fields.LineItems {
			inv.LineItems = append(inv.LineItems, li.canonical())
		}
	}

	if err := carryNestedExtras(&inv, data); err != nil {
		return model.Invoice{}, err
	}

	return inv, nil
}

// carryNestedExtras drops the envelope keys from Extra and keeps any nested
// field the canonical shape has no slot for (for example invoiceNumber).
func carryNestedExtras(inv *model.Invoice, data []byte) error {
	for _, key := range nestedEnvelopeKeys {
		delete(inv.Extra, key)
	}

	var envelope struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: nested fields: %v", common.ErrInvalidInput, err)
	}

	for key, value := range envelope.Fields {
		if _, known := nestedFieldKeys[key]; known {
			continue
		}
		if inv.Extra == nil {
			inv.Extra = make(map[string]json.RawMessage)
		}
		if _, exists := inv.Extra[key]; !exists {
			inv.Extra[key] = value
		}
	}

	if len(inv.Extra) == 0 {
		inv.Extra = nil
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
