// Package model defines the records exchanged between the correction pipeline,
// the pattern store, and the outer adapters.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LineItem is a single position on an invoice. Quantity, price and total are
// carried as supplied; nothing recomputes or validates the arithmetic.
// Unknown keys are kept in Extra like they are on Invoice.
type LineItem struct {
	Extra       map[string]json.RawMessage `json:"-"`
	Description string                     `json:"description"`
	Unit        string                     `json:"unit,omitempty"`
	SKU         string                     `json:"sku,omitempty"`
	Quantity    float64                    `json:"quantity"`
	Price       float64                    `json:"price"`
	Total       float64                    `json:"total"`
}

// knownLineItemKeys are the JSON keys owned by LineItem itself.
var knownLineItemKeys = map[string]struct{}{
	"description": {}, "unit": {}, "sku": {}, "quantity": {}, "price": {}, "total": {},
}

// UnmarshalJSON decodes the known fields and stashes everything else in Extra.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	type plain LineItem
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	extra, err := unknownKeys(data, knownLineItemKeys)
	if err != nil {
		return err
	}
	decoded.Extra = extra
	*li = LineItem(decoded)
	return nil
}

// MarshalJSON writes the known fields plus any preserved extra fields.
func (li LineItem) MarshalJSON() ([]byte, error) {
	type plain LineItem
	base, err := json.Marshal(plain(li))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, li.Extra)
}

// Clone returns a deep copy of the item.
func (li LineItem) Clone() LineItem {
	out := li
	out.Extra = cloneExtra(li.Extra)
	return out
}

// Invoice is the canonical flat invoice record. The same type carries the
// normalized form produced by the pipeline: ServiceDate, DueDate, TaxAmount and
// IsDuplicate are only ever derived by the engine, though callers may supply them.
//
// Fields the schema does not know about are kept in Extra and written back
// verbatim on marshal.
type Invoice struct {
	TaxAmount   *float64                   `json:"taxAmount,omitempty"`
	Extra       map[string]json.RawMessage `json:"-"`
	ID          string                     `json:"id"`
	VendorName  string                     `json:"vendorName"`
	Date        string                     `json:"date"`
	Currency    string                     `json:"currency"`
	RawText     string                     `json:"rawText,omitempty"`
	Skonto      string                     `json:"skonto,omitempty"`
	PONumber    string                     `json:"poNumber,omitempty"`
	ServiceDate string                     `json:"serviceDate,omitempty"`
	DueDate     string                     `json:"dueDate,omitempty"`
	LineItems   []LineItem                 `json:"lineItems"`
	TotalAmount float64                    `json:"totalAmount"`
	IsDuplicate bool                       `json:"isDuplicate,omitempty"`
}

// knownInvoiceKeys are the JSON keys owned by Invoice itself.
var knownInvoiceKeys = map[string]struct{}{
	"id": {}, "vendorName": {}, "date": {}, "totalAmount": {}, "currency": {},
	"lineItems": {}, "rawText": {}, "skonto": {}, "poNumber": {}, "serviceDate": {},
	"dueDate": {}, "taxAmount": {}, "isDuplicate": {},
}

// UnmarshalJSON decodes the known fields and stashes everything else in Extra.
func (inv *Invoice) UnmarshalJSON(data []byte) error {
	type plain Invoice
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	extra, err := unknownKeys(data, knownInvoiceKeys)
	if err != nil {
		return err
	}
	decoded.Extra = extra

	*inv = Invoice(decoded)
	if inv.LineItems == nil {
		inv.LineItems = []LineItem{}
	}
	return nil
}

// MarshalJSON writes the known fields plus any preserved extra fields.
// Known fields win when an extra key collides with one.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type plain Invoice
	if inv.LineItems == nil {
		inv.LineItems = []LineItem{}
	}
	base, err := json.Marshal(plain(inv))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, inv.Extra)
}

// Clone returns a deep copy so the pipeline never writes through to the caller's record.
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.TaxAmount != nil {
		tax := *inv.TaxAmount
		out.TaxAmount = &tax
	}
	out.LineItems = make([]LineItem, len(inv.LineItems))
	for i, item := range inv.LineItems {
		out.LineItems[i] = item.Clone()
	}
	out.Extra = cloneExtra(inv.Extra)
	return out
}

// HasTax reports whether a non-zero tax amount is already known.
func (inv Invoice) HasTax() bool {
	return inv.TaxAmount != nil && *inv.TaxAmount != 0
}

// Fingerprint builds the semantic duplicate key "vendor|date|amount".
func (inv Invoice) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s",
		inv.VendorName,
		inv.Date,
		strconv.FormatFloat(inv.TotalAmount, 'f', -1, 64))
}

// unknownKeys returns the top-level keys of data that are not in known, or nil.
func unknownKeys(data []byte, known map[string]struct{}) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key := range known {
		delete(raw, key)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// mergeExtra adds extra keys to an encoded object. Keys already in base win.
func mergeExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, taken := merged[key]; !taken {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
