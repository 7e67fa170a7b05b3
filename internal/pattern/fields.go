package pattern

import "strings"

// Learnable invoice fields.
const (
	FieldServiceDate = "serviceDate"
	FieldSkonto      = "skonto"
	FieldPONumber    = "poNumber"
)

// Field describes one learnable field: the keywords that may anchor it in raw
// text, in priority order, and the shape of its value.
type Field struct {
	Name     string
	Keywords []string
	Shape    Shape
}

var fieldTable = []Field{
	{
		Name:     FieldServiceDate,
		Keywords: []string{"Leistungsdatum", "Service Date", "Arrival Date", "Date of Service"},
		Shape:    valueAfter(`\d{2}\.\d{2}\.\d{4}|\d{4}-\d{2}-\d{2}`),
	},
	{
		Name:     FieldSkonto,
		Keywords: []string{"Skonto"},
		Shape:    percentAround(),
	},
	{
		Name:     FieldPONumber,
		Keywords: []string{"Purchase Order", "Order No", "Bestellnr", "Bestellung", "PO"},
		Shape:    valueAfter(`[A-Z0-9-]+`),
	},
}

// Fields returns the learnable fields in application order.
func Fields() []Field {
	out := make([]Field, len(fieldTable))
	copy(out, fieldTable)
	return out
}

// Lookup returns the table entry for name.
func Lookup(name string) (Field, bool) {
	for _, f := range fieldTable {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// LearnAnchor returns the first keyword of field that appears literally in text.
func LearnAnchor(field, text string) (string, bool) {
	def, ok := Lookup(field)
	if !ok || text == "" {
		return "", false
	}
	for _, kw := range def.Keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
