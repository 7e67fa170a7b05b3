package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields_Order(t *testing.T) {
	var names []string
	for _, f := range Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{FieldServiceDate, FieldSkonto, FieldPONumber}, names)
}

func TestLearnAnchor(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "first service date keyword",
			field:  FieldServiceDate,
			text:   "Leistungsdatum: 01.01.2024",
			want:   "Leistungsdatum",
			wantOK: true,
		},
		{
			name:   "vocabulary order beats text order",
			field:  FieldServiceDate,
			text:   "Date of Service 2024-01-01, Arrival Date 2024-01-02",
			want:   "Arrival Date",
			wantOK: true,
		},
		{
			name:   "keyword match is case-sensitive",
			field:  FieldServiceDate,
			text:   "leistungsdatum: 01.01.2024",
			wantOK: false,
		},
		{
			name:   "po priority",
			field:  FieldPONumber,
			text:   "PO 123 / Bestellung 456",
			want:   "Bestellung",
			wantOK: true,
		},
		{
			name:   "skonto",
			field:  FieldSkonto,
			text:   "2% Skonto",
			want:   "Skonto",
			wantOK: true,
		},
		{
			name:   "no keyword",
			field:  FieldSkonto,
			text:   "Net 30",
			wantOK: false,
		},
		{
			name:   "unknown field",
			field:  "currency",
			text:   "EUR",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LearnAnchor(tt.field, tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
