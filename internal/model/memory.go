package model

// CorrectionMemory maps an opaque context (for example "description=Transport fee")
// to a corrective action token (for example "map_sku_FREIGHT").
type CorrectionMemory struct {
	Context      string  `json:"context" yaml:"context"`
	Correction   string  `json:"correction" yaml:"correction"`
	Confidence   float64 `json:"confidence" yaml:"confidence"`
	SuccessCount int     `json:"successCount" yaml:"successCount"`
	FailCount    int     `json:"failCount" yaml:"failCount"`
}

// MemorySnapshot is the whole persisted knowledge base. It is loaded and
// written as one unit.
type MemorySnapshot struct {
	Vendors             map[string]*VendorMemory `json:"vendors" yaml:"vendors"`
	Corrections         []*CorrectionMemory      `json:"corrections" yaml:"corrections"`
	ProcessedInvoices   []string                 `json:"processedInvoices" yaml:"processedInvoices"`
	InvoiceFingerprints []string                 `json:"invoiceFingerprints" yaml:"invoiceFingerprints"`
}

// NewMemorySnapshot returns an empty snapshot.
func NewMemorySnapshot() *MemorySnapshot {
	return &MemorySnapshot{
		Vendors:             make(map[string]*VendorMemory),
		Corrections:         []*CorrectionMemory{},
		ProcessedInvoices:   []string{},
		InvoiceFingerprints: []string{},
	}
}

// Normalize replaces missing collections with empty ones and drops nil entries,
// so partially written documents load as usable state.
func (m *MemorySnapshot) Normalize() {
	if m.Vendors == nil {
		m.Vendors = make(map[string]*VendorMemory)
	}
	for name, vendor := range m.Vendors {
		if vendor == nil {
			delete(m.Vendors, name)
			continue
		}
		if vendor.VendorName == "" {
			vendor.VendorName = name
		}
		if vendor.Patterns == nil {
			vendor.Patterns = make(map[string]*PatternEntry)
		}
		for field, entry := range vendor.Patterns {
			if entry == nil {
				delete(vendor.Patterns, field)
			}
		}
		if vendor.Defaults == nil {
			vendor.Defaults = make(map[string]string)
		}
	}

	corrections := m.Corrections[:0]
	for _, c := range m.Corrections {
		if c != nil {
			corrections = append(corrections, c)
		}
	}
	m.Corrections = corrections
	if m.Corrections == nil {
		m.Corrections = []*CorrectionMemory{}
	}
	if m.ProcessedInvoices == nil {
		m.ProcessedInvoices = []string{}
	}
	if m.InvoiceFingerprints == nil {
		m.InvoiceFingerprints = []string{}
	}
}

// Clone returns a deep copy of the snapshot.
func (m *MemorySnapshot) Clone() *MemorySnapshot {
	out := &MemorySnapshot{
		Vendors:             make(map[string]*VendorMemory, len(m.Vendors)),
		Corrections:         make([]*CorrectionMemory, 0, len(m.Corrections)),
		ProcessedInvoices:   append([]string{}, m.ProcessedInvoices...),
		InvoiceFingerprints: append([]string{}, m.InvoiceFingerprints...),
	}
	for name, vendor := range m.Vendors {
		if vendor != nil {
			out.Vendors[name] = vendor.Clone()
		}
	}
	for _, c := range m.Corrections {
		if c != nil {
			cc := *c
			out.Corrections = append(out.Corrections, &cc)
		}
	}
	return out
}
