package model

import "time"

// PatternEntry is the single active extraction anchor for one vendor field.
type PatternEntry struct {
	LastSeen   time.Time `json:"lastSeen" yaml:"lastSeen"`
	Pattern    string    `json:"pattern" yaml:"pattern"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	Frequency  int       `json:"frequency" yaml:"frequency"`
}

// VendorMemory holds everything learned about one vendor.
type VendorMemory struct {
	Patterns   map[string]*PatternEntry `json:"patterns" yaml:"patterns"`
	Defaults   map[string]string        `json:"defaults" yaml:"defaults"`
	VendorName string                   `json:"vendorName" yaml:"vendorName"`
}

// NewVendorMemory creates an empty vendor entry.
func NewVendorMemory(name string) *VendorMemory {
	return &VendorMemory{
		VendorName: name,
		Patterns:   make(map[string]*PatternEntry),
		Defaults:   make(map[string]string),
	}
}

// Clone returns a deep copy.
func (v *VendorMemory) Clone() *VendorMemory {
	out := NewVendorMemory(v.VendorName)
	for field, entry := range v.Patterns {
		if entry == nil {
			continue
		}
		e := *entry
		out.Patterns[field] = &e
	}
	for field, value := range v.Defaults {
		out.Defaults[field] = value
	}
	return out
}
