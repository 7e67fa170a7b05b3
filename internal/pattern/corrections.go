package pattern

import "strings"

const skuMappingPrefix = "map_sku_"

// DescriptionContext is the correction-memory key for a line item description.
func DescriptionContext(description string) string {
	return "description=" + description
}

// SKUMapping encodes "assign this SKU" as a correction token.
func SKUMapping(sku string) string {
	return skuMappingPrefix + sku
}

// ParseSKUMapping decodes a token produced by SKUMapping.
func ParseSKUMapping(token string) (string, bool) {
	sku, ok := strings.CutPrefix(token, skuMappingPrefix)
	return sku, ok
}
