package catalog

import (
	"sort"

	"community-portal/internal/domain"
)

// Selection is a partial choice of attribute values, e.g. {"color": "red"}
type Selection map[string]string

// AvailableAttributes unions the attribute maps of every active variant.
// Values are de-duplicated and sorted.
func AvailableAttributes(product *domain.Product) map[string][]string {
	sets := make(map[string]map[string]struct{})
	for _, v := range product.ActiveVariants() {
		for key, value := range v.Attributes {
			if sets[key] == nil {
				sets[key] = make(map[string]struct{})
			}
			sets[key][value] = struct{}{}
		}
	}

	attrs := make(map[string][]string, len(sets))
	for key, set := range sets {
		values := make([]string, 0, len(set))
		for value := range set {
			values = append(values, value)
		}
		sort.Strings(values)
		attrs[key] = values
	}
	return attrs
}

// FindMatchingVariant returns the first active variant whose attributes
// agree with every selected pair, or nil.
func FindMatchingVariant(product *domain.Product, selection Selection) *domain.Variant {
	for i := range product.Variants {
		v := &product.Variants[i]
		if !v.IsActive {
			continue
		}
		if matches(v, selection) {
			return v
		}
	}
	return nil
}

func matches(v *domain.Variant, selection Selection) bool {
	for key, value := range selection {
		if got, ok := v.Attributes[key]; !ok || got != value {
			return false
		}
	}
	return true
}

// IsSelectionComplete reports whether a value is chosen for every available attribute key
func IsSelectionComplete(product *domain.Product, selection Selection) bool {
	for key := range AvailableAttributes(product) {
		if selection[key] == "" {
			return false
		}
	}
	return true
}
