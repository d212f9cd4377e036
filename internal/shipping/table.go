package shipping

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Wildcard city key used as the province-wide fallback
const Wildcard = "*"

var ErrMethodNotFound = errors.New("no shipping method for destination")

// Method is a resolved shipping option for a destination
type Method struct {
	Name string          `json:"name" yaml:"name"`
	Fee  decimal.Decimal `json:"fee" yaml:"fee"`
}

// Table maps country -> province -> city -> method
type Table map[string]map[string]map[string]Method

// Resolve looks up the method for a destination. Lookups are
// case-insensitive; a "*" city entry covers the rest of the province.
func (t Table) Resolve(country, province, city string) (Method, error) {
	provinces, ok := lookup[map[string]map[string]Method](t, country)
	if !ok {
		return Method{}, fmt.Errorf("%w: country %q", ErrMethodNotFound, country)
	}
	cities, ok := lookup(provinces, province)
	if !ok {
		return Method{}, fmt.Errorf("%w: province %q", ErrMethodNotFound, province)
	}
	if m, ok := lookup(cities, city); ok {
		return m, nil
	}
	if m, ok := cities[Wildcard]; ok {
		return m, nil
	}
	return Method{}, fmt.Errorf("%w: city %q", ErrMethodNotFound, city)
}

func lookup[V any](m map[string]V, key string) (V, bool) {
	key = strings.TrimSpace(key)
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

type yamlMethod struct {
	Name string `yaml:"name"`
	Fee  string `yaml:"fee"`
}

// Parse decodes a YAML rate table
func Parse(data []byte) (Table, error) {
	var raw map[string]map[string]map[string]yamlMethod
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse shipping rates: %w", err)
	}

	table := make(Table, len(raw))
	for country, provinces := range raw {
		table[country] = make(map[string]map[string]Method, len(provinces))
		for province, cities := range provinces {
			table[country][province] = make(map[string]Method, len(cities))
			for city, m := range cities {
				fee, err := decimal.NewFromString(m.Fee)
				if err != nil {
					return nil, fmt.Errorf("invalid fee for %s/%s/%s: %w", country, province, city, err)
				}
				table[country][province][city] = Method{Name: m.Name, Fee: fee}
			}
		}
	}
	return table, nil
}

// Load reads a YAML rate table from path, or returns the default table when path is empty
func Load(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping rates: %w", err)
	}
	return Parse(data)
}

// DefaultTable is the built-in rate table
func DefaultTable() Table {
	standard := func(fee int64) Method {
		return Method{Name: "Standard Delivery", Fee: decimal.NewFromInt(fee)}
	}
	return Table{
		"Philippines": {
			"Metro Manila": {
				"Makati":      standard(80),
				"Quezon City": standard(90),
				"Taguig":      standard(80),
				Wildcard:      standard(100),
			},
			"Cebu": {
				"Cebu City": standard(150),
				Wildcard:    standard(180),
			},
			"Davao del Sur": {
				"Davao City": standard(160),
			},
		},
	}
}
