// Package catalog provides the enumerated reference sets the registration
// form offers: industries, organization types, countries and states per
// country. Embedded defaults keep the form usable offline; when a fetcher
// is wired in, sets are refreshed from the platform through a read-through
// cache.
package catalog

// Item is one entry of an enumerated set.
type Item struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Values extracts the raw values of a set, for membership validation.
func Values(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Value
	}
	return out
}

// FromStrings builds items where label and value are the same string.
func FromStrings(values []string) []Item {
	items := make([]Item, len(values))
	for i, v := range values {
		items[i] = Item{Label: v, Value: v}
	}
	return items
}

// Well-known catalog names.
const (
	NameIndustries = "industries"
	NameOrgTypes   = "organization_types"
	NameCountries  = "countries"
)
