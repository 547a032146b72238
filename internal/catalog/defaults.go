package catalog

import (
	_ "embed"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yml
var defaultsYAML []byte

type defaultsFile struct {
	Industries        []string            `yaml:"industries"`
	OrganizationTypes []string            `yaml:"organization_types"`
	Countries         map[string][]string `yaml:"countries"`
}

var (
	defaultsOnce   sync.Once
	loadedDefaults defaultsFile
)

func loadDefaults() defaultsFile {
	defaultsOnce.Do(func() {
		// The embedded file is part of the build, a parse failure is a bug
		if err := yaml.Unmarshal(defaultsYAML, &loadedDefaults); err != nil {
			panic("catalog: parsing embedded defaults: " + err.Error())
		}
	})
	return loadedDefaults
}

// DefaultIndustries returns the embedded industry set.
func DefaultIndustries() []Item {
	return FromStrings(loadDefaults().Industries)
}

// DefaultOrgTypes returns the embedded organization type set.
func DefaultOrgTypes() []Item {
	return FromStrings(loadDefaults().OrganizationTypes)
}

// DefaultCountries returns the embedded country set, sorted by name.
func DefaultCountries() []Item {
	d := loadDefaults()
	names := make([]string, 0, len(d.Countries))
	for name := range d.Countries {
		names = append(names, name)
	}
	sort.Strings(names)
	return FromStrings(names)
}

// DefaultStates returns the embedded states for a country, or nil when the
// country is unknown.
func DefaultStates(country string) []Item {
	states, ok := loadDefaults().Countries[country]
	if !ok {
		return nil
	}
	return FromStrings(states)
}
