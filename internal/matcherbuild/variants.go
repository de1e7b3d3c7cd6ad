package matcherbuild

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var variantFiles embed.FS

// variantDescriptor is the YAML shape of the four preauthored matcher
// variant descriptions baked into the binary.
type variantDescriptor struct {
	Name        string `yaml:"name"`
	Shifted     bool   `yaml:"shifted"`
	Committed   bool   `yaml:"committed"`
	Description string `yaml:"description"`
}

var variantFileNames = []string{
	"templates/normal.yaml",
	"templates/shifted.yaml",
	"templates/committed.yaml",
	"templates/shifted_committed.yaml",
}

func loadVariants() ([]variantDescriptor, error) {
	var out []variantDescriptor
	for _, fname := range variantFileNames {
		data, err := variantFiles.ReadFile(fname)
		if err != nil {
			return nil, fmt.Errorf("matcherbuild: reading %s: %w", fname, err)
		}
		var v variantDescriptor
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("matcherbuild: parsing %s: %w", fname, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// selectVariant picks the preauthored descriptor matching (shifted,
// committed), falling back to matcherTemplateNameFallback's name for the
// same pair if the descriptors cannot be loaded or none matches (the four
// baked files are exhaustive over the boolean pair, so this only triggers if
// the embedded resources are missing or malformed).
func selectVariant(shifted, committed bool) string {
	variants, err := loadVariants()
	if err != nil {
		return matcherTemplateNameFallback(shifted, committed)
	}
	for _, v := range variants {
		if v.Shifted == shifted && v.Committed == committed {
			return v.Name
		}
	}
	return matcherTemplateNameFallback(shifted, committed)
}

func matcherTemplateNameFallback(shifted, committed bool) string {
	switch {
	case shifted && committed:
		return "Trace_Matcher_ShiftedCommitted_Tmpl"
	case shifted:
		return "Trace_Matcher_Shifted_Tmpl"
	case committed:
		return "Trace_Matcher_Committed_Tmpl"
	default:
		return "Trace_Matcher_Normal_Tmpl"
	}
}
