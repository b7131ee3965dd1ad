// ABOUTME: Built-in catalog of research themes and their subcategories
// ABOUTME: Grouped into core, specialized and emerging disciplines

package theme

import "sort"

// Core disciplines every installation gets.
var coreThemes = []string{
	"architecture",
	"construction",
	"design",
	"engineering",
	"interiors",
	"planning",
	"urbanism",
}

// Specialized disciplines.
var specializedThemes = []string{
	"landscape_architecture",
	"structural_engineering",
	"environmental_engineering",
	"lighting_design",
	"furniture_design",
	"industrial_design",
	"exhibition_design",
}

// Emerging practice areas.
var emergingThemes = []string{
	"computational_design",
	"parametric_design",
	"generative_design",
	"biomimetic_design",
	"smart_cities",
	"sustainable_design",
	"circular_design",
	"regenerative_design",
	"biophilic_design",
	"adaptive_design",
}

// subcategories refine a theme for prompt variety. Themes without an entry
// simply have no refinement.
var subcategories = map[string][]string{
	"architecture": {
		"residential", "commercial", "institutional", "cultural", "adaptive_reuse",
		"heritage", "contemporary", "vernacular", "net_zero", "modular",
	},
	"construction": {
		"timber_frame", "concrete", "masonry", "prefabricated", "3d_printing",
		"green_building", "seismic", "circular_economy",
	},
	"design": {
		"user_centered", "participatory", "service_design", "experience_design",
		"information_design", "visual_design",
	},
	"urbanism": {
		"public_space", "transit_oriented", "tactical_urbanism", "density",
		"informal_settlements", "waterfronts",
	},
	"sustainable_design": {
		"passive_house", "embodied_carbon", "material_reuse", "daylighting",
		"water_systems",
	},
}

// Catalog returns every built-in theme, sorted.
func Catalog() []string {
	all := make([]string, 0, len(coreThemes)+len(specializedThemes)+len(emergingThemes))
	all = append(all, coreThemes...)
	all = append(all, specializedThemes...)
	all = append(all, emergingThemes...)
	sort.Strings(all)
	return all
}

// Known reports whether a theme is part of the built-in catalog.
func Known(theme string) bool {
	for _, t := range Catalog() {
		if t == theme {
			return true
		}
	}
	return false
}

// Subcategories returns the refinements for a theme, or nil when it has
// none.
func Subcategories(theme string) []string {
	subs := subcategories[theme]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}
