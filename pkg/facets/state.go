package facets

// SelectorState holds the current value of each selector. An empty value means
// the facet is not filtered.
type SelectorState struct {
	Region     string `json:"region"`
	Category   string `json:"category"`
	Population string `json:"population"`
}

// Value returns the selected value for a facet
func (s SelectorState) Value(facet Facet) string {
	switch facet {
	case FacetRegion:
		return s.Region
	case FacetCategory:
		return s.Category
	case FacetPopulation:
		return s.Population
	default:
		return ""
	}
}

// With returns a copy of the state with one facet changed
func (s SelectorState) With(facet Facet, value string) SelectorState {
	switch facet {
	case FacetRegion:
		s.Region = value
	case FacetCategory:
		s.Category = value
	case FacetPopulation:
		s.Population = value
	}

	return s
}

// IsEmpty reports whether no facet is filtered
func (s SelectorState) IsEmpty() bool {
	return s == SelectorState{}
}
