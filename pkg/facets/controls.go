package facets

// ChangeHandler is invoked synchronously with the new value of a selector
type ChangeHandler func(value string)

// Selector is a single-value selection control
type Selector interface {
	// Present reports whether the control exists; it must be safe to call on
	// a nil receiver
	Present() bool
	// Value returns the current value, empty when nothing is selected
	Value() string
	// OnChange subscribes a handler to value changes
	OnChange(handler ChangeHandler)
}

// OptionState is the presentation of one option in the option list
type OptionState struct {
	Visible bool `json:"visible"`
	Enabled bool `json:"enabled"`
}

// OptionList is the multi-option control whose options correspond 1:1 to
// records by identifier. It carries a catch-all "select all" option whose label
// is replaced while nothing matches.
type OptionList interface {
	// Present reports whether the control exists; it must be safe to call on
	// a nil receiver
	Present() bool
	OptionIDs() []string
	SetOptionState(id string, state OptionState)
	CatchAllLabel() string
	SetCatchAllLabel(label string)
	SetDisabled(disabled bool)
}

// Controls groups the controls a Filter binds to. Any nil or absent member
// makes the set incomplete.
type Controls struct {
	Region     Selector
	Category   Selector
	Population Selector
	Options    OptionList
}

// Selector returns the control for a facet
func (c Controls) Selector(facet Facet) Selector {
	switch facet {
	case FacetRegion:
		return c.Region
	case FacetCategory:
		return c.Category
	case FacetPopulation:
		return c.Population
	default:
		return nil
	}
}

func (c Controls) complete() bool {
	for _, selector := range []Selector{c.Region, c.Category, c.Population} {
		if selector == nil || !selector.Present() {
			return false
		}
	}

	return c.Options != nil && c.Options.Present()
}
