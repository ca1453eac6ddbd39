package facets

// Eligibility maps record identifiers to whether they satisfy every active facet
type Eligibility map[string]bool

// EligibleIDs returns the eligible identifiers in record order
func (e Eligibility) EligibleIDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		if e[record.ID] {
			ids = append(ids, record.ID)
		}
	}

	return ids
}

// CountEligible returns the number of eligible records
func (e Eligibility) CountEligible() int {
	count := 0
	for _, eligible := range e {
		if eligible {
			count++
		}
	}

	return count
}

// NoneEligible reports whether the projection is non-empty and every record is
// ineligible
func (e Eligibility) NoneEligible() bool {
	return len(e) > 0 && e.CountEligible() == 0
}

// ComputeEligibility evaluates every record against the selector state. It has
// no side effects and handles empty states and empty record sets.
func ComputeEligibility(records []Record, state SelectorState) Eligibility {
	eligibility := make(Eligibility, len(records))
	for _, record := range records {
		eligibility[record.ID] = IsEligible(record, state)
	}

	return eligibility
}

// IsEligible reports whether a single record satisfies the selector state.
// Records without facet data are always eligible.
func IsEligible(record Record, state SelectorState) bool {
	data := record.Facets
	if data == nil {
		return true
	}

	if state.Region != "" && data.Region != "" && data.Region != state.Region {
		return false
	}

	if state.Category != "" && !data.Categories.Has(state.Category) {
		return false
	}

	if state.Population != "" && !data.Populations.Has(state.Population) {
		return false
	}

	return true
}
