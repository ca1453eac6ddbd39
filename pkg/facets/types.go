// Package facets filters a fixed set of records by region, category and population
// and projects the result onto a selectable option list.
package facets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// NoMatchesKey is the sentinel key in a serialised Dataset that carries the
// label shown when no record is eligible.
const NoMatchesKey = "_no_matches"

var (
	// ErrUnknownFacet is returned when a facet name is not region, category or population
	ErrUnknownFacet = errors.New("unknown facet")
)

// Facet is an independent filter dimension
type Facet string

const (
	// FacetRegion filters on the single region of a record
	FacetRegion Facet = "region"
	// FacetCategory filters on the category tags of a record
	FacetCategory Facet = "category"
	// FacetPopulation filters on the population tags of a record
	FacetPopulation Facet = "population"
)

// AllFacets lists the facets in display order
func AllFacets() []Facet {
	return []Facet{FacetRegion, FacetCategory, FacetPopulation}
}

// ParseFacet converts a facet name into a Facet
func ParseFacet(name string) (Facet, error) {
	switch Facet(name) {
	case FacetRegion, FacetCategory, FacetPopulation:
		return Facet(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFacet, name)
	}
}

// TagSet is a set of tag names. It serialises as {"name":1,...} and also
// accepts a plain JSON array of names.
type TagSet map[string]struct{}

// NewTagSet builds a set from the given names, skipping blanks
func NewTagSet(names ...string) TagSet {
	set := make(TagSet, len(names))
	for _, name := range names {
		if name != "" {
			set[name] = struct{}{}
		}
	}

	return set
}

// Has reports whether name is in the set
func (s TagSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the sorted tag names
func (s TagSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// MarshalJSON implements json.Marshaler
func (s TagSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(s))
	for name := range s {
		out[name] = 1
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *TagSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = TagSet{}
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return err
		}
		*s = NewTagSet(names...)

		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}

	set := make(TagSet, len(obj))
	for name := range obj {
		set[name] = struct{}{}
	}
	*s = set

	return nil
}

// FacetData is the facet information attached to a record
type FacetData struct {
	// Region is empty when the record has no region
	Region      string `json:"region"`
	Categories  TagSet `json:"categories"`
	Populations TagSet `json:"populations"`
}

type facetDataJSON struct {
	Region      *string `json:"region"`
	Categories  TagSet  `json:"categories"`
	Populations TagSet  `json:"populations"`
}

// MarshalJSON writes an absent region as null
func (d FacetData) MarshalJSON() ([]byte, error) {
	out := facetDataJSON{
		Categories:  d.Categories,
		Populations: d.Populations,
	}
	if out.Categories == nil {
		out.Categories = TagSet{}
	}
	if out.Populations == nil {
		out.Populations = TagSet{}
	}
	if d.Region != "" {
		region := d.Region
		out.Region = &region
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (d *FacetData) UnmarshalJSON(data []byte) error {
	var in facetDataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	d.Region = ""
	if in.Region != nil {
		d.Region = *in.Region
	}
	d.Categories = in.Categories
	d.Populations = in.Populations

	return nil
}

// Record is a filterable item. Facets is nil when the page supplied no facet
// data for the identifier.
type Record struct {
	ID     string
	Facets *FacetData
}

// Dataset is the static mapping from record identifier to facet data, plus the
// label to show when no record is eligible.
type Dataset struct {
	Entries        map[string]FacetData
	NoMatchesLabel string
}

// Records joins the given identifiers with the dataset. Identifiers without an
// entry get a nil Facets and therefore match every filter.
func (d *Dataset) Records(ids []string) []Record {
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		record := Record{ID: id}
		if d != nil {
			if data, ok := d.Entries[id]; ok {
				record.Facets = &data
			}
		}
		records = append(records, record)
	}

	return records
}

// IDs returns the sorted identifiers present in the dataset
func (d *Dataset) IDs() []string {
	if d == nil {
		return nil
	}

	ids := make([]string, 0, len(d.Entries))
	for id := range d.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// MarshalJSON writes the dataset as a flat object keyed by record identifier,
// with the no-matches label under NoMatchesKey.
func (d Dataset) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Entries)+1)
	for id, data := range d.Entries {
		out[id] = data
	}
	out[NoMatchesKey] = d.NoMatchesLabel

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Entries = make(map[string]FacetData, len(raw))
	d.NoMatchesLabel = ""

	for key, value := range raw {
		if key == NoMatchesKey {
			if err := json.Unmarshal(value, &d.NoMatchesLabel); err != nil {
				return fmt.Errorf("invalid %s label: %w", NoMatchesKey, err)
			}
			continue
		}

		var entry FacetData
		if err := json.Unmarshal(value, &entry); err != nil {
			return fmt.Errorf("invalid facet data for %q: %w", key, err)
		}
		d.Entries[key] = entry
	}

	return nil
}
