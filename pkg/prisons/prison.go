// Package prisons loads the prison list and derives the facet dataset and
// selector choices from it.
package prisons

import (
	"sort"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
)

// Label is a named prison category or population
type Label struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Prison is a prison as returned by the prisons API
type Prison struct {
	NomisID       string  `json:"nomis_id" yaml:"nomis_id"`
	Name          string  `json:"name" yaml:"name"`
	Region        string  `json:"region" yaml:"region"`
	Categories    []Label `json:"categories" yaml:"categories"`
	Populations   []Label `json:"populations" yaml:"populations"`
	PrivateEstate bool    `json:"private_estate" yaml:"private_estate"`
}

// Choice is a value/label pair for a select control
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DefaultExcludedIDs are prisons never offered for selection
func DefaultExcludedIDs() []string {
	return []string{"ZCH"}
}

// Options controls which prisons a List offers
type Options struct {
	ExcludedIDs          []string `yaml:"excludedIds"`
	ExcludePrivateEstate bool     `yaml:"excludePrivateEstate" default:"false"`
}

// List is the filtered prison list with derived choices
type List struct {
	prisons  []Prison
	excluded map[string]struct{}

	prisonChoices     []Choice
	regionChoices     []Choice
	categoryChoices   []Choice
	populationChoices []Choice
}

// NewList builds a List. Excluded identifiers are dropped from the choices and
// from the dataset; private estate prisons are only dropped from the choices.
func NewList(prisons []Prison, opts Options) *List {
	excludedIDs := opts.ExcludedIDs
	if excludedIDs == nil {
		excludedIDs = DefaultExcludedIDs()
	}

	l := &List{
		prisons:  prisons,
		excluded: make(map[string]struct{}, len(excludedIDs)),
	}
	for _, id := range excludedIDs {
		l.excluded[id] = struct{}{}
	}

	regions := make(map[string]struct{})
	categories := make(map[string]string)
	populations := make(map[string]string)

	for _, prison := range prisons {
		if l.isExcluded(prison.NomisID) {
			continue
		}
		if opts.ExcludePrivateEstate && prison.PrivateEstate {
			continue
		}

		l.prisonChoices = append(l.prisonChoices, Choice{Value: prison.NomisID, Label: prison.Name})

		if prison.Region != "" {
			regions[prison.Region] = struct{}{}
		}
		for _, label := range prison.Categories {
			categories[label.Name] = label.Description
		}
		for _, label := range prison.Populations {
			populations[label.Name] = label.Description
		}
	}

	sortByLabel(l.prisonChoices)

	for region := range regions {
		l.regionChoices = append(l.regionChoices, Choice{Value: region, Label: region})
	}
	sortByLabel(l.regionChoices)

	l.categoryChoices = labelChoices(categories)
	l.populationChoices = labelChoices(populations)

	return l
}

func (l *List) isExcluded(id string) bool {
	_, ok := l.excluded[id]
	return ok
}

func labelChoices(labels map[string]string) []Choice {
	choices := make([]Choice, 0, len(labels))
	for name, description := range labels {
		choices = append(choices, Choice{Value: name, Label: description})
	}
	sortByLabel(choices)

	return choices
}

func sortByLabel(choices []Choice) {
	sort.SliceStable(choices, func(i, j int) bool {
		if choices[i].Label == choices[j].Label {
			return choices[i].Value < choices[j].Value
		}
		return choices[i].Label < choices[j].Label
	})
}

// Prisons returns the unfiltered prisons the list was built from
func (l *List) Prisons() []Prison {
	return l.prisons
}

// PrisonChoices returns selectable prisons sorted by name
func (l *List) PrisonChoices() []Choice {
	return l.prisonChoices
}

// RegionChoices returns the distinct regions sorted alphabetically
func (l *List) RegionChoices() []Choice {
	return l.regionChoices
}

// CategoryChoices returns the distinct categories sorted by description
func (l *List) CategoryChoices() []Choice {
	return l.categoryChoices
}

// PopulationChoices returns the distinct populations sorted by description
func (l *List) PopulationChoices() []Choice {
	return l.populationChoices
}

// FacetChoices returns the choices for a facet selector
func (l *List) FacetChoices(facet facets.Facet) []Choice {
	switch facet {
	case facets.FacetRegion:
		return l.regionChoices
	case facets.FacetCategory:
		return l.categoryChoices
	case facets.FacetPopulation:
		return l.populationChoices
	default:
		return nil
	}
}

// Dataset returns the facet mapping for every non-excluded prison
func (l *List) Dataset(noMatchesLabel string) *facets.Dataset {
	dataset := &facets.Dataset{
		Entries:        make(map[string]facets.FacetData, len(l.prisons)),
		NoMatchesLabel: noMatchesLabel,
	}

	for _, prison := range l.prisons {
		if l.isExcluded(prison.NomisID) {
			continue
		}

		dataset.Entries[prison.NomisID] = facets.FacetData{
			Region:      prison.Region,
			Categories:  labelSet(prison.Categories),
			Populations: labelSet(prison.Populations),
		}
	}

	return dataset
}

func labelSet(labels []Label) facets.TagSet {
	set := make(facets.TagSet, len(labels))
	for _, label := range labels {
		set[label.Name] = struct{}{}
	}

	return set
}
