// Package session runs facet filters for page sessions held server-side.
package session

import (
	"sort"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
)

// Option is one entry of the prison option list
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// OptionView is the rendered state of one option
type OptionView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Visible  bool   `json:"visible"`
	Enabled  bool   `json:"enabled"`
	Selected bool   `json:"selected"`
}

type selector struct {
	value    string
	handlers []facets.ChangeHandler
}

func (s *selector) Present() bool {
	return s != nil
}

func (s *selector) Value() string {
	return s.value
}

func (s *selector) OnChange(handler facets.ChangeHandler) {
	s.handlers = append(s.handlers, handler)
}

func (s *selector) set(value string) {
	s.value = value
	for _, handler := range s.handlers {
		handler(value)
	}
}

type optionList struct {
	options  []Option
	states   map[string]facets.OptionState
	selected map[string]struct{}
	catchAll string
	disabled bool
}

func (o *optionList) Present() bool {
	return o != nil
}

func (o *optionList) OptionIDs() []string {
	ids := make([]string, 0, len(o.options))
	for _, option := range o.options {
		ids = append(ids, option.ID)
	}

	return ids
}

// SetOptionState applies a projected state. A disabled option cannot stay
// selected, so it is deselected.
func (o *optionList) SetOptionState(id string, state facets.OptionState) {
	o.states[id] = state
	if !state.Enabled {
		delete(o.selected, id)
	}
}

func (o *optionList) CatchAllLabel() string {
	return o.catchAll
}

func (o *optionList) SetCatchAllLabel(label string) {
	o.catchAll = label
}

func (o *optionList) SetDisabled(disabled bool) {
	o.disabled = disabled
}

// Page is an in-memory rendition of the prison selection controls: three facet
// selectors and the prison option list with its catch-all option.
type Page struct {
	region     *selector
	category   *selector
	population *selector
	options    *optionList
}

// NewPage creates a page with the selectors preset to state and the given
// options selected. Options start visible and enabled until a filter projects
// onto them.
func NewPage(options []Option, catchAllLabel string, state facets.SelectorState, selected []string) *Page {
	states := make(map[string]facets.OptionState, len(options))
	for _, option := range options {
		states[option.ID] = facets.OptionState{Visible: true, Enabled: true}
	}

	selectedSet := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := states[id]; ok {
			selectedSet[id] = struct{}{}
		}
	}

	return &Page{
		region:     &selector{value: state.Region},
		category:   &selector{value: state.Category},
		population: &selector{value: state.Population},
		options: &optionList{
			options:  options,
			states:   states,
			selected: selectedSet,
			catchAll: catchAllLabel,
		},
	}
}

// Controls exposes the page controls to a filter
func (p *Page) Controls() facets.Controls {
	return facets.Controls{
		Region:     p.region,
		Category:   p.category,
		Population: p.population,
		Options:    p.options,
	}
}

// Select changes a selector value and notifies its subscribers
func (p *Page) Select(facet facets.Facet, value string) {
	switch facet {
	case facets.FacetRegion:
		p.region.set(value)
	case facets.FacetCategory:
		p.category.set(value)
	case facets.FacetPopulation:
		p.population.set(value)
	}
}

// SelectOptions replaces the option selection. Unknown and disabled options
// are skipped.
func (p *Page) SelectOptions(ids []string) {
	p.options.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		state, ok := p.options.states[id]
		if !ok || !state.Enabled {
			continue
		}
		p.options.selected[id] = struct{}{}
	}
}

// Selected returns the selected option identifiers, sorted
func (p *Page) Selected() []string {
	out := make([]string, 0, len(p.options.selected))
	for id := range p.options.selected {
		out = append(out, id)
	}
	sort.Strings(out)

	return out
}

// CatchAllLabel returns the current label of the catch-all option
func (p *Page) CatchAllLabel() string {
	return p.options.catchAll
}

// Disabled reports whether the option list is disabled
func (p *Page) Disabled() bool {
	return p.options.disabled
}

// Options returns the options in page order with their current state
func (p *Page) Options() []OptionView {
	views := make([]OptionView, 0, len(p.options.options))
	for _, option := range p.options.options {
		state := p.options.states[option.ID]
		_, selected := p.options.selected[option.ID]
		views = append(views, OptionView{
			ID:       option.ID,
			Label:    option.Label,
			Visible:  state.Visible,
			Enabled:  state.Enabled,
			Selected: selected,
		})
	}

	return views
}
