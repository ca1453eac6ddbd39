package facets

import (
	"github.com/sirupsen/logrus"
)

// DefaultNoMatchesLabel is used when the dataset carries no label of its own
const DefaultNoMatchesLabel = "No matches"

// Mode is the state of the option list as a whole
type Mode int

const (
	// ModeNormal means at least one record is eligible
	ModeNormal Mode = iota
	// ModeNoMatches means no record is eligible; the control is disabled and
	// its catch-all label replaced
	ModeNoMatches
)

// String implements fmt.Stringer
func (m Mode) String() string {
	if m == ModeNoMatches {
		return "no_matches"
	}

	return "normal"
}

// TransitionHandler observes mode changes
type TransitionHandler func(from, to Mode)

// Filter binds the facet selectors to an option list. It is not safe for
// concurrent use; every change is handled synchronously on the caller's goroutine.
type Filter struct {
	log     logrus.FieldLogger
	dataset *Dataset

	controls    Controls
	records     []Record
	state       SelectorState
	eligibility Eligibility
	mode        Mode

	originalLabel string
	initialized   bool
	transitions   []TransitionHandler
}

// NewFilter creates a filter over the dataset
func NewFilter(dataset *Dataset, log logrus.FieldLogger) *Filter {
	return &Filter{
		log:     log.WithField("component", "facets.filter"),
		dataset: dataset,
		mode:    ModeNormal,
	}
}

// OnTransition subscribes a handler to Normal/NoMatches transitions
func (f *Filter) OnTransition(handler TransitionHandler) {
	f.transitions = append(f.transitions, handler)
}

// Initialize binds change handlers to the selectors and performs the initial
// projection. It returns false and does nothing when a control is missing.
// Calling it again after a successful initialisation is a no-op.
func (f *Filter) Initialize(controls Controls) bool {
	if !controls.complete() {
		f.log.Debug("Facet controls not present, skipping filter initialisation")
		return false
	}

	if f.initialized {
		return true
	}

	f.controls = controls
	f.records = f.dataset.Records(controls.Options.OptionIDs())
	f.originalLabel = controls.Options.CatchAllLabel()
	f.state = SelectorState{
		Region:     controls.Region.Value(),
		Category:   controls.Category.Value(),
		Population: controls.Population.Value(),
	}

	for _, facet := range AllFacets() {
		controls.Selector(facet).OnChange(f.changeHandler(facet))
	}

	f.initialized = true
	f.refresh()

	f.log.WithField("records", len(f.records)).Debug("Facet filter initialised")

	return true
}

func (f *Filter) changeHandler(facet Facet) ChangeHandler {
	return func(value string) {
		f.state = f.state.With(facet, value)
		f.refresh()
	}
}

func (f *Filter) refresh() {
	eligibility := ComputeEligibility(f.records, f.state)
	f.ApplyProjection(eligibility)
	f.handleAllIneligible(eligibility)
	f.eligibility = eligibility
}

// ApplyProjection shows and enables eligible options and hides and disables
// the rest. Options missing from the projection are treated as eligible.
func (f *Filter) ApplyProjection(eligibility Eligibility) {
	if !f.initialized {
		return
	}

	for _, record := range f.records {
		eligible, ok := eligibility[record.ID]
		if !ok {
			eligible = true
		}

		f.controls.Options.SetOptionState(record.ID, OptionState{
			Visible: eligible,
			Enabled: eligible,
		})
	}
}

func (f *Filter) handleAllIneligible(eligibility Eligibility) {
	switch {
	case eligibility.NoneEligible() && f.mode == ModeNormal:
		f.controls.Options.SetCatchAllLabel(f.noMatchesLabel())
		f.controls.Options.SetDisabled(true)
		f.transition(ModeNoMatches)
	case !eligibility.NoneEligible() && f.mode == ModeNoMatches:
		f.controls.Options.SetCatchAllLabel(f.originalLabel)
		f.controls.Options.SetDisabled(false)
		f.transition(ModeNormal)
	}
}

func (f *Filter) transition(to Mode) {
	from := f.mode
	f.mode = to

	f.log.WithFields(logrus.Fields{
		"from":  from.String(),
		"to":    to.String(),
		"state": f.state,
	}).Debug("Facet filter mode changed")

	for _, handler := range f.transitions {
		handler(from, to)
	}
}

func (f *Filter) noMatchesLabel() string {
	if f.dataset != nil && f.dataset.NoMatchesLabel != "" {
		return f.dataset.NoMatchesLabel
	}

	return DefaultNoMatchesLabel
}

// Initialized reports whether the filter is bound to controls
func (f *Filter) Initialized() bool {
	return f.initialized
}

// State returns the current selector state
func (f *Filter) State() SelectorState {
	return f.state
}

// Mode returns the current mode
func (f *Filter) Mode() Mode {
	return f.mode
}

// Eligibility returns the most recent projection
func (f *Filter) Eligibility() Eligibility {
	out := make(Eligibility, len(f.eligibility))
	for id, eligible := range f.eligibility {
		out[id] = eligible
	}

	return out
}
