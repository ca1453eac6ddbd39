package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/i18n"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/observability"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownPrison is returned when a selected prison is not one of the session's options
	ErrUnknownPrison = errors.New("unknown prison")
)

// ListProvider returns the current prison list
type ListProvider interface {
	List() (*prisons.List, error)
}

// View is the rendered state of a session's controls
type View struct {
	SessionID     string               `json:"session_id"`
	Locale        string               `json:"locale"`
	State         facets.SelectorState `json:"state"`
	Mode          string               `json:"mode"`
	CatchAllLabel string               `json:"catch_all_label"`
	Disabled      bool                 `json:"disabled"`
	Eligible      int                  `json:"eligible"`
	Selected      []string             `json:"selected"`
	Options       []OptionView         `json:"options"`
}

// Service creates filter sessions and applies selector changes to them
type Service struct {
	log     logrus.FieldLogger
	store   Store
	catalog ListProvider
	bundle  *i18n.Bundle
	now     func() time.Time

	locks keyedMutex
}

// NewService creates a session service
func NewService(log logrus.FieldLogger, store Store, catalog ListProvider, bundle *i18n.Bundle) *Service {
	return &Service{
		log:     log.WithField("service", "session"),
		store:   store,
		catalog: catalog,
		bundle:  bundle,
		now:     time.Now,
	}
}

// Create starts a session from the current prison list with an initial selector state
func (s *Service) Create(ctx context.Context, locale string, initial facets.SelectorState) (*View, error) {
	list, err := s.catalog.List()
	if err != nil {
		return nil, err
	}

	if !s.bundle.Has(locale) {
		locale = i18n.BaseLocale
	}

	choices := list.PrisonChoices()
	options := make([]Option, 0, len(choices))
	for _, choice := range choices {
		options = append(options, Option{ID: choice.Value, Label: choice.Label})
	}

	now := s.now()
	sess := &Session{
		ID:            uuid.NewString(),
		Locale:        locale,
		Options:       options,
		Dataset:       list.Dataset(s.bundle.NoMatchesLabel(locale)),
		CatchAllLabel: s.bundle.Message(locale, i18n.KeyAllPrisons),
		State:         initial,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	view := s.render(sess, "create", nil)

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	observability.RecordSession("created")
	s.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"locale":  locale,
		"options": len(options),
	}).Debug("Created filter session")

	return view, nil
}

// Get renders a session without changing it
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.render(sess, "get", nil), nil
}

// Change sets one selector and returns the recomputed view. An empty value
// clears the facet.
func (s *Service) Change(ctx context.Context, id string, facet facets.Facet, value string) (*View, error) {
	if _, err := facets.ParseFacet(string(facet)); err != nil {
		return nil, err
	}

	return s.update(ctx, id, "change", nil, func(page *Page) {
		observability.RecordSelectorChange(string(facet), value)
		page.Select(facet, value)
	})
}

// Clear resets every selector
func (s *Service) Clear(ctx context.Context, id string) (*View, error) {
	return s.update(ctx, id, "clear", nil, func(page *Page) {
		for _, facet := range facets.AllFacets() {
			page.Select(facet, "")
		}
	})
}

// SelectPrisons replaces the prison selection. Values are normalized the
// way the prison field is submitted: comma-separated identifiers, blanks and
// duplicates dropped, and the all-prisons code clearing the selection. Every
// identifier must be one of the session's options; options that the current
// selectors make ineligible cannot be selected and are left out.
func (s *Service) SelectPrisons(ctx context.Context, id string, values []string) (*View, error) {
	ids := prisons.NormalizeSelection(values)

	return s.update(ctx, id, "select", func(sess *Session) error {
		known := make(map[string]struct{}, len(sess.Options))
		for _, option := range sess.Options {
			known[option.ID] = struct{}{}
		}
		for _, prison := range ids {
			if _, ok := known[prison]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownPrison, prison)
			}
		}

		return nil
	}, func(page *Page) {
		page.SelectOptions(ids)
	})
}

// Delete ends a session
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	observability.RecordSession("deleted")

	return nil
}

func (s *Service) update(ctx context.Context, id, operation string, validate func(sess *Session) error, change func(page *Page)) (*View, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(sess); err != nil {
			return nil, err
		}
	}

	view := s.render(sess, operation, change)
	sess.UpdatedAt = s.now()

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return view, nil
}

// render rebuilds the page from the session, binds a filter to it, applies
// change through the page controls and writes the resulting state back.
// Selected prisons that become ineligible are deselected.
func (s *Service) render(sess *Session, operation string, change func(page *Page)) *View {
	start := time.Now()

	page := NewPage(sess.Options, sess.CatchAllLabel, sess.State, sess.Selected)
	filter := facets.NewFilter(sess.Dataset, s.log)
	filter.Initialize(page.Controls())

	filter.OnTransition(func(from, to facets.Mode) {
		observability.RecordModeTransition(to.String())
		s.log.WithFields(logrus.Fields{
			"session": sess.ID,
			"from":    from.String(),
			"to":      to.String(),
		}).Debug("Session mode changed")
	})

	if change != nil {
		change(page)
	}

	sess.State = filter.State()
	sess.Selected = page.Selected()
	eligible := filter.Eligibility().CountEligible()

	observability.RecordProjection(operation, eligible, time.Since(start).Seconds())

	return &View{
		SessionID:     sess.ID,
		Locale:        sess.Locale,
		State:         sess.State,
		Mode:          filter.Mode().String(),
		CatchAllLabel: page.CatchAllLabel(),
		Disabled:      page.Disabled(),
		Eligible:      eligible,
		Selected:      sess.Selected,
		Options:       page.Options(),
	}
}

// keyedMutex serialises work per session id
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
