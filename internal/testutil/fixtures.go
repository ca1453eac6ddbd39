package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/i18n"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/sirupsen/logrus"
)

// Prisons returns a small prison list covering every facet combination the
// tests rely on: a region-less prison, a private estate prison and the
// excluded test prison.
func Prisons() []prisons.Prison {
	return []prisons.Prison{
		{
			NomisID:     "LEI",
			Name:        "HMP Leeds",
			Region:      "Yorkshire",
			Categories:  []prisons.Label{{Name: "B", Description: "Category B"}},
			Populations: []prisons.Label{{Name: "male", Description: "Male"}, {Name: "adult", Description: "Adult"}},
		},
		{
			NomisID:       "BWI",
			Name:          "HMP Berwyn",
			Region:        "Wales",
			Categories:    []prisons.Label{{Name: "C", Description: "Category C"}},
			Populations:   []prisons.Label{{Name: "male", Description: "Male"}, {Name: "adult", Description: "Adult"}},
			PrivateEstate: true,
		},
		{
			NomisID:     "NWI",
			Name:        "HMP Norwich",
			Categories:  []prisons.Label{{Name: "B", Description: "Category B"}, {Name: "C", Description: "Category C"}},
			Populations: []prisons.Label{{Name: "female", Description: "Female"}},
		},
		{
			NomisID: "ZCH",
			Name:    "Test prison",
			Region:  "Nowhere",
		},
	}
}

// StaticSource is a prisons.Source returning a fixed list
type StaticSource struct {
	Prisons []prisons.Prison
}

// Name implements prisons.Source
func (s *StaticSource) Name() string {
	return "static"
}

// Fetch implements prisons.Source
func (s *StaticSource) Fetch(_ context.Context) ([]prisons.Prison, error) {
	return s.Prisons, nil
}

// NewLoadedCatalog returns a catalog already loaded with the fixture prisons
func NewLoadedCatalog(t *testing.T, log logrus.FieldLogger) *prisons.Catalog {
	t.Helper()

	catalog := prisons.NewCatalog(log, &StaticSource{Prisons: Prisons()}, nil, prisons.Options{}, "")
	if err := catalog.Refresh(context.Background()); err != nil {
		t.Fatalf("failed to load fixture catalog: %v", err)
	}

	return catalog
}

// NewBundle loads the embedded locale catalogs
func NewBundle(t *testing.T) *i18n.Bundle {
	t.Helper()

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		t.Fatalf("failed to load locale catalogs: %v", err)
	}

	return bundle
}

// QuietLogger returns a logger that only reports errors
func QuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return logger
}

// WritePrisonsFile writes the fixture prisons as JSON into a temporary
// directory and returns the file path
func WritePrisonsFile(t *testing.T) string {
	t.Helper()

	data, err := json.Marshal(Prisons())
	if err != nil {
		t.Fatalf("failed to encode fixture prisons: %v", err)
	}

	path := filepath.Join(t.TempDir(), "prisons.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write fixture prisons: %v", err)
	}

	return path
}
