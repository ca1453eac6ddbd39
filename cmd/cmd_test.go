package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/internal/testutil"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterView(t *testing.T, locale string, state facets.SelectorState) *session.View {
	t.Helper()

	list := prisons.NewList(testutil.Prisons(), prisons.Options{})
	svc := session.NewService(testutil.QuietLogger(), session.NewMemoryStore(time.Minute), &staticList{list: list}, testutil.NewBundle(t))

	view, err := svc.Create(context.Background(), locale, state)
	require.NoError(t, err)

	return view
}

func TestPrintFilterView_Table(t *testing.T) {
	view := filterView(t, "en-GB", facets.SelectorState{Region: "Wales"})

	var out bytes.Buffer
	require.NoError(t, printFilterView(&out, view, "table"))

	text := out.String()
	assert.Contains(t, text, "PRISON")
	assert.Regexp(t, `BWI\s+HMP Berwyn\s+true\s+true`, text)
	assert.Regexp(t, `LEI\s+HMP Leeds\s+false\s+false`, text)
	assert.Contains(t, text, "Mode: normal")
	assert.Contains(t, text, "Eligible: 2 of 3")
	assert.Contains(t, text, "Label: All prisons")
}

func TestPrintFilterView_NoMatchesJSON(t *testing.T) {
	view := filterView(t, "cy-GB", facets.SelectorState{Category: "A"})

	var out bytes.Buffer
	require.NoError(t, printFilterView(&out, view, "json"))

	var decoded session.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))

	assert.Equal(t, "no_matches", decoded.Mode)
	assert.True(t, decoded.Disabled)
	assert.Equal(t, "Dim carchardai sy'n cyfateb", decoded.CatchAllLabel)
}

func TestPrintFilterView_UnknownFormat(t *testing.T) {
	view := filterView(t, "en-GB", facets.SelectorState{})

	err := printFilterView(&bytes.Buffer{}, view, "xml")
	assert.ErrorIs(t, err, ErrUnknownOutputFormat)
}

func TestPrintChoices(t *testing.T) {
	list := prisons.NewList(testutil.Prisons(), prisons.Options{})
	bundle := testutil.NewBundle(t)

	var out bytes.Buffer
	printChoices(&out, list, bundle, "en-GB", []facets.Facet{facets.FacetRegion, facets.FacetCategory})

	text := out.String()
	assert.Contains(t, text, "Prison region")
	assert.Regexp(t, `-\s+All regions`, text)
	assert.Regexp(t, `Wales\s+Wales`, text)
	assert.NotContains(t, text, "Nowhere")
	assert.Contains(t, text, "Prison category")
	assert.Regexp(t, `C\s+Category C`, text)
	assert.NotContains(t, text, "Prison type")
}

func TestLoadCLIConfig(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadCLIConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)

		assert.Equal(t, "error", cfg.Logging)
		assert.Equal(t, 15*time.Minute, cfg.Prisons.CacheTTL)
		assert.ErrorIs(t, cfg.Validate(), prisons.ErrSourceRequired)
	})

	t.Run("file overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
prisons:
  file: prisons.json
  excludePrivateEstate: true
  excludedIds: [ZCH, XYZ]
`), 0o600))

		cfg, err := LoadCLIConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "prisons.json", cfg.Prisons.File)
		assert.True(t, cfg.Prisons.ExcludePrivateEstate)
		assert.Equal(t, []string{"ZCH", "XYZ"}, cfg.Prisons.ExcludedIDs)
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadServerConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging: debug
api:
  addr: ":8181"
prisons:
  apiUrl: https://api.example.gov.uk/prisons/
sessions:
  ttl: 30m
`), 0o600))

	cfg, err := loadServerConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging)
	assert.Equal(t, ":8181", cfg.API.Addr)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "https://api.example.gov.uk/prisons/", cfg.Prisons.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Prisons.APITimeout)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
	assert.Equal(t, session.StoreMemory, cfg.Sessions.Store)
	require.NoError(t, cfg.Validate())
}
