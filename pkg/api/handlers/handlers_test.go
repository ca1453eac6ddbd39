package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/internal/testutil"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, catalog ListProvider) *fiber.App {
	t.Helper()

	log := testutil.QuietLogger()
	bundle := testutil.NewBundle(t)
	if catalog == nil {
		catalog = testutil.NewLoadedCatalog(t, log)
	}

	sessions := session.NewService(log, session.NewMemoryStore(time.Hour), catalog, bundle)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	NewServer(catalog, sessions, bundle, log).Register(app.Group("/api/v1"))

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}

	return resp, decoded
}

func visibleOptions(t *testing.T, view map[string]any) []string {
	t.Helper()

	options, ok := view["options"].([]any)
	require.True(t, ok)

	ids := make([]string, 0, len(options))
	for _, raw := range options {
		option := raw.(map[string]any)
		if option["visible"].(bool) {
			ids = append(ids, option["id"].(string))
		}
	}

	return ids
}

func TestHealth(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, body := doRequest(t, app, "GET", "/api/v1/healthz", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestListPrisons(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, body := doRequest(t, app, "GET", "/api/v1/prisons", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.InDelta(t, 3, body["total"], 0)

	list := body["prisons"].([]any)
	first := list[0].(map[string]any)
	assert.Equal(t, "BWI", first["value"])
	assert.Equal(t, "HMP Berwyn", first["label"])
}

func TestGetMapping(t *testing.T) {
	tests := []struct {
		name          string
		headers       map[string]string
		query         string
		expectedLabel string
	}{
		{
			name:          "default locale",
			expectedLabel: "No matching prisons",
		},
		{
			name:          "welsh via query",
			query:         "?lang=cy",
			expectedLabel: "Dim carchardai sy'n cyfateb",
		},
		{
			name:          "welsh via accept-language",
			headers:       map[string]string{"Accept-Language": "cy-GB,cy;q=0.9,en;q=0.5"},
			expectedLabel: "Dim carchardai sy'n cyfateb",
		},
		{
			name:          "unsupported language",
			headers:       map[string]string{"Accept-Language": "fr-FR"},
			expectedLabel: "No matching prisons",
		},
	}

	app := setupTestApp(t, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, "GET", "/api/v1/prisons/mapping"+tt.query, "", tt.headers)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			assert.Equal(t, tt.expectedLabel, body["_no_matches"])

			norwich := body["NWI"].(map[string]any)
			assert.Nil(t, norwich["region"])
			assert.Equal(t, map[string]any{"B": float64(1), "C": float64(1)}, norwich["categories"])

			assert.NotContains(t, body, "ZCH")
		})
	}
}

func TestGetChoices(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, body := doRequest(t, app, "GET", "/api/v1/choices", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "en-GB", body["locale"])

	facetList := body["facets"].([]any)
	require.Len(t, facetList, 3)

	region := facetList[0].(map[string]any)
	assert.Equal(t, "region", region["facet"])
	assert.Equal(t, "Prison region", region["label"])

	choices := region["choices"].([]any)
	require.Len(t, choices, 3)
	assert.Equal(t, map[string]any{"value": "", "label": "All regions"}, choices[0])
	assert.Equal(t, "Wales", choices[1].(map[string]any)["value"])
	assert.Equal(t, "Yorkshire", choices[2].(map[string]any)["value"])
}

func TestComputeEligibility(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		expectedStatus   int
		expectedMode     string
		expectedEligible []any
	}{
		{
			name:             "empty state",
			body:             "",
			expectedStatus:   http.StatusOK,
			expectedMode:     "normal",
			expectedEligible: []any{"BWI", "LEI", "NWI"},
		},
		{
			name:             "category C",
			body:             `{"category":"C"}`,
			expectedStatus:   http.StatusOK,
			expectedMode:     "normal",
			expectedEligible: []any{"BWI", "NWI"},
		},
		{
			name:             "no matches",
			body:             `{"region":"Yorkshire","category":"C","population":"male"}`,
			expectedStatus:   http.StatusOK,
			expectedMode:     "no_matches",
			expectedEligible: []any{},
		},
		{
			name:           "malformed body",
			body:           `{"region":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	app := setupTestApp(t, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, "POST", "/api/v1/eligibility", tt.body, nil)
			require.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus != http.StatusOK {
				assert.Contains(t, body, "error")
				return
			}

			assert.Equal(t, tt.expectedMode, body["mode"])
			assert.ElementsMatch(t, tt.expectedEligible, body["eligible"])

			if tt.expectedMode == "no_matches" {
				assert.Equal(t, "No matching prisons", body["label"])
			} else {
				assert.NotContains(t, body, "label")
			}
		})
	}
}

func TestPrisonsNotLoaded(t *testing.T) {
	catalog := prisons.NewCatalog(testutil.QuietLogger(), &testutil.StaticSource{}, nil, prisons.Options{}, "")
	app := setupTestApp(t, catalog)

	for _, target := range []string{"/api/v1/prisons", "/api/v1/prisons/mapping", "/api/v1/choices"} {
		resp, body := doRequest(t, app, "GET", target, "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, target)
		assert.Equal(t, "prison list not loaded", body["error"])
	}

	resp, _ := doRequest(t, app, "POST", "/api/v1/sessions", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, created := doRequest(t, app, "POST", "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id := created["session_id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "normal", created["mode"])
	assert.Equal(t, "All prisons", created["catch_all_label"])
	assert.Equal(t, []string{"BWI", "LEI", "NWI"}, visibleOptions(t, created))

	base := "/api/v1/sessions/" + id

	resp, view := doRequest(t, app, "PUT", base+"/selectors/region", `{"value":"Yorkshire"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"LEI", "NWI"}, visibleOptions(t, view))

	resp, view = doRequest(t, app, "PUT", base+"/selectors/category", `{"value":"C"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"NWI"}, visibleOptions(t, view))

	resp, view = doRequest(t, app, "PUT", base+"/selectors/population", `{"value":"male"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no_matches", view["mode"])
	assert.Equal(t, true, view["disabled"])
	assert.Equal(t, "No matching prisons", view["catch_all_label"])
	assert.Empty(t, visibleOptions(t, view))

	resp, view = doRequest(t, app, "GET", base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no_matches", view["mode"])

	resp, view = doRequest(t, app, "PUT", base+"/selectors/population", `{"value":""}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "normal", view["mode"])
	assert.Equal(t, "All prisons", view["catch_all_label"])
	assert.Equal(t, []string{"NWI"}, visibleOptions(t, view))

	resp, view = doRequest(t, app, "DELETE", base+"/selectors", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"region": "", "category": "", "population": ""}, view["state"])
	assert.Equal(t, []string{"BWI", "LEI", "NWI"}, visibleOptions(t, view))

	resp, _ = doRequest(t, app, "DELETE", base, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := doRequest(t, app, "GET", base, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "session not found", body["error"])
}

func TestCreateSessionWithInitialState(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, view := doRequest(t, app, "POST", "/api/v1/sessions?lang=cy-GB", `{"region":"Wales","category":"A"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "cy-GB", view["locale"])
	assert.Equal(t, "no_matches", view["mode"])
	assert.Equal(t, "Dim carchardai sy'n cyfateb", view["catch_all_label"])
}

func TestChangeSelectorErrors(t *testing.T) {
	app := setupTestApp(t, nil)

	_, created := doRequest(t, app, "POST", "/api/v1/sessions", "", nil)
	id := created["session_id"].(string)

	tests := []struct {
		name           string
		target         string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unknown facet",
			target:         "/api/v1/sessions/" + id + "/selectors/security",
			body:           `{"value":"high"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "unknown facet, expected region, category or population",
		},
		{
			name:           "malformed body",
			target:         "/api/v1/sessions/" + id + "/selectors/region",
			body:           `{"value":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "unknown session",
			target:         "/api/v1/sessions/missing/selectors/region",
			body:           `{"value":"Wales"}`,
			expectedStatus: http.StatusNotFound,
			expectedError:  "session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, "PUT", tt.target, tt.body, nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectedError, body["error"])
			assert.InDelta(t, tt.expectedStatus, body["code"], 0)
		})
	}
}

func TestSelectPrisons(t *testing.T) {
	app := setupTestApp(t, nil)

	_, created := doRequest(t, app, "POST", "/api/v1/sessions", "", nil)
	base := "/api/v1/sessions/" + created["session_id"].(string)
	assert.Equal(t, []any{}, created["selected"])

	resp, view := doRequest(t, app, "PUT", base+"/prisons", `{"prisons":["LEI,BWI",""," LEI"]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"BWI", "LEI"}, view["selected"])

	// a selected prison that becomes ineligible is deselected
	resp, view = doRequest(t, app, "PUT", base+"/selectors/region", `{"value":"Wales"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"BWI"}, view["selected"])

	resp, view = doRequest(t, app, "PUT", base+"/prisons", `{"prisons":["ALL"]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, view["selected"])

	tests := []struct {
		name           string
		target         string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unknown prison",
			target:         base + "/prisons",
			body:           `{"prisons":["BWI","ZCH"]}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "unknown prison: ZCH",
		},
		{
			name:           "malformed body",
			target:         base + "/prisons",
			body:           `{"prisons":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "unknown session",
			target:         "/api/v1/sessions/missing/prisons",
			body:           `{"prisons":["BWI"]}`,
			expectedStatus: http.StatusNotFound,
			expectedError:  "session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, "PUT", tt.target, tt.body, nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectedError, body["error"])
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "fiber error",
			err:             fiber.NewError(fiber.StatusTeapot, "short and stout"),
			expectedStatus:  fiber.StatusTeapot,
			expectedMessage: "short and stout",
		},
		{
			name:            "plain error",
			err:             io.ErrUnexpectedEOF,
			expectedStatus:  fiber.StatusInternalServerError,
			expectedMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(_ fiber.Ctx) error {
				return tt.err
			})

			resp, body := doRequest(t, app, "GET", "/", "", nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectedMessage, body["error"])
		})
	}
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Fetch(_ context.Context) ([]prisons.Prison, error) {
	return nil, errors.New("upstream unavailable")
}

func TestReloadPrisons(t *testing.T) {
	log := testutil.QuietLogger()
	source := &testutil.StaticSource{Prisons: testutil.Prisons()[:1]}
	catalog := prisons.NewCatalog(log, source, nil, prisons.Options{}, "")
	require.NoError(t, catalog.Refresh(context.Background()))

	app := setupTestApp(t, catalog)

	_, body := doRequest(t, app, "GET", "/api/v1/prisons", "", nil)
	assert.InDelta(t, 1, body["total"], 0)

	source.Prisons = testutil.Prisons()

	resp, body := doRequest(t, app, "POST", "/api/v1/prisons/reload", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 3, body["total"], 0)
	assert.NotEmpty(t, body["updated_at"])
}

func TestReloadPrisons_SourceFailure(t *testing.T) {
	catalog := prisons.NewCatalog(testutil.QuietLogger(), failingSource{}, nil, prisons.Options{}, "")
	app := setupTestApp(t, catalog)

	resp, body := doRequest(t, app, "POST", "/api/v1/prisons/reload", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "failed to reload prison list", body["error"])
}
