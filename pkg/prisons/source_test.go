package prisons

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_Fetch(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "bare array",
			content: `[{"nomis_id":"LEI","name":"HMP Leeds","region":"Yorkshire","categories":[],"populations":[]}]`,
			want:    []string{"LEI"},
		},
		{
			name:    "paginated document",
			content: `{"count":2,"next":null,"results":[{"nomis_id":"LEI"},{"nomis_id":"NOR"}]}`,
			want:    []string{"LEI", "NOR"},
		},
		{
			name:    "invalid json",
			content: `{"results":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prisons.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			prisons, err := NewFileSource(path).Fetch(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			ids := make([]string, 0, len(prisons))
			for _, prison := range prisons {
				ids = append(ids, prison.NomisID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestAPISource_FollowsPagination(t *testing.T) {
	var (
		mu          sync.Mutex
		authHeaders []string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("page") {
		case "":
			next := "/prisons/?page=2"
			_ = json.NewEncoder(w).Encode(page{Count: 2, Next: &next, Results: []Prison{{NomisID: "LEI"}}})
		case "2":
			_ = json.NewEncoder(w).Encode(page{Count: 2, Results: []Prison{{NomisID: "NOR"}}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	source := NewAPISource(srv.URL+"/", "secret", 5*time.Second)
	prisons, err := source.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, prisons, 2)
	assert.Equal(t, "LEI", prisons[0].NomisID)
	assert.Equal(t, "NOR", prisons[1].NomisID)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer secret", "Bearer secret"}, authHeaders)
	assert.Equal(t, "api", source.Name())
}

func TestAPISource_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewAPISource(srv.URL, "", time.Second).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "no source",
			config:  Config{CacheTTL: time.Minute},
			wantErr: ErrSourceRequired,
		},
		{
			name:    "both sources",
			config:  Config{File: "prisons.json", APIURL: "http://api", CacheTTL: time.Minute},
			wantErr: ErrAmbiguousSource,
		},
		{
			name:    "zero ttl",
			config:  Config{File: "prisons.json"},
			wantErr: ErrInvalidCacheTTL,
		},
		{
			name:    "watch without file",
			config:  Config{APIURL: "http://api", CacheTTL: time.Minute, WatchFile: true},
			wantErr: ErrWatchWithoutFile,
		},
		{
			name:   "valid",
			config: Config{File: "prisons.json", CacheTTL: time.Minute, RefreshSchedule: "@every 15m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	bad := Config{File: "prisons.json", CacheTTL: time.Minute, RefreshSchedule: "not a schedule"}
	assert.Error(t, bad.Validate())
}
