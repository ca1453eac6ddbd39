package prisons

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var (
	// ErrUnexpectedStatus is returned when the prisons API responds with a non-200 status
	ErrUnexpectedStatus = errors.New("unexpected status from prisons API")
	// ErrTooManyPages is returned when pagination does not terminate
	ErrTooManyPages = errors.New("prisons API pagination exceeded page limit")
)

const maxPages = 100

// Source provides the raw prison list
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Prison, error)
}

// page is one page of a paginated API response
type page struct {
	Count   int      `json:"count"`
	Next    *string  `json:"next"`
	Results []Prison `json:"results"`
}

// decodePrisons accepts either a bare array or a paginated document
func decodePrisons(data []byte) ([]Prison, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var prisons []Prison
		if err := json.Unmarshal(trimmed, &prisons); err != nil {
			return nil, err
		}
		return prisons, nil
	}

	var p page
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, err
	}

	return p.Results, nil
}

// FileSource reads the prison list from a JSON file
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name implements Source
func (s *FileSource) Name() string {
	return "file"
}

// Fetch implements Source
func (s *FileSource) Fetch(_ context.Context) ([]Prison, error) {
	data, err := os.ReadFile(s.Path) //nolint:gosec // Operator-provided dataset path
	if err != nil {
		return nil, fmt.Errorf("failed to read prison file: %w", err)
	}

	prisons, err := decodePrisons(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prison file %s: %w", s.Path, err)
	}

	return prisons, nil
}

// APISource reads every page of GET {base}/prisons/
type APISource struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAPISource creates an API-backed source
func NewAPISource(baseURL, token string, timeout time.Duration) *APISource {
	return &APISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Source
func (s *APISource) Name() string {
	return "api"
}

// Fetch implements Source
func (s *APISource) Fetch(ctx context.Context) ([]Prison, error) {
	next := s.baseURL + "/prisons/"
	prisons := make([]Prison, 0)

	for i := 0; next != ""; i++ {
		if i >= maxPages {
			return nil, ErrTooManyPages
		}

		p, err := s.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		prisons = append(prisons, p.Results...)

		next = ""
		if p.Next != nil {
			next, err = s.resolve(*p.Next)
			if err != nil {
				return nil, err
			}
		}
	}

	return prisons, nil
}

func (s *APISource) resolve(ref string) (string, error) {
	base, err := url.Parse(s.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid prisons API URL: %w", err)
	}

	target, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid next page URL %q: %w", ref, err)
	}

	return base.ResolveReference(target).String(), nil
}

func (s *APISource) fetchPage(ctx context.Context, pageURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prisons: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read prisons response: %w", err)
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode prisons response: %w", err)
	}

	return &p, nil
}
