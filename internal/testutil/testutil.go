// Package testutil provides test utilities for the prison facet service, including:
//   - Miniredis helpers for unit tests (miniredis.go)
//   - Prison list fixtures and a static list provider (fixtures.go)
//
// None of the helpers need Docker; they work with regular tests.
package testutil
