// Package tmdb is the small TMDB v3 REST client behind the catalog adapter.
//
// It covers movie and TV search with an optional year filter, movie and show
// details (runtime, first air year, season count), and season and episode
// lookups. A 404 surfaces as ErrNotFound. Tests point the client at an
// httptest server through the base URL or WithHTTPClient.
package tmdb
