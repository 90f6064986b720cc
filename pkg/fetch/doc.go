// Package fetch provides the HTTP client used to retrieve stylesheets,
// scripts and theme variable files relative to a base URL.
//
// # Overview
//
// [Client] wraps net/http with:
//
//   - Response caching through a [cache.Cache] backend
//   - Automatic retry with exponential backoff for transient failures
//   - Status mapping to [ErrNotFound] and [ErrNetwork]
//   - Observability hooks for every request
//
// # Retry
//
// Network errors, 429 and 5xx responses are retried; a Retry-After header
// given in seconds replaces the backoff delay. Other statuses fail
// immediately:
//
//	body, err := client.GetBytes(ctx, "https://cdn.example.com/ffs/styles/ffs-ui.css")
//	if errors.Is(err, fetch.ErrNotFound) {
//	    // resource missing on the asset host
//	}
//
// [cache.Cache]: github.com/ffs-ui/ffs/pkg/cache.Cache
package fetch
