// Package httputil provides HTTP utilities for the PyPI lookups.
//
// # Overview
//
// This package provides infrastructure used by the registry clients:
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores decoded responses in the filesystem ([DefaultDir]) with a
// configurable TTL. Latest-version and vulnerability lookups change slowly,
// so a day-old answer is good enough and repeated listings stay offline.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	var info pypiInfo
//	if ok, _ := cache.Get("pypi:latest:requests", &info); !ok {
//	    info = fetchFromAPI()
//	    cache.Set("pypi:latest:requests", info)
//	}
//
// Cache keys should be namespaced by lookup kind to avoid collisions; see
// [Cache.Namespace].
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// The delay doubles after each failed attempt:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return fetch()
//	})
//
// # Configuration
//
//   - Cache directory: $XDG_CACHE_HOME/pipinfo or ~/.cache/pipinfo
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `pipinfo cache clear` or by deleting the
// cache directory.
package httputil
