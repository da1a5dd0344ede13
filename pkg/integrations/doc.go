// Package integrations provides the HTTP plumbing for package registry APIs.
//
// # Overview
//
// pipinfo talks to a single registry, the Python Package Index, through the
// [pypi] subpackage. This package holds what the registry client builds on:
//
//   - [Client]: JSON GET requests with default headers, retries and caching
//   - [ErrNotFound] / [ErrNetwork]: sentinel errors for status handling
//   - [NormalizePkgName]: PEP 503 name normalization for URLs and cache keys
//
// # Client Pattern
//
//	cache, _ := integrations.NewCache(24 * time.Hour)
//	client := pypi.NewClient(cache, pypi.DefaultIndexURL)
//	latest, err := client.LatestVersion(ctx, "requests", false)  // false = use cache
//
// Status codes map onto errors as follows: 404 becomes [ErrNotFound], 5xx and
// 429 are retried through [httputil.Retry], anything else is a permanent
// [ErrNetwork].
//
// [pypi]: github.com/matzehuels/pipinfo/pkg/integrations/pypi
// [httputil.Retry]: github.com/matzehuels/pipinfo/pkg/httputil.Retry
package integrations
