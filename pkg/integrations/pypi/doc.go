// Package pypi provides an HTTP client for the Python Package Index JSON API.
//
// # Overview
//
// pipinfo asks PyPI two questions about installed packages:
//
//   - [Client.LatestVersion]: the newest published version, from
//     GET /pypi/<name>/json
//   - [Client.Vulnerabilities]: known advisories for an installed release,
//     from GET /pypi/<name>/<version>/json
//
// # Usage
//
//	cache, _ := httputil.NewCache("", 24*time.Hour)
//	client := pypi.NewClient(cache, "")
//
//	latest, err := client.LatestVersion(ctx, "requests", false)  // false = use cache
//	vulns, err := client.Vulnerabilities(ctx, "requests", "2.25.0", false)
//
// # Caching
//
// Answers are cached for the cache TTL (one day by default). A 404 is an
// answer too: it is cached as "unknown" so packages installed from elsewhere
// do not hit the index on every run. Pass refresh=true to bypass the cache.
//
// Package names are normalized following PEP 503 before they are used in
// URLs or cache keys.
package pypi
