package pypi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/pipinfo/pkg/buildinfo"
	pierrors "github.com/matzehuels/pipinfo/pkg/errors"
	"github.com/matzehuels/pipinfo/pkg/httputil"
	"github.com/matzehuels/pipinfo/pkg/integrations"
)

// DefaultIndexURL is the JSON API root of the public Python Package Index.
const DefaultIndexURL = "https://pypi.org/pypi"

// Vulnerability is one advisory PyPI reports for a release.
//
// Zero values: slices may be nil; Withdrawn is nil unless the advisory was
// retracted.
type Vulnerability struct {
	ID        string     `json:"id"`                  // Advisory identifier (e.g., "PYSEC-2023-74")
	Aliases   []string   `json:"aliases,omitempty"`   // Other identifiers, usually CVE and GHSA ids
	Summary   string     `json:"summary,omitempty"`   // One-line description (often empty)
	Details   string     `json:"details,omitempty"`   // Full advisory text
	FixedIn   []string   `json:"fixed_in,omitempty"`  // Versions that fix the issue
	Link      string     `json:"link,omitempty"`      // Advisory URL
	Source    string     `json:"source,omitempty"`    // Database the advisory came from (e.g., "osv")
	Withdrawn *time.Time `json:"withdrawn,omitempty"` // When the advisory was retracted
}

// Client provides access to the PyPI JSON API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client.
//
// Parameters:
//   - cache: Response cache (nil disables caching)
//   - indexURL: JSON API root; "" means [DefaultIndexURL]
//
// Answers are cached under the "pypi:" namespace so clearing other entries
// is never needed to refresh them.
func NewClient(cache *httputil.Cache, indexURL string) *Client {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	if cache != nil {
		cache = cache.Namespace("pypi:")
	}
	return &Client{
		Client:  integrations.NewClient(cache, map[string]string{"User-Agent": buildinfo.UserAgent()}),
		baseURL: strings.TrimSuffix(indexURL, "/"),
	}
}

type latestEntry struct {
	Version  string `json:"version"`
	NotFound bool   `json:"not_found,omitempty"`
}

// LatestVersion returns the most recent version PyPI publishes for name.
//
// A package unknown to the index yields ("", nil); that answer is cached
// like any other so the lookup is not retried until the entry expires.
// Pass refresh=true to bypass the cache.
//
// Returns an error with code INVALID_PACKAGE for names that cannot be a
// Python distribution, or [integrations.ErrNetwork] for HTTP failures.
func (c *Client) LatestVersion(ctx context.Context, name string, refresh bool) (string, error) {
	if err := pierrors.ValidatePythonPackageName(name); err != nil {
		return "", err
	}
	pkg := integrations.NormalizePkgName(name)

	var entry latestEntry
	err := c.Cached(ctx, "latest:"+pkg, refresh, &entry, func() error {
		var data apiResponse
		err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, url.PathEscape(pkg)), &data)
		if errors.Is(err, integrations.ErrNotFound) {
			entry = latestEntry{NotFound: true}
			return nil
		}
		if err != nil {
			return err
		}
		entry = latestEntry{Version: data.Info.Version}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("pypi latest version of %s: %w", pkg, err)
	}
	return entry.Version, nil
}

type vulnsEntry struct {
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	NotFound        bool            `json:"not_found,omitempty"`
}

// Vulnerabilities returns the advisories PyPI lists for one release.
//
// An unknown package or release yields (nil, nil) and is cached as such.
// Pass refresh=true to bypass the cache.
func (c *Client) Vulnerabilities(ctx context.Context, name, version string, refresh bool) ([]Vulnerability, error) {
	if err := pierrors.ValidatePythonPackageName(name); err != nil {
		return nil, err
	}
	if err := pierrors.ValidateVersion(version); err != nil {
		return nil, err
	}
	pkg := integrations.NormalizePkgName(name)

	var entry vulnsEntry
	err := c.Cached(ctx, "vulns:"+pkg+"=="+version, refresh, &entry, func() error {
		var data apiResponse
		u := fmt.Sprintf("%s/%s/%s/json", c.baseURL, url.PathEscape(pkg), url.PathEscape(version))
		err := c.Get(ctx, u, &data)
		if errors.Is(err, integrations.ErrNotFound) {
			entry = vulnsEntry{NotFound: true}
			return nil
		}
		if err != nil {
			return err
		}
		entry = vulnsEntry{Vulnerabilities: data.Vulnerabilities}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pypi vulnerabilities of %s %s: %w", pkg, version, err)
	}
	return entry.Vulnerabilities, nil
}

type apiResponse struct {
	Info            apiInfo         `json:"info"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
}

type apiInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
