package integrations

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	pierrors "github.com/matzehuels/pipinfo/pkg/errors"
	"github.com/matzehuels/pipinfo/pkg/httputil"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or release doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// RateLimitedError is the registry's 429 answer.
type RateLimitedError = pierrors.RateLimitedError

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewCache creates a file-based cache with the given TTL in the default cache directory.
// See [httputil.NewCache] for details on cache location and behavior.
func NewCache(ttl time.Duration) (*httputil.Cache, error) {
	return httputil.NewCache("", ttl)
}

var separatorRE = regexp.MustCompile(`[-_.]+`)

// NormalizePkgName converts a package name to its canonical form following
// PEP 503: lowercase, with runs of "-", "_" and "." collapsed to one hyphen.
func NormalizePkgName(name string) string {
	return separatorRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
