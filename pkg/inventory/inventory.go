// Package inventory runs pipinfo's listing pipeline.
//
// The pipeline has four stages, each optional except the first:
//
//  1. Scan: read installed packages from explicit directories, or from the
//     site directories the Python interpreter reports
//  2. Latest: look up the newest published version of each package
//  3. Vulnerabilities: look up advisories for each installed release
//  4. Select: narrow the list by source, freshness, health and whether
//     other installed packages require it
//
// Filters apply in a fixed order: source, outdated/latest,
// vulnerable/healthy, issues, then required/not-required. The required-by
// index is computed over whatever survived the earlier filters.
//
// # Usage
//
//	runner := inventory.NewRunner(pypi.NewClient(cache, ""), logger)
//	result, err := runner.Execute(ctx, inventory.Options{
//	    CheckLatest: true,
//	    Select:      inventory.Selection{Outdated: true},
//	})
package inventory

import (
	"io"
	"time"

	"github.com/matzehuels/pipinfo/pkg/integrations/pypi"
	"github.com/matzehuels/pipinfo/pkg/metadata"
	"github.com/matzehuels/pipinfo/pkg/requiredby"
	"github.com/matzehuels/pipinfo/pkg/versions"
)

// DefaultWorkers bounds concurrent index lookups.
const DefaultWorkers = 8

// Selection narrows the package list. Within each pair the first flag wins
// when both are set.
type Selection struct {
	User   bool // only packages from user site directories
	System bool // only packages from system site directories

	Outdated bool // only packages with a newer published version
	Latest   bool // only packages without one

	Vulnerable bool // only releases with known advisories
	Healthy    bool // only releases without

	Issues bool // only packages that are outdated or vulnerable

	Required    bool // only packages another listed package requires
	NotRequired bool // only packages nothing listed requires
}

// Options configures one pipeline run.
type Options struct {
	// Dirs lists site directories to scan instead of asking Python.
	// Their packages are tagged [metadata.SourceSpecified] and the
	// User/System selections do not apply.
	Dirs []string
	// Python is the interpreter asked for site directories when Dirs is
	// empty. Empty means catalog.DefaultPython.
	Python string

	CheckLatest bool // look up latest versions
	CheckVulns  bool // look up vulnerabilities
	Refresh     bool // bypass the response cache

	Select Selection
	Policy requiredby.Policy

	// Workers bounds concurrent directory parsing and index lookups.
	Workers int
	// Progress receives a progress meter during index lookups. nil
	// disables it.
	Progress io.Writer
}

// Normalize turns on the lookups that selections depend on and fills in
// defaults.
func (o *Options) Normalize() {
	if o.Select.Outdated || o.Select.Latest || o.Select.Issues {
		o.CheckLatest = true
	}
	if o.Select.Vulnerable || o.Select.Healthy || o.Select.Issues {
		o.CheckVulns = true
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
}

// Result is the outcome of a pipeline run.
type Result struct {
	// Packages are the selected packages in scan order.
	Packages []*metadata.Package
	// Latest maps package name to the latest published version ("" when
	// the index has none). nil unless latest versions were checked.
	Latest map[string]string
	// Vulnerabilities maps package name and version to advisories. Only
	// vulnerable releases appear. nil unless vulnerabilities were checked.
	Vulnerabilities map[string]map[string][]pypi.Vulnerability
	// RequiredBy is the required-by index of the packages that reached the
	// required/not-required filter. nil unless that filter was requested.
	RequiredBy requiredby.Index

	Stats Stats
}

// Stats records how long each stage took.
type Stats struct {
	Dirs      int
	Scanned   int
	ScanTime  time.Duration
	FetchTime time.Duration
}

// CheckedLatest reports whether latest versions were looked up.
func (r *Result) CheckedLatest() bool { return r.Latest != nil }

// CheckedVulnerabilities reports whether vulnerabilities were looked up.
func (r *Result) CheckedVulnerabilities() bool { return r.Vulnerabilities != nil }

// LatestVersion returns the latest published version of p, if known.
func (r *Result) LatestVersion(p *metadata.Package) string {
	return r.Latest[p.Name]
}

// IsOutdated reports whether a newer version of p is published.
func (r *Result) IsOutdated(p *metadata.Package) bool {
	return versions.IsOutdated(p.Version, r.Latest[p.Name])
}

// VulnerabilitiesOf returns the advisories for the installed release of p.
func (r *Result) VulnerabilitiesOf(p *metadata.Package) []pypi.Vulnerability {
	return r.Vulnerabilities[p.Name][p.Version]
}

// IsVulnerable reports whether the installed release of p has advisories.
func (r *Result) IsVulnerable(p *metadata.Package) bool {
	return len(r.VulnerabilitiesOf(p)) > 0
}
