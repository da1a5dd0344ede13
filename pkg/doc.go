// Package pkg provides the libraries behind pipinfo, a tool for listing
// installed Python packages.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. Parsing: [metadata] reads METADATA/PKG-INFO records and requires.txt
//     files; [catalog] finds and parses every record in a site directory
//  2. Analysis: [requiredby] computes which packages require which,
//     following extras transitively; [versions] compares PEP 440 versions
//  3. Integrations: [integrations] and its pypi subpackage query the Python
//     Package Index for latest versions and known vulnerabilities
//  4. Orchestration: [inventory] runs scan, lookup and selection; [render]
//     draws the required-by graph
//
// Supporting packages: [config] (TOML settings), [errors] (coded errors
// and input validation), [httputil] (response cache and retries),
// [observability] (instrumentation hooks) and [buildinfo] (version
// stamping).
//
// # Architecture
//
//	site-packages directories
//	         ↓
//	    [catalog] → [metadata]
//	         ↓
//	    [inventory] ←→ [integrations/pypi]
//	         ↓
//	    [requiredby]
//	         ↓
//	    listing / [render/nodelink]
//
// # Quick Start
//
//	cache, _ := httputil.NewCache("", 24*time.Hour)
//	runner := inventory.NewRunner(pypi.NewClient(cache, ""), nil)
//	result, err := runner.Execute(ctx, inventory.Options{
//	    CheckLatest: true,
//	    Select:      inventory.Selection{Outdated: true},
//	})
//
// [metadata]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/metadata
// [catalog]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/catalog
// [requiredby]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/requiredby
// [versions]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/versions
// [integrations]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/integrations
// [inventory]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/inventory
// [render]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/render/nodelink
// [integrations/pypi]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/integrations/pypi
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/render/nodelink
// [config]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/pipinfo/pkg/buildinfo
package pkg
