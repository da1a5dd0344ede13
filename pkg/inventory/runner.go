package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pipinfo/pkg/catalog"
	"github.com/matzehuels/pipinfo/pkg/integrations/pypi"
	"github.com/matzehuels/pipinfo/pkg/metadata"
	"github.com/matzehuels/pipinfo/pkg/observability"
	"github.com/matzehuels/pipinfo/pkg/requiredby"
)

// Registry answers questions about published packages. *pypi.Client
// implements it.
type Registry interface {
	LatestVersion(ctx context.Context, name string, refresh bool) (string, error)
	Vulnerabilities(ctx context.Context, name, version string, refresh bool) ([]pypi.Vulnerability, error)
}

// Runner executes the pipeline.
//
// The Runner holds no per-run state; one Runner may serve several runs
// concurrently.
type Runner struct {
	Registry Registry
	Logger   *log.Logger
	// Discover lists site directories when Options.Dirs is empty.
	// Defaults to catalog.Discover.
	Discover func(ctx context.Context, python string) ([]catalog.SiteDir, error)
}

// NewRunner creates a runner. A nil logger means log.Default().
func NewRunner(reg Registry, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Registry: reg, Logger: logger, Discover: catalog.Discover}
}

// Execute runs every stage the options ask for.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	opts.Normalize()
	if (opts.CheckLatest || opts.CheckVulns) && r.Registry == nil {
		return nil, fmt.Errorf("index lookups requested without a registry")
	}
	result := &Result{}

	scanStart := time.Now()
	pkgs, dirs, err := r.scan(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Stats.Dirs = dirs
	result.Stats.Scanned = len(pkgs)
	result.Stats.ScanTime = time.Since(scanStart)
	r.Logger.Debug("scanned site directories",
		"dirs", dirs,
		"packages", len(pkgs),
		"duration", result.Stats.ScanTime)

	sel := opts.Select
	fetchStart := time.Now()

	if opts.CheckLatest {
		if result.Latest, err = r.fetchLatest(ctx, pkgs, opts); err != nil {
			return nil, err
		}
	}
	switch {
	case sel.Outdated:
		pkgs = filter(pkgs, result.IsOutdated)
	case sel.Latest:
		pkgs = filter(pkgs, not(result.IsOutdated))
	}

	if opts.CheckVulns {
		if result.Vulnerabilities, err = r.fetchVulnerabilities(ctx, pkgs, opts); err != nil {
			return nil, err
		}
	}
	switch {
	case sel.Vulnerable:
		pkgs = filter(pkgs, result.IsVulnerable)
	case sel.Healthy:
		pkgs = filter(pkgs, not(result.IsVulnerable))
	}
	result.Stats.FetchTime = time.Since(fetchStart)

	if sel.Issues {
		pkgs = filter(pkgs, func(p *metadata.Package) bool {
			return result.IsOutdated(p) || result.IsVulnerable(p)
		})
	}

	if sel.Required || sel.NotRequired {
		result.RequiredBy = requiredby.Build(pkgs, requiredby.Options{Policy: opts.Policy})
		isRequired := func(p *metadata.Package) bool { return result.RequiredBy.IsRequired(p.Name) }
		if sel.Required {
			pkgs = filter(pkgs, isRequired)
		} else {
			pkgs = filter(pkgs, not(isRequired))
		}
	}

	result.Packages = pkgs
	return result, nil
}

// Scan runs only the first stage: it reads the packages the options point
// at and applies the User/System selection.
func (r *Runner) Scan(ctx context.Context, opts Options) ([]*metadata.Package, error) {
	opts.Normalize()
	pkgs, _, err := r.scan(ctx, opts)
	return pkgs, err
}

func (r *Runner) scan(ctx context.Context, opts Options) ([]*metadata.Package, int, error) {
	dirs, err := r.siteDirs(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	hooks := observability.Inventory()
	hooks.OnScanStart(ctx, len(dirs))
	start := time.Now()
	pkgs, err := r.scanDirs(ctx, dirs, opts)
	hooks.OnScanComplete(ctx, len(dirs), len(pkgs), time.Since(start), err)
	if err != nil {
		return nil, 0, err
	}
	return pkgs, len(dirs), nil
}

// siteDirs returns the explicit directories, or asks Python for its site
// directories when there are none.
func (r *Runner) siteDirs(ctx context.Context, opts Options) ([]catalog.SiteDir, error) {
	if len(opts.Dirs) > 0 {
		dirs := make([]catalog.SiteDir, len(opts.Dirs))
		for i, dir := range opts.Dirs {
			dirs[i] = catalog.SiteDir{Path: dir, Source: metadata.SourceSpecified}
		}
		return dirs, nil
	}

	discover := r.Discover
	if discover == nil {
		discover = catalog.Discover
	}
	dirs, err := discover(ctx, opts.Python)
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		r.Logger.Debug("site directory", "path", d.Path, "source", d.Source)
	}
	return dirs, nil
}

// scanDirs reads every directory in order. User packages come before system
// packages; the User/System selections keep one group.
func (r *Runner) scanDirs(ctx context.Context, dirs []catalog.SiteDir, opts Options) ([]*metadata.Package, error) {
	// Record notices are informational; like the per-file trace they only
	// show with debug logging.
	copts := catalog.Options{Workers: opts.Workers, Logger: r.Logger.Debugf, Debug: r.Logger.Debugf}

	var user, system []*metadata.Package
	for _, d := range dirs {
		found, err := catalog.ScanDir(ctx, d.Path, d.Source, copts)
		if err != nil {
			return nil, err
		}
		if d.Source == metadata.SourceSystem {
			system = append(system, found...)
		} else {
			user = append(user, found...)
		}
	}

	switch {
	case opts.Select.User && len(opts.Dirs) == 0:
		return user, nil
	case opts.Select.System && len(opts.Dirs) == 0:
		return system, nil
	}
	return append(user, system...), nil
}

func (r *Runner) fetchLatest(ctx context.Context, pkgs []*metadata.Package, opts Options) (map[string]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, p := range pkgs {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}

	bar := r.newBar(opts, len(names), "Fetching latest versions")
	start := time.Now()
	found, err := fetchAll(ctx, names, opts.Workers, bar, func(ctx context.Context, name string) (string, bool, error) {
		latest, err := r.Registry.LatestVersion(ctx, name, opts.Refresh)
		if err != nil {
			if ctx.Err() != nil {
				return "", false, ctx.Err()
			}
			r.Logger.Warn("latest version lookup failed", "package", name, "err", err)
			return "", true, nil
		}
		return latest, true, nil
	})
	observability.Inventory().OnLookupComplete(ctx, "latest", len(names), time.Since(start), err)
	return found, err
}

type release struct{ name, version string }

func (r *Runner) fetchVulnerabilities(ctx context.Context, pkgs []*metadata.Package, opts Options) (map[string]map[string][]pypi.Vulnerability, error) {
	var releases []release
	seen := make(map[release]bool)
	for _, p := range pkgs {
		rel := release{p.Name, p.Version}
		if !seen[rel] {
			seen[rel] = true
			releases = append(releases, rel)
		}
	}

	bar := r.newBar(opts, len(releases), "Fetching known vulnerabilities")
	start := time.Now()
	found, err := fetchAll(ctx, releases, opts.Workers, bar, func(ctx context.Context, rel release) ([]pypi.Vulnerability, bool, error) {
		vulns, err := r.Registry.Vulnerabilities(ctx, rel.name, rel.version, opts.Refresh)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			r.Logger.Warn("vulnerability lookup failed", "package", rel.name, "version", rel.version, "err", err)
			return nil, false, nil
		}
		return vulns, len(vulns) > 0, nil
	})
	observability.Inventory().OnLookupComplete(ctx, "vulnerabilities", len(releases), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]map[string][]pypi.Vulnerability)
	for rel, vulns := range found {
		if byName[rel.name] == nil {
			byName[rel.name] = make(map[string][]pypi.Vulnerability)
		}
		byName[rel.name][rel.version] = vulns
	}
	return byName, nil
}

// fetchAll calls fetch for every key with at most workers calls in flight.
// Keys for which fetch reports keep=false are left out of the result.
func fetchAll[K comparable, V any](ctx context.Context, keys []K, workers int, bar *progressbar.ProgressBar,
	fetch func(context.Context, K) (V, bool, error)) (map[K]V, error) {
	var mu sync.Mutex
	out := make(map[K]V, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, k := range keys {
		g.Go(func() error {
			v, keep, err := fetch(ctx, k)
			if bar != nil {
				_ = bar.Add(1)
			}
			if err != nil {
				return err
			}
			if keep {
				mu.Lock()
				out[k] = v
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) newBar(opts Options, total int, description string) *progressbar.ProgressBar {
	if opts.Progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(opts.Progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func filter(pkgs []*metadata.Package, keep func(*metadata.Package) bool) []*metadata.Package {
	var out []*metadata.Package
	for _, p := range pkgs {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func not(f func(*metadata.Package) bool) func(*metadata.Package) bool {
	return func(p *metadata.Package) bool { return !f(p) }
}
