package catalog

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pipinfo/pkg/errors"
	"github.com/matzehuels/pipinfo/pkg/metadata"
)

// DefaultWorkers bounds the number of metadata directories parsed at once.
const DefaultWorkers = 8

// SiteDir is a site-packages directory tagged with its provenance.
type SiteDir struct {
	Path   string
	Source metadata.SourceKind
}

// Options configures scanning.
type Options struct {
	// Workers bounds concurrent parsing. Zero means DefaultWorkers.
	Workers int
	// Logger receives informational notices: missing metadata files and
	// unexpected record content. A nil Logger discards them.
	Logger func(string, ...any)
	// Debug receives per-file trace messages. A nil Debug discards them.
	Debug func(string, ...any)
}

func (o Options) infof(format string, args ...any) {
	if o.Logger != nil {
		o.Logger(format, args...)
	}
}

func (o Options) debugf(format string, args ...any) {
	if o.Debug != nil {
		o.Debug(format, args...)
	}
}

// ScanDir scans the site directory dir on the local filesystem.
func ScanDir(ctx context.Context, dir string, source metadata.SourceKind, opts Options) ([]*metadata.Package, error) {
	if err := errors.ValidateDirectory(dir); err != nil {
		return nil, err
	}
	return Scan(ctx, os.DirFS(dir), dir, source, opts)
}

// ScanDirs scans each directory in order and concatenates the results.
// The first directory that cannot be read aborts the scan.
func ScanDirs(ctx context.Context, dirs []SiteDir, opts Options) ([]*metadata.Package, error) {
	var all []*metadata.Package
	for _, d := range dirs {
		pkgs, err := ScanDir(ctx, d.Path, d.Source, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, pkgs...)
	}
	return all, nil
}

// Scan lists the metadata directories at the root of fsys and parses each
// one. dir is the on-disk location of fsys; it only labels results and log
// messages.
//
// A metadata directory without its record file is logged and skipped.
// Packages come back in directory order with (name, version) duplicates
// removed. Failing to list fsys is the only error.
func Scan(ctx context.Context, fsys fs.FS, dir string, source metadata.SourceKind, opts Options) ([]*metadata.Package, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read site directory %s", dir)
	}

	type job struct {
		name string
		kind metadata.RecordKind
	}
	var jobs []job
	for _, e := range entries {
		kind, ok := recordKind(e.Name())
		if !ok || !isDir(fsys, e) {
			continue
		}
		jobs = append(jobs, job{e.Name(), kind})
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]*metadata.Package, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = parseEntry(fsys, dir, j.name, j.kind, source, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dedupe(results), nil
}

func recordKind(name string) (metadata.RecordKind, bool) {
	switch {
	case strings.HasSuffix(name, metadata.DistInfo.String()):
		return metadata.DistInfo, true
	case strings.HasSuffix(name, metadata.EggInfo.String()):
		return metadata.EggInfo, true
	}
	return 0, false
}

// isDir follows symlinks, which DirEntry.IsDir does not.
func isDir(fsys fs.FS, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := fs.Stat(fsys, e.Name())
	return err == nil && info.IsDir()
}

func parseEntry(fsys fs.FS, dir, name string, kind metadata.RecordKind, source metadata.SourceKind, opts Options) *metadata.Package {
	recordPath := path.Join(name, kind.MetadataFile())
	display := filepath.Join(dir, filepath.FromSlash(recordPath))

	record, err := readLines(fsys, recordPath)
	if err != nil {
		opts.infof("'%s' does not exist!", display)
		return nil
	}
	opts.debugf("Processing file: %s", display)

	var requiresTxt []string
	if kind.HasRequiresFile() {
		if lines, err := readLines(fsys, path.Join(name, "requires.txt")); err == nil {
			requiresTxt = lines
		}
	}

	p := metadata.Parse(kind, record, requiresTxt, metadata.Options{Source: display, Logger: opts.Logger})
	p.Dir = filepath.Join(dir, name)
	p.Source = source
	return p
}

// readLines decodes a file leniently: invalid UTF-8 sequences are dropped.
func readLines(fsys fs.FS, name string) ([]string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	text := strings.ToValidUTF8(string(data), "")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n"), nil
}

// dedupe drops nil entries and repeated (name, version) pairs, keeping the
// first occurrence.
func dedupe(pkgs []*metadata.Package) []*metadata.Package {
	type nameVersion struct{ name, version string }
	seen := make(map[nameVersion]bool, len(pkgs))
	out := make([]*metadata.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p == nil {
			continue
		}
		k := nameVersion{p.Name, p.Version}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}
