package inventory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pipinfo/pkg/catalog"
	"github.com/matzehuels/pipinfo/pkg/integrations/pypi"
	"github.com/matzehuels/pipinfo/pkg/metadata"
	"github.com/matzehuels/pipinfo/pkg/observability"
)

type fakeRegistry struct {
	mu       sync.Mutex
	latest   map[string]string
	vulns    map[string][]pypi.Vulnerability // "name==version"
	failing  map[string]bool
	requests []string
}

func (f *fakeRegistry) LatestVersion(_ context.Context, name string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, "latest:"+name)
	if f.failing[name] {
		return "", errors.New("boom")
	}
	return f.latest[name], nil
}

func (f *fakeRegistry) Vulnerabilities(_ context.Context, name, version string, _ bool) ([]pypi.Vulnerability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, "vulns:"+name+"=="+version)
	if f.failing[name] {
		return nil, errors.New("boom")
	}
	return f.vulns[name+"=="+version], nil
}

func writeDist(t *testing.T, site, name, version, requires string) {
	t.Helper()
	dir := filepath.Join(site, name+"-"+version+".dist-info")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "Metadata-Version: 2.1\nName: " + name + "\nVersion: " + version + "\n" + requires
	require.NoError(t, os.WriteFile(filepath.Join(dir, "METADATA"), []byte(content), 0o644))
}

// fixture lays out a user and a system site directory:
//
//	user:   app 1.0 (requires lib, tool[cli])
//	system: lib 2.0, tool 1.0 (cli extra requires colors), colors 0.1, lonely 3.0
func fixture(t *testing.T) (user, system string) {
	user, system = t.TempDir(), t.TempDir()
	writeDist(t, user, "app", "1.0", "Requires-Dist: lib\nRequires-Dist: tool[cli]\n")
	writeDist(t, system, "lib", "2.0", "")
	writeDist(t, system, "tool", "1.0", "Requires-Dist: colors; extra == \"cli\"\n")
	writeDist(t, system, "colors", "0.1", "")
	writeDist(t, system, "lonely", "3.0", "")
	return user, system
}

func newTestRunner(t *testing.T, reg Registry) *Runner {
	t.Helper()
	user, system := fixture(t)
	r := NewRunner(reg, log.New(io.Discard))
	r.Discover = func(context.Context, string) ([]catalog.SiteDir, error) {
		return []catalog.SiteDir{
			{Path: user, Source: metadata.SourceUser},
			{Path: system, Source: metadata.SourceSystem},
		}, nil
	}
	return r
}

func names(pkgs []*metadata.Package) []string {
	var out []string
	for _, p := range pkgs {
		out = append(out, p.Name)
	}
	sort.Strings(out)
	return out
}

func TestExecute_All(t *testing.T) {
	r := newTestRunner(t, nil)

	res, err := r.Execute(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "colors", "lib", "lonely", "tool"}, names(res.Packages))
	assert.Equal(t, "app", res.Packages[0].Name, "user packages come first")
	assert.False(t, res.CheckedLatest())
	assert.False(t, res.CheckedVulnerabilities())
	assert.Nil(t, res.RequiredBy)
	assert.Equal(t, 2, res.Stats.Dirs)
	assert.Equal(t, 5, res.Stats.Scanned)
}

func TestExecute_SourceSelection(t *testing.T) {
	r := newTestRunner(t, nil)

	res, err := r.Execute(context.Background(), Options{Select: Selection{User: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names(res.Packages))

	res, err = r.Execute(context.Background(), Options{Select: Selection{System: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "lib", "lonely", "tool"}, names(res.Packages))
}

func TestExecute_ExplicitDirs(t *testing.T) {
	r := newTestRunner(t, nil)
	r.Discover = func(context.Context, string) ([]catalog.SiteDir, error) {
		t.Fatal("Discover must not run when directories are given")
		return nil, nil
	}
	site := t.TempDir()
	writeDist(t, site, "only", "1.0", "")

	res, err := r.Execute(context.Background(), Options{Dirs: []string{site}, Select: Selection{User: true}})
	require.NoError(t, err)
	require.Len(t, res.Packages, 1)
	assert.Equal(t, metadata.SourceSpecified, res.Packages[0].Source)
}

func TestExecute_Outdated(t *testing.T) {
	reg := &fakeRegistry{latest: map[string]string{"app": "1.1", "lib": "2.0", "tool": "0.9"}}
	r := newTestRunner(t, reg)

	res, err := r.Execute(context.Background(), Options{Select: Selection{Outdated: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names(res.Packages))
	assert.True(t, res.CheckedLatest(), "outdated selection implies the lookup")
	assert.Equal(t, "1.1", res.LatestVersion(res.Packages[0]))

	res, err = r.Execute(context.Background(), Options{Select: Selection{Latest: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "lib", "lonely", "tool"}, names(res.Packages))
}

func TestExecute_Vulnerable(t *testing.T) {
	reg := &fakeRegistry{vulns: map[string][]pypi.Vulnerability{"lib==2.0": {{ID: "PYSEC-1"}}}}
	r := newTestRunner(t, reg)

	res, err := r.Execute(context.Background(), Options{Select: Selection{Vulnerable: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib"}, names(res.Packages))
	assert.Equal(t, "PYSEC-1", res.VulnerabilitiesOf(res.Packages[0])[0].ID)
	assert.NotContains(t, res.Vulnerabilities, "app", "only vulnerable releases are recorded")

	res, err = r.Execute(context.Background(), Options{Select: Selection{Healthy: true}})
	require.NoError(t, err)
	assert.NotContains(t, names(res.Packages), "lib")
}

func TestExecute_Issues(t *testing.T) {
	reg := &fakeRegistry{
		latest: map[string]string{"colors": "0.2"},
		vulns:  map[string][]pypi.Vulnerability{"lib==2.0": {{ID: "PYSEC-1"}}},
	}
	r := newTestRunner(t, reg)

	res, err := r.Execute(context.Background(), Options{Select: Selection{Issues: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "lib"}, names(res.Packages))
}

func TestExecute_VulnerabilitiesOnlyForSurvivors(t *testing.T) {
	reg := &fakeRegistry{latest: map[string]string{"app": "2.0"}}
	r := newTestRunner(t, reg)

	_, err := r.Execute(context.Background(), Options{
		CheckVulns: true,
		Select:     Selection{Outdated: true},
	})
	require.NoError(t, err)

	var vulnLookups []string
	for _, req := range reg.requests {
		if len(req) > 6 && req[:6] == "vulns:" {
			vulnLookups = append(vulnLookups, req)
		}
	}
	assert.Equal(t, []string{"vulns:app==1.0"}, vulnLookups)
}

func TestExecute_Required(t *testing.T) {
	r := newTestRunner(t, nil)

	res, err := r.Execute(context.Background(), Options{Select: Selection{Required: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "lib", "tool"}, names(res.Packages))
	assert.Equal(t, []string{"app"}, res.RequiredBy.RequiredBy("colors"), "extra dependencies count for the requirer")

	res, err = r.Execute(context.Background(), Options{Select: Selection{NotRequired: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "lonely"}, names(res.Packages))
}

func TestExecute_RequiredAfterOtherFilters(t *testing.T) {
	r := newTestRunner(t, nil)

	// With only system packages listed, app is gone and so are its edges.
	res, err := r.Execute(context.Background(), Options{Select: Selection{System: true, NotRequired: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "lib", "lonely", "tool"}, names(res.Packages))
}

func TestExecute_LookupFailuresAreNotFatal(t *testing.T) {
	reg := &fakeRegistry{latest: map[string]string{"app": "9.0"}, failing: map[string]bool{"lib": true}}
	r := newTestRunner(t, reg)

	res, err := r.Execute(context.Background(), Options{CheckLatest: true, CheckVulns: true})
	require.NoError(t, err)
	assert.Len(t, res.Packages, 5)
	assert.Empty(t, res.LatestVersion(&metadata.Package{Name: "lib"}))
}

func TestExecute_NoRegistry(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), Options{CheckLatest: true})
	assert.Error(t, err)
}

func TestExecute_DiscoverError(t *testing.T) {
	r := newTestRunner(t, nil)
	r.Discover = func(context.Context, string) ([]catalog.SiteDir, error) {
		return nil, errors.New("no python")
	}
	_, err := r.Execute(context.Background(), Options{})
	assert.ErrorContains(t, err, "no python")
}

func TestExecute_Progress(t *testing.T) {
	reg := &fakeRegistry{}
	r := newTestRunner(t, reg)

	var buf bytes.Buffer
	_, err := r.Execute(context.Background(), Options{CheckLatest: true, Progress: &buf})
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}

func TestExecute_DedupesLookups(t *testing.T) {
	reg := &fakeRegistry{}
	r := NewRunner(reg, log.New(io.Discard))
	a, b := t.TempDir(), t.TempDir()
	writeDist(t, a, "dup", "1.0", "")
	writeDist(t, b, "dup", "1.0", "")

	res, err := r.Execute(context.Background(), Options{Dirs: []string{a, b}, CheckLatest: true, CheckVulns: true})
	require.NoError(t, err)
	assert.Len(t, res.Packages, 2)
	assert.ElementsMatch(t, []string{"latest:dup", "vulns:dup==1.0"}, reg.requests)
}

func TestScan(t *testing.T) {
	r := newTestRunner(t, nil)
	pkgs, err := r.Scan(context.Background(), Options{Select: Selection{User: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names(pkgs))
}

func TestOptionsNormalize(t *testing.T) {
	o := Options{Select: Selection{Issues: true}}
	o.Normalize()
	assert.True(t, o.CheckLatest)
	assert.True(t, o.CheckVulns)
	assert.Equal(t, DefaultWorkers, o.Workers)

	o = Options{Select: Selection{Healthy: true}, Workers: 3}
	o.Normalize()
	assert.False(t, o.CheckLatest)
	assert.True(t, o.CheckVulns)
	assert.Equal(t, 3, o.Workers)
}

type recordingHooks struct {
	observability.NoopInventoryHooks
	mu      sync.Mutex
	scans   []int
	lookups map[string]int
}

func (h *recordingHooks) OnScanComplete(_ context.Context, dirs, packages int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scans = append(h.scans, dirs, packages)
}

func (h *recordingHooks) OnLookupComplete(_ context.Context, kind string, lookups int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lookups[kind] = lookups
}

func TestExecute_Hooks(t *testing.T) {
	hooks := &recordingHooks{lookups: make(map[string]int)}
	observability.SetInventoryHooks(hooks)
	defer observability.Reset()

	r := newTestRunner(t, &fakeRegistry{})
	_, err := r.Execute(context.Background(), Options{CheckLatest: true, CheckVulns: true})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 5}, hooks.scans)
	assert.Equal(t, map[string]int{"latest": 5, "vulnerabilities": 5}, hooks.lookups)
}
