package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pipinfo/pkg/errors"
	"github.com/matzehuels/pipinfo/pkg/observability"
	"github.com/matzehuels/pipinfo/pkg/requiredby"
)

// newTestCLI returns a CLI whose output is captured and whose cache and
// configuration live in temporary directories.
func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "")

	c := New(io.Discard, LogInfo)
	var out bytes.Buffer
	c.Out = &out
	return c, &out
}

func run(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writeDist(t *testing.T, site, name, version, extra string) {
	t.Helper()
	dir := filepath.Join(site, name+"-"+version+".dist-info")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "Metadata-Version: 2.1\nName: " + name + "\nVersion: " + version + "\n" + extra
	require.NoError(t, os.WriteFile(filepath.Join(dir, "METADATA"), []byte(content), 0o644))
}

// site lays out app 1.0 requiring lib, and lib 2.0.
func site(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeDist(t, dir, "app", "1.0", "Summary: The application\nRequires-Dist: lib (>=2)\n")
	writeDist(t, dir, "lib", "2.0", "Summary: A library\n")
	return dir
}

func TestRootCommand_ListsDirectory(t *testing.T) {
	c, out := newTestCLI(t)
	dir := site(t)

	require.NoError(t, run(t, c, "-c", "-p", dir))

	assert.Contains(t, out.String(), "app       1.0       The application\n")
	assert.Contains(t, out.String(), "lib       2.0       A library\n")
	assert.Contains(t, out.String(), "2 packages\n")
}

func TestRootCommand_RequiredSelections(t *testing.T) {
	dir := site(t)

	tests := []struct {
		flag string
		want string
		skip string
	}{
		{"-R", "lib", "app"},
		{"--required", "lib", "app"},
		{"-N", "app", "lib"},
		{"--not-required", "app", "lib"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			c, out := newTestCLI(t)
			require.NoError(t, run(t, c, "--no-color", "--no-progress", tt.flag, dir))
			assert.Contains(t, out.String(), tt.want+" ")
			assert.NotContains(t, out.String(), tt.skip+" ")
			assert.Contains(t, out.String(), "1 package\n")
		})
	}
}

func TestRootCommand_ConfigFile(t *testing.T) {
	c, out := newTestCLI(t)
	cfgDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "pipinfo")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.toml"),
		[]byte("color = false\nprogress = false\ndeep_extras = true\n"), 0o644))

	require.NoError(t, run(t, c, site(t)))

	assert.False(t, c.Config.Color)
	assert.Equal(t, requiredby.DedupByActivation, c.policy())
	assert.Contains(t, out.String(), "----")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	c, _ := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("colour = false\n"), 0o644))

	err := run(t, c, "--config", path, "-p", site(t))
	assert.Error(t, err)
}

func TestRootCommand_DebugFlag(t *testing.T) {
	defer observability.Reset()
	c, _ := newTestCLI(t)
	require.NoError(t, run(t, c, "-d", "-c", "-p", site(t)))
	assert.True(t, c.Config.Debug)
	assert.Equal(t, LogDebug, c.Logger.GetLevel())
	assert.IsType(t, debugHooks{}, observability.HTTP())
}

func TestRootCommand_MissingDirectory(t *testing.T) {
	c, _ := newTestCLI(t)
	err := run(t, c, "-c", "-p", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath), "got %v", err)
}

func TestRootCommand_SeveralDirectories(t *testing.T) {
	c, out := newTestCLI(t)
	first, second := t.TempDir(), t.TempDir()
	writeDist(t, first, "alpha", "1.0", "")
	writeDist(t, second, "beta", "2.0", "")

	require.NoError(t, run(t, c, "-c", "-p", first, second))

	assert.Contains(t, out.String(), "alpha")
	assert.Contains(t, out.String(), "beta")
	assert.Contains(t, out.String(), "2 packages\n")
}

func TestRootCommand_AliasFlags(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	for _, name := range []string{"uptodate", "sane"} {
		f := root.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.True(t, f.Hidden, name)
	}
	for short, long := range map[string]string{
		"l": "check-latest", "v": "check-vulns", "c": "no-color", "p": "no-progress",
		"i": "info", "S": "system", "U": "user", "O": "outdated", "L": "latest",
		"V": "vulnerable", "H": "healthy", "I": "issues", "N": "not-required", "R": "required",
	} {
		f := root.Flags().ShorthandLookup(short)
		require.NotNil(t, f, short)
		assert.Equal(t, long, f.Name)
	}
}

func TestCacheCommands(t *testing.T) {
	c, out := newTestCLI(t)

	require.NoError(t, run(t, c, "cache", "path"))
	dir := filepath.Join(os.Getenv("XDG_CACHE_HOME"), "pipinfo")
	assert.Equal(t, dir+"\n", out.String())

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "entry.json"), []byte("{}"), 0o644))
	require.NoError(t, run(t, c, "cache", "clear"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCacheClear_NoCache(t *testing.T) {
	c, _ := newTestCLI(t)
	assert.NoError(t, run(t, c, "cache", "clear"))
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			c, out := newTestCLI(t)
			require.NoError(t, run(t, c, "completion", shell))
			assert.Contains(t, out.String(), "pipinfo")
		})
	}

	c, _ := newTestCLI(t)
	assert.Error(t, run(t, c, "completion", "tcsh"))
}
