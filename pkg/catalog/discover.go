package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/pipinfo/pkg/errors"
	"github.com/matzehuels/pipinfo/pkg/metadata"
)

// DefaultPython is the interpreter queried when none is configured.
const DefaultPython = "python3"

// probeScript prints what Classify needs as a single JSON object.
const probeScript = `import json, os, sys
json.dump({"path": sys.path, "base_prefix": sys.base_prefix, "version": list(sys.version_info[:2]), "os_name": os.name}, sys.stdout)`

// Interpreter describes the Python installation whose packages are listed.
type Interpreter struct {
	Path       []string `json:"path"`        // sys.path
	BasePrefix string   `json:"base_prefix"` // sys.base_prefix
	Version    []int    `json:"version"`     // major, minor
	OSName     string   `json:"os_name"`     // os.name: "posix" or "nt"
}

// Probe runs python and reports its search path and installation prefix.
func Probe(ctx context.Context, python string) (*Interpreter, error) {
	if python == "" {
		python = DefaultPython
	}
	cmd := exec.CommandContext(ctx, python, "-c", probeScript)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.Wrap(errors.ErrCodeInterpreterFailed, err, "run %s: %s", python, msg)
	}

	var info Interpreter
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInterpreterFailed, err, "decode %s output", python)
	}
	if len(info.Version) < 2 {
		return nil, errors.New(errors.ErrCodeInterpreterFailed, "%s reported no version", python)
	}
	return &info, nil
}

// Discover asks python for its site-packages directories and classifies them.
func Discover(ctx context.Context, python string) ([]SiteDir, error) {
	info, err := Probe(ctx, python)
	if err != nil {
		return nil, err
	}
	return Classify(info), nil
}

// Classify picks the site-packages entries of the interpreter's search path.
// Directories below the interpreter's own library directory
// (<base_prefix>/lib/pythonX.Y, or <base_prefix>\Lib on Windows) are system
// directories; everything else, virtualenvs and per-user installs included,
// is a user directory. Search path order is preserved and repeats dropped.
func Classify(info *Interpreter) []SiteDir {
	systemPrefix := info.BasePrefix + "/lib/python"
	if len(info.Version) >= 2 {
		systemPrefix += strconv.Itoa(info.Version[0]) + "." + strconv.Itoa(info.Version[1])
	}
	if info.OSName == "nt" {
		systemPrefix = info.BasePrefix + `\Lib`
	}

	seen := make(map[string]bool)
	var dirs []SiteDir
	for _, p := range info.Path {
		if !strings.HasSuffix(p, "site-packages") || seen[p] {
			continue
		}
		seen[p] = true
		source := metadata.SourceUser
		if strings.HasPrefix(p, systemPrefix) {
			source = metadata.SourceSystem
		}
		dirs = append(dirs, SiteDir{Path: p, Source: source})
	}
	return dirs
}
