package metadata

import "strings"

// SupportedMetadataVersion is the record format version this parser targets.
// Records declaring another version are still parsed; a notice is logged.
const SupportedMetadataVersion = "2.1"

// RecordKind identifies the directory layout a metadata record came from.
type RecordKind int

const (
	// DistInfo is a wheel install: *.dist-info/METADATA, requirements inline.
	DistInfo RecordKind = iota
	// EggInfo is a setuptools install: *.egg-info/PKG-INFO, requirements
	// in a separate requires.txt.
	EggInfo
)

// String returns the directory suffix of the record kind.
func (k RecordKind) String() string {
	if k == EggInfo {
		return ".egg-info"
	}
	return ".dist-info"
}

// MetadataFile returns the record filename inside the package directory.
func (k RecordKind) MetadataFile() string {
	if k == EggInfo {
		return "PKG-INFO"
	}
	return "METADATA"
}

// HasRequiresFile reports whether requirements live in a requires.txt.
func (k RecordKind) HasRequiresFile() bool { return k == EggInfo }

// Options configures parsing.
type Options struct {
	// Source names the file being parsed in log messages.
	Source string
	// Logger receives informational notices about unexpected content.
	// Notices are never fatal. A nil Logger discards them.
	Logger func(string, ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger(format, args...)
	}
}

// recordField applies the value of one recognised key to the package.
type recordField func(p *Package, value string, opts Options)

var recordFields = map[string]recordField{
	"Metadata-Version": func(_ *Package, v string, opts Options) {
		if v != SupportedMetadataVersion {
			opts.logf("'%s' has 'Metadata-Version: %s'", opts.Source, v)
		}
	},
	"Name":          func(p *Package, v string, _ Options) { p.Name = v },
	"Version":       func(p *Package, v string, _ Options) { p.Version = v },
	"Summary":       func(p *Package, v string, _ Options) { p.Summary = v },
	"Requires-Dist": func(p *Package, v string, _ Options) { addRequiresDist(p, v) },
}

// skippedFields are well-known keys that carry nothing we keep.
var skippedFields = map[string]bool{
	"Home-page":                true,
	"Project-URL":              true,
	"Download-URL":             true,
	"Author":                   true,
	"Author-email":             true,
	"Maintainer":               true,
	"Maintainer-email":         true,
	"License":                  true,
	"License-Expression":       true,
	"License-File":             true,
	"Platform":                 true,
	"Supported-Platform":       true,
	"Requires-Python":          true,
	"Requires-External":        true,
	"Keywords":                 true,
	"Classifier":               true,
	"Description":              true,
	"Description-Content-Type": true,
	"Provides":                 true,
	"Provides-Extra":           true,
	"Provides-Dist":            true,
	"Obsoletes":                true,
	"Obsoletes-Dist":           true,
	"Requires":                 true,
	"Dynamic":                  true,
}

// ParseRecord parses a METADATA or PKG-INFO record.
//
// Lines are scanned in order until the first blank line, which starts the
// free-text description. Recognised keys fill the package; unknown lines
// are reported through opts.Logger and skipped. The returned Package always
// has non-nil Requires and Extras maps.
func ParseRecord(lines []string, opts Options) *Package {
	p := newPackage()
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			break
		}

		key, value, ok := strings.Cut(line, ":")
		if ok {
			if apply, known := recordFields[key]; known {
				apply(p, strings.TrimSpace(value), opts)
				continue
			}
			if skippedFields[key] {
				continue
			}
		}
		opts.logf("'%s' has unknown '%s'", opts.Source, line)
	}
	return p
}

// addRequiresDist files one Requires-Dist value under Requires or, when
// the condition carries `extra == "..."` markers, under each named extra.
func addRequiresDist(p *Package, value string) {
	r := ParseRequirement(value)
	extras, cond := stripExtraMarkers(r.Condition)
	if len(extras) == 0 {
		p.Requires.Add(r.Declared(), r.Condition)
		return
	}
	for _, extra := range extras {
		p.Extras.Add(extra, r.Declared(), cond)
	}
}

// Parse builds a Package from a metadata record of the given kind.
// For EggInfo records, requiresTxt holds the lines of requires.txt; it is
// ignored for DistInfo and may be nil when the file does not exist.
func Parse(kind RecordKind, record, requiresTxt []string, opts Options) *Package {
	p := ParseRecord(record, opts)
	if kind.HasRequiresFile() && requiresTxt != nil {
		p.Requires, p.Extras = ParseRequiresFile(requiresTxt, p.Requires, p.Extras)
	}
	return p
}
