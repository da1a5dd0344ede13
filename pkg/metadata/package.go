package metadata

import (
	"maps"
	"strings"
)

// SourceKind records where a package's site directory came from.
// It is set by the caller that scans the directory, never derived here.
type SourceKind string

const (
	SourceUser      SourceKind = "user"      // per-user or virtualenv site-packages
	SourceSystem    SourceKind = "system"    // interpreter-wide site-packages
	SourceSpecified SourceKind = "specified" // directory given explicitly on the command line
)

// Conditions maps a dependency declaration to its condition string.
// The condition may be empty.
type Conditions map[string]string

// Add records a declaration of dep with condition cond.
// A repeated declaration appends cond to the stored condition with ";",
// so an earlier unconditional declaration shows up as a leading ";".
// Empty conditions never add a separator.
func (c Conditions) Add(dep, cond string) {
	prev, ok := c[dep]
	switch {
	case !ok:
		c[dep] = cond
	case cond != "":
		c[dep] = prev + ";" + cond
	}
}

// Clone returns a copy of c. A nil receiver yields an empty map.
func (c Conditions) Clone() Conditions {
	if c == nil {
		return Conditions{}
	}
	return maps.Clone(c)
}

// Extras maps an extra name to the dependencies it activates.
type Extras map[string]Conditions

// Add files dep under extra, creating the extra on first use.
func (e Extras) Add(extra, dep, cond string) {
	e.ensure(extra).Add(dep, cond)
}

func (e Extras) ensure(extra string) Conditions {
	c, ok := e[extra]
	if !ok {
		c = Conditions{}
		e[extra] = c
	}
	return c
}

// Clone returns a deep copy of e. A nil receiver yields an empty map.
func (e Extras) Clone() Extras {
	out := make(Extras, len(e))
	for name, deps := range e {
		out[name] = deps.Clone()
	}
	return out
}

// Package is one installed distribution discovered in a site directory.
//
// Packages are built once by the catalog and treated as immutable afterwards.
type Package struct {
	Dir      string     // *.dist-info or *.egg-info directory (may be empty)
	Source   SourceKind // provenance of the containing site directory
	Name     string     // as written in the record, may be empty
	Version  string     // may be empty
	Summary  string     // may be empty
	Requires Conditions // unconditional dependencies, never nil
	Extras   Extras     // extra name -> dependencies, never nil
}

// Key returns the lowercase name used for case-insensitive lookups.
func (p *Package) Key() string {
	return NormalizeName(p.Name)
}

// NormalizeName returns the case-insensitive form of a package name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func newPackage() *Package {
	return &Package{Requires: Conditions{}, Extras: Extras{}}
}
