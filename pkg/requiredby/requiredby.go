// Package requiredby computes which installed packages require which others.
//
// [Build] walks every package's unconditional requirements and follows
// requested extras ("requests[socks]") into the extra-qualified dependencies
// of the target package, attributing them to the package that asked for the
// extra. Expansion repeats until no new extra activation is pending.
//
// Names are compared case-insensitively; every key and value of the
// resulting [Index] is lowercase. Dependencies that are not installed are
// recorded but never expanded.
package requiredby

import (
	"slices"
	"sort"
	"strings"

	"github.com/matzehuels/pipinfo/pkg/metadata"
)

// Policy selects how pending extra activations are deduplicated.
type Policy int

const (
	// DedupByTarget keeps one pending activation per target package, the
	// last one enqueued, and expands each target package at most once.
	// Chains that activate different extras of the same package from
	// different requirers may be under-resolved.
	DedupByTarget Policy = iota

	// DedupByActivation expands every distinct (requirer, target, extra)
	// activation exactly once, yielding the full closure.
	DedupByActivation
)

// String returns the policy name.
func (p Policy) String() string {
	if p == DedupByActivation {
		return "activation"
	}
	return "target"
}

// Options configures [Build].
type Options struct {
	Policy Policy
}

// Index maps a lowercase dependency name to the lowercase names of the
// packages requiring it, in discovery order and without duplicates.
type Index map[string][]string

// IsRequired reports whether any package requires name.
func (ix Index) IsRequired(name string) bool {
	return len(ix[metadata.NormalizeName(name)]) > 0
}

// RequiredBy returns the packages requiring name.
func (ix Index) RequiredBy(name string) []string {
	return ix[metadata.NormalizeName(name)]
}

// Names returns the required dependency names in sorted order.
func (ix Index) Names() []string {
	names := make([]string, 0, len(ix))
	for name := range ix {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ix Index) add(dep, requirer string) {
	if !slices.Contains(ix[dep], requirer) {
		ix[dep] = append(ix[dep], requirer)
	}
}

// activation asks for extras of target on behalf of requirer.
type activation struct {
	requirer string
	target   string
	extras   []string
}

// Build returns the required-by index of pkgs.
func Build(pkgs []*metadata.Package, opts Options) Index {
	b := &builder{
		index:    make(Index),
		packages: make(map[string][]*metadata.Package),
		queue:    newQueue(opts.Policy),
	}
	for _, p := range pkgs {
		b.packages[p.Key()] = append(b.packages[p.Key()], p)
	}

	for _, p := range pkgs {
		for _, dep := range sortedKeys(p.Requires) {
			b.require(p.Key(), dep)
		}
	}
	for {
		a, ok := b.queue.pop()
		if !ok {
			break
		}
		b.expand(a)
	}
	return b.index
}

type builder struct {
	index    Index
	packages map[string][]*metadata.Package // lowercase name -> installs
	queue    queue
}

// require records requirer as needing the declared dependency and enqueues
// the extras the declaration requests.
func (b *builder) require(requirer, declared string) {
	r := metadata.ParseRequirement(declared)
	dep := metadata.NormalizeName(r.Name)
	b.index.add(dep, requirer)
	if len(r.Extras) > 0 {
		extras := make([]string, len(r.Extras))
		for i, e := range r.Extras {
			extras[i] = strings.ToLower(e)
		}
		b.queue.push(activation{requirer: requirer, target: dep, extras: extras})
	}
}

// expand files the dependencies of the requested extras of every installed
// copy of the target as requirements of the original requirer.
func (b *builder) expand(a activation) {
	for _, p := range b.packages[a.target] {
		for _, want := range a.extras {
			for name, deps := range p.Extras {
				if strings.ToLower(name) != want {
					continue
				}
				for _, dep := range sortedKeys(deps) {
					b.require(a.requirer, dep)
				}
			}
		}
	}
}

func sortedKeys(c metadata.Conditions) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
