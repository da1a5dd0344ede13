// Package metadata parses the on-disk metadata of installed Python packages.
//
// Two record formats are supported:
//
//   - Structured key/value records (*.dist-info/METADATA and
//     *.egg-info/PKG-INFO), parsed by [ParseRecord].
//   - Legacy ini-like requirements files (*.egg-info/requires.txt), parsed
//     by [ParseRequiresFile] and merged into what the record declared.
//
// Both produce the same shape: a [Package] whose Requires map holds the
// unconditional dependencies and whose Extras map holds the dependencies
// activated by each optional feature ("extra").
//
// # Requirement keys
//
// Dependencies are keyed by their declaration, i.e. the project name plus
// any requested extras in brackets ("requests[socks]"). The condition string
// (version constraint and/or environment marker) is stored as the value and
// is never interpreted. Use [ParseRequirement] on a key to recover the bare
// name and the requested extras.
//
// # Merging
//
// A dependency declared more than once keeps a single key; the conditions
// are concatenated with ";" (see [Conditions.Add]).
//
// Nothing in this package performs I/O. Callers hand over line slices and
// receive new values; inputs are never mutated, so independent packages can
// be parsed concurrently.
package metadata
