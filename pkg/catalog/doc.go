// Package catalog discovers installed Python packages.
//
// A site directory (site-packages) holds one metadata directory per
// installed distribution: *.dist-info for wheels and *.egg-info for
// setuptools installs. [Scan] reads each of them and hands the raw lines to
// [metadata.Parse]; [ScanDirs] does the same for several directories.
//
// Which site directories exist is a question for the Python interpreter.
// [Discover] runs it once and [Classify] sorts the answer into system and
// user directories.
//
// # Deduplication
//
// Some packages ship both a .dist-info and an .egg-info directory. Within
// one site directory, the first entry for a (name, version) pair wins and
// later ones are dropped. Entries are visited in lexical order, so the
// winner is deterministic. The same pair in two different site directories
// is kept twice; the listing flags it as a duplicate.
//
// [metadata.Parse]: github.com/matzehuels/pipinfo/pkg/metadata.Parse
package catalog
