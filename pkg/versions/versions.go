// Package versions compares installed Python versions against the index.
//
// Comparison follows PEP 440 ordering (epochs, pre/post/dev releases, local
// labels) via github.com/aquasecurity/go-pep440-version. Versions that do not
// parse are never reported as outdated.
package versions

import (
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Compare orders two version strings. The sign of cmp follows the usual
// convention; ok is false when either side is not a valid PEP 440 version.
func Compare(a, b string) (cmp int, ok bool) {
	va, err := pep440.Parse(a)
	if err != nil {
		return 0, false
	}
	vb, err := pep440.Parse(b)
	if err != nil {
		return 0, false
	}
	return va.Compare(vb), true
}

// IsOutdated reports whether installed sorts strictly before latest.
// An empty latest means the index had no answer.
func IsOutdated(installed, latest string) bool {
	if latest == "" || installed == latest {
		return false
	}
	cmp, ok := Compare(installed, latest)
	return ok && cmp < 0
}
