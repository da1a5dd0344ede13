package metadata

import "strings"

// ParseRequiresFile parses an egg-info requires.txt and merges its entries
// into copies of requires and extras, which are returned.
//
// The format is ini-like:
//
//	dep-a
//	[socks]
//	PySocks>=1.5.6
//	[security:python_version < "3"]
//	cryptography
//	[]
//	dep-b
//
// Lines before any header, or after an empty "[]" header, are unconditional
// requirements. A "[name]" header files the following lines under that
// extra; a "[name:condition]" header additionally appends condition to each
// of them. An extra is created as soon as its header is seen, even if no
// requirement follows.
//
// Neither requires nor extras is modified; nil inputs are treated as empty.
// Unlike records, requires.txt has no unknown lines to report.
func ParseRequiresFile(lines []string, requires Conditions, extras Extras) (Conditions, Extras) {
	reqs := requires.Clone()
	exts := extras.Clone()

	var extra, extraCond string
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if line[0] == '[' {
			extra, extraCond = parseSectionHeader(line)
			if extra != "" {
				exts.ensure(extra)
			}
			continue
		}

		r := ParseRequirement(line)
		cond := joinConditions(r.Condition, extraCond)
		if extra == "" {
			reqs.Add(r.Declared(), cond)
		} else {
			exts.Add(extra, r.Declared(), cond)
		}
	}
	return reqs, exts
}

// parseSectionHeader splits "[name:condition]" into its parts.
func parseSectionHeader(line string) (name, cond string) {
	inner := strings.TrimSpace(strings.TrimPrefix(line, "["))
	inner = strings.TrimSpace(strings.TrimSuffix(inner, "]"))
	name, cond, _ = strings.Cut(inner, ":")
	return strings.TrimSpace(name), strings.TrimSpace(cond)
}
