package metadata

import (
	"regexp"
	"slices"
	"strings"
)

var (
	// extraAtomRE matches a whole `extra == "name"` clause, keeping any
	// parentheses glued to it so they can be rebalanced after removal.
	extraAtomRE = regexp.MustCompile(`^(\(*)\s*extra\s*==\s*['"]([^'"]*)['"]\s*(\)*)$`)

	// joinerRE matches a boolean operator with its surrounding space at
	// the start of the input.
	joinerRE = regexp.MustCompile(`^\s+(?:and|or)\s+`)

	emptyParensRE = regexp.MustCompile(`\(\s*\)`)
)

// clause is one operand of a marker expression together with the operator
// that joins it to the previous clause, exactly as written ("" for the
// first clause).
type clause struct {
	sep  string
	text string
}

// quoted reports, for every byte of s, whether it lies inside a '...' or
// "..." string literal. An unterminated literal runs to the end of s.
func quoted(s string) []bool {
	mask := make([]bool, len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		switch {
		case quote != 0:
			mask[i] = true
			if s[i] == quote {
				quote = 0
			}
		case s[i] == '\'' || s[i] == '"':
			quote = s[i]
			mask[i] = true
		}
	}
	return mask
}

// splitClauses tokenizes one ';'-free marker segment into clauses.
// Operators inside string literals are part of the literal.
func splitClauses(seg string) []clause {
	var out []clause
	in := quoted(seg)
	sep, start := "", 0
	for i := 0; i < len(seg); i++ {
		if in[i] || (seg[i] != ' ' && seg[i] != '\t') {
			continue
		}
		m := joinerRE.FindStringIndex(seg[i:])
		if m == nil {
			continue
		}
		out = append(out, clause{sep: sep, text: strings.TrimSpace(seg[start:i])})
		sep, start = seg[i:i+m[1]], i+m[1]
		i = start - 1
	}
	return append(out, clause{sep: sep, text: strings.TrimSpace(seg[start:])})
}

// dropEmptyParens removes "()" pairs left behind by stripped clauses,
// leaving string literals untouched.
func dropEmptyParens(s string) string {
	for {
		in := quoted(s)
		matches := emptyParensRE.FindAllStringIndex(s, -1)
		idx := slices.IndexFunc(matches, func(m []int) bool { return !in[m[0]] })
		if idx < 0 {
			return s
		}
		s = s[:matches[idx][0]] + s[matches[idx][1]:]
	}
}

// stripExtraMarkers removes every `extra == "name"` clause from cond.
//
// It returns the extra names in order of appearance (without duplicates)
// and the remaining condition. Each removed clause takes one adjacent
// joiner with it: the preceding one, or the following one when the clause
// opens its segment. Parentheses left unbalanced by a removal are
// reattached to the neighbouring clause and empty pairs are dropped.
func stripExtraMarkers(cond string) (extras []string, rest string) {
	if !strings.Contains(cond, "extra") {
		return nil, cond
	}

	var segments []string
	for _, seg := range strings.Split(cond, ";") {
		var (
			kept    []clause
			pending string // unmatched "(" waiting for the next kept clause
		)
		for _, c := range splitClauses(seg) {
			m := extraAtomRE.FindStringSubmatch(c.text)
			if m == nil {
				c.text = pending + c.text
				pending = ""
				kept = append(kept, c)
				continue
			}
			if !slices.Contains(extras, m[2]) {
				extras = append(extras, m[2])
			}
			switch diff := len(m[1]) - len(m[3]); {
			case diff > 0:
				pending += strings.Repeat("(", diff)
			case diff < 0:
				n := -diff
				cancel := min(n, len(pending))
				pending, n = pending[cancel:], n-cancel
				if n > 0 && len(kept) > 0 {
					kept[len(kept)-1].text += strings.Repeat(")", n)
				}
			}
		}

		var b strings.Builder
		for i, c := range kept {
			if i > 0 {
				b.WriteString(c.sep)
			}
			b.WriteString(c.text)
		}
		if s := strings.TrimSpace(dropEmptyParens(b.String())); s != "" {
			segments = append(segments, s)
		}
	}
	if len(extras) == 0 {
		return nil, cond
	}
	return extras, strings.Join(segments, ";")
}
