package metadata

import "strings"

// nameTerminators end the project name of a requirement declaration.
const nameTerminators = " ;!~<=>["

// Requirement is one dependency declaration split into its parts.
//
// For "some-pkg[x,y]>=1.0; extra == 'dev'" the fields are:
//
//	Name:      "some-pkg"
//	Extras:    ["x", "y"]
//	Condition: ">=1.0; extra == 'dev'"
type Requirement struct {
	Name      string   // project name as written
	Extras    []string // extras requested on the dependency, nil if none
	Condition string   // everything after the name and brackets, trimmed
}

// Declared returns the declaration used as a map key: the name followed by
// the requested extras in brackets, if any.
func (r Requirement) Declared() string {
	if len(r.Extras) == 0 {
		return r.Name
	}
	return r.Name + "[" + strings.Join(r.Extras, ",") + "]"
}

// ParseRequirement splits a requirement line into name, requested extras and
// condition tail. It never fails: malformed input degrades to the best
// substring match.
//
// The name runs up to the first space, ';', '!', '~', '<', '=', '>' or '['.
// Extras are only recognised when '[' immediately follows the name; the
// condition then starts after the matching ']'. Leading separators (spaces
// and ';') are stripped from the condition.
func ParseRequirement(line string) Requirement {
	s := strings.TrimSpace(line)

	end := strings.IndexAny(s, nameTerminators)
	if end < 0 {
		return Requirement{Name: s}
	}
	r := Requirement{Name: s[:end]}
	rest := s[end:]

	if rest[0] == '[' {
		inner, tail, closed := strings.Cut(rest[1:], "]")
		r.Extras = splitExtras(inner)
		if !closed {
			return r
		}
		rest = tail
	}

	r.Condition = strings.TrimSpace(strings.TrimLeft(rest, " \t;"))
	return r
}

// splitExtras parses the comma separated contents of a bracket.
func splitExtras(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// joinConditions concatenates non-empty conditions with ";".
func joinConditions(conds ...string) string {
	var parts []string
	for _, c := range conds {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, ";")
}
