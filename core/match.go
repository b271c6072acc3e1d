package core

import (
	"regexp"
)

// NamedPatterns is the vocabulary that pattern_match regexes are
// templated against.  For example, "{{ IPV4 }}".
var NamedPatterns = map[string]interface{}{
	"ALPHAS": `(\w+)`,
	"NUMS":   `(\d+)`,
	"IPV4":   `(([0-9]|[1-9][0-9]|1[0-9]{2}|2[0-4][0-9]|25[0-5])\.){3}([0-9]|[1-9][0-9]|1[0-9]{2}|2[0-4][0-9]|25[0-5])`,
}

// Pattern is a compiled regular expression in multiline mode.
type Pattern struct {
	Source string

	re    *regexp.Regexp
	named int
}

// CompilePattern compiles the source with multiline mode enabled so
// that ^ and $ match at line boundaries.
func CompilePattern(src string) (*Pattern, error) {
	re, err := regexp.Compile("(?m)" + src)
	if err != nil {
		return nil, &BadPattern{src, err}
	}
	named := 0
	for _, name := range re.SubexpNames() {
		if name != "" {
			named++
		}
	}
	return &Pattern{
		Source: src,
		re:     re,
		named:  named,
	}, nil
}

// MatchOne finds the first match in the text.
//
// The result has "matches", the list of all capture groups (nil for
// a group that didn't participate), and a property for each named
// group.  No match gives nil.
func (p *Pattern) MatchOne(text string) map[string]interface{} {
	loc := p.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}
	n := p.re.NumSubexp()
	groups := make([]interface{}, n)
	for i := 1; i <= n; i++ {
		if loc[2*i] < 0 {
			continue
		}
		groups[i-1] = text[loc[2*i]:loc[2*i+1]]
	}

	m := map[string]interface{}{
		"matches": groups,
	}
	for i, name := range p.re.SubexpNames() {
		if name != "" {
			m[name] = groups[i-1]
		}
	}
	return m
}

// MatchAll finds every non-overlapping match in the text.
//
// For each occurrence, "matches" is the whole match if the pattern
// has no groups, the single group's text if it has one group, and the
// list of group texts otherwise.  Groups that didn't participate give
// the empty string.
//
// When the pattern has exactly one named group, that name is bound
// to the occurrence's "matches" value.
func (p *Pattern) MatchAll(text string) []interface{} {
	locs := p.re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var (
		n     = p.re.NumSubexp()
		names = p.re.SubexpNames()
		acc   = make([]interface{}, 0, len(locs))
	)
	for _, loc := range locs {
		group := func(i int) string {
			if loc[2*i] < 0 {
				return ""
			}
			return text[loc[2*i]:loc[2*i+1]]
		}

		var matches interface{}
		switch n {
		case 0:
			matches = group(0)
		case 1:
			matches = group(1)
		default:
			groups := make([]interface{}, n)
			for i := 1; i <= n; i++ {
				groups[i-1] = group(i)
			}
			matches = groups
		}

		m := map[string]interface{}{
			"matches": matches,
		}
		for i, name := range names {
			if name == "" {
				continue
			}
			if p.named == 1 {
				m[name] = matches
			} else {
				m[name] = group(i)
			}
		}
		acc = append(acc, m)
	}
	return acc
}

// MatchOne compiles the pattern and calls Pattern.MatchOne.
func MatchOne(pattern, text string) (map[string]interface{}, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return p.MatchOne(text), nil
}

// MatchAll compiles the pattern and calls Pattern.MatchAll.
func MatchAll(pattern, text string) ([]interface{}, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return p.MatchAll(text), nil
}
