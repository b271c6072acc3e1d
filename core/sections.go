package core

import (
	"regexp"
	"unicode/utf8"
)

// ExtractSections splits text into sections bounded by start and end
// patterns.
//
// Unless all is true, the whole text is the only section.
//
// If end is empty, the start pattern also ends a section, and the
// terminating match belongs to the next section.  If end is given,
// the terminating match belongs to the section it ends.
//
// When a start has no end, the last section runs to the end of the
// text.
func ExtractSections(text, start, end string, all bool) ([]string, error) {
	if !all {
		return []string{text}, nil
	}
	s, err := CompilePattern(start)
	if err != nil {
		return nil, err
	}
	e, inclusive := s, false
	if end != "" {
		if e, err = CompilePattern(end); err != nil {
			return nil, err
		}
		inclusive = true
	}
	return extractSections(text, s.re, e.re, inclusive), nil
}

// extractSections walks a cursor over the text.  The search for an
// end starts one character past the end of the start match, so each
// iteration consumes at least one character even when the start
// pattern matches the empty string.
func extractSections(text string, start, end *regexp.Regexp, inclusive bool) []string {
	acc := make([]string, 0, 8)
	for 0 < len(text) {
		loc := start.FindStringIndex(text)
		if loc == nil {
			break
		}
		_, w := utf8.DecodeRuneInString(text[loc[1]:])
		from := loc[1] + max(w, 1)
		if len(text) < from {
			acc = append(acc, text[loc[0]:])
			break
		}
		eloc := end.FindStringIndex(text[from:])
		if eloc == nil {
			acc = append(acc, text[loc[0]:])
			break
		}
		to := from + eloc[0]
		if inclusive {
			to = from + eloc[1]
		}
		acc = append(acc, text[loc[0]:to])
		text = text[to:]
	}
	return acc
}
