package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/scholium/scholium/internal/document"
)

var (
	doiRe        = regexp.MustCompile(`(?i)(?:doi:\s*)?(10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+)`)
	quotedRe     = regexp.MustCompile(`["\x{201c}']([^"\x{201c}\x{201d}']{10,})["\x{201d}']`)
	refSurnameRe = regexp.MustCompile(`^([A-Z][A-Za-z'\-]+),\s*[A-Z]`)
	initialRe    = regexp.MustCompile(`^[A-Z]\.?$`)
)

// ParseAuthor parses a raw author name into (given, family) best-effort.
// Handles "Family, Given", "Given Family" and initials like "J. Smith".
func ParseAuthor(raw string) document.Author {
	raw = CleanText(raw)
	if raw == "" {
		return document.Author{}
	}

	if idx := strings.Index(raw, ","); idx > 0 {
		return document.Author{
			Family: strings.TrimSpace(raw[:idx]),
			Given:  strings.TrimSpace(raw[idx+1:]),
		}
	}

	fields := strings.Fields(raw)
	if len(fields) == 1 {
		return document.Author{Family: fields[0]}
	}
	return document.Author{
		Given:  strings.Join(fields[:len(fields)-1], " "),
		Family: fields[len(fields)-1],
	}
}

// ParseReference parses a free-text bibliography entry into the structured
// candidate fields used later for citation resolution. Parsing is lossy by
// design: a missing field stays zero and the raw text is always kept.
func ParseReference(raw string) document.ReferenceCandidate {
	raw = CleanText(raw)
	cand := document.ReferenceCandidate{Raw: raw}

	if m := doiRe.FindStringSubmatch(raw); m != nil {
		cand.DOI = strings.TrimRight(m[1], ".,;")
	}

	if m := yearRe.FindString(raw); m != "" {
		cand.Year, _ = strconv.Atoi(m)
	}

	if m := quotedRe.FindStringSubmatch(raw); m != nil {
		cand.TitleFragment = CleanText(m[1])
	}

	cand.Surname = referenceSurname(raw)

	// Entries like "Paper B, 2020, Smith" put the title first; when no
	// quoted title was found, fall back to the segment before the year.
	if cand.TitleFragment == "" && cand.Year != 0 {
		if idx := strings.Index(raw, strconv.Itoa(cand.Year)); idx > 0 {
			frag := strings.Trim(strings.TrimSpace(raw[:idx]), ".,;:")
			if len(frag) >= 10 && len(frag) <= 300 {
				cand.TitleFragment = frag
			}
		}
	}

	return cand
}

// referenceSurname extracts the first-author family name from a reference
// string. "Smith, J." style entries are preferred; otherwise the last
// capitalized word before the year is used (covers "... 2020, Smith" and
// "J. Smith (2020)" styles).
func referenceSurname(raw string) string {
	if m := refSurnameRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	fields := strings.Fields(raw)
	var lastName string
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()")
		if yearRe.MatchString(f) {
			continue
		}
		if initialRe.MatchString(f) {
			continue
		}
		if len(f) >= 2 && f[0] >= 'A' && f[0] <= 'Z' && strings.ToLower(f[1:]) == f[1:] {
			lastName = f
		}
	}
	return lastName
}
