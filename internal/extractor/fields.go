package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)

	// Digit groups joined by at most one separator, with an optional country
	// code and area code in parentheses.
	phoneRe = regexp.MustCompile(`(?:\+\d{1,3}[ .\-]?)?(?:\(\d{1,4}\)[ .\-]?)?\d{2,4}(?:[ .\-]?\d{2,4}){1,4}`)
	// month.year and year-year runs that phoneRe would otherwise accept
	dateLikeRe = regexp.MustCompile(`(?:^|\D)\d{1,2}[./]\d{4}(?:\D|$)|(?:19|20)\d{2}\s*[-/]\s*(?:19|20)\d{2}`)
	yearRe     = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	digitRunRe = regexp.MustCompile(`\d+`)

	yearsRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years?|yrs?)\s+(?:of\s+)?(?:professional\s+|industry\s+|work\s+)?experience`),
		regexp.MustCompile(`(?i)experience\s*[:\-]?\s*(\d{1,2})\+?\s*(?:years?|yrs?)`),
		regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years?|yrs?)\s+(?:in|of|working)\b`),
	}

	longDigitsRe = regexp.MustCompile(`\d{5,}`)
)

const (
	maxPlausibleYears = 50
	nameScanLines     = 5
)

func findEmail(text string) *string {
	m := emailRe.FindString(text)
	if m == "" {
		return nil
	}
	m = strings.TrimRight(m, ".")
	return &m
}

func findPhone(text string) *string {
	for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isWordRune(lastRune(text[:start])) || end < len(text) && isWordRune(firstRune(text[end:])) {
			continue
		}
		m := strings.TrimSpace(text[start:end])
		if n := digitCount(m); n < 9 || n > 15 {
			continue
		}
		if dateLikeRe.MatchString(m) || onlyYears(m) {
			continue
		}
		return &m
	}
	return nil
}

// onlyYears reports whether every digit group in s looks like a year.
func onlyYears(s string) bool {
	for _, g := range digitRunRe.FindAllString(s, -1) {
		if !yearRe.MatchString(g) {
			return false
		}
	}
	return true
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func findYears(text string) *int {
	for _, re := range yearsRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			years, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if years > 0 && years <= maxPlausibleYears {
				return &years
			}
		}
	}
	return nil
}

// findName looks for a short capitalized line near the top of the resume.
func findName(text string) *string {
	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen > nameScanLines {
			break
		}
		if strings.Contains(line, "@") || longDigitsRe.MatchString(line) {
			continue
		}
		words := strings.Fields(line)
		if utf8.RuneCountInString(line) >= 50 || len(words) < 2 || len(words) > 4 {
			continue
		}
		if allCapitalized(words) {
			return &line
		}
	}
	return nil
}

func allCapitalized(words []string) bool {
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// findSkills returns vocabulary skills mentioned in text, in vocabulary order.
func findSkills(text string) []string {
	lower := strings.ToLower(text)
	out := make([]string, 0, 16)
	for _, entry := range vocabulary {
		for _, f := range entry.forms() {
			if mentions(text, lower, f) {
				out = append(out, entry.Name)
				break
			}
		}
	}
	return out
}

// mentions reports whether f occurs in text delimited by non-alphanumeric
// characters. Exact forms and forms of two runes or fewer match
// case-sensitively so that "Go", "R" or "Node" are not found inside ordinary
// prose.
func mentions(text, lower string, f form) bool {
	haystack, needle := lower, strings.ToLower(f.text)
	if f.exact || utf8.RuneCountInString(f.text) <= 2 {
		haystack, needle = text, f.text
	}
	for from := 0; from < len(haystack); {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	if r == '.' {
		// "Node.js." or a sentence end; treat a dot followed by a letter as part of a word.
		next, _ := utf8.DecodeRuneInString(s[i+1:])
		return i+1 >= len(s) || !unicode.IsLetter(next)
	}
	return !isWordRune(r) && r != '+' && r != '#'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
