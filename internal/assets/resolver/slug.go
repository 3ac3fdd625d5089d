package resolver

import (
	"regexp"
	"strings"
)

var (
	digitRun      = regexp.MustCompile(`\d+`)
	prefixedRun   = regexp.MustCompile(`^([A-Za-z]+)\d+$`)
	bareDigits    = regexp.MustCompile(`^\d+$`)
	nameStripped  = regexp.MustCompile(`['.()#&{}*:—?!♀♂]`)
	nameSeparator = regexp.MustCompile(`[- ]`)
)

// Alph Lithograph and friends spell their number out.
var spelledNumbers = map[string]string{
	"FOUR":  "Four",
	"THREE": "Three",
	"TWO":   "Two",
	"ONE":   "One",
}

// NormalizeNumber rewrites a collection number the way the source CDN names
// its files: spelled-out numbers are title cased and every run of digits is
// zero padded to three places ("RC25" -> "RC025"). Numbers made of several
// sub-numbers share the letter prefix of the first one ("S15 01" -> "S015 S001").
func NormalizeNumber(number string) string {
	if spelled, ok := spelledNumbers[number]; ok {
		return spelled
	}
	return digitRun.ReplaceAllStringFunc(sharePrefix(number), func(digits string) string {
		if len(digits) >= 3 {
			return digits
		}
		return strings.Repeat("0", 3-len(digits)) + digits
	})
}

// SlugifyName turns a card name into the lowercase, underscore separated form
// used in source file names.
func SlugifyName(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, "é", "e")
	slug = nameStripped.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(slug, "  ", " ")
	slug = strings.TrimSpace(slug)
	return nameSeparator.ReplaceAllString(slug, "_")
}

// sharePrefix copies the letter prefix of the first part of a multi-part
// number onto the following bare numeric parts.
func sharePrefix(number string) string {
	parts := strings.Split(number, " ")
	if len(parts) < 2 {
		return number
	}
	m := prefixedRun.FindStringSubmatch(parts[0])
	if m == nil {
		return number
	}
	for i := 1; i < len(parts); i++ {
		if bareDigits.MatchString(parts[i]) {
			parts[i] = m[1] + parts[i]
		}
	}
	return strings.Join(parts, " ")
}
