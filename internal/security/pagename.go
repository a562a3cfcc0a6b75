package security

import (
	"regexp"
	"strings"
)

// Page-name normalization. The resolver's character filter only admits
// [-_./A-Za-z0-9]; anything else gets one pass through NormalizePageName,
// which transliterates extended-charset names into the canonical page-name
// form. A path segment that survives normalization unchanged is considered
// canonical even when it carries characters outside the plain set.

// MaxPageNameLength bounds a single normalized path segment
const MaxPageNameLength = 128

// translit maps common extended characters to their ASCII page-name
// equivalents before the general filter runs
var translit = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ò", "o", "ó", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n", "ý", "y", "ß", "ss",
	"æ", "ae", "œ", "oe", "ð", "d", "þ", "th",
)

var (
	disallowedNameChars = regexp.MustCompile(`[^-_.a-z0-9]+`)
	dashRuns            = regexp.MustCompile(`-{2,}`)
)

// NormalizePageName converts a raw path segment to its canonical page-name
// form: lowercase, transliterated to ASCII, whitespace and disallowed
// characters collapsed to single dashes, trimmed of leading and trailing
// dashes, and capped at MaxPageNameLength.
func NormalizePageName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = translit.Replace(name)
	name = strings.Join(strings.Fields(name), "-")
	name = disallowedNameChars.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > MaxPageNameLength {
		name = name[:MaxPageNameLength]
		name = strings.Trim(name, "-")
	}

	return name
}
