package portal

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases s and joins its letter and digit runs with hyphens.
// Latin diacritics are stripped; other scripts are kept as-is.
func Slugify(s string) string {
	decomposed := norm.NFKD.String(strings.TrimSpace(s))

	var b strings.Builder
	pendingDash := false
	var prev rune
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r) && prev < unicode.MaxASCII:
			// accent on a latin base
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
			prev = r
		default:
			pendingDash = true
		}
	}
	return norm.NFC.String(b.String())
}

// ContainsFold reports whether substr occurs in s under Unicode case folding
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}

// SanitizeFileName makes an upload name safe for a Content-Disposition
// header. Diacritics are stripped and any other non-ASCII or reserved
// character becomes a hyphen. A name with nothing left becomes "upload",
// keeping its extension.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	ext := path.Ext(name)
	stem := strings.Trim(asciiName(strings.TrimSuffix(name, ext)), "-. ")
	ext = asciiName(ext)
	if strings.Trim(stem, "-_") == "" {
		stem = "upload"
	}
	if strings.Trim(ext, ".-") == "" {
		ext = ""
	}
	return stem + ext
}

func asciiName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && unicode.IsPrint(r) && !strings.ContainsRune(` "';:*?<>|`, r):
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
