package storage

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// AllowedExtensions is the fixed set of accepted upload extensions, lower case, without the dot.
var AllowedExtensions = map[string]struct{}{
	"xlsx": {}, "xls": {}, "csv": {},
	"doc": {}, "docx": {}, "pdf": {},
	"jpg": {}, "jpeg": {}, "png": {},
	"zip": {}, "rar": {},
}

// AllowedFile reports whether the extension after the last dot is in AllowedExtensions.
// The comparison is case-insensitive; names without a dot are rejected.
func AllowedFile(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	_, ok := AllowedExtensions[strings.ToLower(name[i+1:])]
	return ok
}

var separatorReplacer = strings.NewReplacer("/", " ", `\`, " ")

// SecureFilename reduces name to a token that is safe as a single path segment:
//
//  1. NFKD decomposition, then every non-ASCII rune is dropped ("Công" -> "Cong").
//  2. "/" and "\" become spaces.
//  3. Runs of whitespace become a single "_".
//  4. Runes outside [A-Za-z0-9_.-] are removed.
//  5. Leading and trailing "." and "_" are trimmed.
//
// The result may be empty.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	s := separatorReplacer.Replace(b.String())
	s = strings.Join(strings.Fields(s), "_")
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-':
			return r
		}
		return -1
	}, s)

	return strings.Trim(s, "._")
}

// GroupIdentifier derives the folder identifier from the company name and exam date.
func GroupIdentifier(companyName, examDate string) string {
	return SecureFilename(companyName + "_" + examDate)
}
