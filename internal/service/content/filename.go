package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var pathSeparators = strings.NewReplacer("/", " ", `\`, " ")

// SanitizeFilename reduces name to ASCII letters, digits, '_', '.' and '-'
// so it can be used as a download filename. The result may be empty.
func SanitizeFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var ascii strings.Builder
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			ascii.WriteRune(r)
		}
	}

	name = pathSeparators.Replace(ascii.String())
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")

	return strings.Trim(name, "._")
}
