package wildcards

import (
	"regexp"
	"strings"
)

// cleanups run in order: tighten space before commas, force one space
// after commas and periods, collapse runs of spaces, fold doubled
// periods, and join lines.
var cleanups = []struct {
	re  *regexp.Regexp
	sub string
}{
	{regexp.MustCompile(` ,`), ","},
	{regexp.MustCompile(`,([^ ])`), ", $1"},
	{regexp.MustCompile(` +`), " "},
	{regexp.MustCompile(`\.([^ ])`), ". $1"},
	{regexp.MustCompile(`\. *\. *`), ". "},
	{regexp.MustCompile(` *\n`), " "},
}

var sentenceStart = regexp.MustCompile(`\. [a-z]`)

// Normalize tidies the punctuation and spacing of an expanded prompt,
// capitalizing sentence starts.
func Normalize(text string) string {
	for _, c := range cleanups {
		text = c.re.ReplaceAllString(text, c.sub)
	}
	text = sentenceStart.ReplaceAllStringFunc(text, strings.ToUpper)
	return strings.TrimSpace(text)
}
