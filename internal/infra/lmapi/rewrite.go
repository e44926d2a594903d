package lmapi

import (
	"context"
	"regexp"
	"strings"

	"github.com/jgreely/genaistuff/internal/ports"
)

// markerRE finds the @< ... >@ span whose contents alone are sent to
// the model; the text outside the markers is reattached verbatim.
var markerRE = regexp.MustCompile(`^(.*?) *@< *([^>]+?) *>@ *(.*)$`)

// reasoningREs strip chain-of-thought preambles that some local models
// emit before the actual answer.
var reasoningREs = []*regexp.Regexp{
	regexp.MustCompile(`(?s)^.*</seed:think>`),
	regexp.MustCompile(`(?s)^.*</think>`),
	regexp.MustCompile(`(?s)^.*<.message.>`),
}

// Rewrite runs one input line through the enhancer: the marked span (or
// the whole line) is rewritten, reasoning preambles are stripped, fixed
// prefix/suffix text is reattached, and whitespace is collapsed to a
// single line.
func Rewrite(ctx context.Context, enh ports.Enhancer, line string) (string, error) {
	prefix, core, suffix := "", line, ""
	marked := false
	if m := markerRE.FindStringSubmatch(line); m != nil {
		prefix, core, suffix = m[1], m[2], m[3]
		marked = true
	}

	resp, err := enh.Enhance(ctx, core)
	if err != nil {
		return "", err
	}

	resp = StripReasoning(resp)
	if marked {
		resp = strings.Join([]string{prefix, resp, suffix}, " ")
	}
	return CollapseSpace(resp), nil
}

// StripReasoning removes everything up to and including the last
// recognized think-closing tag.
func StripReasoning(s string) string {
	for _, re := range reasoningREs {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// CollapseSpace flattens a response to one trimmed line with single
// spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
