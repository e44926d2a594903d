package wildcards

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// maxDepth caps recursive expansion so self-referential collections
// terminate instead of looping.
const maxDepth = 16

var wildcardRE = regexp.MustCompile(`__(.+?)__`)

// HasReference reports whether text still contains a __name__ wildcard
// reference.
func HasReference(text string) bool {
	return wildcardRE.MatchString(text)
}

// Generator expands prompt templates: {a|b|c} variant groups pick one
// alternative, __name__ references pick one value from the named
// collection, and both recurse into the chosen text. References to
// unknown collections pass through unchanged.
type Generator struct {
	mgr *Manager
	rng *rand.Rand
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand sets the choice source, for reproducible tests.
func WithRand(rng *rand.Rand) GeneratorOption {
	return func(g *Generator) { g.rng = rng }
}

func NewGenerator(m *Manager, opts ...GeneratorOption) *Generator {
	g := &Generator{
		mgr: m,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate expands the template count times.
func (g *Generator) Generate(template string, count int) []string {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.expand(template, 0))
	}
	return out
}

func (g *Generator) expand(text string, depth int) string {
	if depth >= maxDepth {
		return text
	}
	text = g.expandVariants(text, depth)
	return wildcardRE.ReplaceAllStringFunc(text, func(ref string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(ref, "__"), "__")
		values, ok := g.mgr.Values(name)
		if !ok || len(values) == 0 {
			return ref
		}
		return g.expand(values[g.rng.Intn(len(values))], depth+1)
	})
}

// expandVariants resolves {a|b|c} groups left to right. Unbalanced
// braces are left as literal text.
func (g *Generator) expandVariants(text string, depth int) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := matchBrace(text, open)
		if end < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:open])
		choices := splitChoices(text[open+1 : end])
		choice := strings.TrimSpace(choices[g.rng.Intn(len(choices))])
		b.WriteString(g.expand(choice, depth+1))
		text = text[end+1:]
	}
}

func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitChoices splits a variant body on top-level | separators.
func splitChoices(body string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '|':
			if depth == 0 {
				out = append(out, body[start:i])
				start = i + 1
			}
		}
	}
	return append(out, body[start:])
}
