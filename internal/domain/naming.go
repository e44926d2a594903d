package domain

import (
	"fmt"
	"strings"
	"time"
)

// Namer renders sequenced output filenames from a template with
// $variable placeholders: pre, set, seq, ext, ymd, hms. Substitution is
// safe — unknown placeholders are left verbatim, never an error. A Namer
// is immutable; the sequence counter is owned by the caller.
type Namer struct {
	Template string
	Prefix   string
	Set      string
	Pad      int

	now func() time.Time
}

// NamerOption configures a Namer.
type NamerOption func(*Namer)

// WithClock overrides the clock (useful for tests).
func WithClock(now func() time.Time) NamerOption {
	return func(n *Namer) { n.now = now }
}

// NewNamer builds a Namer with the given template and fixed variables.
func NewNamer(template, prefix, set string, pad int, opts ...NamerOption) *Namer {
	n := &Namer{
		Template: template,
		Prefix:   prefix,
		Set:      set,
		Pad:      pad,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Render produces the filename for one sequence value. A template with
// no extension-looking suffix gets ".$ext" appended first.
func (n *Namer) Render(seq int, ext string) string {
	tpl := n.Template
	if tpl == "" {
		return fmt.Sprintf("%s-%s-%d.%s", n.Prefix, n.Set, seq, ext)
	}
	if !strings.Contains(lastSegment(tpl), ".") {
		tpl += ".$ext"
	}

	now := n.now()
	return substitute(tpl, map[string]string{
		"pre": n.Prefix,
		"set": n.Set,
		"seq": fmt.Sprintf("%0*d", n.Pad, seq),
		"ext": ext,
		"ymd": now.Format("20060102"),
		"hms": now.Format("150405"),
	})
}

// Next picks the first filename from seq upward for which exists returns
// false, and returns it with the sequence value for the following call
// (one past the value that produced the name). A template without a $seq
// placeholder renders a fixed name exactly once, allowing intentional
// overwrite.
func (n *Namer) Next(seq int, ext string, exists func(string) bool) (string, int) {
	name := n.Render(seq, ext)
	if !n.sequenced() {
		return name, seq + 1
	}
	for exists(name) {
		seq++
		name = n.Render(seq, ext)
	}
	return name, seq + 1
}

func (n *Namer) sequenced() bool {
	return strings.Contains(n.Template, "$seq") || strings.Contains(n.Template, "${seq}")
}

// substitute replaces $name and ${name} tokens with vars values, leaving
// unknown tokens untouched. "$$" renders a literal "$".
func substitute(input string, vars map[string]string) string {
	var out strings.Builder
	out.Grow(len(input) + 16)

	for i := 0; i < len(input); {
		if input[i] != '$' {
			out.WriteByte(input[i])
			i++
			continue
		}
		if i+1 < len(input) && input[i+1] == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}

		name, width := scanToken(input[i+1:])
		if name == "" {
			out.WriteByte('$')
			i++
			continue
		}
		if val, ok := vars[name]; ok {
			out.WriteString(val)
		} else {
			out.WriteString(input[i : i+1+width])
		}
		i += 1 + width
	}
	return out.String()
}

// scanToken reads a placeholder name after '$', returning the name and
// the number of input bytes it spans (including braces).
func scanToken(s string) (string, int) {
	if s == "" {
		return "", 0
	}
	if s[0] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", 0
		}
		return s[1:end], end + 1
	}
	end := 0
	for end < len(s) && isWordByte(s[end]) {
		end++
	}
	return s[:end], end
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func lastSegment(tpl string) string {
	if i := strings.LastIndexByte(tpl, '/'); i >= 0 {
		return tpl[i+1:]
	}
	return tpl
}
