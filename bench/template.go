package bench

import (
	"strconv"
	"strings"
)

// CountPlaceholder is the substitution point for the per-worker call count.
const CountPlaceholder = "%(count)s"

// RenderTemplate substitutes count into a workload template. Templates use
// printf-style named placeholders: %(count)s or %(count)d, with %% for a
// literal percent sign.
func RenderTemplate(tmpl string, count int) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl) + 8)

	n := strconv.Itoa(count)
	found := false

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(tmpl) {
			return "", ConfigError(CodeInvalidTemplate, "dangling %% at offset %d", i)
		}
		switch tmpl[i+1] {
		case '%':
			b.WriteByte('%')
			i++
		case '(':
			end := strings.IndexByte(tmpl[i+2:], ')')
			if end < 0 {
				return "", ConfigError(CodeInvalidTemplate, "unterminated placeholder at offset %d", i)
			}
			name := tmpl[i+2 : i+2+end]
			verb := i + 2 + end + 1
			if verb >= len(tmpl) || (tmpl[verb] != 's' && tmpl[verb] != 'd') {
				return "", ConfigError(CodeInvalidTemplate, "placeholder %%(%s) needs an s or d verb", name)
			}
			if name != "count" {
				return "", ConfigError(CodeInvalidTemplate, "unknown placeholder %%(%s)", name)
			}
			b.WriteString(n)
			found = true
			i = verb
		default:
			return "", ConfigError(CodeInvalidTemplate, "unsupported verb %%%c at offset %d", tmpl[i+1], i)
		}
	}

	if !found {
		return "", ConfigError(CodeInvalidTemplate, "template has no %s placeholder", CountPlaceholder)
	}
	return b.String(), nil
}
