package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is prompt text with {{name}} placeholders. Its placeholder set is
// checked once when it is built, so rendering cannot fail.
type Template struct {
	text string
}

// NewTemplate checks that text uses exactly the placeholders in vars.
func NewTemplate(text string, vars ...string) (Template, error) {
	want := make(map[string]bool, len(vars))
	for _, v := range vars {
		want[v] = true
	}

	found := make(map[string]bool)
	var unknown []string
	for _, m := range variablePattern.FindAllStringSubmatch(text, -1) {
		if !want[m[1]] && !found[m[1]] {
			unknown = append(unknown, m[1])
		}
		found[m[1]] = true
	}
	if len(unknown) > 0 {
		return Template{}, fmt.Errorf("unknown template variables: %s", strings.Join(unknown, ", "))
	}

	var missing []string
	for _, v := range vars {
		if !found[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return Template{}, fmt.Errorf("template does not use variables: %s", strings.Join(missing, ", "))
	}

	return Template{text: text}, nil
}

// MustTemplate is NewTemplate for package-level templates; it panics on error.
func MustTemplate(text string, vars ...string) Template {
	t, err := NewTemplate(text, vars...)
	if err != nil {
		panic(err)
	}
	return t
}

// Render replaces each placeholder with its value. Absent values render as
// the empty string. Values are inserted literally and never re-expanded.
func (t Template) Render(values map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(t.text, func(match string) string {
		return values[match[2:len(match)-2]] // strip {{ and }}
	})
}
