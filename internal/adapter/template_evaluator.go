package adapter

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/aymerick/raymond"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEvaluator renders a Handlebars template string against a context.
type TemplateEvaluator interface {
	Render(template string, data map[string]any) (string, error)
}

// HandlebarsEvaluator evaluates templates with raymond and a fixed helper set.
type HandlebarsEvaluator struct {
	helpers map[string]any
}

// NewNamingEvaluator returns the evaluator used for file and directory names
// and for conditions.
func NewNamingEvaluator() *HandlebarsEvaluator {
	return &HandlebarsEvaluator{helpers: namingHelpers()}
}

// NewContentEvaluator returns the evaluator used for file contents. It adds
// string helpers on top of the naming set.
func NewContentEvaluator() *HandlebarsEvaluator {
	helpers := namingHelpers()
	for name, helper := range stringHelpers() {
		helpers[name] = helper
	}

	return &HandlebarsEvaluator{helpers: helpers}
}

// Render parses and executes template against data.
func (e *HandlebarsEvaluator) Render(template string, data map[string]any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("template evaluation panicked: %v", r)
		}
	}()

	tpl, err := raymond.Parse(template)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	tpl.RegisterHelpers(e.helpers)

	out, err = tpl.Exec(templateData(data))
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return out, nil
}

// templateObject is a context object as seen by templates. Printing one
// yields "[object]" rather than Go's map formatting; lookups still descend
// into it.
type templateObject map[string]any

func (templateObject) String() string { return "[object]" }

func templateData(data map[string]any) templateObject {
	out := make(templateObject, len(data))
	for key, value := range data {
		out[key] = templateValue(value)
	}

	return out
}

func templateValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return templateData(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = templateValue(item)
		}

		return out
	default:
		return value
	}
}

func namingHelpers() map[string]any {
	return map[string]any{
		"package": packageHelper,
		"dir-if":  dirIfHelper,
		"eq":      func(a, b any) bool { return raymond.Str(a) == raymond.Str(b) },
		"ne":      func(a, b any) bool { return raymond.Str(a) != raymond.Str(b) },
		"not":     func(a any) bool { return !raymond.IsTrue(a) },
		"and":     func(a, b any) bool { return raymond.IsTrue(a) && raymond.IsTrue(b) },
		"or":      func(a, b any) bool { return raymond.IsTrue(a) || raymond.IsTrue(b) },
	}
}

// packageHelper turns "io.v47.app" into "io/v47/app" using the OS separator.
func packageHelper(value any) raymond.SafeString {
	s, ok := value.(string)
	if !ok {
		panic(errors.New("package helper expects a string parameter"))
	}

	return raymond.SafeString(strings.ReplaceAll(s, ".", string(os.PathSeparator)))
}

// dirIfHelper renders "1" for truthy values so a directory name can be made
// non-empty on demand.
func dirIfHelper(value any) string {
	if raymond.IsTrue(value) {
		return "1"
	}

	return ""
}

func stringHelpers() map[string]any {
	return map[string]any{
		"to_lower_case": func(v any) string { return cases.Lower(language.Und).String(raymond.Str(v)) },
		"to_upper_case": func(v any) string { return cases.Upper(language.Und).String(raymond.Str(v)) },
		"to_title_case": func(v any) string { return cases.Title(language.Und).String(raymond.Str(v)) },
		"to_camel_case": func(v any) string { return camelCase(raymond.Str(v), false) },
		"to_pascal_case": func(v any) string {
			return camelCase(raymond.Str(v), true)
		},
		"to_snake_case": func(v any) string { return joinWords(raymond.Str(v), "_") },
		"to_kebab_case": func(v any) string { return joinWords(raymond.Str(v), "-") },
		"trim":          func(v any) string { return strings.TrimSpace(raymond.Str(v)) },
		"replace": func(v, old, replacement any) string {
			return strings.ReplaceAll(raymond.Str(v), raymond.Str(old), raymond.Str(replacement))
		},
	}
}

// splitWords breaks value on non alphanumeric runes and lower-to-upper
// transitions: "myHTTPServer_v2" -> [my HTTP Server v2].
func splitWords(value string) []string {
	var (
		words   []string
		current []rune
	)

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	runes := []rune(value)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if unicode.IsUpper(r) && len(current) > 0 {
			prev := current[len(current)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}

		current = append(current, r)
	}

	flush()

	return words
}

func joinWords(value, sep string) string {
	lower := cases.Lower(language.Und)
	words := splitWords(value)

	for i, w := range words {
		words[i] = lower.String(w)
	}

	return strings.Join(words, sep)
}

func camelCase(value string, upperFirst bool) string {
	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)

	var b strings.Builder

	for i, w := range splitWords(value) {
		if i == 0 && !upperFirst {
			b.WriteString(lower.String(w))
			continue
		}

		b.WriteString(title.String(w))
	}

	return b.String()
}
