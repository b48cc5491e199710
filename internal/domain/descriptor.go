package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
	"scaffold.dev/pkg/scaffold/pkg/pattern"
)

type rawDescriptor struct {
	Name      *string           `json:"name"`
	Version   *string           `json:"version"`
	Questions []json.RawMessage `json:"questions"`
	Filters   *rawFilters       `json:"filters"`
}

type rawQuestion struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Pretty  *string         `json:"pretty"`
	Items   []any           `json:"items"`
	Multi   bool            `json:"multi"`
	Default json.RawMessage `json:"default"`
	Format  *string         `json:"format"`
}

type rawFilters struct {
	ConditionalTemplates []json.RawMessage `json:"conditionalTemplates"`
	ConditionalFiles     []json.RawMessage `json:"conditionalFiles"`
	IncludeHidden        []any             `json:"includeHidden"`
	Exclude              []any             `json:"exclude"`
	Templates            *[]any            `json:"templates"`
	NonTemplates         *[]any            `json:"nonTemplates"`
}

type rawConditional struct {
	Condition string `json:"condition"`
	Matcher   string `json:"matcher"`
}

// LoadDescriptor reads the descriptor file from dir. A missing file yields
// an empty descriptor.
func LoadDescriptor(fsAdapter adapter.SourceFSAdapter, dir m.Path, lenient bool) (*m.TemplateDescriptor, error) {
	path := m.Path(filepath.Join(string(dir), m.DescriptorFileName))

	data, err := fsAdapter.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("No template descriptor found", "path", path)
			return &m.TemplateDescriptor{}, nil
		}

		return nil, fmt.Errorf("failed to read template descriptor: %w", err)
	}

	descriptor, err := ParseDescriptor(data, lenient)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template descriptor %s: %w", path, err)
	}

	return descriptor, nil
}

// ParseDescriptor decodes and validates a descriptor document. Only malformed
// JSON is an error; invalid questions and filter entries are dropped with a
// warning. With lenient set, questions whose default is invalid are kept
// without a default.
func ParseDescriptor(data []byte, lenient bool) (*m.TemplateDescriptor, error) {
	var raw rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	descriptor := &m.TemplateDescriptor{
		Name:    trimmedOrEmpty(raw.Name),
		Version: trimmedOrEmpty(raw.Version),
	}

	tree := newPathConflictTree()

	for i, rawJSON := range raw.Questions {
		question, err := parseQuestion(rawJSON, lenient)
		if err != nil {
			slog.Warn("Dropping invalid question", "index", i, "error", err)
			continue
		}

		if !tree.register(question.Path) {
			slog.Warn("Dropping question with conflicting path", "question", question.Path.String())
			continue
		}

		descriptor.Questions = append(descriptor.Questions, question)
	}

	if raw.Filters != nil {
		descriptor.Filters = parseFilters(raw.Filters)
	}

	return descriptor, nil
}

func trimmedOrEmpty(value *string) string {
	if value == nil {
		return ""
	}

	return strings.TrimSpace(*value)
}

func parseQuestion(data json.RawMessage, lenient bool) (m.Question, error) {
	var raw rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return m.Question{}, fmt.Errorf("malformed question: %w", err)
	}

	path, ok := m.ParseQuestionPath(raw.Name)
	if !ok {
		return m.Question{}, fmt.Errorf("invalid question name %q", raw.Name)
	}

	if path[0] == m.TemplateNamespace {
		return m.Question{}, fmt.Errorf("question %q uses the reserved %s namespace", raw.Name, m.TemplateNamespace)
	}

	spec, err := parseQuestionSpec(raw, path, lenient)
	if err != nil {
		return m.Question{}, fmt.Errorf("question %q: %w", path.String(), err)
	}

	return m.Question{
		Path:   path,
		Prompt: trimmedOrEmpty(raw.Pretty),
		Spec:   spec,
	}, nil
}

func parseQuestionSpec(raw rawQuestion, path m.QuestionPath, lenient bool) (m.QuestionSpec, error) {
	switch m.QuestionKind(strings.TrimSpace(raw.Type)) {
	case m.KindIdentifier:
		def, err := checkedDefault(raw.Default, path, lenient, stringDefault(func(s string) error {
			if !pattern.IsDottedIdentifier(s) {
				return fmt.Errorf("default %q is not an identifier", s)
			}

			return nil
		}))

		return &m.IdentifierSpec{Default: def}, err
	case m.KindText:
		def, err := checkedDefault(raw.Default, path, lenient, stringDefault(nil))

		return &m.TextSpec{Default: def}, err
	case m.KindOption:
		def, err := checkedDefault(raw.Default, path, lenient, boolDefault)

		return &m.OptionSpec{Default: def}, err
	case m.KindSelection:
		return parseSelection(raw, path, lenient)
	case m.KindCustom:
		return parseCustom(raw, path, lenient)
	default:
		return nil, fmt.Errorf("unknown question type %q", raw.Type)
	}
}

// checkedDefault decodes a default value with decode. A missing default is
// fine. An invalid one fails the question unless lenient is set, in which
// case the default is dropped.
func checkedDefault[T any](data json.RawMessage, path m.QuestionPath, lenient bool, decode func(json.RawMessage) (T, error)) (*T, error) {
	if isAbsent(data) {
		return nil, nil
	}

	value, err := decode(data)
	if err == nil {
		return &value, nil
	}

	if lenient {
		slog.Warn("Ignoring invalid default", "question", path.String(), "error", err)
		return nil, nil
	}

	return nil, err
}

func isAbsent(data json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed == "" || trimmed == "null"
}

func stringDefault(check func(string) error) func(json.RawMessage) (string, error) {
	return func(data json.RawMessage) (string, error) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", fmt.Errorf("default must be a string")
		}

		if check != nil {
			if err := check(s); err != nil {
				return "", err
			}
		}

		return s, nil
	}
}

func boolDefault(data json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return false, fmt.Errorf("default must be a boolean")
	}

	return b, nil
}

func parseSelection(raw rawQuestion, path m.QuestionPath, lenient bool) (m.QuestionSpec, error) {
	items := selectionItems(raw.Items, path)
	if len(items) == 0 {
		return nil, fmt.Errorf("selection has no valid items")
	}

	spec := &m.SelectionSpec{Items: items, Multi: raw.Multi}

	defaults, err := checkedDefault(raw.Default, path, lenient, func(data json.RawMessage) ([]string, error) {
		return selectionDefaults(data, items, path, lenient)
	})
	if err != nil {
		return nil, err
	}

	if defaults != nil {
		spec.Default = *defaults
	}

	if !spec.Multi && len(spec.Default) > 1 {
		slog.Warn("Single selection has several defaults, keeping the first",
			"question", path.String(), "defaults", spec.Default)
		spec.Default = spec.Default[:1]
	}

	return spec, nil
}

func selectionItems(rawItems []any, path m.QuestionPath) []string {
	seen := make(map[string]struct{}, len(rawItems))
	items := make([]string, 0, len(rawItems))

	for _, rawItem := range rawItems {
		s, ok := rawItem.(string)
		item := strings.TrimSpace(s)

		if !ok || !pattern.IsIdentifier(item) {
			slog.Warn("Dropping invalid selection item", "question", path.String(), "item", rawItem)
			continue
		}

		if _, dup := seen[item]; dup {
			continue
		}

		seen[item] = struct{}{}
		items = append(items, item)
	}

	return items
}

// selectionDefaults accepts a string or a list of strings. Unknown items fail
// the default, or are dropped one by one when lenient.
func selectionDefaults(data json.RawMessage, items []string, path m.QuestionPath, lenient bool) ([]string, error) {
	var values []string

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		values = []string{single}
	} else if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("default must be a string or a list of strings")
	}

	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item] = struct{}{}
	}

	out := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := known[v]; ok {
			out = append(out, v)
			continue
		}

		if !lenient {
			return nil, fmt.Errorf("default %q is not one of the items", v)
		}

		slog.Warn("Dropping unknown selection default", "question", path.String(), "default", v)
	}

	return out, nil
}

func parseCustom(raw rawQuestion, path m.QuestionPath, lenient bool) (m.QuestionSpec, error) {
	format := trimmedOrEmpty(raw.Format)
	if format == "" {
		return nil, fmt.Errorf("custom question needs a format")
	}

	re, err := regexp.Compile(format)
	if err != nil {
		return nil, fmt.Errorf("invalid format: %w", err)
	}

	def, err := checkedDefault(raw.Default, path, lenient, stringDefault(func(s string) error {
		if !re.MatchString(s) {
			return fmt.Errorf("default %q does not match format %s", s, format)
		}

		return nil
	}))
	if err != nil {
		return nil, err
	}

	return &m.CustomSpec{Format: re, Default: def}, nil
}

func parseFilters(raw *rawFilters) m.Filters {
	filters := m.Filters{
		IncludeHidden: compileGlobs("includeHidden", raw.IncludeHidden),
		Exclude:       compileGlobs("exclude", raw.Exclude),
	}

	conditionals := append(append([]json.RawMessage{}, raw.ConditionalTemplates...), raw.ConditionalFiles...)
	for _, entry := range conditionals {
		if conditional, ok := parseConditional(entry); ok {
			filters.ConditionalFiles = append(filters.ConditionalFiles, conditional)
		}
	}

	if raw.Templates != nil {
		filters.Templates = compileGlobs("templates", *raw.Templates)
	}

	if raw.NonTemplates != nil {
		filters.NonTemplates = compileGlobs("nonTemplates", *raw.NonTemplates)
	}

	return filters
}

func parseConditional(data json.RawMessage) (m.ConditionalFile, bool) {
	var raw rawConditional
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("Dropping malformed conditional file entry", "error", err)
		return m.ConditionalFile{}, false
	}

	condition := strings.TrimSpace(raw.Condition)
	if condition == "" || strings.TrimSpace(raw.Matcher) == "" {
		slog.Warn("Dropping conditional file entry with blank condition or matcher",
			"condition", raw.Condition, "matcher", raw.Matcher)

		return m.ConditionalFile{}, false
	}

	glob, err := pattern.CompileGlob(raw.Matcher)
	if err != nil {
		slog.Warn("Dropping conditional file entry", "matcher", raw.Matcher, "error", err)
		return m.ConditionalFile{}, false
	}

	return m.ConditionalFile{Condition: condition, Matcher: glob}, true
}

// compileGlobs always returns a non-nil set so an explicitly empty list stays
// distinguishable from an absent one.
func compileGlobs(field string, raw []any) pattern.GlobSet {
	set := make(pattern.GlobSet, 0, len(raw))

	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			slog.Warn("Dropping non-string glob", "filter", field, "glob", entry)
			continue
		}

		glob, err := pattern.CompileGlob(s)
		if err != nil {
			slog.Warn("Dropping invalid glob", "filter", field, "glob", s, "error", err)
			continue
		}

		set = append(set, glob)
	}

	return set
}
