package model

import (
	"regexp"
	"strings"

	"scaffold.dev/pkg/scaffold/pkg/pattern"
)

// TemplateNamespace is the reserved top-level context key holding template
// metadata. No question may live below it.
const TemplateNamespace = "__template__"

// QuestionPath is the dotted location of an answer in the context tree.
type QuestionPath []string

// ParseQuestionPath splits a dotted name into segments. It fails unless the
// trimmed name is non-empty and every segment is an identifier.
func ParseQuestionPath(name string) (QuestionPath, bool) {
	trimmed := strings.TrimSpace(name)
	if !pattern.IsDottedIdentifier(trimmed) {
		return nil, false
	}

	return QuestionPath(strings.Split(trimmed, ".")), true
}

// String joins the segments with dots.
func (p QuestionPath) String() string {
	return strings.Join(p, ".")
}

// QuestionKind is the "type" value of a descriptor question.
type QuestionKind string

// Known question kinds.
const (
	KindIdentifier QuestionKind = "Identifier"
	KindOption     QuestionKind = "Option"
	KindSelection  QuestionKind = "Selection"
	KindText       QuestionKind = "Text"
	KindCustom     QuestionKind = "Custom"
)

// QuestionSpec is the closed set of question variants. Consumers switch over
// the concrete types *IdentifierSpec, *TextSpec, *OptionSpec, *SelectionSpec
// and *CustomSpec.
type QuestionSpec interface {
	Kind() QuestionKind
	isQuestionSpec()
}

// IdentifierSpec asks for a dotted identifier such as a package name.
type IdentifierSpec struct {
	Default *string
}

// TextSpec asks for free text.
type TextSpec struct {
	Default *string
}

// OptionSpec asks a yes/no question.
type OptionSpec struct {
	Default *bool
}

// SelectionSpec offers a fixed list of identifier items.
type SelectionSpec struct {
	Items   []string
	Multi   bool
	Default []string
}

// CustomSpec asks for text matching Format.
type CustomSpec struct {
	Format  *regexp.Regexp
	Default *string
}

func (*IdentifierSpec) Kind() QuestionKind { return KindIdentifier }
func (*TextSpec) Kind() QuestionKind       { return KindText }
func (*OptionSpec) Kind() QuestionKind     { return KindOption }
func (*SelectionSpec) Kind() QuestionKind  { return KindSelection }
func (*CustomSpec) Kind() QuestionKind     { return KindCustom }

func (*IdentifierSpec) isQuestionSpec() {}
func (*TextSpec) isQuestionSpec()       {}
func (*OptionSpec) isQuestionSpec()     {}
func (*SelectionSpec) isQuestionSpec()  {}
func (*CustomSpec) isQuestionSpec()     {}

// Question is a validated descriptor question.
type Question struct {
	Path   QuestionPath
	Prompt string // empty when the descriptor has no "pretty" text
	Spec   QuestionSpec
}

// Label returns the prompt text, falling back to the dotted path.
func (q Question) Label() string {
	if q.Prompt != "" {
		return q.Prompt
	}

	return q.Path.String()
}
