package model

import "scaffold.dev/pkg/scaffold/pkg/pattern"

// DescriptorFileName is looked up at the root of every template.
const DescriptorFileName = ".scaffold.json"

// ConditionalFile includes files matching Matcher only when Condition
// renders truthy.
type ConditionalFile struct {
	Condition string
	Matcher   pattern.Glob
}

// Filters decide which source files are rendered, copied or skipped.
type Filters struct {
	ConditionalFiles []ConditionalFile
	IncludeHidden    pattern.GlobSet
	Exclude          pattern.GlobSet
	// Templates, when set, is an allowlist of template candidates.
	Templates pattern.GlobSet
	// NonTemplates, when set and Templates is not, lists files that are never
	// rendered as templates.
	NonTemplates pattern.GlobSet
}

// TemplateDescriptor is the validated content of a descriptor file.
type TemplateDescriptor struct {
	Name      string
	Version   string
	Questions []Question
	Filters   Filters
}
