package domain

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

type mockPrompter struct {
	mock.Mock
}

func (p *mockPrompter) Input(ctx context.Context, cfg adapter.InputConfig) (string, error) {
	args := p.Called(ctx, cfg.Message)
	return args.String(0), args.Error(1)
}

func (p *mockPrompter) Confirm(ctx context.Context, cfg adapter.ConfirmConfig) (bool, error) {
	args := p.Called(ctx, cfg.Message)
	return args.Bool(0), args.Error(1)
}

func (p *mockPrompter) Select(ctx context.Context, cfg adapter.SelectConfig) (int, error) {
	args := p.Called(ctx, cfg.Message)
	return args.Int(0), args.Error(1)
}

func (p *mockPrompter) MultiSelect(ctx context.Context, cfg adapter.SelectConfig) ([]int, error) {
	args := p.Called(ctx, cfg.Message)
	return args.Get(0).([]int), args.Error(1)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestInsertAnswer(t *testing.T) {
	tree := map[string]any{}

	insertAnswer(tree, m.QuestionPath{"name"}, "demo")
	insertAnswer(tree, m.QuestionPath{"a", "b", "c"}, "v")
	insertAnswer(tree, m.QuestionPath{"a", "x"}, true)

	assert.Equal(t, map[string]any{
		"name": "demo",
		"a": map[string]any{
			"b": map[string]any{"c": "v"},
			"x": true,
		},
	}, tree)
}

func TestInsertAnswer_OrderIndependent(t *testing.T) {
	first := map[string]any{}
	insertAnswer(first, m.QuestionPath{"a", "b", "c"}, 1)
	insertAnswer(first, m.QuestionPath{"z"}, 2)

	second := map[string]any{}
	insertAnswer(second, m.QuestionPath{"z"}, 2)
	insertAnswer(second, m.QuestionPath{"a", "b", "c"}, 1)

	assert.Equal(t, first, second)
}

func TestInsertAnswer_PanicsOnNonObject(t *testing.T) {
	tree := map[string]any{"author": "Ada"}

	assert.Panics(t, func() {
		insertAnswer(tree, m.QuestionPath{"author", "email"}, "x")
	})
}

func TestContextBuilder_Prompts(t *testing.T) {
	ctx := context.Background()
	descriptor := &m.TemplateDescriptor{
		Name:    "tpl",
		Version: "1.0",
		Questions: []m.Question{
			{Path: m.QuestionPath{"name"}, Prompt: "Project name", Spec: &m.TextSpec{}},
			{Path: m.QuestionPath{"package"}, Spec: &m.IdentifierSpec{Default: strPtr("io.example")}},
			{Path: m.QuestionPath{"docs"}, Spec: &m.OptionSpec{Default: boolPtr(true)}},
			{Path: m.QuestionPath{"lang"}, Spec: &m.SelectionSpec{Items: []string{"go", "rust"}}},
			{Path: m.QuestionPath{"features"}, Spec: &m.SelectionSpec{Items: []string{"api", "cli", "web"}, Multi: true}},
			{Path: m.QuestionPath{"author", "email"}, Spec: &m.CustomSpec{Format: regexp.MustCompile(`@`)}},
		},
	}

	prompter := &mockPrompter{}
	prompter.On("Input", ctx, "Project name").Return("demo", nil)
	prompter.On("Input", ctx, "package").Return("", nil)
	prompter.On("Confirm", ctx, "docs").Return(false, nil)
	prompter.On("Select", ctx, "lang").Return(1, nil)
	prompter.On("MultiSelect", ctx, "features").Return([]int{0, 2}, nil)
	prompter.On("Input", ctx, "author.email (@)").Return("ada@example.com", nil)

	answers, err := NewContextBuilder(prompter, nil, false).Build(ctx, descriptor)
	require.NoError(t, err)
	prompter.AssertExpectations(t)

	assert.Equal(t, map[string]any{
		m.TemplateNamespace: map[string]any{"name": "tpl", "version": "1.0"},
		"name":              "demo",
		"package":           "io.example",
		"docs":              false,
		"lang":              map[string]any{"rust": true},
		"features":          map[string]any{"api": true, "web": true},
		"author":            map[string]any{"email": "ada@example.com"},
	}, answers.Data())
}

func TestContextBuilder_InvalidInput(t *testing.T) {
	ctx := context.Background()
	descriptor := &m.TemplateDescriptor{
		Questions: []m.Question{{Path: m.QuestionPath{"pkg"}, Spec: &m.IdentifierSpec{}}},
	}

	prompter := &mockPrompter{}
	prompter.On("Input", ctx, "pkg").Return("not valid", nil)

	_, err := NewContextBuilder(prompter, nil, false).Build(ctx, descriptor)
	assert.ErrorContains(t, err, "failed to answer pkg")
}

func TestContextBuilder_PromptAborted(t *testing.T) {
	ctx := context.Background()
	descriptor := &m.TemplateDescriptor{
		Questions: []m.Question{{Path: m.QuestionPath{"ok"}, Spec: &m.OptionSpec{}}},
	}

	prompter := &mockPrompter{}
	prompter.On("Confirm", ctx, "ok").Return(false, adapter.ErrAborted)

	_, err := NewContextBuilder(prompter, nil, false).Build(ctx, descriptor)
	assert.ErrorIs(t, err, adapter.ErrAborted)
}

func TestContextBuilder_PresetsAndDefaults(t *testing.T) {
	ctx := context.Background()
	descriptor := &m.TemplateDescriptor{
		Questions: []m.Question{
			{Path: m.QuestionPath{"name"}, Spec: &m.TextSpec{}},
			{Path: m.QuestionPath{"author", "email"}, Spec: &m.TextSpec{}},
			{Path: m.QuestionPath{"version"}, Spec: &m.TextSpec{}},
			{Path: m.QuestionPath{"docs"}, Spec: &m.OptionSpec{Default: boolPtr(true)}},
			{Path: m.QuestionPath{"features"}, Spec: &m.SelectionSpec{Items: []string{"api", "cli"}, Multi: true, Default: []string{"cli"}}},
			{Path: m.QuestionPath{"lang"}, Spec: &m.SelectionSpec{Items: []string{"go", "rust"}}},
		},
	}

	presets := map[string]any{
		"name":    "demo",
		"author":  map[string]any{"email": "ada@example.com"},
		"version": 1.5,
		"lang":    "go",
	}

	prompter := &mockPrompter{}

	answers, err := NewContextBuilder(prompter, presets, true).Build(ctx, descriptor)
	require.NoError(t, err)
	prompter.AssertNotCalled(t, "Input", mock.Anything, mock.Anything)

	data := answers.Data()
	assert.Equal(t, "demo", data["name"])
	assert.Equal(t, map[string]any{"email": "ada@example.com"}, data["author"])
	assert.Equal(t, "1.5", data["version"])
	assert.Equal(t, true, data["docs"])
	assert.Equal(t, map[string]any{"cli": true}, data["features"])
	assert.Equal(t, map[string]any{"go": true}, data["lang"])
}

func TestContextBuilder_DottedPresetKey(t *testing.T) {
	descriptor := &m.TemplateDescriptor{
		Questions: []m.Question{{Path: m.QuestionPath{"author", "name"}, Spec: &m.TextSpec{}}},
	}

	answers, err := NewContextBuilder(&mockPrompter{}, map[string]any{"author.name": "Ada"}, false).
		Build(context.Background(), descriptor)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "Ada"}, answers.Data()["author"])
}

func TestPresetAnswer_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		spec   m.QuestionSpec
		preset any
	}{
		{"identifier with spaces", &m.IdentifierSpec{}, "a b"},
		{"option as string", &m.OptionSpec{}, "yes"},
		{"custom mismatch", &m.CustomSpec{Format: regexp.MustCompile(`^\d+$`)}, "abc"},
		{"text as map", &m.TextSpec{}, map[string]any{}},
		{"unknown item", &m.SelectionSpec{Items: []string{"a"}, Multi: true}, []any{"a", "b"}},
		{"single selection with two items", &m.SelectionSpec{Items: []string{"a", "b"}}, []any{"a", "b"}},
		{"selection item not a string", &m.SelectionSpec{Items: []string{"a"}, Multi: true}, []any{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := presetAnswer(m.Question{Path: m.QuestionPath{"q"}, Spec: tt.spec}, tt.preset)
			assert.Error(t, err)
		})
	}
}

func TestFormatContext(t *testing.T) {
	answers := m.NewAnswerContext(map[string]any{"b": true, "a": "x"})

	out := FormatContext(answers)
	assert.Less(t, strings.Index(out, `"a"`), strings.Index(out, `"b"`))
	assert.Contains(t, out, "\n")
}
