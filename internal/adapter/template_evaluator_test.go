package adapter

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlebarsEvaluator_Render(t *testing.T) {
	evaluator := NewContentEvaluator()

	tests := []struct {
		name     string
		template string
		data     map[string]any
		want     string
	}{
		{"variable", "{{x}}", map[string]any{"x": "hello"}, "hello"},
		{"nested", "{{author.name}}", map[string]any{"author": map[string]any{"name": "Ada"}}, "Ada"},
		{"missing renders empty", "[{{nope}}]", map[string]any{}, "[]"},
		{"bool false", "{{flag}}", map[string]any{"flag": false}, "false"},
		{"if block", "{{#if flag}}yes{{else}}no{{/if}}", map[string]any{"flag": true}, "yes"},
		{"not helper", "{{#if (not flag)}}off{{/if}}", map[string]any{"flag": false}, "off"},
		{"eq helper", "{{#if (eq lang \"go\")}}gopher{{/if}}", map[string]any{"lang": "go"}, "gopher"},
		{"and helper", "{{and a b}}", map[string]any{"a": true, "b": false}, "false"},
		{"or helper", "{{or a b}}", map[string]any{"a": true, "b": false}, "true"},
		{"snake case", "{{to_snake_case name}}", map[string]any{"name": "myHTTPServer"}, "my_http_server"},
		{"kebab case", "{{to_kebab_case name}}", map[string]any{"name": "Hello World"}, "hello-world"},
		{"pascal case", "{{to_pascal_case name}}", map[string]any{"name": "user_account"}, "UserAccount"},
		{"camel case", "{{to_camel_case name}}", map[string]any{"name": "user-account"}, "userAccount"},
		{"upper case", "{{to_upper_case name}}", map[string]any{"name": "abc"}, "ABC"},
		{"trim", "[{{trim name}}]", map[string]any{"name": "  x  "}, "[x]"},
		{"replace", "{{replace name \"-\" \"_\"}}", map[string]any{"name": "a-b-c"}, "a_b_c"},
		{"selection map", "{{#if features.docs}}docs{{/if}}", map[string]any{"features": map[string]any{"docs": true}}, "docs"},
		{"object prints placeholder", "{{features}}", map[string]any{"features": map[string]any{"a": true}}, "[object]"},
		{"nested object prints placeholder", "{{project}}", map[string]any{"project": map[string]any{"meta": map[string]any{}}}, "[object]"},
		{"each over object", "{{#each features}}{{@key}}={{this}};{{/each}}", map[string]any{"features": map[string]any{"a": true}}, "a=true;"},
		{"objects inside lists", "{{#each items}}{{this}}{{/each}}", map[string]any{"items": []any{map[string]any{"a": 1}}}, "[object]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.Render(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamingEvaluator_ObjectInName(t *testing.T) {
	got, err := NewNamingEvaluator().Render("{{features}}.txt", map[string]any{"features": map[string]any{"a": true}})
	require.NoError(t, err)
	assert.Equal(t, "[object].txt", got)
}

func TestHandlebarsEvaluator_PackageHelper(t *testing.T) {
	evaluator := NewNamingEvaluator()

	got, err := evaluator.Render("{{package pkg}}", map[string]any{"pkg": "io.v47.app"})
	require.NoError(t, err)

	sep := string(os.PathSeparator)
	assert.Equal(t, "io"+sep+"v47"+sep+"app", got)

	_, err = evaluator.Render("{{package pkg}}", map[string]any{"pkg": 12})
	assert.Error(t, err)
}

func TestHandlebarsEvaluator_DirIfHelper(t *testing.T) {
	evaluator := NewNamingEvaluator()

	got, err := evaluator.Render("{{dir-if flag}}", map[string]any{"flag": true})
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	got, err = evaluator.Render("{{dir-if flag}}", map[string]any{"flag": false})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHandlebarsEvaluator_ParseError(t *testing.T) {
	evaluator := NewContentEvaluator()

	_, err := evaluator.Render("{{#if x}}unterminated", map[string]any{})
	assert.Error(t, err)
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"my", "HTTP", "Server", "v2"}, splitWords("myHTTPServer_v2"))
	assert.Equal(t, []string{"hello", "world"}, splitWords("  hello--world "))
	assert.Empty(t, splitWords("__"))
}
