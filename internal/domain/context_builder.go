package domain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"scaffold.dev/pkg/scaffold/internal/adapter"
	m "scaffold.dev/pkg/scaffold/internal/model"
	"scaffold.dev/pkg/scaffold/pkg/pattern"
)

// ContextBuilder turns the answers to a descriptor's questions into the
// context used for rendering.
type ContextBuilder interface {
	Build(ctx context.Context, descriptor *m.TemplateDescriptor) (m.AnswerContext, error)
}

type contextBuilder struct {
	prompter    adapter.Prompter
	presets     map[string]any
	useDefaults bool
}

// NewContextBuilder returns a ContextBuilder. Presets, keyed by dotted name or
// nested by segment, answer questions without prompting. With useDefaults set
// every question that has a default is answered by it.
func NewContextBuilder(prompter adapter.Prompter, presets map[string]any, useDefaults bool) ContextBuilder {
	return &contextBuilder{
		prompter:    prompter,
		presets:     presets,
		useDefaults: useDefaults,
	}
}

func (b *contextBuilder) Build(ctx context.Context, descriptor *m.TemplateDescriptor) (m.AnswerContext, error) {
	data := map[string]any{m.TemplateNamespace: templateMetadata(descriptor)}

	for _, question := range descriptor.Questions {
		value, err := b.answer(ctx, question)
		if err != nil {
			return m.AnswerContext{}, fmt.Errorf("failed to answer %s: %w", question.Path.String(), err)
		}

		insertAnswer(data, question.Path, value)
	}

	return m.NewAnswerContext(data), nil
}

func templateMetadata(descriptor *m.TemplateDescriptor) map[string]any {
	meta := map[string]any{}
	if descriptor.Name != "" {
		meta["name"] = descriptor.Name
	}

	if descriptor.Version != "" {
		meta["version"] = descriptor.Version
	}

	return meta
}

// insertAnswer sets value at path, creating intermediate objects. Finding a
// non-object on the way means the path conflict check was bypassed.
func insertAnswer(tree map[string]any, path m.QuestionPath, value any) {
	node := tree

	for _, segment := range path[:len(path)-1] {
		next, exists := node[segment]
		if !exists {
			child := map[string]any{}
			node[segment] = child
			node = child

			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			panic(fmt.Sprintf("context value at %q is not an object", segment))
		}

		node = child
	}

	node[path[len(path)-1]] = value
}

func (b *contextBuilder) answer(ctx context.Context, question m.Question) (any, error) {
	if preset, ok := b.lookupPreset(question.Path); ok {
		slog.Debug("Using preset answer", "question", question.Path.String())
		return presetAnswer(question, preset)
	}

	if b.useDefaults {
		if value, ok := defaultAnswer(question); ok {
			return value, nil
		}
	}

	return b.prompt(ctx, question)
}

func (b *contextBuilder) lookupPreset(path m.QuestionPath) (any, bool) {
	if len(b.presets) == 0 {
		return nil, false
	}

	if value, ok := b.presets[path.String()]; ok && value != nil {
		return value, true
	}

	expr := jp.R()
	for _, segment := range path {
		expr = expr.C(segment)
	}

	value := expr.First(b.presets)

	return value, value != nil
}

func defaultAnswer(question m.Question) (any, bool) {
	switch spec := question.Spec.(type) {
	case *m.IdentifierSpec:
		return derefOK(spec.Default)
	case *m.TextSpec:
		return derefOK(spec.Default)
	case *m.CustomSpec:
		return derefOK(spec.Default)
	case *m.OptionSpec:
		return derefOK(spec.Default)
	case *m.SelectionSpec:
		if len(spec.Default) == 0 && spec.Multi {
			return map[string]any{}, true
		}

		if len(spec.Default) == 0 {
			return nil, false
		}

		return selectionValue(spec.Default), true
	default:
		return nil, false
	}
}

func derefOK[T any](value *T) (any, bool) {
	if value == nil {
		return nil, false
	}

	return *value, true
}

func (b *contextBuilder) prompt(ctx context.Context, question m.Question) (any, error) {
	label := question.Label()

	switch spec := question.Spec.(type) {
	case *m.IdentifierSpec:
		return b.input(ctx, label, spec.Default, "", func(s string) error {
			if !pattern.IsDottedIdentifier(s) {
				return fmt.Errorf("%q is not a valid identifier", s)
			}

			return nil
		})
	case *m.TextSpec:
		return b.input(ctx, label, spec.Default, "", nil)
	case *m.CustomSpec:
		format := spec.Format.String()

		return b.input(ctx, fmt.Sprintf("%s (%s)", label, format), spec.Default, "Expected format: "+format, func(s string) error {
			if !spec.Format.MatchString(s) {
				return fmt.Errorf("%q does not match %s", s, format)
			}

			return nil
		})
	case *m.OptionSpec:
		def := false
		if spec.Default != nil {
			def = *spec.Default
		}

		return b.prompter.Confirm(ctx, adapter.ConfirmConfig{Message: label, Default: def})
	case *m.SelectionSpec:
		return b.selection(ctx, label, spec)
	default:
		return nil, fmt.Errorf("unsupported question type %T", question.Spec)
	}
}

func (b *contextBuilder) input(ctx context.Context, label string, def *string, help string, validate func(string) error) (string, error) {
	cfg := adapter.InputConfig{Message: label, Help: help, Validator: validate}
	if def != nil {
		cfg.Default = *def
	}

	value, err := b.prompter.Input(ctx, cfg)
	if err != nil {
		return "", err
	}

	if value == "" && def != nil {
		value = *def
	}

	if validate != nil {
		if err := validate(value); err != nil {
			return "", err
		}
	}

	return value, nil
}

func (b *contextBuilder) selection(ctx context.Context, label string, spec *m.SelectionSpec) (map[string]any, error) {
	cfg := adapter.SelectConfig{
		Message:  label,
		Options:  spec.Items,
		Defaults: itemIndices(spec.Items, spec.Default),
	}

	if !spec.Multi {
		idx, err := b.prompter.Select(ctx, cfg)
		if err != nil {
			return nil, err
		}

		if idx < 0 || idx >= len(spec.Items) {
			return nil, fmt.Errorf("selection index %d out of range", idx)
		}

		return selectionValue([]string{spec.Items[idx]}), nil
	}

	indices, err := b.prompter.MultiSelect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chosen := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(spec.Items) {
			return nil, fmt.Errorf("selection index %d out of range", idx)
		}

		chosen = append(chosen, spec.Items[idx])
	}

	return selectionValue(chosen), nil
}

func itemIndices(items, chosen []string) []int {
	var out []int

	for _, c := range chosen {
		for i, item := range items {
			if item == c {
				out = append(out, i)
				break
			}
		}
	}

	return out
}

// selectionValue maps every chosen item to true.
func selectionValue(chosen []string) map[string]any {
	value := make(map[string]any, len(chosen))
	for _, item := range chosen {
		value[item] = true
	}

	return value
}

// presetAnswer checks a preset against the question and converts it to the
// value stored in the context.
func presetAnswer(question m.Question, preset any) (any, error) {
	switch spec := question.Spec.(type) {
	case *m.IdentifierSpec:
		s, ok := preset.(string)
		if !ok || !pattern.IsDottedIdentifier(s) {
			return nil, fmt.Errorf("preset %v is not an identifier", preset)
		}

		return s, nil
	case *m.TextSpec:
		return scalarString(preset)
	case *m.CustomSpec:
		s, err := scalarString(preset)
		if err != nil {
			return nil, err
		}

		if !spec.Format.MatchString(s) {
			return nil, fmt.Errorf("preset %q does not match %s", s, spec.Format.String())
		}

		return s, nil
	case *m.OptionSpec:
		v, ok := preset.(bool)
		if !ok {
			return nil, fmt.Errorf("preset %v is not a boolean", preset)
		}

		return v, nil
	case *m.SelectionSpec:
		return presetSelection(spec, preset)
	default:
		return nil, fmt.Errorf("unsupported question type %T", question.Spec)
	}
}

func scalarString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool, int, int64, float64, uint64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("preset %v is not a scalar", value)
	}
}

func presetSelection(spec *m.SelectionSpec, preset any) (map[string]any, error) {
	var chosen []string

	switch v := preset.(type) {
	case string:
		chosen = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("preset item %v is not a string", item)
			}

			chosen = append(chosen, s)
		}
	default:
		return nil, fmt.Errorf("preset %v is not a string or a list", preset)
	}

	if !spec.Multi && len(chosen) != 1 {
		return nil, fmt.Errorf("single selection needs exactly one item, got %d", len(chosen))
	}

	if len(itemIndices(spec.Items, chosen)) != len(chosen) {
		return nil, fmt.Errorf("preset %v contains unknown items, expected some of %v", chosen, spec.Items)
	}

	return selectionValue(chosen), nil
}

// FormatContext renders the context as indented JSON with sorted keys.
func FormatContext(answers m.AnswerContext) string {
	return oj.JSON(answers.Data(), &ojg.Options{Indent: 2, Sort: true})
}
