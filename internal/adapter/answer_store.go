package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

// AnswerStore loads preset answers for non-interactive runs.
type AnswerStore interface {
	// Load returns the answers stored at path. Keys may be nested maps or
	// dotted question names.
	Load(path m.Path) (map[string]any, error)
}

// YAMLAnswerStore reads answers from a YAML document.
type YAMLAnswerStore struct{}

// NewYAMLAnswerStore constructs a YAMLAnswerStore.
func NewYAMLAnswerStore() *YAMLAnswerStore {
	return &YAMLAnswerStore{}
}

// Load parses the YAML file at path. An empty document yields an empty map.
func (s *YAMLAnswerStore) Load(path m.Path) (map[string]any, error) {
	// #nosec G304 - path is supplied by the user on purpose
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file: %w", err)
	}

	answers := map[string]any{}
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}

	if answers == nil {
		answers = map[string]any{}
	}

	return answers, nil
}
