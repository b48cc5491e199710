package domain

import m "scaffold.dev/pkg/scaffold/internal/model"

// pathConflictTree records which question paths are answers (leaves) and
// which are namespaces, so one path can never be both.
type pathConflictTree struct {
	root *pathNode
}

type pathNode struct {
	leaf     bool
	children map[string]*pathNode
}

func newPathConflictTree() *pathConflictTree {
	return &pathConflictTree{root: &pathNode{children: map[string]*pathNode{}}}
}

// register adds path and reports whether it was accepted. A path is rejected
// when it equals, extends or prefixes an already registered leaf.
func (t *pathConflictTree) register(path m.QuestionPath) bool {
	if len(path) == 0 || t.conflicts(path) {
		return false
	}

	node := t.root

	for i, segment := range path {
		child, ok := node.children[segment]
		if !ok {
			child = &pathNode{children: map[string]*pathNode{}}
			node.children[segment] = child
		}

		if i == len(path)-1 {
			child.leaf = true
		}

		node = child
	}

	return true
}

func (t *pathConflictTree) conflicts(path m.QuestionPath) bool {
	node := t.root

	for i, segment := range path {
		child, ok := node.children[segment]
		if !ok {
			return false
		}

		if child.leaf {
			return true
		}

		if i == len(path)-1 {
			// path is already a namespace of other answers
			return true
		}

		node = child
	}

	return false
}
