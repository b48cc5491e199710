package model

// FileInfo is the per-file metadata exposed as __template__.file while a
// file is rendered.
type FileInfo struct {
	RootDir    string
	SourceName string
	SourcePath string
	TargetName string
	TargetPath string
}

// AnswerContext is the value tree built from answers. It is not modified
// after construction.
type AnswerContext struct {
	data map[string]any
}

// NewAnswerContext wraps data. The caller must not modify data afterwards.
func NewAnswerContext(data map[string]any) AnswerContext {
	if data == nil {
		data = map[string]any{}
	}

	return AnswerContext{data: data}
}

// Data returns the underlying tree. It must be treated as read-only.
func (c AnswerContext) Data() map[string]any {
	if c.data == nil {
		return map[string]any{}
	}

	return c.data
}

// ForFile returns a shallow copy of the tree with __template__.file set to
// info. The shared tree is left untouched.
func (c AnswerContext) ForFile(info FileInfo) map[string]any {
	derived := make(map[string]any, len(c.data)+1)
	for k, v := range c.data {
		derived[k] = v
	}

	meta := map[string]any{}
	if existing, ok := c.data[TemplateNamespace].(map[string]any); ok {
		for k, v := range existing {
			meta[k] = v
		}
	}

	meta["file"] = map[string]any{
		"rootDir":    info.RootDir,
		"sourceName": info.SourceName,
		"sourcePath": info.SourcePath,
		"targetName": info.TargetName,
		"targetPath": info.TargetPath,
	}
	derived[TemplateNamespace] = meta

	return derived
}
