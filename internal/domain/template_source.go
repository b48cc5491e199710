package domain

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	m "scaffold.dev/pkg/scaffold/internal/model"
)

// ErrInvalidTemplateSource is returned for repository arguments that are
// neither a local path nor a git URL.
var ErrInvalidTemplateSource = errors.New("invalid template source")

var (
	remoteSchemes = map[string]struct{}{"http": {}, "https": {}, "ssh": {}, "git": {}}
	scpLikeRegex  = regexp.MustCompile(`^(?:[\w.-]+@)?[\w.-]+:[^/\\].*$`)
)

// ParseTemplateSource classifies raw as a local directory or a remote git
// repository and derives the repository name.
func ParseTemplateSource(raw string) (m.TemplateSource, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return m.TemplateSource{}, fmt.Errorf("%w: empty repository", ErrInvalidTemplateSource)
	}

	if strings.Contains(trimmed, "://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return m.TemplateSource{}, fmt.Errorf("%w: %w", ErrInvalidTemplateSource, err)
		}

		return parseURLSource(trimmed, u)
	}

	if scpLikeRegex.MatchString(trimmed) {
		path := trimmed[strings.Index(trimmed, ":")+1:]

		return m.TemplateSource{
			Raw:      raw,
			Kind:     m.SourceRemote,
			Location: trimmed,
			RepoName: repoName(path),
		}, nil
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return m.TemplateSource{}, fmt.Errorf("%w: %s: %w", ErrInvalidTemplateSource, raw, err)
	}

	return m.TemplateSource{
		Raw:      raw,
		Kind:     m.SourceLocal,
		Location: abs,
		RepoName: repoName(abs),
	}, nil
}

func parseURLSource(raw string, u *url.URL) (m.TemplateSource, error) {
	scheme := strings.ToLower(u.Scheme)

	if scheme == "file" {
		if u.Path == "" {
			return m.TemplateSource{}, fmt.Errorf("%w: %s has no path", ErrInvalidTemplateSource, raw)
		}

		path := filepath.Clean(filepath.FromSlash(u.Path))

		return m.TemplateSource{Raw: raw, Kind: m.SourceLocal, Location: path, RepoName: repoName(path)}, nil
	}

	if _, ok := remoteSchemes[scheme]; !ok {
		return m.TemplateSource{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTemplateSource, u.Scheme)
	}

	if u.Host == "" {
		return m.TemplateSource{}, fmt.Errorf("%w: %s has no host", ErrInvalidTemplateSource, raw)
	}

	name := repoName(u.Path)
	if name == "" {
		return m.TemplateSource{}, fmt.Errorf("%w: %s has no repository path", ErrInvalidTemplateSource, raw)
	}

	return m.TemplateSource{Raw: raw, Kind: m.SourceRemote, Location: raw, RepoName: name}, nil
}

// repoName is the last path segment without a trailing ".git".
func repoName(path string) string {
	path = strings.TrimRight(filepath.ToSlash(path), "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}

	return strings.TrimSuffix(path, ".git")
}
