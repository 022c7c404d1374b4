package site

import (
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// Matcher matches object keys against doublestar globs.
type Matcher struct {
	patterns []string
}

func NewMatcher(patterns []string) Matcher {
	clean := make([]string, 0, len(patterns))
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		clean = append(clean, p)
	}
	return Matcher{patterns: clean}
}

func (m Matcher) Empty() bool {
	return len(m.patterns) == 0
}

func (m Matcher) Match(key string) bool {
	for _, pattern := range m.patterns {
		if ok, _ := doublestar.Match(pattern, key); ok {
			return true
		}
	}
	return false
}

// IgnoreList holds gitignore-style rules for local files that must not be uploaded.
type IgnoreList struct {
	ignore *gitignore.GitIgnore
}

// LoadIgnoreFile compiles the rules in path. A missing file yields an empty list.
func LoadIgnoreFile(path string) (*IgnoreList, error) {
	if path == "" {
		return &IgnoreList{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &IgnoreList{}, nil
		}
		return nil, err
	}

	ignore, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded ignore file", "path", path)
	return &IgnoreList{ignore: ignore}, nil
}

func NewIgnoreList(lines ...string) *IgnoreList {
	return &IgnoreList{ignore: gitignore.CompileIgnoreLines(lines...)}
}

func (l *IgnoreList) ShouldIgnore(key string) bool {
	if l == nil || l.ignore == nil {
		return false
	}
	return l.ignore.MatchesPath(key)
}
