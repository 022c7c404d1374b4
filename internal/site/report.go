package site

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Reporter receives progress from a sync run.
type Reporter interface {
	Uploaded(key string)
	Orphans(keys []string)
	Removed(key string)
}

type nopReporter struct{}

func (nopReporter) Uploaded(string)  {}
func (nopReporter) Orphans([]string) {}
func (nopReporter) Removed(string)   {}

// TextReporter writes one line per object. Safe for concurrent use.
type TextReporter struct {
	mu     sync.Mutex
	w      io.Writer
	dryRun bool
}

func NewTextReporter(w io.Writer, dryRun bool) *TextReporter {
	return &TextReporter{w: w, dryRun: dryRun}
}

func (r *TextReporter) Uploaded(key string) {
	r.printf("uploading %s...%s\n", key, r.outcome())
}

func (r *TextReporter) Orphans(keys []string) {
	r.printf("Files on remote that were not uploaded: %s\n", strings.Join(keys, ", "))
}

func (r *TextReporter) Removed(key string) {
	r.printf("removing %s...%s\n", key, r.outcome())
}

func (r *TextReporter) outcome() string {
	if r.dryRun {
		return "skipped (dry run)"
	}
	return "done"
}

func (r *TextReporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}
