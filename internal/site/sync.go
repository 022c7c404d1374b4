package site

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"s3site/internal/storage"
)

type Options struct {
	// Workers bounds concurrent uploads. Values below 1 mean sequential.
	Workers int
	Exclude Matcher
	// Keep protects matching remote keys from pruning.
	Keep   Matcher
	Ignore *IgnoreList
	DryRun bool

	Reporter Reporter
	Logger   *slog.Logger
}

type Result struct {
	Uploaded []string
	Pruned   []string
	Bytes    int64
	DryRun   bool
}

// Syncer mirrors a local directory into an ObjectStore.
type Syncer struct {
	store storage.ObjectStore
	opts  Options
}

func NewSyncer(store storage.ObjectStore, opts Options) *Syncer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Syncer{store: store, opts: opts}
}

// Sync uploads every file under localRoot, then deletes remote keys that were not
// uploaded in this run. The remote listing happens only after all uploads finished.
// The first error aborts the run.
func (s *Syncer) Sync(ctx context.Context, localRoot string) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("object store is required")
	}

	files, err := ListFiles(localRoot, s.skip)
	if err != nil {
		return Result{}, fmt.Errorf("%w: enumerate %s: %w", storage.ErrLocalRead, localRoot, err)
	}
	s.opts.Logger.Debug("enumerated site", "root", localRoot, "files", len(files))

	uploaded := mapset.NewSet[string]()
	var bytes atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !s.opts.DryRun {
				if err := s.store.PutFile(gctx, f.Path, f.Key, f.ContentType); err != nil {
					return fmt.Errorf("upload %s: %w", f.Key, err)
				}
			}
			uploaded.Add(f.Key)
			bytes.Add(f.Size)
			s.opts.Reporter.Uploaded(f.Key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	result := Result{
		Uploaded: sortedSlice(uploaded),
		Bytes:    bytes.Load(),
		DryRun:   s.opts.DryRun,
	}

	remote, err := s.store.ListKeys(ctx)
	if err != nil {
		return result, fmt.Errorf("list object keys: %w", err)
	}

	orphans := mapset.NewSet(remote...).Difference(uploaded)
	toPrune := make([]string, 0, orphans.Cardinality())
	for _, key := range sortedSlice(orphans) {
		if s.opts.Keep.Match(key) {
			s.opts.Logger.Debug("keeping remote object", "key", key)
			continue
		}
		toPrune = append(toPrune, key)
	}
	if len(toPrune) == 0 {
		result.Pruned = []string{}
		return result, nil
	}

	s.opts.Reporter.Orphans(toPrune)
	s.opts.Logger.Info("pruning remote objects", "count", len(toPrune), "dry_run", s.opts.DryRun)

	pruned := make([]string, 0, len(toPrune))
	for _, key := range toPrune {
		if !s.opts.DryRun {
			if err := s.store.DeleteObject(ctx, key); err != nil {
				result.Pruned = pruned
				return result, fmt.Errorf("delete object %s: %w", key, err)
			}
		}
		pruned = append(pruned, key)
		s.opts.Reporter.Removed(key)
	}
	result.Pruned = pruned
	return result, nil
}

func (s *Syncer) skip(key string) bool {
	return s.opts.Exclude.Match(key) || s.opts.Ignore.ShouldIgnore(key)
}

func sortedSlice(set mapset.Set[string]) []string {
	out := set.ToSlice()
	sort.Strings(out)
	return out
}
