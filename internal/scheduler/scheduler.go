// Package scheduler fans the render pipeline out over groups,
// sequentially or one concurrent job per group, and aggregates
// per-group failures without letting them touch sibling groups.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"reelpress/internal/pipeline"
	"reelpress/internal/types"
)

// lockFileName is created inside each group directory while a job owns
// that subtree. Directory partitioning is the real isolation; the lock
// just turns accidental overlap into a visible per-group error.
const lockFileName = ".reelpress.lock"

// RunFunc processes one group. pipeline.Runner.Run satisfies it.
type RunFunc func(ctx context.Context, group types.Group) (pipeline.Result, error)

// GroupError pairs a failed group with its error.
type GroupError struct {
	Key string
	Err error
}

func (e GroupError) Error() string { return fmt.Sprintf("group %s: %v", e.Key, e.Err) }

// Outcome is the aggregate of one scheduling pass.
type Outcome struct {
	Results  []pipeline.Result
	Failures []GroupError
}

// OK reports whether every group succeeded.
func (o Outcome) OK() bool { return len(o.Failures) == 0 }

// Run processes all groups. With parallel set, each group gets its own
// goroutine driving its own external encode processes; groups share
// nothing but the filesystem, and each owns a disjoint subtree.
func Run(ctx context.Context, logger *slog.Logger, groups []types.Group, parallel bool, run RunFunc) Outcome {
	if !parallel {
		var out Outcome
		for _, group := range groups {
			res, err := runLocked(ctx, group, run)
			collect(&out, group, res, err, logger)
		}
		return out
	}

	var (
		mu  sync.Mutex
		out Outcome
		wg  sync.WaitGroup
	)
	for _, group := range groups {
		wg.Add(1)
		go func(group types.Group) {
			defer wg.Done()
			res, err := runLocked(ctx, group, run)
			mu.Lock()
			defer mu.Unlock()
			collect(&out, group, res, err, logger)
		}(group)
	}
	wg.Wait()

	// Goroutine completion order is arbitrary; keep reporting stable.
	sort.Slice(out.Results, func(i, j int) bool { return out.Results[i].Group < out.Results[j].Group })
	sort.Slice(out.Failures, func(i, j int) bool { return out.Failures[i].Key < out.Failures[j].Key })
	return out
}

func collect(out *Outcome, group types.Group, res pipeline.Result, err error, logger *slog.Logger) {
	if err != nil {
		logger.Error("group pipeline failed", "group", group.Key, "error", err)
		out.Failures = append(out.Failures, GroupError{Key: group.Key, Err: err})
		return
	}
	out.Results = append(out.Results, res)
}

// runLocked guards the group subtree with a file lock for the duration
// of the pipeline run. A held lock means another process (or a
// misconfigured overlapping schedule) owns the directory.
func runLocked(ctx context.Context, group types.Group, run RunFunc) (pipeline.Result, error) {
	lock := flock.New(filepath.Join(group.Dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return pipeline.Result{Group: group.Key}, fmt.Errorf("lock group dir: %w", err)
	}
	if !ok {
		return pipeline.Result{Group: group.Key}, fmt.Errorf("group dir is locked by another run")
	}
	defer lock.Unlock()

	return run(ctx, group)
}
