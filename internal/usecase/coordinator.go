package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sportswire/internal/cache"
	"sportswire/internal/domain"
	"sportswire/internal/metrics"
	"sportswire/internal/ports"
)

// Coordinator owns the read-through/write-through protocol around the
// pipeline: it decides reuse versus recomputation per (user, window) key,
// serializes runs per user, and tracks the cancel handle of each active run
// so a halt request reaches the right one.
type Coordinator struct {
	pipeline *Pipeline
	cache    *cache.Store
	notifier ports.Notifier
	logger   *slog.Logger

	mu   sync.Mutex
	runs map[int64]*userRun
}

// userRun serializes pipeline runs for a single user. Two concurrent
// requests for the same user would otherwise race past the dedup check and
// the cache write.
type userRun struct {
	gate   sync.Mutex
	cancel context.CancelCauseFunc
}

// Result is what the coordinator hands to the HTTP surface.
type Result struct {
	Status     domain.RunStatus
	Cached     bool
	ComputedAt time.Time
	Stories    []domain.NewsStory
}

// NewCoordinator wires the pipeline with the story cache.
func NewCoordinator(pipeline *Pipeline, store *cache.Store, notifier ports.Notifier, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		pipeline: pipeline,
		cache:    store,
		notifier: notifier,
		logger:   logger,
		runs:     map[int64]*userRun{},
	}
}

// TopStories returns the current top stories for (user, window), reusing a
// fresh cached entry when one exists and recomputing otherwise. Only a fully
// successful run overwrites the cache; halted, empty, and failed runs leave
// the previous entry untouched.
func (c *Coordinator) TopStories(ctx context.Context, userID int64, window time.Duration) (Result, error) {
	key := cache.Key{UserID: userID, Window: window}

	run := c.userRun(userID)
	run.gate.Lock()
	defer run.gate.Unlock()

	if entry, ok := c.cache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return Result{
			Status:     domain.StatusOK,
			Cached:     true,
			ComputedAt: entry.ComputedAt,
			Stories:    entry.Stories,
		}, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	runCtx, cancel := context.WithCancelCause(ctx)
	c.setCancel(userID, cancel)
	defer func() {
		c.setCancel(userID, nil)
		cancel(nil)
	}()

	res, err := c.pipeline.Run(runCtx, userID, window)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return Result{}, err
	}
	metrics.PipelineRuns.WithLabelValues(res.Status.String()).Inc()

	if res.Status != domain.StatusOK {
		return Result{Status: res.Status}, nil
	}

	entry := c.cache.Put(key, res.Stories)
	c.publishDigest(res.Stories)

	return Result{
		Status:     domain.StatusOK,
		ComputedAt: entry.ComputedAt,
		Stories:    res.Stories,
	}, nil
}

// Halt cancels the user's active run, if any. Stages observe the halt at
// their next checkpoint; a halt with no run in flight is a no-op.
func (c *Coordinator) Halt(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if run, ok := c.runs[userID]; ok && run.cancel != nil {
		run.cancel(domain.ErrHalted)
	}
}

func (c *Coordinator) userRun(userID int64) *userRun {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, ok := c.runs[userID]
	if !ok {
		run = &userRun{}
		c.runs[userID] = run
	}
	return run
}

func (c *Coordinator) setCancel(userID int64, cancel context.CancelCauseFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[userID].cancel = cancel
}

// publishDigest best-effort pushes a fresh result to the notifier. Failures
// are logged, never surfaced to the caller.
func (c *Coordinator) publishDigest(stories []domain.NewsStory) {
	if c.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.notifier.PublishDigest(ctx, buildDigest(stories)); err != nil && c.logger != nil {
		c.logger.Warn("digest publish failed", "error", err)
	}
}

func buildDigest(stories []domain.NewsStory) string {
	var b strings.Builder
	for _, s := range stories {
		fmt.Fprintf(&b, "*%s*\n%s\n", s.Headline, s.Summary)
		if s.StylizedCaption != "" {
			fmt.Fprintf(&b, "%s\n", s.StylizedCaption)
		}
		b.WriteString("\n")
	}
	return b.String()
}
