package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sportswire/internal/domain"
	"sportswire/internal/metrics"
	"sportswire/internal/ports"
)

// ErrNoNewContent is returned by a run when every source was drained but
// nothing new was accepted for the user.
var ErrNoNewContent = errors.New("no new content across sources")

// Ingester drains the configured sources in fixed order, filters by recency
// and dedup state, persists accepted items, and emits their text for the
// analysis stage.
type Ingester struct {
	sources []ports.SourceAdapter
	dedup   ports.DedupStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewIngester wires the source adapters with the dedup store.
func NewIngester(sources []ports.SourceAdapter, dedup ports.DedupStore, logger *slog.Logger) *Ingester {
	return &Ingester{
		sources: sources,
		dedup:   dedup,
		logger:  logger,
		now:     time.Now,
	}
}

// Collect returns the concatenated fragments of all newly accepted items in
// source-then-item order. Already persisted items are never rolled back on a
// halt; the caller must not cache the partial run.
func (i *Ingester) Collect(ctx context.Context, userID int64, window time.Duration) (string, domain.RunStatus, error) {
	var minTimestamp time.Time
	if window > 0 {
		minTimestamp = i.now().UTC().Add(-window)
	}

	var fragments strings.Builder
	failed := 0
	for _, src := range i.sources {
		if domain.Halted(ctx) {
			return "", domain.StatusHalted, nil
		}

		items, err := src.FetchRecent(ctx)
		if err != nil {
			if domain.Halted(ctx) {
				return "", domain.StatusHalted, nil
			}
			failed++
			i.warn("source fetch failed", "source", src.Name(), "error", err)
			continue
		}

		status, err := i.drainSource(ctx, src.Name(), items, userID, minTimestamp, &fragments)
		if err != nil {
			return "", domain.StatusOK, err
		}
		if status == domain.StatusHalted {
			return "", domain.StatusHalted, nil
		}
	}

	if failed > 0 && failed == len(i.sources) {
		return "", domain.StatusOK, fmt.Errorf("all %d sources failed", failed)
	}

	if fragments.Len() == 0 {
		return "", domain.StatusEmpty, nil
	}
	return fragments.String(), domain.StatusOK, nil
}

// drainSource walks the candidates in adapter order. Candidate order inside
// a source and source order across sources frame the analysis prompt and
// must be preserved.
func (i *Ingester) drainSource(ctx context.Context, sourceName string, items []domain.SourceItem, userID int64, minTimestamp time.Time, fragments *strings.Builder) (domain.RunStatus, error) {
	for _, item := range items {
		if domain.Halted(ctx) {
			return domain.StatusHalted, nil
		}

		producedAt := item.ProducedAt.UTC()
		if !minTimestamp.IsZero() && producedAt.Before(minTimestamp) {
			metrics.ItemsIngested.WithLabelValues(sourceName, "stale").Inc()
			continue
		}

		if strings.TrimSpace(item.Body) == "" {
			metrics.ItemsIngested.WithLabelValues(sourceName, "empty").Inc()
			continue
		}

		known, err := i.dedup.Exists(ctx, userID, item.NativeID)
		if err != nil {
			return domain.StatusOK, fmt.Errorf("dedup check %s: %w", item.NativeID, err)
		}
		if known {
			metrics.ItemsIngested.WithLabelValues(sourceName, "duplicate").Inc()
			continue
		}

		err = i.dedup.Insert(ctx, domain.IngestedRecord{
			UserID:     userID,
			NativeID:   item.NativeID,
			SourceName: item.SourceName,
			Body:       item.Body,
			ProducedAt: producedAt,
		})
		if errors.Is(err, ports.ErrDuplicate) {
			// Lost a race with a concurrent run; the item is known now.
			metrics.ItemsIngested.WithLabelValues(sourceName, "duplicate").Inc()
			continue
		}
		if err != nil {
			return domain.StatusOK, fmt.Errorf("persist %s: %w", item.NativeID, err)
		}

		metrics.ItemsIngested.WithLabelValues(sourceName, "accepted").Inc()
		fmt.Fprintf(fragments, "- @%s: %s\n", item.SourceName, item.Body)
	}
	return domain.StatusOK, nil
}

func (i *Ingester) warn(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}
