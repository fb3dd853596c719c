package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sportswire/internal/domain"
	"sportswire/internal/metrics"
	"sportswire/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Ingester *Ingester
	Ranker   ports.Ranker
	Stylizer ports.Stylizer
	Logger   *slog.Logger
}

// Pipeline executes one full ingestion → ranking → enrichment run.
type Pipeline struct {
	ingester *Ingester
	ranker   ports.Ranker
	stylizer ports.Stylizer
	logger   *slog.Logger
}

// RunResult is the tagged outcome of a run.
type RunResult struct {
	Status  domain.RunStatus
	Stories []domain.NewsStory
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		ingester: deps.Ingester,
		ranker:   deps.Ranker,
		stylizer: deps.Stylizer,
		logger:   deps.Logger,
	}
}

// Run drains the sources, ranks whatever is new, and enriches the ranked
// stories. It returns ErrNoNewContent when ingestion accepted nothing, a
// StatusEmpty result when the model found nothing significant, and a
// StatusHalted result when the user stopped the run at any checkpoint.
func (p *Pipeline) Run(ctx context.Context, userID int64, window time.Duration) (RunResult, error) {
	content, status, err := p.ingester.Collect(ctx, userID, window)
	if err != nil {
		return RunResult{}, fmt.Errorf("ingest: %w", err)
	}
	if status == domain.StatusHalted {
		return RunResult{Status: domain.StatusHalted}, nil
	}
	if status == domain.StatusEmpty {
		return RunResult{}, ErrNoNewContent
	}

	start := time.Now()
	stories, err := p.ranker.Rank(ctx, content)
	metrics.RankDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return RunResult{}, fmt.Errorf("rank stories: %w", err)
	}
	if len(stories) == 0 {
		p.debug("no significant stories found")
		return RunResult{Status: domain.StatusEmpty}, nil
	}

	status = p.enrich(ctx, stories)
	return RunResult{Status: status, Stories: stories}, nil
}

// enrich attaches a stylized caption, or an explanatory stand-in, to every
// story in rank order. No per-story failure aborts the batch; only a halt
// stops the loop, leaving the remaining stories unenriched.
func (p *Pipeline) enrich(ctx context.Context, stories []domain.NewsStory) domain.RunStatus {
	for i := range stories {
		if domain.Halted(ctx) {
			return domain.StatusHalted
		}

		caption, err := p.stylizer.Stylize(ctx, stories[i].Summary)
		if err != nil {
			metrics.StylizeCalls.WithLabelValues("error").Inc()
			stories[i].StylizationError = stylizationMessage(err)
			p.debug("stylization failed", "headline", stories[i].Headline, "error", err)
			continue
		}

		metrics.StylizeCalls.WithLabelValues("ok").Inc()
		stories[i].StylizedCaption = caption
	}
	return domain.StatusOK
}

// stylizationMessage maps a stylizer error onto the user-visible stand-in
// recorded on the story.
func stylizationMessage(err error) string {
	var statusErr *ports.StylizeStatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Error: Server returned status %d", statusErr.Code)
	case errors.Is(err, ports.ErrInvalidStylizeResponse):
		return "Error: Invalid response from server."
	default:
		return "Error: Could not connect to inference server."
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
