package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"sportswire/internal/domain"
	"sportswire/internal/ports"
)

const excerptLimit = 500

// ArticleService processes a single user-supplied article URL: extract,
// summarize, stylize, persist.
type ArticleService struct {
	extractor  ports.Extractor
	summarizer ports.Summarizer
	stylizer   ports.Stylizer
	dedup      ports.DedupStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewArticleService wires the single-article flow.
func NewArticleService(extractor ports.Extractor, summarizer ports.Summarizer, stylizer ports.Stylizer, dedup ports.DedupStore, logger *slog.Logger) *ArticleService {
	return &ArticleService{
		extractor:  extractor,
		summarizer: summarizer,
		stylizer:   stylizer,
		dedup:      dedup,
		logger:     logger,
		now:        time.Now,
	}
}

// ArticleResult reports the processed story, or that the URL was already
// known to the user. A failed persistence write is reported alongside the
// story rather than discarding the work.
type ArticleResult struct {
	AlreadyKnown bool
	Story        domain.NewsStory
	StorageError string
}

// Process runs the single-URL flow under the (url, userID) dedup key.
func (s *ArticleService) Process(ctx context.Context, userID int64, pageURL string) (ArticleResult, error) {
	known, err := s.dedup.Exists(ctx, userID, pageURL)
	if err != nil {
		return ArticleResult{}, fmt.Errorf("dedup check: %w", err)
	}
	if known {
		return ArticleResult{AlreadyKnown: true}, nil
	}

	text, err := s.extractor.Extract(ctx, pageURL)
	if err != nil {
		return ArticleResult{}, fmt.Errorf("extract article: %w", err)
	}

	story, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return ArticleResult{}, fmt.Errorf("summarize article: %w", err)
	}
	story.SourceExcerpt = excerpt(text)

	caption, err := s.stylizer.Stylize(ctx, story.Summary)
	if err != nil {
		story.StylizationError = stylizationMessage(err)
	} else {
		story.StylizedCaption = caption
	}

	result := ArticleResult{Story: story}
	rec := domain.IngestedRecord{
		UserID:     userID,
		NativeID:   pageURL,
		SourceName: hostOf(pageURL),
		Body:       story.Summary,
		ProducedAt: s.now().UTC(),
	}
	if err := s.dedup.Insert(ctx, rec); err != nil && !errors.Is(err, ports.ErrDuplicate) {
		result.StorageError = fmt.Sprintf("could not save article: %v", err)
		if s.logger != nil {
			s.logger.Error("article save failed", "url", pageURL, "error", err)
		}
	}

	return result, nil
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}
	return u.Host
}
