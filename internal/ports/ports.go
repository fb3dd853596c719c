package ports

import (
	"context"
	"errors"
	"fmt"

	"sportswire/internal/domain"
)

// ErrDuplicate is returned by stores when a unique key already exists.
var ErrDuplicate = errors.New("already exists")

// ErrNotFound is returned by stores when no row matches.
var ErrNotFound = errors.New("not found")

// SourceAdapter pulls a bounded batch of recent candidate items from one
// upstream source. Transport or auth failures must surface as an error, not
// as an empty batch.
type SourceAdapter interface {
	Name() string
	FetchRecent(ctx context.Context) ([]domain.SourceItem, error)
}

// DedupStore records which source items each user has already ingested.
type DedupStore interface {
	Exists(ctx context.Context, userID int64, nativeID string) (bool, error)
	// Insert fails with ErrDuplicate when (nativeID, userID) is taken.
	Insert(ctx context.Context, rec domain.IngestedRecord) error
}

// Ranker asks the analysis model for a bounded, significance-ordered list of
// stories extracted from ingested text.
type Ranker interface {
	Rank(ctx context.Context, content string) ([]domain.NewsStory, error)
}

// Summarizer asks the analysis model to condense a single article body into
// one headline/summary story.
type Summarizer interface {
	Summarize(ctx context.Context, articleText string) (domain.NewsStory, error)
}

// Stylizer rewrites a plain summary into a branded caption via the external
// inference service.
type Stylizer interface {
	Stylize(ctx context.Context, summary string) (string, error)
}

// StylizeStatusError reports a non-success HTTP status from the stylizer.
type StylizeStatusError struct {
	Code int
}

func (e *StylizeStatusError) Error() string {
	return fmt.Sprintf("stylizer returned status %d", e.Code)
}

// ErrInvalidStylizeResponse marks a success reply missing the caption field.
var ErrInvalidStylizeResponse = errors.New("stylizer response missing caption")

// Extractor pulls readable article text out of a web page.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// CaptionStore persists user-saved stylized captions.
type CaptionStore interface {
	// Save fails with ErrDuplicate when the user already saved the headline.
	Save(ctx context.Context, c domain.SavedCaption) (int64, error)
	List(ctx context.Context, userID int64) ([]domain.SavedCaption, error)
	Delete(ctx context.Context, userID, id int64) error
}

// UserStore manages accounts.
type UserStore interface {
	// Create fails with ErrDuplicate when the username is taken.
	Create(ctx context.Context, username, passwordHash string) (domain.User, error)
	LookupByName(ctx context.Context, username string) (domain.User, error)
}

// Notifier pushes a digest of freshly computed stories to an external
// channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
