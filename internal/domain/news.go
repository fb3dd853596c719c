package domain

import (
	"context"
	"errors"
	"time"
)

// SourceItem is a raw candidate unit of content pulled from one source.
// Items are transient: they either become an IngestedRecord or are dropped.
type SourceItem struct {
	NativeID   string
	SourceName string
	Body       string
	ProducedAt time.Time
}

// IngestedRecord is the durable dedup fact: a source item accepted for a
// user. The (NativeID, UserID) pair is unique in storage.
type IngestedRecord struct {
	UserID     int64
	NativeID   string
	SourceName string
	Body       string
	ProducedAt time.Time
}

// NewsStory is a ranked story extracted by the analysis model. Enrichment
// fills in either StylizedCaption or StylizationError, never both.
type NewsStory struct {
	Headline         string `json:"headline"`
	Summary          string `json:"summary"`
	SourceExcerpt    string `json:"sourceExcerpt"`
	StylizedCaption  string `json:"stylizedCaption,omitempty"`
	StylizationError string `json:"stylizationError,omitempty"`
}

// SavedCaption is a stylized caption a user chose to keep.
type SavedCaption struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"-"`
	Headline        string    `json:"headline"`
	Summary         string    `json:"summary"`
	SourceExcerpt   string    `json:"sourceExcerpt"`
	StylizedCaption string    `json:"stylizedCaption"`
	SavedAt         time.Time `json:"savedAt"`
}

// User is an account that owns ingested records and saved captions.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// RunStatus tags the outcome of a pipeline stage or a whole run.
type RunStatus int

const (
	// StatusOK means the stage produced content.
	StatusOK RunStatus = iota
	// StatusEmpty means the stage completed but found nothing new.
	StatusEmpty
	// StatusHalted means the run was stopped by an explicit halt request.
	StatusHalted
)

func (s RunStatus) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusHalted:
		return "halted"
	default:
		return "ok"
	}
}

// ErrHalted is attached as the cancellation cause of a run context when the
// owning user requests a halt.
var ErrHalted = errors.New("run halted by user")

// Halted reports whether ctx was canceled by an explicit halt request, as
// opposed to an ordinary deadline or client disconnect.
func Halted(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrHalted)
}
