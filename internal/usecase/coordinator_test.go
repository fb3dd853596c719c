package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sportswire/internal/cache"
	"sportswire/internal/domain"
	"sportswire/internal/ports"
)

type fakeNotifier struct {
	mu      sync.Mutex
	digests []string
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.digests = append(f.digests, digest)
	return nil
}

func newCoordinator(sources []ports.SourceAdapter, dedup ports.DedupStore, ranker ports.Ranker, stylizer ports.Stylizer, notifier ports.Notifier) (*Coordinator, *cache.Store) {
	store := cache.New(10 * time.Minute)
	c := NewCoordinator(newPipeline(sources, dedup, ranker, stylizer), store, notifier, nil)
	return c, store
}

func TestTopStoriesEndToEnd(t *testing.T) {
	t.Parallel()

	social := &fakeSource{name: "social", items: []domain.SourceItem{
		item("p1", "fabriziorom", "TeamA signs PlayerX", time.Hour),
	}}
	feed := &fakeSource{name: "rss", items: []domain.SourceItem{
		item("https://g.example/cup", "The Guardian RSS", "Guardian: TeamA wins cup", time.Hour),
	}}
	ranker := &fakeRanker{stories: []domain.NewsStory{
		{Headline: "PlayerX joins TeamA", Summary: "transfer done"},
		{Headline: "TeamA lift the cup", Summary: "cup final win"},
	}}
	stylizer := &fakeStylizer{}
	notifier := &fakeNotifier{}

	c, store := newCoordinator([]ports.SourceAdapter{social, feed}, newFakeDedup(), ranker, stylizer, notifier)

	window := 24 * time.Hour
	result, err := c.TopStories(context.Background(), 1, window)
	if err != nil {
		t.Fatalf("TopStories error: %v", err)
	}
	if result.Status != domain.StatusOK || result.Cached {
		t.Fatalf("expected fresh OK result, got %+v", result)
	}
	if len(result.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(result.Stories))
	}
	for _, story := range result.Stories {
		if story.StylizedCaption == "" {
			t.Fatalf("story %q missing caption", story.Headline)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("expected one cache entry, got %d", store.Len())
	}
	if len(notifier.digests) != 1 || !strings.Contains(notifier.digests[0], "PlayerX joins TeamA") {
		t.Fatalf("digest not published: %v", notifier.digests)
	}

	// A repeat inside the TTL is served verbatim with zero collaborator calls.
	again, err := c.TopStories(context.Background(), 1, window)
	if err != nil {
		t.Fatalf("cached TopStories error: %v", err)
	}
	if !again.Cached || again.ComputedAt != result.ComputedAt {
		t.Fatalf("expected cached result, got %+v", again)
	}
	if social.calls != 1 || feed.calls != 1 || ranker.calls != 1 || stylizer.calls != 2 {
		t.Fatalf("cached hit touched collaborators: sources=%d/%d ranker=%d stylizer=%d",
			social.calls, feed.calls, ranker.calls, stylizer.calls)
	}
}

func TestTopStoriesWindowIsPartOfTheKey(t *testing.T) {
	t.Parallel()

	dedup := newFakeDedup()
	dedup.transient = true // every run sees fresh content
	social := &fakeSource{name: "social", items: []domain.SourceItem{
		item("p1", "fabriziorom", "news", time.Hour),
	}}
	ranker := &fakeRanker{stories: []domain.NewsStory{{Headline: "A", Summary: "s"}}}

	c, _ := newCoordinator([]ports.SourceAdapter{social}, dedup, ranker, &fakeStylizer{}, nil)

	if _, err := c.TopStories(context.Background(), 1, 24*time.Hour); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := c.TopStories(context.Background(), 1, 6*time.Hour); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if ranker.calls != 2 {
		t.Fatalf("a 6h request was served from the 24h entry: ranker calls=%d", ranker.calls)
	}
}

func TestHaltedRunLeavesCacheUntouched(t *testing.T) {
	t.Parallel()

	social := &fakeSource{name: "social", items: []domain.SourceItem{
		item("p1", "fabriziorom", "news", time.Hour),
	}}
	ranker := &fakeRanker{stories: []domain.NewsStory{
		{Headline: "A", Summary: "first"},
		{Headline: "B", Summary: "second"},
	}}

	var c *Coordinator
	stylizer := &fakeStylizer{}
	stylizer.onCall = func(call int) {
		if call == 1 {
			c.Halt(1)
		}
	}

	c, store := newCoordinator([]ports.SourceAdapter{social}, newFakeDedup(), ranker, stylizer, nil)

	result, err := c.TopStories(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("TopStories error: %v", err)
	}
	if result.Status != domain.StatusHalted {
		t.Fatalf("expected halted result, got %+v", result)
	}
	if stylizer.calls != 1 {
		t.Fatalf("enrichment continued past the halt checkpoint: %d calls", stylizer.calls)
	}
	if store.Len() != 0 {
		t.Fatal("halted run wrote a cache entry")
	}
}

func TestHaltDuringIngestion(t *testing.T) {
	t.Parallel()

	var c *Coordinator
	dedup := newFakeDedup()
	social := &fakeSource{name: "social", items: []domain.SourceItem{
		item("p1", "fabriziorom", "news", time.Hour),
	}}
	social.onFetch = func() { c.Halt(1) }
	ranker := &fakeRanker{}

	c, store := newCoordinator([]ports.SourceAdapter{social}, dedup, ranker, &fakeStylizer{}, nil)

	result, err := c.TopStories(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("TopStories error: %v", err)
	}
	if result.Status != domain.StatusHalted {
		t.Fatalf("expected halted result, got %+v", result)
	}
	if dedup.inserts != 0 {
		t.Fatalf("items persisted after the halt checkpoint: %d", dedup.inserts)
	}
	if ranker.calls != 0 {
		t.Fatal("ranking ran after a halted ingestion")
	}
	if store.Len() != 0 {
		t.Fatal("halted run wrote a cache entry")
	}
}

func TestEmptyRankingIsNotCached(t *testing.T) {
	t.Parallel()

	dedup := newFakeDedup()
	dedup.transient = true
	social := &fakeSource{name: "social", items: []domain.SourceItem{
		item("p1", "fabriziorom", "gossip", time.Hour),
	}}
	ranker := &fakeRanker{} // always returns zero stories

	c, store := newCoordinator([]ports.SourceAdapter{social}, dedup, ranker, &fakeStylizer{}, nil)

	result, err := c.TopStories(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("TopStories error: %v", err)
	}
	if result.Status != domain.StatusEmpty {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if store.Len() != 0 {
		t.Fatal("empty result was cached")
	}

	// The next request re-runs the pipeline instead of reading an "empty" entry.
	if _, err := c.TopStories(context.Background(), 1, 0); err != nil {
		t.Fatalf("second TopStories error: %v", err)
	}
	if ranker.calls != 2 {
		t.Fatalf("expected a full re-run, ranker calls=%d", ranker.calls)
	}
}

func TestHaltWithoutActiveRunIsNoop(t *testing.T) {
	t.Parallel()

	c, _ := newCoordinator(nil, newFakeDedup(), &fakeRanker{}, &fakeStylizer{}, nil)
	c.Halt(42) // must not panic
}
