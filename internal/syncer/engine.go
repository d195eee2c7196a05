// Package syncer coordinates one incremental sync pass: fetch the
// newest page of a feed, publish everything newer than the watermark,
// and advance the watermark once at the end.
package syncer

import (
	"context"
	"fmt"
	"strings"
)

// DefaultTitleLimit bounds issue titles derived from post content.
const DefaultTitleLimit = 60

// Item is the per-entry outcome of fetching and normalizing one feed
// entry. Exactly one of the three shapes applies: an error, a skip
// (repost or filtered), or publishable content with a timestamp.
type Item struct {
	Content   string
	CreatedAt int64
	Skipped   bool
	Err       error
}

// Source produces the newest page of feed entries, newest first. The
// engine relies on that ordering for its early-stop rule and does not
// re-sort. A page-level failure aborts the run.
type Source interface {
	FirstPage(ctx context.Context) ([]Item, error)
}

// Publisher creates one tracked issue per published post. Failures are
// per-post, not fatal.
type Publisher interface {
	CreateIssue(ctx context.Context, title, body string) error
}

// WatermarkStore persists the timestamp of the newest post handled by
// the most recent run. The boolean reports whether a watermark exists.
type WatermarkStore interface {
	Watermark(ctx context.Context) (int64, bool, error)
	SetWatermark(ctx context.Context, ts int64) error
}

// Engine runs the fetch-filter-publish pass.
type Engine struct {
	source     Source
	publisher  Publisher
	store      WatermarkStore
	titleLimit int
}

// Summary describes what one run did.
type Summary struct {
	Fetched   int
	Published int
	Skipped   int
	Failed    int // publish attempts that errored; these still advance the watermark
	Watermark int64
	Advanced  bool
}

// New creates an engine. titleLimit <= 0 selects DefaultTitleLimit.
func New(source Source, publisher Publisher, store WatermarkStore, titleLimit int) *Engine {
	if titleLimit <= 0 {
		titleLimit = DefaultTitleLimit
	}
	return &Engine{
		source:     source,
		publisher:  publisher,
		store:      store,
		titleLimit: titleLimit,
	}
}

// Run performs one sync pass. A feed fetch failure is fatal; everything
// per-item is logged and survived. Publish failures still advance the
// watermark, so delivery is at-most-once: a post can be dropped on a
// transient failure but is never re-emitted as a duplicate.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	watermark, hasWatermark, err := e.store.Watermark(ctx)
	if err != nil {
		// Degrade to "no filter": favors completeness on a first run or
		// after store corruption over aborting.
		fmt.Printf("warning: read watermark: %v (processing all posts)\n", err)
		hasWatermark = false
	}

	items, err := e.source.FirstPage(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch feed: %w", err)
	}

	summary := Summary{Fetched: len(items)}

	for _, item := range items {
		if item.Err != nil {
			fmt.Printf("warning: normalize post: %v\n", item.Err)
			continue
		}

		// Entries arrive newest first, so everything from here on is
		// already synced.
		if hasWatermark && item.CreatedAt <= watermark {
			break
		}

		if item.Skipped {
			summary.Skipped++
			continue
		}

		if err := e.publisher.CreateIssue(ctx, title(item.Content, e.titleLimit), item.Content); err != nil {
			fmt.Printf("warning: create issue: %v\n", err)
			summary.Failed++
		} else {
			summary.Published++
		}

		// Attempted posts count toward the watermark whether or not the
		// publish succeeded.
		if !summary.Advanced || item.CreatedAt > summary.Watermark {
			summary.Watermark = item.CreatedAt
			summary.Advanced = true
		}
	}

	if summary.Advanced {
		if err := e.store.SetWatermark(ctx, summary.Watermark); err != nil {
			fmt.Printf("warning: persist watermark %d: %v\n", summary.Watermark, err)
		}
	}

	return summary, nil
}

// title derives a bounded issue title from the first line of content.
func title(content string, limit int) string {
	line, _, _ := strings.Cut(content, "\n")
	return firstNRunes(line, limit)
}

func firstNRunes(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
