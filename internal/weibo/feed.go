package weibo

import (
	"context"
	"regexp"

	"github.com/weibosync/weibosync/internal/filter"
	"github.com/weibosync/weibosync/internal/syncer"
)

// Feed adapts the API client to the sync engine: one page fetch plus
// per-entry normalization, each entry reported as its own outcome.
type Feed struct {
	client  *Client
	uid     string
	exclude []*regexp.Regexp
}

// NewFeed wires a client to one account. exclude may be nil; matching
// posts are skipped like reposts.
func NewFeed(client *Client, uid string, exclude []*regexp.Regexp) *Feed {
	return &Feed{client: client, uid: uid, exclude: exclude}
}

// FirstPage fetches and normalizes page 1 of the account's feed. A page
// fetch failure is returned as the error; normalization failures are
// carried per item so the engine can skip them individually.
func (f *Feed) FirstPage(ctx context.Context) ([]syncer.Item, error) {
	raws, err := f.client.FirstPage(ctx, f.uid)
	if err != nil {
		return nil, err
	}

	items := make([]syncer.Item, 0, len(raws))
	for _, raw := range raws {
		post, err := f.client.Normalize(ctx, f.uid, raw)
		if err != nil {
			items = append(items, syncer.Item{Err: err})
			continue
		}

		skipped := post.Skipped
		if !skipped && filter.Excluded(post.Content, f.exclude) {
			skipped = true
		}

		items = append(items, syncer.Item{
			Content:   post.Content,
			CreatedAt: post.CreatedAt,
			Skipped:   skipped,
		})
	}
	return items, nil
}
