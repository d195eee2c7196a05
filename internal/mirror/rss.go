// Package mirror reads an account through an RSSHub-style RSS mirror
// feed, an alternate fetch path for when cookie auth to the Weibo API
// is unavailable. It produces the same per-item results the sync
// engine consumes.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/weibosync/weibosync/internal/filter"
	"github.com/weibosync/weibosync/internal/syncer"
)

const (
	fetchTimeout = 30 * time.Second
	userAgent    = "Mozilla/5.0 (compatible; weibosync/1.0)"

	zeroWidthSpace = "\u200b"
)

// Feed is one mirror feed URL.
type Feed struct {
	feedURL string
	exclude []*regexp.Regexp
	timeout time.Duration
}

// NewFeed creates a mirror source. exclude may be nil.
func NewFeed(feedURL string, exclude []*regexp.Regexp, timeout time.Duration) (*Feed, error) {
	if strings.TrimSpace(feedURL) == "" {
		return nil, errors.New("mirror: feed URL is required")
	}
	if timeout <= 0 {
		timeout = fetchTimeout
	}
	return &Feed{feedURL: feedURL, exclude: exclude, timeout: timeout}, nil
}

// FirstPage fetches the feed and returns its entries newest first.
func (f *Feed) FirstPage(ctx context.Context) ([]syncer.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = &http.Client{Timeout: f.timeout}

	feed, err := fp.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch mirror %s: %w", f.feedURL, err)
	}

	type dated struct {
		item *gofeed.Item
		at   time.Time
	}
	entries := make([]dated, 0, len(feed.Items))
	var undated []*gofeed.Item
	for _, item := range feed.Items {
		at := publishedTime(item)
		if at.IsZero() {
			undated = append(undated, item)
			continue
		}
		entries = append(entries, dated{item: item, at: at})
	}

	// The engine requires newest-first ordering; mirror feeds do not
	// all guarantee it, so re-sort here.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.After(entries[j].at)
	})

	items := make([]syncer.Item, 0, len(entries)+len(undated))
	for _, e := range entries {
		items = append(items, f.normalize(e.item, e.at))
	}
	for _, item := range undated {
		items = append(items, syncer.Item{Err: fmt.Errorf("mirror item %s: missing publish time", itemID(item))})
	}
	return items, nil
}

func (f *Feed) normalize(item *gofeed.Item, at time.Time) syncer.Item {
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}

	text, images, err := extract(raw)
	if err != nil {
		return syncer.Item{Err: fmt.Errorf("mirror item %s: %w", itemID(item), err)}
	}
	text = strings.ReplaceAll(text, zeroWidthSpace, "")

	if filter.Excluded(text, f.exclude) {
		return syncer.Item{CreatedAt: at.Unix(), Skipped: true}
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	for _, src := range images {
		b.WriteString(fmt.Sprintf("![](%s)\n", src))
	}
	b.WriteString("\n")
	b.WriteString(item.Link)

	return syncer.Item{Content: b.String(), CreatedAt: at.Unix()}
}

// extract pulls plain text and image references out of the item HTML.
func extract(raw string) (string, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("parse item html: %w", err)
	}

	var images []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			images = append(images, src)
		}
	})

	doc.Find("br").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml("\n")
	})

	return strings.TrimSpace(doc.Text()), images, nil
}

func publishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func itemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}
