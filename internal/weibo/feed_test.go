package weibo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/weibosync/weibosync/internal/filter"
)

const mixedFeedPage = `{
	"data": {
		"list": [
			{
				"created_at": "Thu Apr 06 12:31:14 +0800 2023",
				"mblogid": "M4",
				"text_raw": "plain post"
			},
			{
				"created_at": "Thu Apr 06 11:00:00 +0800 2023",
				"mblogid": "M3",
				"text_raw": "//@other: reposted",
				"repost_type": 1
			},
			{
				"created_at": "Thu Apr 06 10:00:00 +0800 2023",
				"mblogid": "M2",
				"text_raw": "转发抽奖送手机"
			},
			{
				"created_at": "not a timestamp",
				"mblogid": "M1",
				"text_raw": "broken entry"
			}
		]
	}
}`

func TestFeedFirstPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(mixedFeedPage))
	}))
	defer ts.Close()

	exclude, err := filter.Compile([]string{"抽奖"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	feed := NewFeed(newTestClient(ts.URL), "42", exclude)
	items, err := feed.FirstPage(context.Background())
	if err != nil {
		t.Fatalf("first page: %v", err)
	}

	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}

	if items[0].Err != nil || items[0].Skipped {
		t.Errorf("plain post item = %+v", items[0])
	}
	if !strings.HasPrefix(items[0].Content, "plain post\n") {
		t.Errorf("plain post content = %q", items[0].Content)
	}

	if !items[1].Skipped {
		t.Error("repost not skipped")
	}
	if !items[2].Skipped {
		t.Error("excluded post not skipped")
	}
	if items[2].CreatedAt == 0 {
		t.Error("excluded post lost its timestamp")
	}

	if items[3].Err == nil {
		t.Error("broken entry carried no error")
	}
}

func TestFeedFirstPage_FetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	feed := NewFeed(newTestClient(ts.URL), "42", nil)
	if _, err := feed.FirstPage(context.Background()); err == nil {
		t.Fatal("expected error for page fetch failure")
	}
}

func TestFeedFirstPage_NoFilters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"list":[{"created_at":"Thu Apr 06 12:31:14 +0800 2023","mblogid":"M1","text_raw":"抽奖 but no filters"}]}}`))
	}))
	defer ts.Close()

	feed := NewFeed(newTestClient(ts.URL), "42", nil)
	items, err := feed.FirstPage(context.Background())
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(items) != 1 || items[0].Skipped {
		t.Fatalf("items = %+v", items)
	}
}

func TestParseCookies(t *testing.T) {
	bundle := `[{"name":"SUB","value":"abc","domain":".weibo.com","path":"/"},{"name":"SUBP","value":"def"}]`

	cookies, err := ParseCookies(bundle)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies, want 2", len(cookies))
	}
	if cookies[0].Name != "SUB" || cookies[0].Domain != ".weibo.com" {
		t.Errorf("first cookie = %+v", cookies[0])
	}

	encoded, err := EncodeCookies(cookies)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := ParseCookies(encoded)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(again) != 2 || again[1].Value != "def" {
		t.Fatalf("round trip lost data: %+v", again)
	}
}

func TestParseCookies_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "{not a list}", "SUB=abc; SUBP=def"} {
		if _, err := ParseCookies(in); err == nil {
			t.Errorf("ParseCookies(%q): expected error", in)
		}
	}
}
