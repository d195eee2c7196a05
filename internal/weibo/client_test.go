package weibo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const feedPage = `{
	"data": {
		"list": [
			{
				"created_at": "Thu Apr 06 12:31:14 +0800 2023",
				"mblogid": "M2",
				"text_raw": "newest",
				"isLongText": false
			},
			{
				"created_at": "Wed Apr 05 09:00:00 +0800 2023",
				"mblogid": "M1",
				"text_raw": "older",
				"isLongText": false,
				"pic_ids": ["p1"]
			}
		]
	}
}`

func TestFirstPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ajax/statuses/mymblog" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("uid"); got != "42" {
			t.Errorf("uid = %q, want 42", got)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("page = %q, want 1", got)
		}
		if got := r.Header.Get("Cookie"); !strings.Contains(got, "SUB=abc") {
			t.Errorf("cookie header = %q, want SUB=abc", got)
		}
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("x-requested-with = %q", got)
		}
		if got := r.Header.Get("Referer"); !strings.HasSuffix(got, "/u/42") {
			t.Errorf("referer = %q, want .../u/42", got)
		}
		_, _ = w.Write([]byte(feedPage))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	posts, err := c.FirstPage(context.Background(), "42")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].MblogID != "M2" || posts[0].TextRaw != "newest" {
		t.Errorf("first post = %+v", posts[0])
	}
	if len(posts[1].PicIDs) != 1 || posts[1].PicIDs[0] != "p1" {
		t.Errorf("second post pic_ids = %v", posts[1].PicIDs)
	}
}

func TestFirstPage_MultipleCookies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Cookie"); got != "SUB=abc; SUBP=def" {
			t.Errorf("cookie header = %q, want joined pairs", got)
		}
		_, _ = w.Write([]byte(`{"data":{"list":[]}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, []Cookie{
		{Name: "SUB", Value: "abc"},
		{Name: "SUBP", Value: "def"},
	}, 0)
	if _, err := c.FirstPage(context.Background(), "42"); err != nil {
		t.Fatalf("first page: %v", err)
	}
}

func TestFirstPage_NonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	_, err := c.FirstPage(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for HTTP 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q does not mention status", err)
	}
}

func TestFirstPage_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>login required</html>"))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	if _, err := c.FirstPage(context.Background(), "42"); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestFirstPage_EmptyList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"list":[]}}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	posts, err := c.FirstPage(context.Background(), "42")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("got %d posts, want 0", len(posts))
	}
}
