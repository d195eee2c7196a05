// Package weibo fetches a user's post feed from the Weibo web API and
// normalizes raw posts into self-contained Markdown content.
package weibo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawPost is one entry of the mymblog feed. Only the fields the sync
// pass consumes are modeled; the API returns many more.
type RawPost struct {
	CreatedAt   string          `json:"created_at"`
	MblogID     string          `json:"mblogid"`
	TextRaw     string          `json:"text_raw"`
	IsLongText  bool            `json:"isLongText"`
	ContinueTag json.RawMessage `json:"continue_tag"`
	RepostType  *int            `json:"repost_type"`
	PicIDs      []string        `json:"pic_ids"`
}

// isRepost reports whether the entry only references another post.
func (r *RawPost) isRepost() bool {
	return r.RepostType != nil
}

// truncated reports whether the feed entry carries cut-off text that
// must be resolved through the longtext endpoint.
func (r *RawPost) truncated() bool {
	return r.IsLongText && len(r.ContinueTag) > 0
}

// Post is a normalized feed entry ready for publishing. Skipped posts
// carry a timestamp but no content.
type Post struct {
	Content   string
	CreatedAt int64
	Skipped   bool
}

// Cookie is one browser cookie of the Weibo session bundle. The JSON
// shape matches what headless Chrome exports, so a bundle harvested by
// the refresh step round-trips through the same encoding.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// ParseCookies decodes a JSON cookie bundle as stored in the
// WEIBO_COOKIES variable.
func ParseCookies(data string) ([]Cookie, error) {
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("cookie bundle is empty")
	}
	var cookies []Cookie
	if err := json.Unmarshal([]byte(data), &cookies); err != nil {
		return nil, fmt.Errorf("decode cookie bundle: %w", err)
	}
	return cookies, nil
}

// EncodeCookies is the inverse of ParseCookies.
func EncodeCookies(cookies []Cookie) (string, error) {
	data, err := json.Marshal(cookies)
	if err != nil {
		return "", fmt.Errorf("encode cookie bundle: %w", err)
	}
	return string(data), nil
}
