package weibo

import (
	"context"
	"fmt"
	"strings"
)

const (
	// mediaURLFormat renders one pic_id as an absolute image URL on the
	// Weibo media host.
	mediaURLFormat = "https://wx1.sinaimg.cn/orj960/%s"

	// permalinkFormat is the canonical post URL built from uid and mblogid.
	permalinkFormat = "https://weibo.com/%s/%s"

	// zeroWidthSpace shows up in feed text as an encoding artifact.
	zeroWidthSpace = "\u200b"
)

// Normalize turns one raw feed entry into a publishable post. Reposts
// come back with Skipped set and no content. A truncated long-form post
// is resolved through the longtext endpoint; if that fetch fails the
// truncated base text is used instead.
//
// The returned content is a single self-contained Markdown blob: body
// text, one image line per media identifier, and the permalink. It is
// never empty on the non-skip path.
func (c *Client) Normalize(ctx context.Context, uid string, raw RawPost) (Post, error) {
	createdAt, err := ParseCreatedAt(raw.CreatedAt)
	if err != nil {
		return Post{}, err
	}

	if raw.isRepost() {
		return Post{CreatedAt: createdAt, Skipped: true}, nil
	}

	text := raw.TextRaw
	if raw.truncated() {
		full, err := c.longText(ctx, raw.MblogID)
		if err != nil {
			fmt.Printf("warning: %v (using truncated text)\n", err)
		} else if full != "" {
			text = full
		}
	}

	text = strings.ReplaceAll(text, zeroWidthSpace, "")

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	for _, picID := range raw.PicIDs {
		b.WriteString(fmt.Sprintf("![]("+mediaURLFormat+")\n", picID))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf(permalinkFormat, uid, raw.MblogID))

	return Post{Content: b.String(), CreatedAt: createdAt}, nil
}
