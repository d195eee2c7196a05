package weibo

import (
	"fmt"
	"time"
)

// createdAtLayout is the fixed timestamp format the Weibo API uses,
// e.g. "Thu Apr 06 12:31:14 +0800 2023".
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// ParseCreatedAt converts a Weibo created_at string into Unix epoch seconds.
// The UTC offset in the string is honored.
func ParseCreatedAt(s string) (int64, error) {
	t, err := time.Parse(createdAtLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t.Unix(), nil
}
