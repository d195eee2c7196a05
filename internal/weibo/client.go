package weibo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Weibo web origin the ajax endpoints live on.
	DefaultBaseURL = "https://weibo.com"

	defaultTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Safari/537.36"
)

// Client talks to the Weibo web API with a cookie-authenticated session.
// The cookie bundle is supplied once at construction and only read
// afterwards; refreshing it is the browser package's job.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookies    []Cookie
}

// NewClient creates a session client. baseURL defaults to DefaultBaseURL
// when empty; timeout bounds every outbound call.
func NewClient(baseURL string, cookies []Cookie, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookies:    cookies,
	}
}

// FirstPage fetches page 1 of the user's feed, newest post first.
// Any transport, status, or decode failure is an error; there is no
// partial result.
func (c *Client) FirstPage(ctx context.Context, uid string) ([]RawPost, error) {
	url := fmt.Sprintf("%s/ajax/statuses/mymblog?uid=%s&page=1", c.baseURL, uid)

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", fmt.Sprintf("%s/u/%s", c.baseURL, uid))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: HTTP %d", resp.StatusCode)
	}

	var page struct {
		Data struct {
			List []RawPost `json:"list"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return page.Data.List, nil
}

// longText resolves the full body of a truncated post.
func (c *Client) longText(ctx context.Context, mblogID string) (string, error) {
	url := fmt.Sprintf("%s/ajax/statuses/longtext?id=%s", c.baseURL, mblogID)

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch longtext %s: %w", mblogID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch longtext %s: HTTP %d", mblogID, resp.StatusCode)
	}

	var body struct {
		Data struct {
			LongTextContent string `json:"longTextContent"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode longtext %s: %w", mblogID, err)
	}
	return body.Data.LongTextContent, nil
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL)

	if len(c.cookies) > 0 {
		pairs := make([]string, 0, len(c.cookies))
		for _, ck := range c.cookies {
			pairs = append(pairs, ck.Name+"="+ck.Value)
		}
		req.Header.Set("Cookie", strings.Join(pairs, "; "))
	}
	return req, nil
}
