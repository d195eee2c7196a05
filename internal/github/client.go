// Package github covers the small slice of the GitHub REST API the
// sync pass needs: creating issues and reading/writing Actions
// repository variables.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the GitHub REST API origin.
	DefaultBaseURL = "https://api.github.com"

	defaultTimeout = 30 * time.Second

	apiVersion = "2022-11-28"
)

// Client is an authenticated client bound to one repository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	repo       string // "owner/name"
	token      string
}

// NewClient creates a client for repo ("owner/name"). baseURL defaults
// to DefaultBaseURL when empty; timeout bounds every outbound call.
func NewClient(baseURL, repo, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		repo:       repo,
		token:      token,
	}
}

// CreateIssue opens a new issue. title is expected to be bounded by the
// caller; body is unbounded Markdown.
func (c *Client) CreateIssue(ctx context.Context, title, body string) error {
	url := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, c.repo)
	payload := map[string]string{
		"title": title,
		"body":  body,
	}
	resp, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create issue: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Variable reads an Actions repository variable. A missing variable is
// reported as ok=false, not as an error.
func (c *Client) Variable(ctx context.Context, name string) (value string, ok bool, err error) {
	url := fmt.Sprintf("%s/repos/%s/actions/variables/%s", c.baseURL, c.repo, name)
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("get variable %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("get variable %s: HTTP %d", name, resp.StatusCode)
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("decode variable %s: %w", name, err)
	}
	return body.Value, true, nil
}

// SetVariable updates an existing Actions repository variable.
func (c *Client) SetVariable(ctx context.Context, name, value string) error {
	url := fmt.Sprintf("%s/repos/%s/actions/variables/%s", c.baseURL, c.repo, name)
	payload := map[string]string{
		"name":  name,
		"value": value,
	}
	resp, err := c.do(ctx, http.MethodPatch, url, payload)
	if err != nil {
		return fmt.Errorf("set variable %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("set variable %s: HTTP %d", name, resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}
