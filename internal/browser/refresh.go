// Package browser refreshes the Weibo session cookies by driving a
// headless Chrome through the site with the current bundle and
// harvesting the rotated set.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/weibosync/weibosync/internal/weibo"
)

const (
	weiboOrigin  = "https://weibo.com"
	cookieDomain = ".weibo.com"

	defaultTimeout = 90 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Refresh loads weibo.com with the supplied cookies and returns the
// cookie set the site hands back. The caller applies the result to the
// live session and persists it; this package only drives the browser.
func Refresh(ctx context.Context, cookies []weibo.Cookie, timeout time.Duration) ([]weibo.Cookie, error) {
	if len(cookies) == 0 {
		return nil, errors.New("refresh: no cookies supplied")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.WindowSize(1280, 800),
	)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	var refreshed []*network.Cookie
	err := chromedp.Run(runCtx,
		chromedp.Navigate(weiboOrigin),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, ck := range cookies {
				domain := ck.Domain
				if domain == "" {
					domain = cookieDomain
				}
				path := ck.Path
				if path == "" {
					path = "/"
				}
				if err := network.SetCookie(ck.Name, ck.Value).
					WithDomain(domain).
					WithPath(path).
					Do(ctx); err != nil {
					return fmt.Errorf("set cookie %s: %w", ck.Name, err)
				}
			}
			return nil
		}),
		// Reload with the session attached so the site rotates tokens.
		chromedp.Navigate(weiboOrigin),
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			refreshed, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("refresh cookies: %w", err)
	}
	if len(refreshed) == 0 {
		return nil, errors.New("refresh cookies: browser returned none")
	}

	out := make([]weibo.Cookie, 0, len(refreshed))
	for _, ck := range refreshed {
		out = append(out, weibo.Cookie{
			Name:   ck.Name,
			Value:  ck.Value,
			Domain: ck.Domain,
			Path:   ck.Path,
		})
	}
	return out, nil
}
