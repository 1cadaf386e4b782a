package browser

import (
	"context"
	"fmt"
	"net/url"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/nullpath7/agentcore-cli/api/schemas"
)

// PageResult is what one automation pass over a page yields.
type PageResult struct {
	URL        string       `json:"url"`
	Title      string       `json:"title"`
	HTML       string       `json:"-"`
	Screenshot []byte       `json:"-"`
	Summary    *PageSummary `json:"summary,omitempty"`
}

// sessionWSURL builds the authorized CDP endpoint for a session. The
// automation stream authorizes the upgrade via signed query
// parameters, so any returned headers are folded into the URL.
func sessionWSURL(session *schemas.BrowserSession) (string, error) {
	if session.WSEndpoint == "" {
		return "", fmt.Errorf("session %q has no automation endpoint", session.SessionID)
	}
	u, err := url.Parse(session.WSEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid automation endpoint %q: %w", session.WSEndpoint, err)
	}
	if len(session.WSHeaders) > 0 {
		q := u.Query()
		for k, v := range session.WSHeaders {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// withRemoteBrowser attaches a chromedp context to the session's CDP
// endpoint and runs fn inside it.
func (c *Client) withRemoteBrowser(ctx context.Context, session *schemas.BrowserSession, fn func(ctx context.Context) error) error {
	wsURL, err := sessionWSURL(session)
	if err != nil {
		return err
	}

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, wsURL, chromedp.NoModifyURL)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	if c.cfg.NavigationTimeout > 0 {
		var cancelTimeout context.CancelFunc
		taskCtx, cancelTimeout = context.WithTimeout(taskCtx, c.cfg.NavigationTimeout)
		defer cancelTimeout()
	}
	return fn(taskCtx)
}

// NavigateAndExtract loads a URL inside the sandbox browser and
// returns the page title, HTML, and a parsed summary.
func (c *Client) NavigateAndExtract(ctx context.Context, session *schemas.BrowserSession, targetURL string) (*PageResult, error) {
	result := &PageResult{URL: targetURL}

	err := c.withRemoteBrowser(ctx, session, func(taskCtx context.Context) error {
		return chromedp.Run(taskCtx,
			chromedp.Navigate(targetURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Title(&result.Title),
			chromedp.OuterHTML("html", &result.HTML, chromedp.ByQuery),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("automation failed for %q: %w", targetURL, err)
	}

	summary, err := ParsePageSummary(result.HTML, targetURL)
	if err != nil {
		// Extraction is best effort; the raw HTML is still returned.
		c.logger.Warn("Failed to parse page summary")
	} else {
		result.Summary = summary
		if result.Title == "" {
			result.Title = summary.Title
		}
	}
	return result, nil
}

// Screenshot navigates to a URL and captures a full-page screenshot.
func (c *Client) Screenshot(ctx context.Context, session *schemas.BrowserSession, targetURL string) ([]byte, error) {
	quality := c.cfg.ScreenshotQuality
	if quality <= 0 {
		quality = 90
	}

	var buf []byte
	err := c.withRemoteBrowser(ctx, session, func(taskCtx context.Context) error {
		return chromedp.Run(taskCtx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				// Fix the viewport so captures are reproducible across
				// sandbox instances.
				return emulation.SetDeviceMetricsOverride(1280, 800, 1, false).Do(ctx)
			}),
			chromedp.Navigate(targetURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.FullScreenshot(&buf, quality),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed for %q: %w", targetURL, err)
	}
	return buf, nil
}
