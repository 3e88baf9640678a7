package topcv

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Renderer turns a URL into the final HTML of the page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

const maxPageBytes = 8 << 20

// HTTPRenderer fetches pages with a plain GET. It does not execute scripts.
type HTTPRenderer struct {
	Client    *http.Client
	Limiter   *HostLimiter
	UserAgent string
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := r.Limiter.WaitURL(ctx, url); err != nil {
		return "", eris.Wrap(err, "wait for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", eris.Wrap(err, "build request")
	}
	ua := r.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en;q=0.8")

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", eris.Errorf("fetch %s: upstream status %s body=%q", url, resp.Status, string(b))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", eris.Wrapf(err, "read %s", url)
	}
	return string(b), nil
}

// ChromeRenderer loads the page in headless Chrome so client-side scripts
// populate the DOM before it is read back.
type ChromeRenderer struct {
	ExecPath string
	Timeout  time.Duration
	// Settle is an extra pause after load for late XHR content.
	Settle time.Duration
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.DisableGPU)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, r.Timeout)
		defer cancel()
	}

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if r.Settle > 0 {
		actions = append(actions, chromedp.Sleep(r.Settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	start := time.Now()
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", eris.Wrapf(err, "render %s", url)
	}
	zap.L().Debug("topcv: rendered page",
		zap.String("url", url),
		zap.Int("bytes", len(html)),
		zap.Duration("took", time.Since(start)),
	)
	return html, nil
}
