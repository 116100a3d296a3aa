package drspark

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"drspark-watcher/config"
	"drspark-watcher/utils"
)

// BrowserClient fetches the listing page through a headless browser. It is
// the fallback for FETCH_MODE=browser, for when the board starts rendering
// cards client-side and the plain HTTP body no longer contains them.
type BrowserClient struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// NewBrowserClient creates a ready-to-use BrowserClient.
func NewBrowserClient(cfg *config.Config, logger *utils.Logger) *BrowserClient {
	return &BrowserClient{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.FetchAttempts,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Fetch navigates to url and returns the rendered document HTML.
func (b *BrowserClient) Fetch(ctx context.Context, url string) (string, error) {
	b.logger.Info("Fetching (browser): %s", url)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.cfg.UserAgent),
	)
	if bin := findChromeBinary(b.cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var html string
	err := b.retry.Do("browser-fetch", func() error {
		// Suppress chromedp log noise
		tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(2*time.Second),
			chromedp.OuterHTML("html", &html),
		)
	})
	if err != nil {
		b.logger.Error("Browser fetch failed: %s | %v", url, err)
		return "", &TransportError{URL: url, Err: err}
	}
	return html, nil
}

// findChromeBinary locates the Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
