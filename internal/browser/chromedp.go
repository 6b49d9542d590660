package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// ChromedpRenderer implements Renderer with chromedp. Each call gets its own
// exec allocator, so cancelling it tears the browser process down.
type ChromedpRenderer struct {
	opts Options
	log  logrus.FieldLogger
}

// NewChromedpRenderer creates a chromedp-backed renderer.
func NewChromedpRenderer(opts Options, logger logrus.FieldLogger) *ChromedpRenderer {
	return &ChromedpRenderer{
		opts: opts,
		log:  logger.WithField("component", "browser_chromedp"),
	}
}

// Render starts a browser for this call, loads target and returns the
// markup. Cancelling ctx stops the browser.
func (c *ChromedpRenderer) Render(ctx context.Context, target Target) (Result, error) {
	log := c.log.WithField("url", target.URL)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.opts.Bin != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.Bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var res Result
	if target.HTML != "" {
		err := chromedp.Run(tabCtx,
			chromedp.Navigate("about:blank"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				tree, err := page.GetFrameTree().Do(ctx)
				if err != nil {
					return err
				}
				return page.SetDocumentContent(tree.Frame.ID, target.HTML).Do(ctx)
			}),
		)
		if err != nil {
			return Result{}, fmt.Errorf("failed to set document content: %w", err)
		}
	} else {
		resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(target.URL))
		if err != nil {
			log.WithError(err).Error("Navigation failed")
			return Result{}, fmt.Errorf("failed to navigate to %s: %w", target.URL, err)
		}
		if resp != nil {
			res.Status = int(resp.Status)
		}
	}

	if target.FrameSelector != "" {
		// The frame's own URL is loaded in the tab; its document is then
		// same-origin with the tab.
		var src string
		var ok bool
		err := chromedp.Run(tabCtx,
			chromedp.WaitReady(target.FrameSelector, chromedp.ByQuery),
			chromedp.AttributeValue(target.FrameSelector, "src", &src, &ok, chromedp.ByQuery),
		)
		if err != nil {
			return Result{}, fmt.Errorf("frame %q not found: %w", target.FrameSelector, err)
		}
		if !ok || src == "" {
			return Result{}, fmt.Errorf("frame %q has no src", target.FrameSelector)
		}
		if err := chromedp.Run(tabCtx, chromedp.Navigate(src)); err != nil {
			return Result{}, fmt.Errorf("failed to load frame %s: %w", src, err)
		}
	}

	err := chromedp.Run(tabCtx,
		chromedp.WaitReady(target.waitSelector(), chromedp.ByQuery),
		chromedp.OuterHTML("html", &res.HTML, chromedp.ByQuery),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read rendered html: %w", err)
	}

	log.WithField("status", res.Status).Debug("Chromedp render completed")
	return res, nil
}
