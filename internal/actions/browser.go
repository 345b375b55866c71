// Package actions provides the concrete handlers behind the dispatch
// registry: browser automation, file operations, system control, web
// search, page reading and waits.
package actions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/arjunsk/max/internal/dispatch"
)

// Browser drives a single long-lived Chrome instance. The window stays
// open across actions so later steps can build on earlier navigation.
type Browser struct {
	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewBrowser() *Browser {
	return &Browser{}
}

func (b *Browser) init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.shutdownLocked()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", false),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	return chromedp.Run(b.browserCtx)
}

func (b *Browser) shutdownLocked() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
}

// Close tears down the browser. Safe to call when never opened.
func (b *Browser) Close() {
	b.mu.Lock()
	b.shutdownLocked()
	b.mu.Unlock()
}

// actionCtx returns a bounded context on the live browser session.
func (b *Browser) actionCtx(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := b.init(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	bound, cancel := context.WithTimeout(b.browserCtx, 60*time.Second)
	return bound, cancel, nil
}

// Open launches a blank browser window.
func (b *Browser) Open(ctx context.Context, params map[string]any) dispatch.Result {
	if err := b.init(ctx); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("failed to start browser: %v", err)}
	}
	return dispatch.Result{Success: true, Message: "Browser opened"}
}

// Navigate goes to a URL, upgrading bare scheme-less strings to https.
func (b *Browser) Navigate(ctx context.Context, params map[string]any) dispatch.Result {
	rawURL, _ := params["url"].(string)
	if rawURL == "" {
		return dispatch.Result{Message: "url parameter is required"}
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	actionCtx, cancel, err := b.actionCtx(ctx)
	if err != nil {
		return dispatch.Result{Message: err.Error()}
	}
	defer cancel()

	if err := chromedp.Run(actionCtx, chromedp.Navigate(rawURL)); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("navigation failed: %v", err)}
	}
	return dispatch.Result{Success: true, Message: fmt.Sprintf("Navigated to %s", rawURL)}
}

// Click targets visible text on the current page. Coordinate clicks are
// handed back to the desktop handler by the registry wiring.
func (b *Browser) Click(ctx context.Context, params map[string]any) dispatch.Result {
	text, _ := params["text"].(string)
	if text == "" {
		return dispatch.Result{Message: "text parameter is required for a page click"}
	}

	actionCtx, cancel, err := b.actionCtx(ctx)
	if err != nil {
		return dispatch.Result{Message: err.Error()}
	}
	defer cancel()

	selector := fmt.Sprintf(`//*[contains(text(), %q)]`, text)
	if err := chromedp.Run(actionCtx, chromedp.Click(selector, chromedp.BySearch)); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("click failed: %v", err)}
	}
	return dispatch.Result{Success: true, Message: fmt.Sprintf("Clicked %q", text)}
}

// TypeText sends keystrokes to the focused element of the page.
func (b *Browser) TypeText(ctx context.Context, params map[string]any) dispatch.Result {
	text, _ := params["text"].(string)
	if text == "" {
		return dispatch.Result{Message: "text parameter is required"}
	}

	actionCtx, cancel, err := b.actionCtx(ctx)
	if err != nil {
		return dispatch.Result{Message: err.Error()}
	}
	defer cancel()

	if err := chromedp.Run(actionCtx, chromedp.KeyEvent(text)); err != nil {
		return dispatch.Result{Message: fmt.Sprintf("typing failed: %v", err)}
	}
	return dispatch.Result{Success: true, Message: "Typed text"}
}

// PageHTML returns the full serialized DOM of the current page.
func (b *Browser) PageHTML(ctx context.Context) (string, string, error) {
	actionCtx, cancel, err := b.actionCtx(ctx)
	if err != nil {
		return "", "", err
	}
	defer cancel()

	var html, pageURL string
	err = chromedp.Run(actionCtx,
		chromedp.Location(&pageURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return "", "", fmt.Errorf("failed to read page: %w", err)
	}
	return html, pageURL, nil
}

// Active reports whether a browser session is currently live.
func (b *Browser) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx == nil {
		return false
	}
	select {
	case <-b.browserCtx.Done():
		return false
	default:
		return true
	}
}
