package crawler

import (
	"context"
	"sync"
	"time"

	"sjsage522/oddsworker/internal/page"
	"sjsage522/oddsworker/logger"

	"github.com/chromedp/chromedp"
)

// Browser hands out isolated browsing sessions, one per race
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is a single browser tab the navigator drives
type Session interface {
	// Navigate loads url and waits for the document body
	Navigate(ctx context.Context, url string) error
	// Click clicks link and waits for the resulting page to settle
	Click(ctx context.Context, link page.Link) error
	// HTML returns the current document markup
	HTML(ctx context.Context) (string, error)
	// Close tears down the tab and its browser
	Close() error
}

// ChromeOptions configures ChromeBrowser
type ChromeOptions struct {
	// RemoteAddr is a DevTools websocket URL; empty launches a local Chrome
	RemoteAddr  string
	Headless    bool
	StepTimeout time.Duration
	ClickSettle time.Duration
}

// ChromeBrowser starts chromedp sessions
type ChromeBrowser struct {
	opts ChromeOptions
}

// NewChromeBrowser creates a new chromedp-backed browser
func NewChromeBrowser(opts ChromeOptions) *ChromeBrowser {
	return &ChromeBrowser{opts: opts}
}

func (b *ChromeBrowser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	return append(opts,
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.Flag("lang", "ja-JP"),
		chromedp.WindowSize(1920, 1080),
	)
}

// NewSession starts a fresh browser (or a fresh target on a remote one).
// The browser lives until Close or until ctx is canceled.
func (b *ChromeBrowser) NewSession(ctx context.Context) (Session, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if b.opts.RemoteAddr != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, b.opts.RemoteAddr)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	}

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// the first Run allocates the browser; it must not carry a timeout
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}

	return &chromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		stepTimeout: b.opts.StepTimeout,
		settle:      b.opts.ClickSettle,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	stepTimeout time.Duration
	settle      time.Duration
	closeOnce   sync.Once
	closeErr    error
}

// run executes actions on the tab, bounded by the step timeout and by ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(s.ctx, s.stepTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(stepCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *chromeSession) Click(ctx context.Context, link page.Link) error {
	logger.ForNavigator().Debug().
		Str("xpath", link.XPath()).
		Msg("Clicking link")

	return s.run(ctx,
		chromedp.Click(link.XPath(), chromedp.BySearch, chromedp.NodeVisible),
		chromedp.Sleep(s.settle),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close closes the browser gracefully, then releases the contexts
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelTab()
		s.cancelAlloc()
	})
	return s.closeErr
}
