package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/position"
)

const hideScript = `(() => {
	let n = 0;
	for (const sel of %s) {
		document.querySelectorAll(sel).forEach(e => {
			e.style.setProperty("display", "none", "important");
			n++;
		});
	}
	return n;
})()`

// browserSurface a map website in a chrome browser, the operator can move the
// map by hand while the browser is visible
type browserSurface struct {
	log         *slog.Logger
	cfg         Config
	codec       *position.Codec
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	last        position.Position
}

var _ Surface = (*browserSurface)(nil)

// NewBrowser starts the browser session
func NewBrowser(cfg Config) (*browserSurface, error) {
	codec, err := position.NewCodec(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.Width, cfg.Height),
	)
	actx, acancel := chromedp.NewExecAllocator(context.Background(), opts...)
	bctx, bcancel := chromedp.NewContext(actx)
	// starts the browser
	if err := chromedp.Run(bctx); err != nil {
		bcancel()
		acancel()
		return nil, errors.Wrap(err, "can't start browser")
	}
	return &browserSurface{
		log:         logging.New("browser"),
		cfg:         cfg,
		codec:       codec,
		ctx:         bctx,
		cancel:      bcancel,
		allocCancel: acancel,
		last:        position.Default(),
	}, nil
}

// run executes the actions in the browser tab, bound to ctx
func (b *browserSurface) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(rctx, actions...)
}

func (b *browserSurface) Navigate(ctx context.Context, pos position.Position) error {
	target := b.codec.Encode(pos)
	b.log.Debug(fmt.Sprintf("navigate to %s", target))
	if err := b.run(ctx, chromedp.Navigate(target)); err != nil {
		return errors.Wrapf(err, "navigate to %s", target)
	}
	b.last = pos
	return nil
}

// Current reads the position out of the url the website shows right now
func (b *browserSurface) Current(ctx context.Context) (position.Position, error) {
	var loc string
	if err := b.run(ctx, chromedp.Location(&loc)); err != nil {
		return b.last, errors.Wrap(err, "can't read browser location")
	}
	pos, err := b.codec.Decode(loc, b.last)
	if err != nil {
		b.log.Warn(err.Error())
	}
	b.last = pos
	return pos, nil
}

func (b *browserSurface) WaitForReady(ctx context.Context, timeout time.Duration) (bool, error) {
	sel := b.cfg.ReadySelector
	if sel == "" {
		sel = "body"
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := b.run(tctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false, nil
	}
	return false, err
}

func (b *browserSurface) HideInteractive(ctx context.Context) error {
	sels, err := json.Marshal(b.cfg.HideSelectors)
	if err != nil {
		return err
	}
	var hidden int
	if err := b.run(ctx, chromedp.Evaluate(fmt.Sprintf(hideScript, string(sels)), &hidden)); err != nil {
		return errors.Wrap(err, "can't hide interactive elements")
	}
	b.log.Debug(fmt.Sprintf("%d interactive elements hidden", hidden))
	return nil
}

// PrepareForPosition scrolls the page back, popups of the website may have moved it
func (b *browserSurface) PrepareForPosition(ctx context.Context) error {
	return b.run(ctx, chromedp.Evaluate(`window.scrollTo(0, 0)`, nil))
}

// PrepareForScreenshot gives the website the settle time after hiding the controls
func (b *browserSurface) PrepareForScreenshot(ctx context.Context) error {
	if b.cfg.Settle <= 0 {
		return nil
	}
	return b.run(ctx, chromedp.Sleep(b.cfg.Settle))
}

func (b *browserSurface) Snapshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, errors.Wrap(err, "can't capture screenshot")
	}
	return buf, nil
}

func (b *browserSurface) Close() error {
	b.cancel()
	b.allocCancel()
	return nil
}
