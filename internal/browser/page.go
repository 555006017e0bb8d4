package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"refundwatch/internal/portal"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrPageUnavailable marks a store whose portal tab could not be found
// or opened. The caller skips the store for this call.
var ErrPageUnavailable = errors.New("portal page unavailable")

// navTimeout bounds navigation when a fresh portal tab must be opened.
const navTimeout = 30 * time.Second

// Locator finds the portal tab inside a live session, opening one when
// none exists. Pages are re-discovered on every call; tabs may be closed
// or opened by the operator at any time, so handles are never cached.
type Locator struct {
	targetURL string
	urlMark   string
	log       *zap.Logger
}

// NewLocator returns a locator bound to the seller portal surface.
func NewLocator(log *zap.Logger) *Locator {
	return &Locator{
		targetURL: portal.PortalURL,
		urlMark:   portal.PortalPathMark,
		log:       log,
	}
}

// Locate returns a page on the portal surface. An existing tab is
// matched by URL substring; otherwise a new tab is opened, navigated,
// and waited on until its network goes idle.
func (l *Locator) Locate(ctx context.Context, b *rod.Browser, storeCode string) (*rod.Page, error) {
	pages, err := b.Pages()
	if err != nil {
		return nil, fmt.Errorf("%w: list pages: %v", ErrPageUnavailable, err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if strings.Contains(info.URL, l.urlMark) {
			return p, nil
		}
	}

	l.log.Info("no portal tab open, opening one", zap.String("store", storeCode))
	page, err := b.Page(proto.TargetCreateTarget{URL: l.targetURL})
	if err != nil {
		return nil, fmt.Errorf("%w: open page: %v", ErrPageUnavailable, err)
	}

	bounded := page.Context(ctx).Timeout(navTimeout)
	if err := bounded.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: load portal: %v", ErrPageUnavailable, err)
	}
	wait := bounded.WaitRequestIdle(time.Second, nil, nil, nil)
	wait()

	return page.Context(ctx), nil
}
