// Package browser owns the per-store Chrome sessions and the portal tab
// lookup. At most one live connection is kept per store code; liveness
// is probed on every acquisition, never cached.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"refundwatch/internal/config"
	"refundwatch/internal/retry"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// ErrSessionUnavailable marks a store whose browser could neither be
// reached nor launched. The caller skips the store for this call.
var ErrSessionUnavailable = errors.New("browser session unavailable")

// settleDelay gives a freshly spawned Chrome time to open its DevTools
// endpoint before the reconnect loop runs.
const settleDelay = 5 * time.Second

// Registry hands out one live browser connection per store. Callers
// borrow the returned handle for a single resolution and must not keep
// it across calls; the registry may evict and replace it at any time.
type Registry struct {
	chromePath string
	headless   bool
	portOffset int
	policy     retry.Policy
	log        *zap.Logger

	mu       sync.Mutex
	sessions map[string]*rod.Browser

	// Test seams. Production wiring is installed by NewRegistry.
	connect func(ctx context.Context, hostPort string) (*rod.Browser, error)
	probe   func(b *rod.Browser) error
	spawn   func(store config.Store, port int) error
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRegistry builds a registry from the loaded configuration.
func NewRegistry(cfg *config.Config, log *zap.Logger) *Registry {
	r := &Registry{
		chromePath: cfg.ChromePath,
		headless:   cfg.Headless,
		portOffset: cfg.HeadlessPortOffset,
		policy:     retry.New(cfg.MaxRetries, cfg.Backoff()),
		log:        log,
		sessions:   make(map[string]*rod.Browser),
	}
	r.connect = connectBrowser
	r.probe = probeBrowser
	r.spawn = r.spawnChrome
	r.sleep = retry.Sleep
	return r
}

// Acquire returns a live browser for the store, reusing the cached
// session when its probe succeeds. A dead session is evicted before any
// reconnect attempt. When no browser answers on the store's debug port,
// one is launched against the store's profile directory and the connect
// loop runs once more after a settle delay.
func (r *Registry) Acquire(ctx context.Context, store config.Store) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.log.With(zap.String("store", store.Code))

	if b, ok := r.sessions[store.Code]; ok {
		if err := r.probe(b); err == nil {
			return b, nil
		}
		log.Info("cached session is dead, evicting")
		delete(r.sessions, store.Code)
	}

	port := store.EffectivePort(r.headless, r.portOffset)
	hostPort := fmt.Sprintf("127.0.0.1:%d", port)

	b, err := r.connectWithRetry(ctx, log, hostPort)
	if err == nil {
		r.sessions[store.Code] = b
		return b, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Info("no chrome answering on debug port, launching",
		zap.Int("port", port), zap.String("profile", store.ProfileDir))
	if err := r.spawn(store, port); err != nil {
		log.Error("chrome launch failed, check chrome_path and profile_dir", zap.Error(err))
		return nil, fmt.Errorf("%w: launch: %v", ErrSessionUnavailable, err)
	}

	if err := r.sleep(ctx, settleDelay); err != nil {
		return nil, err
	}

	b, err = r.connectWithRetry(ctx, log, hostPort)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("still cannot reach chrome after launch", zap.String("endpoint", hostPort))
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	r.sessions[store.Code] = b
	return b, nil
}

func (r *Registry) connectWithRetry(ctx context.Context, log *zap.Logger, hostPort string) (*rod.Browser, error) {
	var b *rod.Browser
	err := r.policy.Do(ctx, func(attempt int) error {
		var err error
		b, err = r.connect(ctx, hostPort)
		if err != nil {
			if attempt == 1 {
				log.Debug("chrome not reachable yet", zap.String("endpoint", hostPort))
			}
			return err
		}
		if attempt > 1 {
			log.Info("connected to chrome after retry", zap.Int("attempt", attempt))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// spawnChrome starts a detached Chrome bound to the store's profile.
// The process deliberately outlives us: session lifecycle beyond the
// initial launch is the operator's, and the profile holds their login.
func (r *Registry) spawnChrome(store config.Store, port int) error {
	args := []string{
		"--user-data-dir=" + store.ProfileDir,
		fmt.Sprintf("--remote-debugging-port=%d", port),
		"--no-first-run",
		"--no-default-browser-check",
	}
	if r.headless {
		args = append(args, "--headless=new", "--disable-gpu", "--window-size=1366,768")
	}

	cmd := exec.Command(r.chromePath, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func connectBrowser(ctx context.Context, hostPort string) (*rod.Browser, error) {
	wsURL, err := launcher.ResolveURL(hostPort)
	if err != nil {
		return nil, err
	}
	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, err
	}
	return b, nil
}

// probeBrowser is the cheap liveness check: listing targets exercises
// the DevTools socket without touching any page.
func probeBrowser(b *rod.Browser) error {
	_, err := b.Pages()
	return err
}
