// Package resolver locates which configured store, if any, holds a case
// for an order and returns its flattened summary.
package resolver

import (
	"context"

	"refundwatch/internal/config"
	"refundwatch/internal/portal"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

// SessionSource hands out a live browser for a store.
type SessionSource interface {
	Acquire(ctx context.Context, store config.Store) (*rod.Browser, error)
}

// PageSource finds or opens the portal tab in a session.
type PageSource interface {
	Locate(ctx context.Context, b *rod.Browser, storeCode string) (*rod.Page, error)
}

// Fetcher runs the case-list call inside a portal tab.
type Fetcher interface {
	Fetch(ctx context.Context, page *rod.Page, orderSN string) portal.Outcome
}

// Resolver fans an order lookup out across the configured stores in
// priority order, short-circuiting on the first hit. Every per-store
// failure mode only skips that store: a store with stale session state
// must never block discovery of the order at another store.
type Resolver struct {
	sessions SessionSource
	pages    PageSource
	fetcher  Fetcher
	stores   []config.Store
	log      *zap.Logger
}

// New wires a resolver over its collaborators.
func New(sessions SessionSource, pages PageSource, fetcher Fetcher, stores []config.Store, log *zap.Logger) *Resolver {
	return &Resolver{
		sessions: sessions,
		pages:    pages,
		fetcher:  fetcher,
		stores:   stores,
		log:      log,
	}
}

// Resolve returns the first store's case summary for the order, or nil
// when every store has been exhausted without a match.
func (r *Resolver) Resolve(ctx context.Context, orderSN string) *portal.CaseSummary {
	for _, store := range r.stores {
		log := r.log.With(zap.String("store", store.Code), zap.String("order", orderSN))
		log.Info("searching store")

		b, err := r.sessions.Acquire(ctx, store)
		if err != nil {
			log.Warn("no browser session for store", zap.Error(err))
			continue
		}

		page, err := r.pages.Locate(ctx, b, store.Code)
		if err != nil {
			log.Warn("no portal page for store", zap.Error(err))
			continue
		}

		out := r.fetcher.Fetch(ctx, page, orderSN)
		switch out.Kind {
		case portal.OutcomeExecutionError:
			log.Warn("fetch script kept failing", zap.Error(out.Err))
			continue
		case portal.OutcomeMalformed:
			log.Warn("portal reply was not a case list")
			continue
		case portal.OutcomeHTTPError:
			log.Warn("portal kept answering with an HTTP error", zap.Int("status", out.Status))
			continue
		}

		class, summary := portal.Classify(out.Raw, store.Code, store.Name)
		switch class {
		case portal.ClassAuthError:
			log.Warn("portal rejected the request, session likely needs a fresh login")
			continue
		case portal.ClassNoCase:
			log.Info("no cases at this store", zap.Int("error_code", out.Raw.Error))
			continue
		}
		return summary
	}

	r.log.Info("order not found at any store", zap.String("order", orderSN))
	return nil
}
