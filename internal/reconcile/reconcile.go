// Package reconcile drives the poll loop that fills unresolved rows of
// the tracking sheet with resolved case details.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"refundwatch/internal/config"
	"refundwatch/internal/portal"
	"refundwatch/internal/retry"
	"refundwatch/internal/sheet"

	"go.uber.org/zap"
)

// Sentinel is written to column B when no store yields a case, so the
// row is not retried on later passes. Clearing column B externally
// re-queues the row.
const Sentinel = "NOT FOUND"

// derivedColumns is the width of the B..Q output range.
const derivedColumns = 16

// cooldown follows a pass that failed outside the resolution path
// (sheet read/write errors and the like).
const cooldown = 5 * time.Second

// OrderResolver is the per-row lookup the loop drives. A nil summary
// means the order was not found at any store.
type OrderResolver interface {
	Resolve(ctx context.Context, orderSN string) *portal.CaseSummary
}

// Loop polls the sheet and reconciles unresolved rows, forever. Rows
// are processed strictly sequentially: one resolution at a time is the
// concurrency-safety strategy for the shared per-store session state.
type Loop struct {
	store    sheet.Store
	resolver OrderResolver
	interval time.Duration
	dryRun   bool
	log      *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop builds the reconciliation loop from the loaded configuration.
func NewLoop(store sheet.Store, resolver OrderResolver, cfg *config.Config, log *zap.Logger) *Loop {
	return &Loop{
		store:    store,
		resolver: resolver,
		interval: cfg.PollInterval(),
		dryRun:   cfg.DryRun,
		log:      log,
		sleep:    retry.Sleep,
	}
}

// Run polls until ctx is cancelled. Errors inside one pass are contained
// and followed by a cooldown sleep; only cancellation ends the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("sheet watcher running",
		zap.Duration("poll_interval", l.interval),
		zap.Bool("dry_run", l.dryRun))

	for {
		if err := l.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Error("reconciliation pass failed", zap.Error(err))
			if serr := l.sleep(ctx, cooldown); serr != nil {
				return serr
			}
			continue
		}
		if err := l.sleep(ctx, l.interval); err != nil {
			return err
		}
	}
}

// runOnce performs one full pass: read the grid, resolve every pending
// row, flush the pending updates.
func (l *Loop) runOnce(ctx context.Context) error {
	grid, err := l.store.Grid(ctx)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}
	if len(grid) <= 1 {
		return nil
	}

	var updates []sheet.RowUpdate
	alreadyResolved := 0
	for i, row := range grid[1:] {
		rowNum := i + 2

		orderSN := strings.TrimSpace(cell(row, 0))
		if orderSN == "" {
			continue
		}
		// A non-empty column B means the row was handled on an earlier
		// pass; the sheet itself is the dedupe state.
		if strings.TrimSpace(cell(row, 1)) != "" {
			alreadyResolved++
			continue
		}

		l.log.Info("resolving row", zap.Int("row", rowNum), zap.String("order", orderSN))
		summary := l.resolver.Resolve(ctx, orderSN)
		if summary != nil {
			l.log.Info("row resolved",
				zap.Int("row", rowNum),
				zap.String("product", summary.ProductName),
				zap.String("store", summary.StoreCode))
		} else {
			l.log.Info("row not found at any store", zap.Int("row", rowNum))
		}
		updates = append(updates, sheet.RowUpdate{Row: rowNum, Values: rowValues(summary)})
	}

	if len(updates) == 0 {
		l.log.Info("no pending rows", zap.Int("already_resolved", alreadyResolved))
		return nil
	}
	if l.dryRun {
		l.log.Info("dry run, skipping sheet write", zap.Int("updates", len(updates)))
		return nil
	}
	if err := l.store.Apply(ctx, updates); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}
	l.log.Info("batch update complete", zap.Int("rows", len(updates)))
	return nil
}

// rowValues lays out the B..Q cells for one row. A nil summary produces
// the sentinel row: "NOT FOUND" followed by fifteen blanks.
func rowValues(s *portal.CaseSummary) []interface{} {
	vals := make([]interface{}, derivedColumns)
	for i := range vals {
		vals[i] = ""
	}
	if s == nil {
		vals[0] = Sentinel
		return vals
	}
	vals[0] = s.ProductName
	vals[1] = s.ProductSKU
	vals[2] = s.BuyerName
	vals[3] = s.Qty
	vals[4] = s.RequestSolution
	vals[5] = s.RequestReason
	vals[6] = s.StatusText
	vals[7] = s.RefundAmountDisplay
	vals[8] = s.ForwardCarrier
	vals[9] = s.ForwardTracking
	vals[10] = s.ReverseCarrier
	vals[11] = s.ReverseTracking
	vals[12] = s.ReverseStatus
	vals[13] = s.ReverseHint
	vals[14] = s.StoreCode
	vals[15] = s.StoreName
	return vals
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
