package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/usecase"
	"github.com/tootbridge/mastodon-chat-bridge/internal/metrics"
)

// CostWatcher periodically re-reads today's spend into the daily cost gauge,
// so the gauge drops back at midnight even when no mentions arrive
type CostWatcher struct {
	costGate *usecase.CostGate
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCostWatcher creates a new cost watcher
func NewCostWatcher(costGate *usecase.CostGate, interval time.Duration, logger *slog.Logger) *CostWatcher {
	return &CostWatcher{
		costGate: costGate,
		interval: interval,
		logger:   logger.With("component", "cost-watcher"),
	}
}

// Start starts the watcher loop
func (w *CostWatcher) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("started", "interval", w.interval)
}

// Stop stops the watcher and waits for the loop to exit
func (w *CostWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *CostWatcher) loop() {
	defer w.wg.Done()

	w.refresh()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

// refresh reads today's spend once
func (w *CostWatcher) refresh() {
	verdict, cost, err := w.costGate.Check(w.ctx)
	if err != nil {
		if w.ctx.Err() == nil {
			w.logger.Warn("daily cost refresh failed", "error", err)
		}
		return
	}

	metrics.DailyCost.Set(cost.InexactFloat64())
	w.logger.Debug("daily cost refreshed", "cost", cost.String(), "status", verdict.String())
}
