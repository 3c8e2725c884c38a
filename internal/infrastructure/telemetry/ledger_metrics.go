package telemetry

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("NewLedgerMetrics: meter cannot be nil")

// StockHealthProvider reports point-in-time stock health for periodic collection.
type StockHealthProvider interface {
	// CountLowStock returns the number of warehouse items under their restock threshold
	CountLowStock(ctx context.Context) (int64, error)

	// CountExpiredBatches returns the number of non-empty batches whose expiry is before now
	CountExpiredBatches(ctx context.Context, now time.Time) (int64, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	HealthProvider  StockHealthProvider
}

// LedgerMetrics tracks stock movements, depletion deficits and checkout
// token outcomes.
type LedgerMetrics struct {
	logger *zap.Logger

	transactionsTotal *Counter
	consumedUnits     *Counter
	deficitUnits      *Counter
	checkoutsTotal    *Counter

	lowStockItems  *Gauge
	expiredBatches *Gauge

	healthProvider  StockHealthProvider
	collectInterval time.Duration
	stopChan        chan struct{}
	stopOnce        sync.Once
	startOnce       sync.Once
}

// NewLedgerMetrics creates the ledger instruments on the given meter.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CollectInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	lm := &LedgerMetrics{
		logger:          logger,
		healthProvider:  cfg.HealthProvider,
		collectInterval: interval,
		stopChan:        make(chan struct{}),
	}

	var err error
	if lm.transactionsTotal, err = NewCounter(cfg.Meter,
		"erp_inventory_transactions_total", "Inventory transactions written to the ledger", "{transactions}"); err != nil {
		return nil, err
	}
	if lm.consumedUnits, err = NewCounter(cfg.Meter,
		"erp_inventory_consumed_units_total", "Units taken out of batches by depletion", "{units}"); err != nil {
		return nil, err
	}
	if lm.deficitUnits, err = NewCounter(cfg.Meter,
		"erp_inventory_deficit_units_total", "Units requested but not covered by any batch", "{units}"); err != nil {
		return nil, err
	}
	if lm.checkoutsTotal, err = NewCounter(cfg.Meter,
		"erp_checkout_total", "Checkout attempts by path and outcome", "{checkouts}"); err != nil {
		return nil, err
	}
	if lm.lowStockItems, err = NewGauge(cfg.Meter,
		"erp_inventory_low_stock_items", "Warehouse items under their restock threshold", "{items}"); err != nil {
		return nil, err
	}
	if lm.expiredBatches, err = NewGauge(cfg.Meter,
		"erp_inventory_expired_batches", "Batches past their expiry date that still hold stock", "{batches}"); err != nil {
		return nil, err
	}

	return lm, nil
}

func departmentAttr(departmentID *int64) attribute.KeyValue {
	if departmentID == nil {
		return AttrDepartmentID.String("main")
	}
	return AttrDepartmentID.String(strconv.FormatInt(*departmentID, 10))
}

// RecordTransaction counts one ledger write. The Record methods are no-ops
// on a nil receiver so services run without metrics configured.
func (lm *LedgerMetrics) RecordTransaction(ctx context.Context, txType string, departmentID *int64) {
	if lm == nil {
		return
	}
	lm.transactionsTotal.Inc(ctx, AttrTransactionType.String(txType), departmentAttr(departmentID))
}

// RecordConsumption counts consumed units and any deficit of one depletion run.
func (lm *LedgerMetrics) RecordConsumption(ctx context.Context, departmentID *int64, consumed, deficit int) {
	if lm == nil {
		return
	}
	dept := departmentAttr(departmentID)
	if consumed > 0 {
		lm.consumedUnits.Add(ctx, int64(consumed), dept)
	}
	if deficit > 0 {
		lm.deficitUnits.Add(ctx, int64(deficit), dept)
	}
}

// RecordCheckout counts a checkout attempt. path is "token" or "manual".
func (lm *LedgerMetrics) RecordCheckout(ctx context.Context, path string, ok bool) {
	if lm == nil {
		return
	}
	outcome := "redeemed"
	if !ok {
		outcome = "rejected"
	}
	lm.checkoutsTotal.Inc(ctx, AttrCheckoutPath.String(path), AttrOutcome.String(outcome))
}

// StartPeriodicCollection samples stock health until ctx is done or Stop is
// called. It is a no-op without a health provider and runs at most once.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context) {
	if lm.healthProvider == nil {
		return
	}
	lm.startOnce.Do(func() {
		go lm.run(ctx)
	})
}

func (lm *LedgerMetrics) run(ctx context.Context) {
	ticker := time.NewTicker(lm.collectInterval)
	defer ticker.Stop()

	lm.Collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-lm.stopChan:
			return
		case <-ticker.C:
			lm.Collect(ctx)
		}
	}
}

// Collect samples stock health once.
func (lm *LedgerMetrics) Collect(ctx context.Context) {
	if lm.healthProvider == nil {
		return
	}
	if n, err := lm.healthProvider.CountLowStock(ctx); err != nil {
		lm.logger.Warn("Failed to count low stock items", zap.Error(err))
	} else {
		lm.lowStockItems.Record(ctx, n)
	}
	if n, err := lm.healthProvider.CountExpiredBatches(ctx, time.Now()); err != nil {
		lm.logger.Warn("Failed to count expired batches", zap.Error(err))
	} else {
		lm.expiredBatches.Record(ctx, n)
	}
}

// Stop ends periodic collection.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}
