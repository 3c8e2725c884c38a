package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GormStockHealthProvider implements StockHealthProvider with aggregate
// queries over the stock tables.
type GormStockHealthProvider struct {
	db *gorm.DB
}

// NewGormStockHealthProvider creates a new GormStockHealthProvider.
func NewGormStockHealthProvider(db *gorm.DB) *GormStockHealthProvider {
	return &GormStockHealthProvider{db: db}
}

// CountLowStock returns the number of warehouse items whose summed batch
// quantity is under the restock threshold.
func (p *GormStockHealthProvider) CountLowStock(ctx context.Context) (int64, error) {
	onHand := p.db.Table("stock_batches").
		Select("COALESCE(SUM(stock_batches.quantity), 0)").
		Where("stock_batches.item_id = stock_items.id")

	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_items").
		Where("stock_items.department_id = ?", 0).
		Where("(?) < stock_items.restock_threshold", onHand).
		Count(&count).Error
	return count, err
}

// CountExpiredBatches returns the number of batches past expiry that still hold stock.
func (p *GormStockHealthProvider) CountExpiredBatches(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_batches").
		Where("quantity > 0 AND expiry_date IS NOT NULL AND expiry_date < ?", now).
		Count(&count).Error
	return count, err
}
