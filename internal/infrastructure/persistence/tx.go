package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager implements shared.TransactionManager on a gorm connection.
// The open transaction travels in the context so every repository called
// with that context joins it.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a new TxManager
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTransaction runs fn in a transaction, committing when fn returns nil.
// A call made inside an existing transaction reuses it.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
