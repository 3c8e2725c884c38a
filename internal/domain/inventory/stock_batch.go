package inventory

import (
	"time"
)

// Batch is one provenance record of stock for an item. Quantity never goes
// below zero; an exhausted batch is kept for audit.
type Batch struct {
	ID         int64
	Quantity   int
	ExpiryDate *time.Time
	Supplier   string
	CreatedAt  time.Time
}

// NewBatch creates a batch for restocking
func NewBatch(quantity int, expiryDate *time.Time, supplier string) (Batch, error) {
	if quantity <= 0 {
		return Batch{}, ErrInvalidQuantity
	}
	return Batch{
		Quantity:   quantity,
		ExpiryDate: expiryDate,
		Supplier:   supplier,
	}, nil
}

// Deduct removes up to quantity units and returns what was actually taken.
func (b *Batch) Deduct(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	if quantity > b.Quantity {
		quantity = b.Quantity
	}
	b.Quantity -= quantity
	return quantity
}

// HasStock returns true if the batch has available quantity
func (b Batch) HasStock() bool {
	return b.Quantity > 0
}

// IsExpired returns true if the batch has an expiry date before now
func (b Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

func cloneBatches(batches []Batch) []Batch {
	if batches == nil {
		return nil
	}
	out := make([]Batch, len(batches))
	for i, b := range batches {
		out[i] = b
		if b.ExpiryDate != nil {
			exp := *b.ExpiryDate
			out[i].ExpiryDate = &exp
		}
	}
	return out
}
