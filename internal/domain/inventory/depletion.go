package inventory

import "github.com/hospital-erp/backend/internal/domain/shared"

// ErrInvalidQuantity is returned when a quantity is not strictly positive.
var ErrInvalidQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")

// BatchDeduction records how much was taken from one batch.
type BatchDeduction struct {
	Index     int
	BatchID   int64
	Deducted  int
	Remaining int
}

// ConsumeResult describes one depletion run. Deficit is the part of the
// request that could not be satisfied by the batches that were present.
type ConsumeResult struct {
	Requested  int
	Consumed   int
	Deficit    int
	Deductions []BatchDeduction
}

// HasDeficit reports whether the batches ran out before the request was met.
func (r ConsumeResult) HasDeficit() bool {
	return r.Deficit > 0
}

// EffectiveQuantity is the sum of all batch quantities.
func EffectiveQuantity(batches []Batch) int {
	total := 0
	for _, b := range batches {
		total += b.Quantity
	}
	return total
}

// Consume deducts quantity from batches in list order and returns the
// resulting batch list; the input slice is left untouched. Each batch gives
// min(batch.Quantity, remaining). A shortfall is reported in the result's
// Deficit instead of failing, and no batch ever goes below zero.
func Consume(batches []Batch, quantity int) ([]Batch, ConsumeResult, error) {
	if quantity <= 0 {
		return nil, ConsumeResult{}, ErrInvalidQuantity
	}

	out := cloneBatches(batches)
	result := ConsumeResult{
		Requested:  quantity,
		Deductions: make([]BatchDeduction, 0),
	}

	remaining := quantity
	for i := range out {
		if remaining == 0 {
			break
		}
		if !out[i].HasStock() {
			continue
		}
		deducted := out[i].Deduct(remaining)
		remaining -= deducted
		result.Deductions = append(result.Deductions, BatchDeduction{
			Index:     i,
			BatchID:   out[i].ID,
			Deducted:  deducted,
			Remaining: out[i].Quantity,
		})
	}

	result.Consumed = quantity - remaining
	result.Deficit = remaining
	return out, result, nil
}

// Restock appends the new batches after the existing ones without merging,
// even when expiry and supplier match.
func Restock(batches []Batch, newBatches []Batch) ([]Batch, error) {
	if len(newBatches) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one batch is required")
	}
	for _, b := range newBatches {
		if b.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	out := make([]Batch, 0, len(batches)+len(newBatches))
	out = append(out, cloneBatches(batches)...)
	out = append(out, cloneBatches(newBatches)...)
	return out, nil
}
