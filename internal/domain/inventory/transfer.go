package inventory

import "github.com/hospital-erp/backend/internal/domain/shared"

// Transfer moves quantity units from a warehouse item into a department
// item. The whole quantity must be on hand. Each batch the warehouse gives
// up arrives in the department as a new batch with the same expiry and
// supplier, so provenance survives the move.
func Transfer(source, dest *StockItem, quantity int) (ConsumeResult, error) {
	if source == nil || dest == nil {
		return ConsumeResult{}, shared.NewDomainError("INVALID_INPUT", "Source and destination items are required")
	}
	if !source.Scope.IsMain() || dest.Scope.IsMain() {
		return ConsumeResult{}, shared.NewDomainError("INVALID_INPUT", "Transfers move stock from the warehouse into a department")
	}
	if source.ItemName != dest.ItemName {
		return ConsumeResult{}, shared.NewDomainErrorf("INVALID_INPUT",
			"Cannot transfer %s into %s", source.ItemName, dest.ItemName)
	}

	before := cloneBatches(source.Batches)
	result, err := source.ConsumeStrict(quantity)
	if err != nil {
		return ConsumeResult{}, err
	}

	moved := make([]Batch, 0, len(result.Deductions))
	for _, d := range result.Deductions {
		from := before[d.Index]
		moved = append(moved, Batch{
			Quantity:   d.Deducted,
			ExpiryDate: from.ExpiryDate,
			Supplier:   from.Supplier,
		})
	}
	if err := dest.Restock(moved...); err != nil {
		return ConsumeResult{}, err
	}
	return result, nil
}
