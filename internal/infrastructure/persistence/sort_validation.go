package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a safe ORDER BY clause from user input
func orderClause(field, dir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(field, allowed, defaultField) + " " + ValidateSortOrder(dir)
}

// likePattern wraps a normalized search term for a LIKE match
func likePattern(term string) string {
	return "%" + term + "%"
}

// TransactionSortFields contains allowed sort fields for inventory transactions
var TransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"item_name":        true,
	"quantity":         true,
	"transaction_type": true,
}

// InventoryRequestSortFields contains allowed sort fields for inventory requests
var InventoryRequestSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"item_name":  true,
	"quantity":   true,
	"status":     true,
}

// PurchaseRequestSortFields contains allowed sort fields for purchase requests
var PurchaseRequestSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"item_name":     true,
	"deadline_date": true,
	"status":        true,
}
