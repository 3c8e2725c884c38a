package shared

import "context"

// TransactionManager runs fn inside one storage transaction. Repositories
// called with the ctx passed to fn join that transaction; nested calls reuse
// the outer one.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
