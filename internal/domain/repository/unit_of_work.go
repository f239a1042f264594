package repository

import "context"

// UnitOfWork runs a function inside a single database transaction. Every
// repository call made with the context passed to fn joins that transaction;
// if fn returns an error all of its writes roll back together.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
