package tx

import "context"

// NopManager runs functions directly without any transaction. Used in tests
// where transactional semantics are not under test.
type NopManager struct{}

// RunInTransaction implements Manager.
func (NopManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// RunSerializable implements Manager.
func (NopManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly implements ReadOnlyManager.
func (NopManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
