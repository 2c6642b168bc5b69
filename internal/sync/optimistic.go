package sync

import (
	"context"

	"breadshare-client/internal/api"
)

// Optimistic applies a local mutation, runs the backend call, and rolls the
// mutation back when the call fails. Conflicts are the exception: the
// server's reply carries the true state and the caller rewrites local state
// from it, so the optimistic apply is left in place for the conflict handler
// to overwrite. Every optimistic call site shares this one contract.
func Optimistic(ctx context.Context, apply, rollback func(), call func(context.Context) error) error {
	apply()
	err := call(ctx)
	if err == nil {
		return nil
	}
	if !api.IsConflict(err) {
		rollback()
	}
	return err
}
