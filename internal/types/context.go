package types

import "context"

// contextKey is a private type to avoid collisions with other packages.
type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID stores the run correlation id in the context. The id is attached
// to every outbound request so that upstream store logs can be correlated
// with one ingestion run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// GetRunID retrieves the run correlation id from the context, or "" if unset.
func GetRunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}
