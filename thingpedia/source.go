// Package thingpedia provides access to Thingpedia function signatures:
// the schema oracle consumed by the semantic analyzer.  The analyzer sees
// only the SchemaSource interface; this package ships a map-backed source
// for embedding and tests and an HTTP client for a Thingpedia-style
// schema API.
package thingpedia

import (
	"context"

	"github.com/stanford-oval/thingtalk"
)

// A SchemaSource resolves Thingpedia function signatures.  All methods
// may suspend; they return (nil, nil) when the function, table, or
// permission simply does not exist, and an error only for genuine
// failures.  Implementations must be safe for concurrent use.
type SchemaSource interface {
	// SchemaForSelector fetches the declared signature of the function
	// channel of the device kind.
	SchemaForSelector(ctx context.Context, kind, channel string, what thingtalk.FunctionKind, useMeta bool) (*thingtalk.FunctionSchema, error)

	// MemorySchema fetches the schema of a user-declared table.
	MemorySchema(ctx context.Context, table string, useMeta bool) (*thingtalk.FunctionSchema, error)

	// AllowedSchema fetches the signature a permission rule grants for
	// the named function.
	AllowedSchema(ctx context.Context, kind, channel string, what thingtalk.FunctionKind, useMeta bool) (*thingtalk.FunctionSchema, error)
}
