package thingpedia

import (
	"context"
	"sync"

	"github.com/stanford-oval/thingtalk"
)

// A MemorySource is a map-backed SchemaSource.  It backs tests and
// embedders that assemble their signatures locally, and doubles as the
// store for user-declared tables.
type MemorySource struct {
	mu      sync.RWMutex
	schemas map[sourceKey]*thingtalk.FunctionSchema
	tables  map[string]*thingtalk.FunctionSchema
}

type sourceKey struct {
	kind    string
	channel string
	what    thingtalk.FunctionKind
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		schemas: make(map[sourceKey]*thingtalk.FunctionSchema),
		tables:  make(map[string]*thingtalk.FunctionSchema),
	}
}

// Add registers the signature of a device function.
func (m *MemorySource) Add(kind, channel string, schema *thingtalk.FunctionSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[sourceKey{kind, channel, schema.Kind}] = schema
}

// AddTable registers a user-declared table.
func (m *MemorySource) AddTable(name string, schema *thingtalk.FunctionSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = schema
}

func (m *MemorySource) SchemaForSelector(ctx context.Context, kind, channel string, what thingtalk.FunctionKind, useMeta bool) (*thingtalk.FunctionSchema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schemas[sourceKey{kind, channel, what}], nil
}

func (m *MemorySource) MemorySchema(ctx context.Context, table string, useMeta bool) (*thingtalk.FunctionSchema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables[table], nil
}

func (m *MemorySource) AllowedSchema(ctx context.Context, kind, channel string, what thingtalk.FunctionKind, useMeta bool) (*thingtalk.FunctionSchema, error) {
	return m.SchemaForSelector(ctx, kind, channel, what, useMeta)
}

var _ SchemaSource = (*MemorySource)(nil)
