package semantic

import (
	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
	"github.com/stanford-oval/thingtalk/thingpedia"
)

// ensureSchema fills a primitive's schema from the oracle.  It is the
// analyzer's only suspending operation.  A schema already attached is
// left alone, which also makes re-analysis of a checked tree a no-op.
func (a *analyzer) ensureSchema(inv *ast.Invocation, kind thingtalk.FunctionKind) error {
	if inv.Schema != nil {
		return nil
	}
	if inv.Selector == nil || inv.Selector.Builtin {
		if kind != thingtalk.Action {
			return errorf(ErrUnknownFunction, "no builtin %s @%s", kind, inv.Channel)
		}
		schema, ok := thingpedia.BuiltinAction(inv.Channel)
		if !ok {
			return errorf(ErrInvalidBuiltinAction, "invalid builtin action @%s", inv.Channel)
		}
		inv.Schema = schema.Clone()
		return nil
	}
	devKind := inv.Selector.Kind
	if class, ok := a.classes[devKind]; ok {
		devKind = class.Extends
	}
	schema, err := a.schemas.SchemaForSelector(a.ctx, devKind, inv.Channel, kind, a.useMeta)
	if err != nil {
		return err
	}
	if schema == nil {
		return errorf(ErrUnknownFunction, "no such function @%s.%s", devKind, inv.Channel)
	}
	inv.Schema = schema.Clone()
	return nil
}

// externalSchema resolves the query schema of an external boolean
// sub-expression.
func (a *analyzer) externalSchema(e *ast.ExternalBoolean) error {
	if e.Schema != nil {
		return nil
	}
	if e.Selector == nil || e.Selector.Builtin {
		return errorf(ErrUnknownFunction, "no builtin query @%s", e.Channel)
	}
	devKind := e.Selector.Kind
	if class, ok := a.classes[devKind]; ok {
		devKind = class.Extends
	}
	schema, err := a.schemas.SchemaForSelector(a.ctx, devKind, e.Channel, thingtalk.Query, a.useMeta)
	if err != nil {
		return err
	}
	if schema == nil {
		return errorf(ErrUnknownFunction, "no such function @%s.%s", devKind, e.Channel)
	}
	e.Schema = schema.Clone()
	return nil
}

// memorySchema resolves a user-declared table by name.
func (a *analyzer) memorySchema(name string) (*thingtalk.FunctionSchema, error) {
	schema, err := a.schemas.MemorySchema(a.ctx, name, a.useMeta)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, errorf(ErrUnknownMemoryTable, "no such table %q", name)
	}
	return schema.Clone(), nil
}
