package semantic

import (
	"context"

	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
	"github.com/stanford-oval/thingtalk/thingpedia"
)

// Check performs the semantic analysis of a full program: declarations in
// source order, then rules in source order.  On success every primitive in
// the tree carries a fresh schema clone and every rule's in_params have
// been extended with undefined slots for the required inputs left
// unsupplied.  On failure the first error encountered is returned; the
// rewrites made before the failing check, such as schemas already attached
// to primitives and slots appended to earlier rules, are not rolled back.
func Check(ctx context.Context, prog *ast.Program, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	return a.semProgram(prog)
}

// CheckPermissionRule analyzes a permission rule: the principal filter
// over source, then the query and action filters against their allowed
// schemas.
func CheckPermissionRule(ctx context.Context, rule *ast.PermissionRule, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	return a.semPermissionRule(rule)
}

// CheckTable analyzes a single table against a fresh scope.
func CheckTable(ctx context.Context, table ast.Table, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	return a.semTable(table)
}

// CheckStream analyzes a single stream against a fresh scope.
func CheckStream(ctx context.Context, stream ast.Stream, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	return a.semStream(stream)
}

// CheckRule analyzes a single rule against a fresh scope.
func CheckRule(ctx context.Context, rule *ast.Rule, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	return a.semRule(rule)
}

// CheckFilter analyzes a filter against a schema in a fresh scope.
func CheckFilter(ctx context.Context, filter ast.BooleanExpression, schema *thingtalk.FunctionSchema, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	return a.semFilter(filter, schema)
}

// CheckInput analyzes a standalone action invocation: its schema is
// resolved and its input parameters are validated.
func CheckInput(ctx context.Context, inv *ast.Invocation, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	return a.semAction(inv)
}

// CheckOutput analyzes a standalone query invocation and publishes its
// outputs into a fresh scope.
func CheckOutput(ctx context.Context, inv *ast.Invocation, schemas thingpedia.SchemaSource, useMeta bool) error {
	a := newAnalyzer(ctx, schemas, useMeta)
	if err := a.ensureSchema(inv, thingtalk.Query); err != nil {
		return err
	}
	if err := a.checkInputParams(inv.InParams, inv.Schema); err != nil {
		return err
	}
	a.scope.Assign(inv.Schema.Out)
	return nil
}

type analyzer struct {
	ctx     context.Context
	schemas thingpedia.SchemaSource
	useMeta bool
	classes map[string]*ast.ClassDef
	scope   *Scope

	// isDeclaration activates the lifting of pending required inputs
	// into primitive schemas while a declaration body is checked.
	isDeclaration bool
}

func newAnalyzer(ctx context.Context, schemas thingpedia.SchemaSource, useMeta bool) *analyzer {
	return &analyzer{
		ctx:     ctx,
		schemas: schemas,
		useMeta: useMeta,
		classes: make(map[string]*ast.ClassDef),
		scope:   NewScope(),
	}
}

// fork produces an analyzer sharing everything but operating on its own
// scope, used for the two sides of a join.
func (a *analyzer) fork(ctx context.Context, scope *Scope) *analyzer {
	return &analyzer{
		ctx:           ctx,
		schemas:       a.schemas,
		useMeta:       a.useMeta,
		classes:       a.classes,
		scope:         scope,
		isDeclaration: a.isDeclaration,
	}
}
