package semantic

import (
	"golang.org/x/sync/errgroup"

	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
)

// semTable does the recursive semantic analysis of a table.  Every case
// leaves the node with a schema that is a fresh clone, never a shared
// Thingpedia signature, and leaves the scope updated with the node's
// outputs, removals, or aliases.
func (a *analyzer) semTable(t ast.Table) error {
	switch t := t.(type) {
	case *ast.InvocationTable:
		if err := a.ensureSchema(t.Invocation, thingtalk.Query); err != nil {
			return err
		}
		schema := t.Invocation.Schema.Clone()
		t.Schema = schema
		if err := a.checkInputParams(t.Invocation.InParams, schema); err != nil {
			return err
		}
		a.scope.Assign(schema.Out)
		return nil
	case *ast.VarRefTable:
		var schema *thingtalk.FunctionSchema
		if global, ok := a.scope.GetGlobal(t.Name); ok {
			schema = global.Clone()
		} else {
			var err error
			if schema, err = a.memorySchema(t.Name); err != nil {
				return err
			}
		}
		t.Schema = schema
		if err := a.checkInputParams(t.InParams, schema); err != nil {
			return err
		}
		a.scope.Assign(schema.Out)
		return nil
	case *ast.FilteredTable:
		if err := a.semTable(t.Table); err != nil {
			return err
		}
		schema := t.Table.FunctionSchema().Clone()
		t.Schema = schema
		return a.semFilter(t.Filter, schema)
	case *ast.ProjectionTable:
		if err := a.semTable(t.Table); err != nil {
			return err
		}
		schema := t.Table.FunctionSchema().Clone()
		t.Schema = schema
		return a.resolveProjection(t.Args, schema)
	case *ast.AliasTable:
		if err := a.semTable(t.Table); err != nil {
			return err
		}
		schema := t.Table.FunctionSchema().Clone()
		t.Schema = schema
		if err := a.scope.AddGlobal(t.Name, schema); err != nil {
			return err
		}
		a.scope.Prefix(t.Name)
		return nil
	case *ast.AggregationTable:
		return a.semAggregation(t)
	case *ast.ArgMinMaxTable:
		return a.semArgMinMax(t)
	case *ast.JoinTable:
		return a.semJoinTable(t)
	case *ast.WindowTable:
		if err := a.rangeValue(t.Base, thingtalk.TypeNumber, ErrInvalidRange, "window base"); err != nil {
			return err
		}
		if err := a.rangeValue(t.Delta, thingtalk.TypeNumber, ErrInvalidRange, "window delta"); err != nil {
			return err
		}
		if err := a.semStream(t.Stream); err != nil {
			return err
		}
		t.Schema = t.Stream.FunctionSchema().Clone()
		return nil
	case *ast.TimeSeriesTable:
		if err := a.rangeValue(t.Base, thingtalk.TypeDate, ErrInvalidTimeRange, "time series base"); err != nil {
			return err
		}
		if err := a.rangeValue(t.Delta, measureMs, ErrInvalidTimeRange, "time series delta"); err != nil {
			return err
		}
		if err := a.semStream(t.Stream); err != nil {
			return err
		}
		t.Schema = t.Stream.FunctionSchema().Clone()
		return nil
	case *ast.SequenceTable:
		if err := a.rangeValue(t.Base, thingtalk.TypeNumber, ErrInvalidRange, "sequence base"); err != nil {
			return err
		}
		if err := a.rangeValue(t.Delta, thingtalk.TypeNumber, ErrInvalidRange, "sequence delta"); err != nil {
			return err
		}
		if err := a.semTable(t.Table); err != nil {
			return err
		}
		t.Schema = t.Table.FunctionSchema().Clone()
		return nil
	case *ast.HistoryTable:
		if err := a.rangeValue(t.Base, thingtalk.TypeDate, ErrInvalidTimeRange, "history base"); err != nil {
			return err
		}
		if err := a.rangeValue(t.Delta, measureMs, ErrInvalidTimeRange, "history delta"); err != nil {
			return err
		}
		if err := a.semTable(t.Table); err != nil {
			return err
		}
		t.Schema = t.Table.FunctionSchema().Clone()
		return nil
	case *ast.ComputeTable:
		if err := a.semTable(t.Table); err != nil {
			return err
		}
		schema := t.Table.FunctionSchema().Clone()
		t.Schema = schema
		result, err := a.semScalarExpression(t.Expression, schema)
		if err != nil {
			return err
		}
		name := t.Alias
		if name == "" {
			name = "result"
		}
		a.cleanOutput(schema)
		return a.addOutput(schema, name, result)
	default:
		return errorf(ErrNotImplemented, "unsupported table %T", t)
	}
}

func (a *analyzer) semAggregation(t *ast.AggregationTable) error {
	if err := a.semTable(t.Table); err != nil {
		return err
	}
	schema := t.Table.FunctionSchema().Clone()
	t.Schema = schema
	name := t.Alias
	if t.Field == "*" {
		if t.Operator != "count" {
			return errorf(ErrInvalidAggregationFld, "* is not a valid argument to %s", t.Operator)
		}
		if name == "" {
			name = "count"
		}
		t.Overload = []thingtalk.Type{thingtalk.TypeAny, thingtalk.TypeNumber}
		a.cleanOutput(schema)
		return a.addOutput(schema, name, thingtalk.TypeNumber)
	}
	fieldType, ok := schema.Out[t.Field]
	if !ok {
		return errorf(ErrInvalidAggregationFld, "invalid aggregation field %q%s", t.Field, suggest(t.Field, outputNames(schema)))
	}
	result, operands, err := resolveOverload(aggregations, t.Operator, []thingtalk.Type{fieldType}, false)
	if err != nil {
		if CodeOf(err) == ErrInvalidParameterTypes {
			return errorf(ErrInvalidAggregation, "invalid aggregation %s over a field of type %s", t.Operator, fieldType)
		}
		return err
	}
	t.Overload = []thingtalk.Type{operands[0], result}
	if name == "" {
		name = t.Operator
	}
	a.cleanOutput(schema)
	return a.addOutput(schema, name, result)
}

func (a *analyzer) semArgMinMax(t *ast.ArgMinMaxTable) error {
	if t.Operator != "argmin" && t.Operator != "argmax" {
		return errorf(ErrInvalidOperator, "invalid operator %q", t.Operator)
	}
	if err := a.semTable(t.Table); err != nil {
		return err
	}
	schema := t.Table.FunctionSchema().Clone()
	t.Schema = schema
	fieldType, ok := schema.Out[t.Field]
	if !ok {
		return errorf(ErrInvalidArgMinMaxField, "invalid %s field %q%s", t.Operator, t.Field, suggest(t.Field, outputNames(schema)))
	}
	if !isOrderable(fieldType) {
		return errorf(ErrInvalidArgMinMaxField, "invalid %s over a field of type %s", t.Operator, fieldType)
	}
	if err := a.rangeValue(t.Base, thingtalk.TypeNumber, ErrInvalidRange, t.Operator+" base"); err != nil {
		return err
	}
	return a.rangeValue(t.Limit, thingtalk.TypeNumber, ErrInvalidRange, t.Operator+" limit")
}

func (a *analyzer) semJoinTable(t *ast.JoinTable) error {
	leftscope, rightscope := a.scope.Clone(), a.scope.Clone()
	g, ctx := errgroup.WithContext(a.ctx)
	al, ar := a.fork(ctx, leftscope), a.fork(ctx, rightscope)
	g.Go(func() error { return al.semTable(t.LHS) })
	g.Go(func() error { return ar.semTable(t.RHS) })
	if err := g.Wait(); err != nil {
		return err
	}
	lhs, rhs := t.LHS.FunctionSchema(), t.RHS.FunctionSchema()
	passed := make(map[string]bool, len(t.InParams))
	for _, ip := range t.InParams {
		passed[ip.Name] = true
	}
	schema := thingtalk.NewFunctionSchema(lhs.Kind)
	dups := resolveJoin(schema, lhs, rhs, passed)
	t.Schema = schema
	// The rhs may consume lhs outputs through $event, so the event comes
	// into scope for the parameter-passing values.
	leftscope.SetHasEvent(true)
	supplied := make(map[string]bool)
	for _, ip := range t.InParams {
		delete(rightscope.inReq, ip.Name)
		if err := al.checkInputParam(ip, rhs, supplied, leftscope); err != nil {
			return err
		}
	}
	a.scope.Merge(leftscope)
	a.scope.Merge(rightscope)
	for _, name := range dups {
		a.scope.AddConflict(name)
	}
	return nil
}

func outputNames(schema *thingtalk.FunctionSchema) []string {
	return schema.Args[schema.NumInputs():]
}
