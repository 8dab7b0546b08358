package semantic_test

import (
	"context"
	"testing"

	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
	"github.com/stanford-oval/thingtalk/compiler/semantic"
	"github.com/stanford-oval/thingtalk/thingpedia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchemas(t *testing.T) *thingpedia.MemorySource {
	t.Helper()
	source := thingpedia.NewMemorySource()

	post := thingtalk.NewFunctionSchema(thingtalk.Action)
	require.NoError(t, post.AddInput("status", thingtalk.TypeString, true))
	source.Add("com.twitter", "post", post)

	call := thingtalk.NewFunctionSchema(thingtalk.Action)
	require.NoError(t, call.AddInput("number", thingtalk.NewEntity("tt:phone_number"), true))
	source.Add("com.phone", "call", call)

	weather := thingtalk.NewFunctionSchema(thingtalk.Query)
	require.NoError(t, weather.AddInput("location", thingtalk.TypeLocation, true))
	require.NoError(t, weather.AddOutput("temperature", thingtalk.NewMeasure("C")))
	require.NoError(t, weather.AddOutput("summary", thingtalk.TypeString))
	source.Add("org.thingpedia.weather", "current", weather)

	sensor := thingtalk.NewFunctionSchema(thingtalk.Query)
	require.NoError(t, sensor.AddOutput("temperature", thingtalk.NewMeasure("C")))
	source.Add("a.b", "get", sensor)

	consumer := thingtalk.NewFunctionSchema(thingtalk.Query)
	require.NoError(t, consumer.AddInput("temperature", thingtalk.NewMeasure("C"), true))
	require.NoError(t, consumer.AddOutput("status", thingtalk.TypeString))
	source.Add("c.d", "consume", consumer)

	search := thingtalk.NewFunctionSchema(thingtalk.Query)
	require.NoError(t, search.AddInput("query", thingtalk.TypeString, true))
	require.NoError(t, search.AddOutput("title", thingtalk.TypeString))
	require.NoError(t, search.AddOutput("description", thingtalk.TypeString))
	require.NoError(t, search.AddOutput("link", thingtalk.NewEntity("tt:url")))
	source.Add("com.bing", "web_search", search)

	thermostat := thingtalk.NewFunctionSchema(thingtalk.Action)
	require.NoError(t, thermostat.AddInput("target", thingtalk.NewMeasure("C"), true))
	source.Add("ac.control", "set_target", thermostat)

	profile := thingtalk.NewFunctionSchema(thingtalk.Query)
	require.NoError(t, profile.AddInput("p", thingtalk.NewEntity("tt:username"), false))
	require.NoError(t, profile.AddOutput("data", thingtalk.TypeString))
	source.Add("x.y", "q", profile)

	return source
}

func invocation(kind, channel string, params ...*ast.InputParam) *ast.Invocation {
	if params == nil {
		params = []*ast.InputParam{}
	}
	return &ast.Invocation{
		Selector: &ast.Selector{Kind: kind},
		Channel:  channel,
		InParams: params,
	}
}

func builtinAction(channel string) *ast.Invocation {
	return &ast.Invocation{
		Selector: &ast.Selector{Builtin: true},
		Channel:  channel,
		InParams: []*ast.InputParam{},
	}
}

func invTable(kind, channel string, params ...*ast.InputParam) *ast.InvocationTable {
	return &ast.InvocationTable{Kind: ast.KindInvocation, Invocation: invocation(kind, channel, params...)}
}

func param(name string, v ast.Value) *ast.InputParam {
	return &ast.InputParam{Name: name, Value: v}
}

func str(s string) *ast.StringValue {
	return &ast.StringValue{Kind: ast.KindString, Value: s}
}

func num(n float64) *ast.NumberValue {
	return &ast.NumberValue{Kind: ast.KindNumber, Value: n}
}

func measure(v float64, unit string) *ast.MeasureValue {
	return &ast.MeasureValue{Kind: ast.KindMeasure, Value: v, Unit: unit}
}

func varRef(name string) *ast.VarRefValue {
	return &ast.VarRefValue{Kind: ast.KindVarRef, Name: name}
}

func atom(name, op string, v ast.Value) *ast.AtomBoolean {
	return &ast.AtomBoolean{Kind: ast.KindAtom, Name: name, Operator: op, Value: v}
}

func check(t *testing.T, prog *ast.Program) error {
	t.Helper()
	return semantic.Check(context.Background(), prog, newSchemas(t), false)
}

// requirePartition asserts the schema invariants on an analyzed node.
func requirePartition(t *testing.T, schema *thingtalk.FunctionSchema) {
	t.Helper()
	require.NotNil(t, schema)
	require.Equal(t, len(schema.Args), len(schema.InReq)+len(schema.InOpt)+len(schema.Out))
	for i, name := range schema.Args {
		j, ok := schema.Index(name)
		require.True(t, ok)
		require.Equal(t, i, j)
		if _, isOut := schema.Out[name]; isOut {
			require.GreaterOrEqual(t, i, schema.NumInputs())
		} else {
			require.Less(t, i, schema.NumInputs())
		}
	}
}

func TestActionWithSuppliedInput(t *testing.T) {
	action := invocation("com.twitter", "post", param("status", str("hi")))
	prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{action}}}}
	require.NoError(t, check(t, prog))

	require.NotNil(t, action.Schema)
	requirePartition(t, action.Schema)
	// All requireds were supplied, so no undefined slots were appended.
	require.Len(t, action.InParams, 1)
}

func TestActionSchemaIsFreshClone(t *testing.T) {
	source := newSchemas(t)
	shared, err := source.SchemaForSelector(context.Background(), "com.twitter", "post", thingtalk.Action, false)
	require.NoError(t, err)

	action := invocation("com.twitter", "post", param("status", str("hi")))
	prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{action}}}}
	require.NoError(t, semantic.Check(context.Background(), prog, source, false))
	require.NotSame(t, shared, action.Schema)

	// Mutating the attached clone must not leak into the shared signature.
	require.NoError(t, action.Schema.AddInput("extra", thingtalk.TypeNumber, false))
	_, ok := shared.Index("extra")
	assert.False(t, ok)
}

func TestMonitorStream(t *testing.T) {
	inner := invTable("org.thingpedia.weather", "current",
		param("location", varRef("$context.location.current_location")))
	monitor := &ast.MonitorStream{Kind: ast.KindMonitor, Table: inner}
	prog := &ast.Program{Rules: []*ast.Rule{{
		Stream:  monitor,
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	require.NoError(t, check(t, prog))

	require.NotNil(t, monitor.Schema)
	requirePartition(t, monitor.Schema)
	assert.Equal(t, inner.Schema.Out, monitor.Schema.Out)
	assert.NotSame(t, inner.Schema, monitor.Schema)
}

func TestMonitorInvalidField(t *testing.T) {
	monitor := &ast.MonitorStream{
		Kind:  ast.KindMonitor,
		Table: invTable("a.b", "get"),
		Args:  []string{"pressure"},
	}
	prog := &ast.Program{Rules: []*ast.Rule{{
		Stream:  monitor,
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	err := check(t, prog)
	assert.Equal(t, semantic.ErrInvalidFieldName, semantic.CodeOf(err))
}

func TestJoinParameterPassing(t *testing.T) {
	lhs := &ast.FilteredTable{
		Kind:   ast.KindFilter,
		Table:  invTable("a.b", "get"),
		Filter: atom("temperature", ">=", measure(20, "C")),
	}
	join := &ast.JoinTable{
		Kind:     ast.KindJoin,
		LHS:      lhs,
		RHS:      invTable("c.d", "consume"),
		InParams: []*ast.InputParam{param("temperature", varRef("temperature"))},
	}
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   join,
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	require.NoError(t, check(t, prog))

	requirePartition(t, join.Schema)
	// The passed parameter is cancelled from the join's inputs.
	_, inReq := join.Schema.InReq["temperature"]
	assert.False(t, inReq)
	// The join's outputs are the union of both sides.
	assert.Contains(t, join.Schema.Out, "temperature")
	assert.Contains(t, join.Schema.Out, "status")
}

func TestJoinDuplicateOutputConflicts(t *testing.T) {
	join := &ast.JoinTable{
		Kind: ast.KindJoin,
		LHS:  invTable("a.b", "get"),
		RHS:  invTable("a.b", "get"),
	}
	action := invocation("ac.control", "set_target",
		param("target", varRef("temperature")))
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   join,
		Actions: []*ast.Invocation{action},
	}}}
	// Both sides publish temperature, so an unqualified reference to it
	// is ambiguous.
	err := check(t, prog)
	assert.Equal(t, semantic.ErrFieldConflict, semantic.CodeOf(err))
}

func TestJoinLiteralSupply(t *testing.T) {
	join := &ast.JoinTable{
		Kind: ast.KindJoin,
		LHS:  invTable("a.b", "get"),
		RHS: invTable("c.d", "consume",
			param("temperature", measure(20, "C"))),
	}
	outer := &ast.FilteredTable{
		Kind:   ast.KindFilter,
		Table:  join,
		Filter: atom("status", "==", str("ok")),
	}
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   outer,
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	require.NoError(t, check(t, prog))
	requirePartition(t, join.Schema)
}

func TestAggregationCount(t *testing.T) {
	agg := &ast.AggregationTable{
		Kind:     ast.KindAggregation,
		Table:    invTable("com.bing", "web_search"),
		Field:    "*",
		Operator: "count",
	}
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   agg,
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	require.NoError(t, check(t, prog))

	requirePartition(t, agg.Schema)
	require.Len(t, agg.Schema.Out, 1)
	assert.Equal(t, thingtalk.Type(thingtalk.TypeNumber), agg.Schema.Out["count"])
	assert.Equal(t, []thingtalk.Type{thingtalk.TypeAny, thingtalk.TypeNumber}, agg.Overload)

	// The unsupplied required input got a remote undefined slot.
	inner := agg.Table.(*ast.InvocationTable).Invocation
	require.Len(t, inner.InParams, 1)
	assert.Equal(t, "query", inner.InParams[0].Name)
	undef, ok := inner.InParams[0].Value.(*ast.UndefinedValue)
	require.True(t, ok)
	assert.True(t, undef.Remote)
}

func TestAggregationOverField(t *testing.T) {
	agg := &ast.AggregationTable{
		Kind:     ast.KindAggregation,
		Table:    invTable("a.b", "get"),
		Field:    "temperature",
		Operator: "max",
		Alias:    "hottest",
	}
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   agg,
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	require.NoError(t, check(t, prog))

	require.Len(t, agg.Schema.Out, 1)
	m, ok := agg.Schema.Out["hottest"].(*thingtalk.TypeMeasure)
	require.True(t, ok)
	assert.Equal(t, "C", m.Unit)
}

func TestAggregationErrors(t *testing.T) {
	t.Run("UnknownField", func(t *testing.T) {
		agg := &ast.AggregationTable{
			Kind:     ast.KindAggregation,
			Table:    invTable("a.b", "get"),
			Field:    "pressure",
			Operator: "max",
		}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: agg, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		err := check(t, prog)
		assert.Equal(t, semantic.ErrInvalidAggregationFld, semantic.CodeOf(err))
	})
	t.Run("BadOperand", func(t *testing.T) {
		agg := &ast.AggregationTable{
			Kind:     ast.KindAggregation,
			Table:    invTable("com.bing", "web_search"),
			Field:    "title",
			Operator: "sum",
		}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: agg, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		err := check(t, prog)
		assert.Equal(t, semantic.ErrInvalidAggregation, semantic.CodeOf(err))
	})
	t.Run("StarWithMax", func(t *testing.T) {
		agg := &ast.AggregationTable{
			Kind:     ast.KindAggregation,
			Table:    invTable("a.b", "get"),
			Field:    "*",
			Operator: "max",
		}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: agg, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		err := check(t, prog)
		assert.Equal(t, semantic.ErrInvalidAggregationFld, semantic.CodeOf(err))
	})
}

func TestEventRequiresStream(t *testing.T) {
	action := invocation("com.twitter", "post",
		param("status", &ast.EventValue{Kind: ast.KindEvent}))
	prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{action}}}}
	err := check(t, prog)
	assert.Equal(t, semantic.ErrVariableNotInScope, semantic.CodeOf(err))
}

func TestEventWithStream(t *testing.T) {
	monitor := &ast.MonitorStream{Kind: ast.KindMonitor, Table: invTable("a.b", "get")}
	action := invocation("com.twitter", "post",
		param("status", &ast.EventValue{Kind: ast.KindEvent}))
	prog := &ast.Program{Rules: []*ast.Rule{{Stream: monitor, Actions: []*ast.Invocation{action}}}}
	require.NoError(t, check(t, prog))
}

func TestProgramIDAlwaysInScope(t *testing.T) {
	profile := invTable("x.y", "q")
	outer := &ast.FilteredTable{
		Kind:   ast.KindFilter,
		Table:  profile,
		Filter: atom("data", "==", &ast.EventValue{Kind: ast.KindEvent, Name: "program_id"}),
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: outer, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	// Entity(tt:program_id) == String fails the overload, but the event
	// reference itself resolves without a stream.
	err := check(t, prog)
	assert.Equal(t, semantic.ErrInvalidParameterTypes, semantic.CodeOf(err))
}

func TestSubstringOnEntity(t *testing.T) {
	table := &ast.FilteredTable{
		Kind:   ast.KindFilter,
		Table:  invTable("x.y", "q"),
		Filter: atom("p", "=~", str("bob")),
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	err := check(t, prog)
	assert.Equal(t, semantic.ErrInvalidParameterTypes, semantic.CodeOf(err))
}

func TestNoGetFunction(t *testing.T) {
	prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{builtinAction("notify")}}}}
	err := check(t, prog)
	assert.Equal(t, semantic.ErrNoGetFunction, semantic.CodeOf(err))
}

func TestTrueFilterChecksAgainstAnySchema(t *testing.T) {
	table := &ast.FilteredTable{
		Kind:   ast.KindFilter,
		Table:  invTable("a.b", "get"),
		Filter: ast.True(),
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	require.NoError(t, check(t, prog))
}

func TestProjection(t *testing.T) {
	proj := &ast.ProjectionTable{
		Kind:  ast.KindProjection,
		Table: invTable("com.bing", "web_search", param("query", str("x"))),
		Args:  []string{"title"},
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: proj, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	require.NoError(t, check(t, prog))

	requirePartition(t, proj.Schema)
	require.Len(t, proj.Schema.Out, 1)
	assert.Contains(t, proj.Schema.Out, "title")
}

func TestProjectionUnknownField(t *testing.T) {
	proj := &ast.ProjectionTable{
		Kind:  ast.KindProjection,
		Table: invTable("com.bing", "web_search", param("query", str("x"))),
		Args:  []string{"titel"},
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: proj, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	err := check(t, prog)
	require.Equal(t, semantic.ErrInvalidFieldName, semantic.CodeOf(err))
	assert.Contains(t, err.Error(), `did you mean "title"?`)
}

func TestAliasQualifiesSiblingReferences(t *testing.T) {
	aliased := &ast.AliasTable{
		Kind:  ast.KindAlias,
		Table: invTable("a.b", "get"),
		Name:  "w",
	}
	join := &ast.JoinTable{
		Kind:     ast.KindJoin,
		LHS:      aliased,
		RHS:      invTable("c.d", "consume"),
		InParams: []*ast.InputParam{param("temperature", varRef("w.temperature"))},
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: join, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	require.NoError(t, check(t, prog))
}

func TestArgMinMax(t *testing.T) {
	t.Run("Orderable", func(t *testing.T) {
		table := &ast.ArgMinMaxTable{
			Kind:     ast.KindArgMinMax,
			Table:    invTable("a.b", "get"),
			Field:    "temperature",
			Operator: "argmax",
			Base:     num(1),
			Limit:    num(3),
		}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		require.NoError(t, check(t, prog))
		// Arg-min/max keeps the full output row.
		assert.Contains(t, table.Schema.Out, "temperature")
	})
	t.Run("NotOrderable", func(t *testing.T) {
		table := &ast.ArgMinMaxTable{
			Kind:     ast.KindArgMinMax,
			Table:    invTable("com.bing", "web_search", param("query", str("x"))),
			Field:    "link",
			Operator: "argmin",
			Base:     num(1),
			Limit:    num(1),
		}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		err := check(t, prog)
		assert.Equal(t, semantic.ErrInvalidArgMinMaxField, semantic.CodeOf(err))
	})
	t.Run("BadLimit", func(t *testing.T) {
		table := &ast.ArgMinMaxTable{
			Kind:     ast.KindArgMinMax,
			Table:    invTable("a.b", "get"),
			Field:    "temperature",
			Operator: "argmax",
			Base:     num(1),
			Limit:    str("many"),
		}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		err := check(t, prog)
		assert.Equal(t, semantic.ErrInvalidRange, semantic.CodeOf(err))
	})
}

func TestCompute(t *testing.T) {
	compute := &ast.ComputeTable{
		Kind:  ast.KindCompute,
		Table: invTable("a.b", "get"),
		Expression: &ast.DerivedScalar{
			Kind: ast.KindDerived,
			Op:   "-",
			Operands: []ast.ScalarExpression{
				&ast.PrimaryScalar{Kind: ast.KindPrimary, Value: varRef("temperature")},
				&ast.PrimaryScalar{Kind: ast.KindPrimary, Value: measure(5, "C")},
			},
		},
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: compute, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	require.NoError(t, check(t, prog))

	requirePartition(t, compute.Schema)
	require.Len(t, compute.Schema.Out, 1)
	m, ok := compute.Schema.Out["result"].(*thingtalk.TypeMeasure)
	require.True(t, ok)
	assert.Equal(t, "C", m.Unit)
}

func TestExternalFilter(t *testing.T) {
	external := &ast.ExternalBoolean{
		Kind:     ast.KindExternal,
		Selector: &ast.Selector{Kind: "org.thingpedia.weather"},
		Channel:  "current",
		InParams: []*ast.InputParam{
			param("location", varRef("$context.location.current_location")),
		},
		Filter: atom("temperature", ">=", measure(20, "C")),
	}
	table := &ast.FilteredTable{
		Kind:   ast.KindFilter,
		Table:  invTable("a.b", "get"),
		Filter: external,
	}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	require.NoError(t, check(t, prog))
	require.NotNil(t, external.Schema)
	requirePartition(t, external.Schema)
}

func TestWindowAndTimeSeriesRanges(t *testing.T) {
	monitor := func() ast.Stream {
		return &ast.MonitorStream{Kind: ast.KindMonitor, Table: invTable("a.b", "get")}
	}
	t.Run("WindowOK", func(t *testing.T) {
		window := &ast.WindowTable{Kind: ast.KindWindow, Base: num(1), Delta: num(10), Stream: monitor()}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: window, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		require.NoError(t, check(t, prog))
	})
	t.Run("WindowBadBase", func(t *testing.T) {
		window := &ast.WindowTable{Kind: ast.KindWindow, Base: str("one"), Delta: num(10), Stream: monitor()}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: window, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		assert.Equal(t, semantic.ErrInvalidRange, semantic.CodeOf(check(t, prog)))
	})
	t.Run("TimeSeriesBadDelta", func(t *testing.T) {
		series := &ast.TimeSeriesTable{
			Kind:   ast.KindTimeSeries,
			Base:   &ast.DateValue{Kind: ast.KindDate},
			Delta:  num(5),
			Stream: monitor(),
		}
		prog := &ast.Program{Rules: []*ast.Rule{{Table: series, Actions: []*ast.Invocation{builtinAction("notify")}}}}
		assert.Equal(t, semantic.ErrInvalidTimeRange, semantic.CodeOf(check(t, prog)))
	})
}

func TestInputParamErrors(t *testing.T) {
	t.Run("Unknown", func(t *testing.T) {
		action := invocation("com.twitter", "post", param("statu", str("hi")))
		prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{action}}}}
		err := check(t, prog)
		require.Equal(t, semantic.ErrInvalidInputParameter, semantic.CodeOf(err))
		assert.Contains(t, err.Error(), `did you mean "status"?`)
	})
	t.Run("Duplicate", func(t *testing.T) {
		action := invocation("com.twitter", "post",
			param("status", str("a")), param("status", str("b")))
		prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{action}}}}
		assert.Equal(t, semantic.ErrDuplicateInputParam, semantic.CodeOf(check(t, prog)))
	})
	t.Run("WrongType", func(t *testing.T) {
		action := invocation("com.phone", "call", param("number", num(911)))
		prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{action}}}}
		assert.Equal(t, semantic.ErrInvalidType, semantic.CodeOf(check(t, prog)))
	})
}

func TestContactCoercion(t *testing.T) {
	entity := &ast.EntityValue{Kind: ast.KindEntity, Value: "bob", Type: "tt:username"}
	action := invocation("com.phone", "call", param("number", entity))
	prog := &ast.Program{Rules: []*ast.Rule{{Actions: []*ast.Invocation{action}}}}
	// The username retags as a contact name, which stands in for the
	// phone-number slot until the address-book lookup resolves it.
	require.NoError(t, check(t, prog))
	assert.Equal(t, "tt:contact_name", entity.Type)
}

func TestUnknownFunction(t *testing.T) {
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   invTable("no.such", "channel"),
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	assert.Equal(t, semantic.ErrUnknownFunction, semantic.CodeOf(check(t, prog)))
}

func TestUnknownMemoryTable(t *testing.T) {
	table := &ast.VarRefTable{Kind: ast.KindVarRef, Name: "shopping_list"}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	assert.Equal(t, semantic.ErrUnknownMemoryTable, semantic.CodeOf(check(t, prog)))
}

func TestMemoryTable(t *testing.T) {
	source := newSchemas(t)
	list := thingtalk.NewFunctionSchema(thingtalk.Query)
	require.NoError(t, list.AddOutput("item", thingtalk.TypeString))
	source.AddTable("shopping_list", list)

	table := &ast.VarRefTable{Kind: ast.KindVarRef, Name: "shopping_list"}
	prog := &ast.Program{Rules: []*ast.Rule{{Table: table, Actions: []*ast.Invocation{builtinAction("notify")}}}}
	require.NoError(t, semantic.Check(context.Background(), prog, source, false))
	assert.NotSame(t, list, table.Schema)
}

func TestInvalidBuiltinAction(t *testing.T) {
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   invTable("a.b", "get"),
		Actions: []*ast.Invocation{builtinAction("frobnicate")},
	}}}
	assert.Equal(t, semantic.ErrInvalidBuiltinAction, semantic.CodeOf(check(t, prog)))
}

func TestClassAlias(t *testing.T) {
	prog := &ast.Program{
		Classes: []*ast.ClassDef{{Name: "my.sensor", Extends: "a.b"}},
		Rules: []*ast.Rule{{
			Table:   invTable("my.sensor", "get"),
			Actions: []*ast.Invocation{builtinAction("notify")},
		}},
	}
	require.NoError(t, check(t, prog))
}

func TestPrincipal(t *testing.T) {
	rule := &ast.Rule{
		Table:   invTable("a.b", "get"),
		Actions: []*ast.Invocation{builtinAction("notify")},
	}
	t.Run("Valid", func(t *testing.T) {
		prog := &ast.Program{
			Principal: &ast.EntityValue{Kind: ast.KindEntity, Value: "bob", Type: "tt:username"},
			Rules:     []*ast.Rule{rule},
		}
		require.NoError(t, check(t, prog))
	})
	t.Run("Invalid", func(t *testing.T) {
		prog := &ast.Program{
			Principal: str("bob"),
			Rules:     []*ast.Rule{rule},
		}
		assert.Equal(t, semantic.ErrInvalidPrincipal, semantic.CodeOf(check(t, prog)))
	})
}

func TestDeclarationLambda(t *testing.T) {
	decl := &ast.Declaration{
		Name: "hot_days",
		Type: "table",
		Args: []*ast.LambdaParam{
			{Name: "threshold", Type: ast.TypeRef{Type: thingtalk.NewMeasure("C")}},
		},
		Table: &ast.FilteredTable{
			Kind:   ast.KindFilter,
			Table:  invTable("a.b", "get"),
			Filter: atom("temperature", ">=", varRef("threshold")),
		},
	}
	use := &ast.VarRefTable{
		Kind:     ast.KindVarRef,
		Name:     "hot_days",
		InParams: []*ast.InputParam{param("threshold", measure(30, "C"))},
	}
	prog := &ast.Program{
		Declarations: []*ast.Declaration{decl},
		Rules: []*ast.Rule{{
			Table:   use,
			Actions: []*ast.Invocation{builtinAction("notify")},
		}},
	}
	require.NoError(t, check(t, prog))

	require.NotNil(t, decl.Schema)
	requirePartition(t, decl.Schema)
	typ, required, ok := decl.Schema.InputType("threshold")
	require.True(t, ok)
	assert.True(t, required)
	assert.Equal(t, "Measure(C)", typ.String())
	assert.Contains(t, decl.Schema.Out, "temperature")
}

func TestDeclarationActionRename(t *testing.T) {
	decl := &ast.Declaration{
		Name: "tweet",
		Type: "action",
		Args: []*ast.LambdaParam{
			{Name: "msg", Type: ast.TypeRef{Type: thingtalk.TypeString}},
		},
		Action: invocation("com.twitter", "post", param("status", varRef("msg"))),
	}
	prog := &ast.Program{Declarations: []*ast.Declaration{decl}, Rules: []*ast.Rule{{
		Table:   invTable("a.b", "get"),
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	require.NoError(t, check(t, prog))

	// The schema argument bound through the lambda is renamed to the
	// parameter name.
	_, _, ok := decl.Schema.InputType("msg")
	assert.True(t, ok)
	_, _, ok = decl.Schema.InputType("status")
	assert.False(t, ok)
}

func TestIdempotence(t *testing.T) {
	agg := &ast.AggregationTable{
		Kind:     ast.KindAggregation,
		Table:    invTable("com.bing", "web_search"),
		Field:    "*",
		Operator: "count",
	}
	prog := &ast.Program{Rules: []*ast.Rule{{
		Table:   agg,
		Actions: []*ast.Invocation{builtinAction("notify")},
	}}}
	require.NoError(t, check(t, prog))
	inner := agg.Table.(*ast.InvocationTable).Invocation
	paramsAfterFirst := len(inner.InParams)

	require.NoError(t, check(t, prog))
	assert.Equal(t, paramsAfterFirst, len(inner.InParams))
	require.Len(t, agg.Schema.Out, 1)
	assert.Contains(t, agg.Schema.Out, "count")
}

func TestPermissionRule(t *testing.T) {
	rule := &ast.PermissionRule{
		Principal: atom("source", "==",
			&ast.EntityValue{Kind: ast.KindEntity, Value: "bob", Type: "tt:contact"}),
		Query: &ast.PermissionFunction{
			Specifier: ast.SpecifierSpecified,
			Class:     "a.b",
			Channel:   "get",
			Filter:    atom("temperature", ">=", measure(20, "C")),
		},
		Action: &ast.PermissionFunction{
			Specifier: ast.SpecifierSpecified,
			Class:     "com.twitter",
			Channel:   "post",
			Filter:    atom("status", "==", &ast.EventValue{Kind: ast.KindEvent}),
		},
	}
	require.NoError(t, semantic.CheckPermissionRule(context.Background(), rule, newSchemas(t), false))
	require.NotNil(t, rule.Query.Schema)
	require.NotNil(t, rule.Action.Schema)
}

func TestPermissionRuleBadPrincipalFilter(t *testing.T) {
	rule := &ast.PermissionRule{
		Principal: atom("sink", "==",
			&ast.EntityValue{Kind: ast.KindEntity, Value: "bob", Type: "tt:contact"}),
		Query:  &ast.PermissionFunction{Specifier: ast.SpecifierStar},
		Action: &ast.PermissionFunction{Specifier: ast.SpecifierBuiltin},
	}
	err := semantic.CheckPermissionRule(context.Background(), rule, newSchemas(t), false)
	assert.Equal(t, semantic.ErrVariableNotInScope, semantic.CodeOf(err))
}
