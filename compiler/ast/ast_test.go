package ast_test

import (
	"testing"
	"time"

	"github.com/stanford-oval/thingtalk/compiler/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramRoundTrip(t *testing.T) {
	prog := &ast.Program{
		Rules: []*ast.Rule{
			{
				Table: &ast.FilteredTable{
					Kind: ast.KindFilter,
					Table: &ast.InvocationTable{
						Kind: ast.KindInvocation,
						Invocation: &ast.Invocation{
							Selector: &ast.Selector{Kind: "com.bing"},
							Channel:  "web_search",
							InParams: []*ast.InputParam{
								{Name: "query", Value: &ast.StringValue{Kind: ast.KindString, Value: "golang"}},
							},
						},
					},
					Filter: &ast.AndBoolean{
						Kind: ast.KindAnd,
						Operands: []ast.BooleanExpression{
							&ast.AtomBoolean{
								Kind:     ast.KindAtom,
								Name:     "title",
								Operator: "=~",
								Value:    &ast.StringValue{Kind: ast.KindString, Value: "go"},
							},
							ast.True(),
						},
					},
				},
				Actions: []*ast.Invocation{
					{Selector: &ast.Selector{Builtin: true}, Channel: "notify", InParams: []*ast.InputParam{}},
				},
			},
		},
	}
	data, err := ast.MarshalProgram(prog)
	require.NoError(t, err)
	decoded, err := ast.UnmarshalProgram(data)
	require.NoError(t, err)
	require.Len(t, decoded.Rules, 1)

	filtered, ok := decoded.Rules[0].Table.(*ast.FilteredTable)
	require.True(t, ok)
	inner, ok := filtered.Table.(*ast.InvocationTable)
	require.True(t, ok)
	assert.Equal(t, "web_search", inner.Invocation.Channel)
	assert.Equal(t, "com.bing", inner.Invocation.Selector.Kind)

	and, ok := filtered.Filter.(*ast.AndBoolean)
	require.True(t, ok)
	require.Len(t, and.Operands, 2)
	atom, ok := and.Operands[0].(*ast.AtomBoolean)
	require.True(t, ok)
	assert.Equal(t, "=~", atom.Operator)
	str, ok := atom.Value.(*ast.StringValue)
	require.True(t, ok)
	assert.Equal(t, "go", str.Value)

	require.Len(t, decoded.Rules[0].Actions, 1)
	assert.True(t, decoded.Rules[0].Actions[0].Selector.Builtin)
}

func TestStreamRoundTrip(t *testing.T) {
	prog := &ast.Program{
		Rules: []*ast.Rule{
			{
				Stream: &ast.MonitorStream{
					Kind: ast.KindMonitor,
					Table: &ast.InvocationTable{
						Kind: ast.KindInvocation,
						Invocation: &ast.Invocation{
							Selector: &ast.Selector{Kind: "org.thingpedia.weather"},
							Channel:  "current",
							InParams: []*ast.InputParam{
								{Name: "location", Value: &ast.VarRefValue{Kind: ast.KindVarRef, Name: "$context.location.current_location"}},
							},
						},
					},
					Args: []string{"temperature"},
				},
				Actions: []*ast.Invocation{
					{Selector: &ast.Selector{Builtin: true}, Channel: "notify", InParams: []*ast.InputParam{}},
				},
			},
		},
	}
	data, err := ast.MarshalProgram(prog)
	require.NoError(t, err)
	decoded, err := ast.UnmarshalProgram(data)
	require.NoError(t, err)
	monitor, ok := decoded.Rules[0].Stream.(*ast.MonitorStream)
	require.True(t, ok)
	assert.Equal(t, []string{"temperature"}, monitor.Args)
	ref, ok := monitor.Table.(*ast.InvocationTable).Invocation.InParams[0].Value.(*ast.VarRefValue)
	require.True(t, ok)
	assert.Equal(t, "$context.location.current_location", ref.Name)
}

func TestDateValueDecoding(t *testing.T) {
	v, err := ast.UnmarshalValue([]byte(`{"kind":"Date","value":"2018-05-23T07:00:00Z"}`))
	require.NoError(t, err)
	date, ok := v.(*ast.DateValue)
	require.True(t, ok)
	assert.Equal(t, time.Date(2018, 5, 23, 7, 0, 0, 0, time.UTC), date.Value.UTC())

	v, err = ast.UnmarshalValue([]byte(`{"kind":"Date","value":1527058800000}`))
	require.NoError(t, err)
	date, ok = v.(*ast.DateValue)
	require.True(t, ok)
	assert.Equal(t, int64(1527058800000), date.Value.UnixMilli())

	_, err = ast.UnmarshalValue([]byte(`{"kind":"Date","value":"not a date"}`))
	require.Error(t, err)
}

func TestUnknownKinds(t *testing.T) {
	_, err := ast.UnmarshalTable([]byte(`{"kind":"Frobnicate"}`))
	require.Error(t, err)
	_, err = ast.UnmarshalValue([]byte(`{"value":1}`))
	require.Error(t, err)
}
