// Package ast declares the types used to represent syntax trees for
// ThingTalk programs.
//
// Nodes form a closed sum per syntactic category: tables, streams, boolean
// expressions, scalar expressions, and values.  Polymorphic nodes carry a
// Kind discriminator used by the JSON interchange in unpack.go.  The
// semantic analyzer mutates trees in place: it attaches a fresh schema
// clone to every primitive, rewrites schemas to reflect composition, and
// extends in_params with undefined slots for unsupplied required inputs.
package ast

import (
	"encoding/json"

	"github.com/stanford-oval/thingtalk"
)

// Table is the interface implemented by all table constructors.
type Table interface {
	tableNode()
	FunctionSchema() *thingtalk.FunctionSchema
	SetFunctionSchema(*thingtalk.FunctionSchema)
}

// Stream is the interface implemented by all stream constructors.
type Stream interface {
	streamNode()
	FunctionSchema() *thingtalk.FunctionSchema
	SetFunctionSchema(*thingtalk.FunctionSchema)
}

// BooleanExpression is the interface implemented by filter nodes.
type BooleanExpression interface {
	booleanNode()
}

// ScalarExpression is the interface implemented by computation nodes.
type ScalarExpression interface {
	scalarNode()
}

// Value is the interface implemented by all value nodes.
type Value interface {
	valueNode()
}

// schemaHolder carries the schema the analyzer attaches to a table or
// stream node.  Schemas are analyzer output and do not serialize.
type schemaHolder struct {
	Schema *thingtalk.FunctionSchema `json:"-"`
}

func (h *schemaHolder) FunctionSchema() *thingtalk.FunctionSchema { return h.Schema }

func (h *schemaHolder) SetFunctionSchema(s *thingtalk.FunctionSchema) { h.Schema = s }

// A TypeRef wraps a thingtalk.Type so it serializes in its string form.
type TypeRef struct {
	thingtalk.Type
}

func (t TypeRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Type.String())
}

func (t *TypeRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	typ, err := thingtalk.ParseType(s)
	if err != nil {
		return err
	}
	t.Type = typ
	return nil
}

// A Program is the root of a ThingTalk syntax tree.
type Program struct {
	Classes      []*ClassDef    `json:"classes,omitempty"`
	Declarations []*Declaration `json:"declarations,omitempty"`
	Rules        []*Rule        `json:"rules"`
	Principal    Value          `json:"principal,omitempty"`
}

// A ClassDef aliases a device kind to the kind it extends; primitives
// whose selector names the class resolve against the extended kind.
type ClassDef struct {
	Name    string `json:"name"`
	Extends string `json:"extends"`
}

// A LambdaParam is a declaration parameter.
type LambdaParam struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// A Declaration binds a lambda over a stream, table, or action into the
// program's global scope.  Exactly one of Table, Stream, and Action is
// set, matching Type.
type Declaration struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"` // "stream", "table", or "action"
	Args   []*LambdaParam `json:"args,omitempty"`
	Table  Table          `json:"table,omitempty"`
	Stream Stream         `json:"stream,omitempty"`
	Action *Invocation    `json:"action,omitempty"`

	Schema *thingtalk.FunctionSchema `json:"-"`
}

// A Rule connects an event source (stream), or an on-demand query
// (table), or neither, to a list of actions.
type Rule struct {
	Stream  Stream        `json:"stream,omitempty"`
	Table   Table         `json:"table,omitempty"`
	Actions []*Invocation `json:"actions"`
}

// A Selector identifies the device a primitive invokes.  Builtin
// selectors address the fixed builtin channels.
type Selector struct {
	Kind      string `json:"kind,omitempty"`
	ID        string `json:"id,omitempty"`
	Principal Value  `json:"principal,omitempty"`
	Builtin   bool   `json:"builtin,omitempty"`
}

// An Invocation is a primitive: a call of a Thingpedia function.
type Invocation struct {
	Selector *Selector     `json:"selector"`
	Channel  string        `json:"channel"`
	InParams []*InputParam `json:"in_params"`

	Schema *thingtalk.FunctionSchema `json:"-"`
}

// An InputParam binds a value to a named input of a primitive.
type InputParam struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Node kind strings, shared by the table and stream sums where the
// constructor exists in both.
const (
	KindInvocation  = "Invocation"
	KindVarRef      = "VarRef"
	KindFilter      = "Filter"
	KindProjection  = "Projection"
	KindAlias       = "Alias"
	KindAggregation = "Aggregation"
	KindArgMinMax   = "ArgMinMax"
	KindJoin        = "Join"
	KindWindow      = "Window"
	KindTimeSeries  = "TimeSeries"
	KindSequence    = "Sequence"
	KindHistory     = "History"
	KindCompute     = "Compute"
	KindTimer       = "Timer"
	KindAtTimer     = "AtTimer"
	KindMonitor     = "Monitor"
	KindEdgeFilter  = "EdgeFilter"
	KindEdgeNew     = "EdgeNew"
)

type InvocationTable struct {
	Kind       string      `json:"kind"`
	Invocation *Invocation `json:"invocation"`
	schemaHolder
}

type VarRefTable struct {
	Kind     string        `json:"kind"`
	Name     string        `json:"name"`
	InParams []*InputParam `json:"in_params,omitempty"`
	schemaHolder
}

type FilteredTable struct {
	Kind   string            `json:"kind"`
	Table  Table             `json:"table"`
	Filter BooleanExpression `json:"filter"`
	schemaHolder
}

type ProjectionTable struct {
	Kind  string   `json:"kind"`
	Table Table    `json:"table"`
	Args  []string `json:"args"`
	schemaHolder
}

type AliasTable struct {
	Kind  string `json:"kind"`
	Table Table  `json:"table"`
	Name  string `json:"name"`
	schemaHolder
}

type AggregationTable struct {
	Kind     string `json:"kind"`
	Table    Table  `json:"table"`
	Field    string `json:"field"` // "*" for count(*)
	Operator string `json:"operator"`
	Alias    string `json:"alias,omitempty"`

	// Overload records the resolved (operand, result) type pair.
	Overload []thingtalk.Type `json:"-"`
	schemaHolder
}

type ArgMinMaxTable struct {
	Kind     string `json:"kind"`
	Table    Table  `json:"table"`
	Field    string `json:"field"`
	Operator string `json:"operator"` // "argmin" or "argmax"
	Base     Value  `json:"base"`
	Limit    Value  `json:"limit"`
	schemaHolder
}

type JoinTable struct {
	Kind     string        `json:"kind"`
	LHS      Table         `json:"lhs"`
	RHS      Table         `json:"rhs"`
	InParams []*InputParam `json:"in_params,omitempty"`
	schemaHolder
}

type WindowTable struct {
	Kind   string `json:"kind"`
	Base   Value  `json:"base"`
	Delta  Value  `json:"delta"`
	Stream Stream `json:"stream"`
	schemaHolder
}

type TimeSeriesTable struct {
	Kind   string `json:"kind"`
	Base   Value  `json:"base"`
	Delta  Value  `json:"delta"`
	Stream Stream `json:"stream"`
	schemaHolder
}

type SequenceTable struct {
	Kind  string `json:"kind"`
	Base  Value  `json:"base"`
	Delta Value  `json:"delta"`
	Table Table  `json:"table"`
	schemaHolder
}

type HistoryTable struct {
	Kind  string `json:"kind"`
	Base  Value  `json:"base"`
	Delta Value  `json:"delta"`
	Table Table  `json:"table"`
	schemaHolder
}

type ComputeTable struct {
	Kind       string           `json:"kind"`
	Table      Table            `json:"table"`
	Expression ScalarExpression `json:"expression"`
	Alias      string           `json:"alias,omitempty"`
	schemaHolder
}

func (*InvocationTable) tableNode()  {}
func (*VarRefTable) tableNode()      {}
func (*FilteredTable) tableNode()    {}
func (*ProjectionTable) tableNode()  {}
func (*AliasTable) tableNode()       {}
func (*AggregationTable) tableNode() {}
func (*ArgMinMaxTable) tableNode()   {}
func (*JoinTable) tableNode()        {}
func (*WindowTable) tableNode()      {}
func (*TimeSeriesTable) tableNode()  {}
func (*SequenceTable) tableNode()    {}
func (*HistoryTable) tableNode()     {}
func (*ComputeTable) tableNode()     {}

type TimerStream struct {
	Kind     string `json:"kind"`
	Base     Value  `json:"base"`
	Interval Value  `json:"interval"`
	schemaHolder
}

type AtTimerStream struct {
	Kind string `json:"kind"`
	Time Value  `json:"time"`
	schemaHolder
}

type MonitorStream struct {
	Kind  string   `json:"kind"`
	Table Table    `json:"table"`
	Args  []string `json:"args,omitempty"`
	schemaHolder
}

type EdgeFilterStream struct {
	Kind   string            `json:"kind"`
	Stream Stream            `json:"stream"`
	Filter BooleanExpression `json:"filter"`
	schemaHolder
}

type EdgeNewStream struct {
	Kind   string `json:"kind"`
	Stream Stream `json:"stream"`
	schemaHolder
}

type FilteredStream struct {
	Kind   string            `json:"kind"`
	Stream Stream            `json:"stream"`
	Filter BooleanExpression `json:"filter"`
	schemaHolder
}

type ProjectionStream struct {
	Kind   string   `json:"kind"`
	Stream Stream   `json:"stream"`
	Args   []string `json:"args"`
	schemaHolder
}

type AliasStream struct {
	Kind   string `json:"kind"`
	Stream Stream `json:"stream"`
	Name   string `json:"name"`
	schemaHolder
}

type JoinStream struct {
	Kind     string        `json:"kind"`
	Stream   Stream        `json:"stream"`
	Table    Table         `json:"table"`
	InParams []*InputParam `json:"in_params,omitempty"`
	schemaHolder
}

type VarRefStream struct {
	Kind     string        `json:"kind"`
	Name     string        `json:"name"`
	InParams []*InputParam `json:"in_params,omitempty"`
	schemaHolder
}

func (*TimerStream) streamNode()      {}
func (*AtTimerStream) streamNode()    {}
func (*MonitorStream) streamNode()    {}
func (*EdgeFilterStream) streamNode() {}
func (*EdgeNewStream) streamNode()    {}
func (*FilteredStream) streamNode()   {}
func (*ProjectionStream) streamNode() {}
func (*AliasStream) streamNode()      {}
func (*JoinStream) streamNode()       {}
func (*VarRefStream) streamNode()     {}

// Boolean expression kinds.
const (
	KindTrue     = "True"
	KindFalse    = "False"
	KindAnd      = "And"
	KindOr       = "Or"
	KindNot      = "Not"
	KindAtom     = "Atom"
	KindExternal = "External"
)

type TrueBoolean struct {
	Kind string `json:"kind"`
}

type FalseBoolean struct {
	Kind string `json:"kind"`
}

type AndBoolean struct {
	Kind     string              `json:"kind"`
	Operands []BooleanExpression `json:"operands"`
}

type OrBoolean struct {
	Kind     string              `json:"kind"`
	Operands []BooleanExpression `json:"operands"`
}

type NotBoolean struct {
	Kind string            `json:"kind"`
	Expr BooleanExpression `json:"expr"`
}

// An AtomBoolean is an atomic comparison of a named field against a value.
type AtomBoolean struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Operator string `json:"operator"`
	Value    Value  `json:"value"`

	// Overload records the resolved operand types.
	Overload []thingtalk.Type `json:"-"`
}

// An ExternalBoolean is a boolean sub-query of another Thingpedia
// function, filtered by its own inner filter.
type ExternalBoolean struct {
	Kind     string            `json:"kind"`
	Selector *Selector         `json:"selector"`
	Channel  string            `json:"channel"`
	InParams []*InputParam     `json:"in_params"`
	Filter   BooleanExpression `json:"filter"`

	Schema *thingtalk.FunctionSchema `json:"-"`
}

func (*TrueBoolean) booleanNode()     {}
func (*FalseBoolean) booleanNode()    {}
func (*AndBoolean) booleanNode()      {}
func (*OrBoolean) booleanNode()       {}
func (*NotBoolean) booleanNode()      {}
func (*AtomBoolean) booleanNode()     {}
func (*ExternalBoolean) booleanNode() {}

// True and False return fresh leaf filters.
func True() *TrueBoolean   { return &TrueBoolean{Kind: KindTrue} }
func False() *FalseBoolean { return &FalseBoolean{Kind: KindFalse} }

// Scalar expression kinds.
const (
	KindPrimary = "Primary"
	KindDerived = "Derived"
	KindBoolean = "Boolean"
)

type PrimaryScalar struct {
	Kind  string `json:"kind"`
	Value Value  `json:"value"`
}

type DerivedScalar struct {
	Kind     string             `json:"kind"`
	Op       string             `json:"op"`
	Operands []ScalarExpression `json:"operands"`
}

type BooleanScalar struct {
	Kind  string            `json:"kind"`
	Value BooleanExpression `json:"value"`
}

func (*PrimaryScalar) scalarNode() {}
func (*DerivedScalar) scalarNode() {}
func (*BooleanScalar) scalarNode() {}

// A PermissionFunction names the functions a permission rule allows.  The
// specifier selects the variant: "star" allows anything, "builtin" only
// the builtins, "class" any channel of a class, and "specified" a single
// channel constrained by a filter.
type PermissionFunction struct {
	Specifier string            `json:"specifier"`
	Class     string            `json:"class,omitempty"`
	Channel   string            `json:"channel,omitempty"`
	Filter    BooleanExpression `json:"filter,omitempty"`

	Schema *thingtalk.FunctionSchema `json:"-"`
}

const (
	SpecifierStar      = "star"
	SpecifierBuiltin   = "builtin"
	SpecifierClass     = "class"
	SpecifierSpecified = "specified"
)

// A PermissionRule gates execution of a query and an action on behalf of
// principals matching the principal filter, which ranges over the
// pseudo-variable source.
type PermissionRule struct {
	Principal BooleanExpression   `json:"principal"`
	Query     *PermissionFunction `json:"query"`
	Action    *PermissionFunction `json:"action"`
}
