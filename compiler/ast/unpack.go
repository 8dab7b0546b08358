package ast

import (
	"encoding/json"
	"fmt"
)

// The JSON interchange encodes every polymorphic node with a "kind"
// discriminator.  Unmarshal* decode a raw message into the matching
// concrete node; container nodes with interface-typed fields implement
// json.Unmarshaler and delegate back here.

// UnmarshalProgram decodes a serialized ThingTalk program.
func UnmarshalProgram(b []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarshalProgram encodes a program in the JSON interchange form.
func MarshalProgram(p *Program) ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalPermissionRule decodes a serialized permission rule.
func UnmarshalPermissionRule(b []byte) (*PermissionRule, error) {
	var r PermissionRule
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func kindOf(b []byte) (string, error) {
	var v struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return "", err
	}
	if v.Kind == "" {
		return "", fmt.Errorf("missing kind in %s", b)
	}
	return v.Kind, nil
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || string(b) == "null"
}

// UnmarshalTable decodes a table constructor.
func UnmarshalTable(b json.RawMessage) (Table, error) {
	kind, err := kindOf(b)
	if err != nil {
		return nil, err
	}
	var t Table
	switch kind {
	case KindInvocation:
		t = &InvocationTable{}
	case KindVarRef:
		t = &VarRefTable{}
	case KindFilter:
		t = &FilteredTable{}
	case KindProjection:
		t = &ProjectionTable{}
	case KindAlias:
		t = &AliasTable{}
	case KindAggregation:
		t = &AggregationTable{}
	case KindArgMinMax:
		t = &ArgMinMaxTable{}
	case KindJoin:
		t = &JoinTable{}
	case KindWindow:
		t = &WindowTable{}
	case KindTimeSeries:
		t = &TimeSeriesTable{}
	case KindSequence:
		t = &SequenceTable{}
	case KindHistory:
		t = &HistoryTable{}
	case KindCompute:
		t = &ComputeTable{}
	default:
		return nil, fmt.Errorf("unknown table kind %q", kind)
	}
	if err := json.Unmarshal(b, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UnmarshalStream decodes a stream constructor.
func UnmarshalStream(b json.RawMessage) (Stream, error) {
	kind, err := kindOf(b)
	if err != nil {
		return nil, err
	}
	var s Stream
	switch kind {
	case KindTimer:
		s = &TimerStream{}
	case KindAtTimer:
		s = &AtTimerStream{}
	case KindMonitor:
		s = &MonitorStream{}
	case KindEdgeFilter:
		s = &EdgeFilterStream{}
	case KindEdgeNew:
		s = &EdgeNewStream{}
	case KindFilter:
		s = &FilteredStream{}
	case KindProjection:
		s = &ProjectionStream{}
	case KindAlias:
		s = &AliasStream{}
	case KindJoin:
		s = &JoinStream{}
	case KindVarRef:
		s = &VarRefStream{}
	default:
		return nil, fmt.Errorf("unknown stream kind %q", kind)
	}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// UnmarshalBoolean decodes a boolean (filter) expression.
func UnmarshalBoolean(b json.RawMessage) (BooleanExpression, error) {
	kind, err := kindOf(b)
	if err != nil {
		return nil, err
	}
	var e BooleanExpression
	switch kind {
	case KindTrue:
		e = &TrueBoolean{}
	case KindFalse:
		e = &FalseBoolean{}
	case KindAnd:
		e = &AndBoolean{}
	case KindOr:
		e = &OrBoolean{}
	case KindNot:
		e = &NotBoolean{}
	case KindAtom:
		e = &AtomBoolean{}
	case KindExternal:
		e = &ExternalBoolean{}
	default:
		return nil, fmt.Errorf("unknown boolean expression kind %q", kind)
	}
	if err := json.Unmarshal(b, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UnmarshalScalar decodes a scalar expression.
func UnmarshalScalar(b json.RawMessage) (ScalarExpression, error) {
	kind, err := kindOf(b)
	if err != nil {
		return nil, err
	}
	var e ScalarExpression
	switch kind {
	case KindPrimary:
		e = &PrimaryScalar{}
	case KindDerived:
		e = &DerivedScalar{}
	case KindBoolean:
		e = &BooleanScalar{}
	default:
		return nil, fmt.Errorf("unknown scalar expression kind %q", kind)
	}
	if err := json.Unmarshal(b, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UnmarshalValue decodes a value.
func UnmarshalValue(b json.RawMessage) (Value, error) {
	kind, err := kindOf(b)
	if err != nil {
		return nil, err
	}
	var v Value
	switch kind {
	case KindNumber:
		v = &NumberValue{}
	case KindString:
		v = &StringValue{}
	case KindBool:
		v = &BooleanValue{}
	case KindDate:
		v = &DateValue{}
	case KindTime:
		v = &TimeValue{}
	case KindLocation:
		v = &LocationValue{}
	case KindCurrency:
		v = &CurrencyValue{}
	case KindEntity:
		v = &EntityValue{}
	case KindEnum:
		v = &EnumValue{}
	case KindMeasure:
		v = &MeasureValue{}
	case KindCompoundMeasure:
		v = &CompoundMeasureValue{}
	case KindArray:
		v = &ArrayValue{}
	case KindVarRef:
		v = &VarRefValue{}
	case KindEvent:
		v = &EventValue{}
	case KindUndefined:
		v = &UndefinedValue{}
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	return v, nil
}

func unmarshalValueField(raw json.RawMessage) (Value, error) {
	if isNull(raw) {
		return nil, nil
	}
	return UnmarshalValue(raw)
}

func unmarshalBooleanField(raw json.RawMessage) (BooleanExpression, error) {
	if isNull(raw) {
		return nil, nil
	}
	return UnmarshalBoolean(raw)
}

func unmarshalBooleanList(raws []json.RawMessage) ([]BooleanExpression, error) {
	out := make([]BooleanExpression, len(raws))
	for i, raw := range raws {
		var err error
		if out[i], err = UnmarshalBoolean(raw); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Program) UnmarshalJSON(b []byte) error {
	type alias Program
	aux := struct {
		*alias
		Principal json.RawMessage `json:"principal"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	p.Principal, err = unmarshalValueField(aux.Principal)
	return err
}

func (d *Declaration) UnmarshalJSON(b []byte) error {
	type alias Declaration
	aux := struct {
		*alias
		Table  json.RawMessage `json:"table"`
		Stream json.RawMessage `json:"stream"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if !isNull(aux.Table) {
		if d.Table, err = UnmarshalTable(aux.Table); err != nil {
			return err
		}
	}
	if !isNull(aux.Stream) {
		if d.Stream, err = UnmarshalStream(aux.Stream); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rule) UnmarshalJSON(b []byte) error {
	type alias Rule
	aux := struct {
		*alias
		Stream json.RawMessage `json:"stream"`
		Table  json.RawMessage `json:"table"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if !isNull(aux.Stream) {
		if r.Stream, err = UnmarshalStream(aux.Stream); err != nil {
			return err
		}
	}
	if !isNull(aux.Table) {
		if r.Table, err = UnmarshalTable(aux.Table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Selector) UnmarshalJSON(b []byte) error {
	type alias Selector
	aux := struct {
		*alias
		Principal json.RawMessage `json:"principal"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	s.Principal, err = unmarshalValueField(aux.Principal)
	return err
}

func (p *InputParam) UnmarshalJSON(b []byte) error {
	type alias InputParam
	aux := struct {
		*alias
		Value json.RawMessage `json:"value"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	p.Value, err = unmarshalValueField(aux.Value)
	return err
}

func (t *FilteredTable) UnmarshalJSON(b []byte) error {
	type alias FilteredTable
	aux := struct {
		*alias
		Table  json.RawMessage `json:"table"`
		Filter json.RawMessage `json:"filter"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.Table, err = UnmarshalTable(aux.Table); err != nil {
		return err
	}
	t.Filter, err = unmarshalBooleanField(aux.Filter)
	return err
}

func (t *ProjectionTable) UnmarshalJSON(b []byte) error {
	type alias ProjectionTable
	aux := struct {
		*alias
		Table json.RawMessage `json:"table"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	t.Table, err = UnmarshalTable(aux.Table)
	return err
}

func (t *AliasTable) UnmarshalJSON(b []byte) error {
	type alias AliasTable
	aux := struct {
		*alias
		Table json.RawMessage `json:"table"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	t.Table, err = UnmarshalTable(aux.Table)
	return err
}

func (t *AggregationTable) UnmarshalJSON(b []byte) error {
	type alias AggregationTable
	aux := struct {
		*alias
		Table json.RawMessage `json:"table"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	t.Table, err = UnmarshalTable(aux.Table)
	return err
}

func (t *ArgMinMaxTable) UnmarshalJSON(b []byte) error {
	type alias ArgMinMaxTable
	aux := struct {
		*alias
		Table json.RawMessage `json:"table"`
		Base  json.RawMessage `json:"base"`
		Limit json.RawMessage `json:"limit"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.Table, err = UnmarshalTable(aux.Table); err != nil {
		return err
	}
	if t.Base, err = unmarshalValueField(aux.Base); err != nil {
		return err
	}
	t.Limit, err = unmarshalValueField(aux.Limit)
	return err
}

func (t *JoinTable) UnmarshalJSON(b []byte) error {
	type alias JoinTable
	aux := struct {
		*alias
		LHS json.RawMessage `json:"lhs"`
		RHS json.RawMessage `json:"rhs"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.LHS, err = UnmarshalTable(aux.LHS); err != nil {
		return err
	}
	t.RHS, err = UnmarshalTable(aux.RHS)
	return err
}

func (t *WindowTable) UnmarshalJSON(b []byte) error {
	type alias WindowTable
	aux := struct {
		*alias
		Base   json.RawMessage `json:"base"`
		Delta  json.RawMessage `json:"delta"`
		Stream json.RawMessage `json:"stream"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.Base, err = unmarshalValueField(aux.Base); err != nil {
		return err
	}
	if t.Delta, err = unmarshalValueField(aux.Delta); err != nil {
		return err
	}
	t.Stream, err = UnmarshalStream(aux.Stream)
	return err
}

func (t *TimeSeriesTable) UnmarshalJSON(b []byte) error {
	type alias TimeSeriesTable
	aux := struct {
		*alias
		Base   json.RawMessage `json:"base"`
		Delta  json.RawMessage `json:"delta"`
		Stream json.RawMessage `json:"stream"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.Base, err = unmarshalValueField(aux.Base); err != nil {
		return err
	}
	if t.Delta, err = unmarshalValueField(aux.Delta); err != nil {
		return err
	}
	t.Stream, err = UnmarshalStream(aux.Stream)
	return err
}

func (t *SequenceTable) UnmarshalJSON(b []byte) error {
	type alias SequenceTable
	aux := struct {
		*alias
		Base  json.RawMessage `json:"base"`
		Delta json.RawMessage `json:"delta"`
		Table json.RawMessage `json:"table"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.Base, err = unmarshalValueField(aux.Base); err != nil {
		return err
	}
	if t.Delta, err = unmarshalValueField(aux.Delta); err != nil {
		return err
	}
	t.Table, err = UnmarshalTable(aux.Table)
	return err
}

func (t *HistoryTable) UnmarshalJSON(b []byte) error {
	type alias HistoryTable
	aux := struct {
		*alias
		Base  json.RawMessage `json:"base"`
		Delta json.RawMessage `json:"delta"`
		Table json.RawMessage `json:"table"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.Base, err = unmarshalValueField(aux.Base); err != nil {
		return err
	}
	if t.Delta, err = unmarshalValueField(aux.Delta); err != nil {
		return err
	}
	t.Table, err = UnmarshalTable(aux.Table)
	return err
}

func (t *ComputeTable) UnmarshalJSON(b []byte) error {
	type alias ComputeTable
	aux := struct {
		*alias
		Table      json.RawMessage `json:"table"`
		Expression json.RawMessage `json:"expression"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if t.Table, err = UnmarshalTable(aux.Table); err != nil {
		return err
	}
	t.Expression, err = UnmarshalScalar(aux.Expression)
	return err
}

func (s *TimerStream) UnmarshalJSON(b []byte) error {
	type alias TimerStream
	aux := struct {
		*alias
		Base     json.RawMessage `json:"base"`
		Interval json.RawMessage `json:"interval"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if s.Base, err = unmarshalValueField(aux.Base); err != nil {
		return err
	}
	s.Interval, err = unmarshalValueField(aux.Interval)
	return err
}

func (s *AtTimerStream) UnmarshalJSON(b []byte) error {
	type alias AtTimerStream
	aux := struct {
		*alias
		Time json.RawMessage `json:"time"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	s.Time, err = unmarshalValueField(aux.Time)
	return err
}

func (s *MonitorStream) UnmarshalJSON(b []byte) error {
	type alias MonitorStream
	aux := struct {
		*alias
		Table json.RawMessage `json:"table"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	s.Table, err = UnmarshalTable(aux.Table)
	return err
}

func (s *EdgeFilterStream) UnmarshalJSON(b []byte) error {
	type alias EdgeFilterStream
	aux := struct {
		*alias
		Stream json.RawMessage `json:"stream"`
		Filter json.RawMessage `json:"filter"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if s.Stream, err = UnmarshalStream(aux.Stream); err != nil {
		return err
	}
	s.Filter, err = unmarshalBooleanField(aux.Filter)
	return err
}

func (s *EdgeNewStream) UnmarshalJSON(b []byte) error {
	type alias EdgeNewStream
	aux := struct {
		*alias
		Stream json.RawMessage `json:"stream"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	s.Stream, err = UnmarshalStream(aux.Stream)
	return err
}

func (s *FilteredStream) UnmarshalJSON(b []byte) error {
	type alias FilteredStream
	aux := struct {
		*alias
		Stream json.RawMessage `json:"stream"`
		Filter json.RawMessage `json:"filter"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if s.Stream, err = UnmarshalStream(aux.Stream); err != nil {
		return err
	}
	s.Filter, err = unmarshalBooleanField(aux.Filter)
	return err
}

func (s *ProjectionStream) UnmarshalJSON(b []byte) error {
	type alias ProjectionStream
	aux := struct {
		*alias
		Stream json.RawMessage `json:"stream"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	s.Stream, err = UnmarshalStream(aux.Stream)
	return err
}

func (s *AliasStream) UnmarshalJSON(b []byte) error {
	type alias AliasStream
	aux := struct {
		*alias
		Stream json.RawMessage `json:"stream"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	s.Stream, err = UnmarshalStream(aux.Stream)
	return err
}

func (s *JoinStream) UnmarshalJSON(b []byte) error {
	type alias JoinStream
	aux := struct {
		*alias
		Stream json.RawMessage `json:"stream"`
		Table  json.RawMessage `json:"table"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if s.Stream, err = UnmarshalStream(aux.Stream); err != nil {
		return err
	}
	s.Table, err = UnmarshalTable(aux.Table)
	return err
}

func (e *AndBoolean) UnmarshalJSON(b []byte) error {
	type alias AndBoolean
	aux := struct {
		*alias
		Operands []json.RawMessage `json:"operands"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	e.Operands, err = unmarshalBooleanList(aux.Operands)
	return err
}

func (e *OrBoolean) UnmarshalJSON(b []byte) error {
	type alias OrBoolean
	aux := struct {
		*alias
		Operands []json.RawMessage `json:"operands"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	e.Operands, err = unmarshalBooleanList(aux.Operands)
	return err
}

func (e *NotBoolean) UnmarshalJSON(b []byte) error {
	type alias NotBoolean
	aux := struct {
		*alias
		Expr json.RawMessage `json:"expr"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	e.Expr, err = UnmarshalBoolean(aux.Expr)
	return err
}

func (e *AtomBoolean) UnmarshalJSON(b []byte) error {
	type alias AtomBoolean
	aux := struct {
		*alias
		Value json.RawMessage `json:"value"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	e.Value, err = unmarshalValueField(aux.Value)
	return err
}

func (e *ExternalBoolean) UnmarshalJSON(b []byte) error {
	type alias ExternalBoolean
	aux := struct {
		*alias
		Filter json.RawMessage `json:"filter"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	e.Filter, err = unmarshalBooleanField(aux.Filter)
	return err
}

func (e *PrimaryScalar) UnmarshalJSON(b []byte) error {
	type alias PrimaryScalar
	aux := struct {
		*alias
		Value json.RawMessage `json:"value"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	e.Value, err = unmarshalValueField(aux.Value)
	return err
}

func (e *DerivedScalar) UnmarshalJSON(b []byte) error {
	type alias DerivedScalar
	aux := struct {
		*alias
		Operands []json.RawMessage `json:"operands"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Operands = make([]ScalarExpression, len(aux.Operands))
	for i, raw := range aux.Operands {
		var err error
		if e.Operands[i], err = UnmarshalScalar(raw); err != nil {
			return err
		}
	}
	return nil
}

func (e *BooleanScalar) UnmarshalJSON(b []byte) error {
	type alias BooleanScalar
	aux := struct {
		*alias
		Value json.RawMessage `json:"value"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	e.Value, err = UnmarshalBoolean(aux.Value)
	return err
}

func (v *ArrayValue) UnmarshalJSON(b []byte) error {
	type alias ArrayValue
	aux := struct {
		*alias
		Values []json.RawMessage `json:"values"`
	}{alias: (*alias)(v)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	v.Values = make([]Value, len(aux.Values))
	for i, raw := range aux.Values {
		var err error
		if v.Values[i], err = UnmarshalValue(raw); err != nil {
			return err
		}
	}
	return nil
}

func (f *PermissionFunction) UnmarshalJSON(b []byte) error {
	type alias PermissionFunction
	aux := struct {
		*alias
		Filter json.RawMessage `json:"filter"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	f.Filter, err = unmarshalBooleanField(aux.Filter)
	return err
}

func (r *PermissionRule) UnmarshalJSON(b []byte) error {
	type alias PermissionRule
	aux := struct {
		*alias
		Principal json.RawMessage `json:"principal"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	r.Principal, err = unmarshalBooleanField(aux.Principal)
	return err
}
