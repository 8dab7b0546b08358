package ast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/stanford-oval/thingtalk"
)

// Value kinds.
const (
	KindNumber          = "Number"
	KindString          = "String"
	KindBool            = "Boolean"
	KindDate            = "Date"
	KindTime            = "Time"
	KindLocation        = "Location"
	KindCurrency        = "Currency"
	KindEntity          = "Entity"
	KindEnum            = "Enum"
	KindMeasure         = "Measure"
	KindCompoundMeasure = "CompoundMeasure"
	KindArray           = "Array"
	KindEvent           = "Event"
	KindUndefined       = "Undefined"
)

type NumberValue struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type StringValue struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type BooleanValue struct {
	Kind  string `json:"kind"`
	Value bool   `json:"value"`
}

// A DateValue accepts any textual date form on the wire and normalizes it
// to a time.Time.
type DateValue struct {
	Kind  string    `json:"kind"`
	Value time.Time `json:"value"`
}

func (v *DateValue) UnmarshalJSON(b []byte) error {
	var aux struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	v.Kind = KindDate
	var s string
	if err := json.Unmarshal(aux.Value, &s); err == nil {
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		v.Value = t
		return nil
	}
	var ms int64
	if err := json.Unmarshal(aux.Value, &ms); err != nil {
		return fmt.Errorf("invalid date value %s", aux.Value)
	}
	v.Value = time.UnixMilli(ms).UTC()
	return nil
}

// A TimeValue is a time of day.
type TimeValue struct {
	Kind   string `json:"kind"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Second int    `json:"second,omitempty"`
}

// A LocationValue is either absolute coordinates or a relative reference
// such as "current_location", "home", or "work".
type LocationValue struct {
	Kind     string  `json:"kind"`
	Relative string  `json:"relative,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Display  string  `json:"display,omitempty"`
}

type CurrencyValue struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Code  string  `json:"code"`
}

// An EntityValue is a branded string.  Type is the ontology kind and may
// be retagged by the analyzer's contact coercions.
type EntityValue struct {
	Kind    string `json:"kind"`
	Value   string `json:"value"`
	Type    string `json:"type"`
	Display string `json:"display,omitempty"`
}

type EnumValue struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type MeasureValue struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// A CompoundMeasureValue sums several measures of one dimension, e.g.
// 1h 30min.
type CompoundMeasureValue struct {
	Kind   string          `json:"kind"`
	Values []*MeasureValue `json:"values"`
}

type ArrayValue struct {
	Kind   string  `json:"kind"`
	Values []Value `json:"values"`
}

// A VarRefValue references a name in scope, a lambda parameter, or one of
// the $context pseudo-variables.
type VarRefValue struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// An EventValue denotes the current trigger record ($event), its
// originating function ($event.type), or the program id
// ($event.program_id).
type EventValue struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// An UndefinedValue is an input slot awaiting a value.  Remote slots are
// filled by the counterparty in remote programs; the analyzer appends
// remote undefined slots for required inputs left unsupplied by a rule.
type UndefinedValue struct {
	Kind   string `json:"kind"`
	Remote bool   `json:"remote,omitempty"`
}

func (*NumberValue) valueNode()          {}
func (*StringValue) valueNode()          {}
func (*BooleanValue) valueNode()         {}
func (*DateValue) valueNode()            {}
func (*TimeValue) valueNode()            {}
func (*LocationValue) valueNode()        {}
func (*CurrencyValue) valueNode()        {}
func (*EntityValue) valueNode()          {}
func (*EnumValue) valueNode()            {}
func (*MeasureValue) valueNode()         {}
func (*CompoundMeasureValue) valueNode() {}
func (*ArrayValue) valueNode()           {}
func (*VarRefValue) valueNode()          {}
func (*EventValue) valueNode()           {}
func (*UndefinedValue) valueNode()       {}

// Undefined returns a fresh undefined slot.
func Undefined(remote bool) *UndefinedValue {
	return &UndefinedValue{Kind: KindUndefined, Remote: remote}
}

// TypeOf returns the intrinsic type of a literal value.  Values whose type
// depends on the enclosing scope (variable and event references) return
// false; the analyzer types those itself.
func TypeOf(v Value) (thingtalk.Type, bool) {
	switch v := v.(type) {
	case *NumberValue:
		return thingtalk.TypeNumber, true
	case *StringValue:
		return thingtalk.TypeString, true
	case *BooleanValue:
		return thingtalk.TypeBoolean, true
	case *DateValue:
		return thingtalk.TypeDate, true
	case *TimeValue:
		return thingtalk.TypeTime, true
	case *LocationValue:
		return thingtalk.TypeLocation, true
	case *CurrencyValue:
		return thingtalk.TypeCurrency, true
	case *EntityValue:
		return thingtalk.NewEntity(v.Type), true
	case *EnumValue:
		return thingtalk.NewEnum(v.Value), true
	case *MeasureValue:
		return thingtalk.NewMeasure(v.Unit), true
	case *CompoundMeasureValue:
		if len(v.Values) == 0 {
			return thingtalk.NewMeasure(""), true
		}
		return thingtalk.NewMeasure(thingtalk.BaseUnit(v.Values[0].Unit)), true
	case *UndefinedValue:
		return thingtalk.TypeAny, true
	default:
		return nil, false
	}
}
