// Package thingtalk implements the ThingTalk type system.  All ThingTalk
// types are defined here and implement the Type interface.  Types are
// structural: measures carry a unit, entities carry an ontology kind, and
// arrays and tuples are parametric.  The package also provides the
// assignability relation used by the semantic analyzer, which unifies
// type variables and measure units within a TypeScope.
package thingtalk

import (
	"fmt"
	"strings"
)

// A Type is the interface implemented by all ThingTalk types.  Primitive
// types are interned singletons so they compare by pointer; parametric
// types compare with EqualTypes.
type Type interface {
	ID() int
	String() string
}

const (
	IDAny = iota
	IDBoolean
	IDString
	IDNumber
	IDDate
	IDTime
	IDLocation
	IDCurrency
	IDTable
	IDStream
	IDMeasure
	IDEntity
	IDEnum
	IDArray
	IDTuple
	IDFunction
	IDVar
)

type TypeOfAny struct{}
type TypeOfBoolean struct{}
type TypeOfString struct{}
type TypeOfNumber struct{}
type TypeOfDate struct{}
type TypeOfTime struct{}
type TypeOfLocation struct{}
type TypeOfCurrency struct{}
type TypeOfTable struct{}
type TypeOfStream struct{}

var (
	TypeAny      = &TypeOfAny{}
	TypeBoolean  = &TypeOfBoolean{}
	TypeString   = &TypeOfString{}
	TypeNumber   = &TypeOfNumber{}
	TypeDate     = &TypeOfDate{}
	TypeTime     = &TypeOfTime{}
	TypeLocation = &TypeOfLocation{}
	TypeCurrency = &TypeOfCurrency{}
	TypeTable    = &TypeOfTable{}
	TypeStream   = &TypeOfStream{}
)

func (t *TypeOfAny) ID() int      { return IDAny }
func (t *TypeOfBoolean) ID() int  { return IDBoolean }
func (t *TypeOfString) ID() int   { return IDString }
func (t *TypeOfNumber) ID() int   { return IDNumber }
func (t *TypeOfDate) ID() int     { return IDDate }
func (t *TypeOfTime) ID() int     { return IDTime }
func (t *TypeOfLocation) ID() int { return IDLocation }
func (t *TypeOfCurrency) ID() int { return IDCurrency }
func (t *TypeOfTable) ID() int    { return IDTable }
func (t *TypeOfStream) ID() int   { return IDStream }

func (t *TypeOfAny) String() string      { return "Any" }
func (t *TypeOfBoolean) String() string  { return "Boolean" }
func (t *TypeOfString) String() string   { return "String" }
func (t *TypeOfNumber) String() string   { return "Number" }
func (t *TypeOfDate) String() string     { return "Date" }
func (t *TypeOfTime) String() string     { return "Time" }
func (t *TypeOfLocation) String() string { return "Location" }
func (t *TypeOfCurrency) String() string { return "Currency" }
func (t *TypeOfTable) String() string    { return "Table" }
func (t *TypeOfStream) String() string   { return "Stream" }

// TypeMeasure is a dimensioned quantity.  An empty Unit denotes "any
// compatible unit" and is resolved through the _unit type variable during
// assignability.
type TypeMeasure struct {
	Unit string
}

func NewMeasure(unit string) *TypeMeasure { return &TypeMeasure{Unit: unit} }

func (t *TypeMeasure) ID() int { return IDMeasure }

func (t *TypeMeasure) String() string {
	return fmt.Sprintf("Measure(%s)", t.Unit)
}

// TypeEntity is a branded string carrying an ontology kind such as
// tt:username or tt:contact.  Entities are assignable only within the same
// kind, except that tt:contact_name assigns to tt:contact,
// tt:phone_number, and tt:email_address.
type TypeEntity struct {
	Kind string
}

func NewEntity(kind string) *TypeEntity { return &TypeEntity{Kind: kind} }

func (t *TypeEntity) ID() int { return IDEntity }

func (t *TypeEntity) String() string {
	return fmt.Sprintf("Entity(%s)", t.Kind)
}

// TypeEnum is a finite set of named values.  A nil Choices slice is the
// generic enum, which accepts any enum source.
type TypeEnum struct {
	Choices []string
}

func NewEnum(choices ...string) *TypeEnum { return &TypeEnum{Choices: choices} }

func (t *TypeEnum) ID() int { return IDEnum }

func (t *TypeEnum) String() string {
	if t.Choices == nil {
		return "Enum(*)"
	}
	return fmt.Sprintf("Enum(%s)", strings.Join(t.Choices, ","))
}

type TypeArray struct {
	Elem Type
}

func NewArray(elem Type) *TypeArray { return &TypeArray{Elem: elem} }

func (t *TypeArray) ID() int { return IDArray }

func (t *TypeArray) String() string {
	return fmt.Sprintf("Array(%s)", t.Elem)
}

type TypeTuple struct {
	Elems []Type
}

func (t *TypeTuple) ID() int { return IDTuple }

func (t *TypeTuple) String() string {
	elems := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ","))
}

// TypeFunction wraps a first-class function signature, used for
// declarations bound into the global scope.
type TypeFunction struct {
	Schema *FunctionSchema
}

func (t *TypeFunction) ID() int { return IDFunction }

func (t *TypeFunction) String() string {
	if t.Schema == nil {
		return "Function"
	}
	return "Function(" + string(t.Schema.Kind) + ")"
}

// A TypeVar appears only inside operator overload tables and is bound to a
// concrete type during overload resolution.
type TypeVar struct {
	Name string
}

func (t *TypeVar) ID() int { return IDVar }

func (t *TypeVar) String() string { return "'" + t.Name }

// A TypeScope records the type-variable bindings made while attempting a
// single operator overload.  The pseudo-variable _unit holds the unit bound
// by an open measure type.
type TypeScope map[string]Type

// IsAssignable reports whether a value of type src may be supplied where
// dst is expected.  Type variables and open measure units bind into scope
// on first encounter and must be consistent for the rest of the attempt.
// With coerce set, any type widens to String.
func IsAssignable(src, dst Type, scope TypeScope, coerce bool) bool {
	if _, ok := src.(*TypeOfAny); ok {
		return true
	}
	if _, ok := dst.(*TypeOfAny); ok {
		return true
	}
	if v, ok := dst.(*TypeVar); ok {
		bound, ok := scope[v.Name]
		if !ok {
			scope[v.Name] = src
			return true
		}
		dst = bound
	}
	if coerce {
		if _, ok := dst.(*TypeOfString); ok {
			return true
		}
	}
	switch dst := dst.(type) {
	case *TypeMeasure:
		m, ok := src.(*TypeMeasure)
		if !ok {
			return false
		}
		if dst.Unit == "" {
			if bound, ok := scope["_unit"]; ok {
				b, ok := bound.(*TypeMeasure)
				return ok && BaseUnit(m.Unit) == BaseUnit(b.Unit)
			}
			scope["_unit"] = m
			return true
		}
		return BaseUnit(m.Unit) == BaseUnit(dst.Unit)
	case *TypeEntity:
		e, ok := src.(*TypeEntity)
		if !ok {
			return false
		}
		if e.Kind == dst.Kind {
			return true
		}
		// A contact name stands in for any contact-like entity until it
		// is resolved against the address book.
		if e.Kind == "tt:contact_name" {
			switch dst.Kind {
			case "tt:contact", "tt:phone_number", "tt:email_address":
				return true
			}
		}
		return false
	case *TypeEnum:
		e, ok := src.(*TypeEnum)
		if !ok {
			return false
		}
		if dst.Choices == nil {
			return true
		}
		for _, c := range e.Choices {
			if !contains(dst.Choices, c) {
				return false
			}
		}
		return true
	case *TypeArray:
		a, ok := src.(*TypeArray)
		return ok && IsAssignable(a.Elem, dst.Elem, scope, false)
	case *TypeTuple:
		t, ok := src.(*TypeTuple)
		if !ok || len(t.Elems) != len(dst.Elems) {
			return false
		}
		for i, e := range t.Elems {
			if !IsAssignable(e, dst.Elems[i], scope, false) {
				return false
			}
		}
		return true
	case *TypeFunction:
		f, ok := src.(*TypeFunction)
		return ok && f.Schema == dst.Schema
	default:
		return src.ID() == dst.ID()
	}
}

// ResolveTypeVars substitutes bound type variables and the measure _unit
// binding into t.
func ResolveTypeVars(t Type, scope TypeScope) Type {
	switch t := t.(type) {
	case *TypeVar:
		if bound, ok := scope[t.Name]; ok {
			return ResolveTypeVars(bound, scope)
		}
		return TypeAny
	case *TypeMeasure:
		if t.Unit == "" {
			if bound, ok := scope["_unit"]; ok {
				return bound
			}
		}
		return t
	case *TypeArray:
		return NewArray(ResolveTypeVars(t.Elem, scope))
	case *TypeTuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = ResolveTypeVars(e, scope)
		}
		return &TypeTuple{Elems: elems}
	default:
		return t
	}
}

// EqualTypes reports structural equality.
func EqualTypes(a, b Type) bool {
	if a.ID() != b.ID() {
		return false
	}
	switch a := a.(type) {
	case *TypeMeasure:
		return a.Unit == b.(*TypeMeasure).Unit
	case *TypeEntity:
		return a.Kind == b.(*TypeEntity).Kind
	case *TypeEnum:
		bc := b.(*TypeEnum).Choices
		if len(a.Choices) != len(bc) {
			return false
		}
		for i, c := range a.Choices {
			if c != bc[i] {
				return false
			}
		}
		return true
	case *TypeArray:
		return EqualTypes(a.Elem, b.(*TypeArray).Elem)
	case *TypeTuple:
		be := b.(*TypeTuple).Elems
		if len(a.Elems) != len(be) {
			return false
		}
		for i, e := range a.Elems {
			if !EqualTypes(e, be[i]) {
				return false
			}
		}
		return true
	case *TypeFunction:
		return a.Schema == b.(*TypeFunction).Schema
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, elem := range list {
		if elem == s {
			return true
		}
	}
	return false
}
