package semantic

import (
	"strings"

	"github.com/stanford-oval/thingtalk"
)

// The operator tables.  Each operator maps to an ordered list of
// signatures; resolution walks the list and takes the first signature
// whose operand types are all assignable in a fresh type-variable scope.

type signature struct {
	params []thingtalk.Type
	result thingtalk.Type
}

var (
	typeVarA    = &thingtalk.TypeVar{Name: "a"}
	anyMeasure  = thingtalk.NewMeasure("")
	measureMs   = thingtalk.NewMeasure("ms")
	arrayOfVarA = thingtalk.NewArray(typeVarA)
)

var comparableTypes = []thingtalk.Type{
	thingtalk.TypeString,
	anyMeasure,
	thingtalk.TypeNumber,
	thingtalk.TypeDate,
	thingtalk.TypeTime,
	thingtalk.TypeCurrency,
}

func orderedSignatures() []signature {
	sigs := make([]signature, len(comparableTypes))
	for i, t := range comparableTypes {
		sigs[i] = signature{params: []thingtalk.Type{t, t}, result: thingtalk.TypeBoolean}
	}
	return sigs
}

// binaryOps are the filter comparators.  =~ and ~= are substring matches;
// the entity restriction on =~ is enforced by the expression checker, not
// the table, since coercion to String would otherwise admit it.
var binaryOps = map[string][]signature{
	"==": {{params: []thingtalk.Type{typeVarA, typeVarA}, result: thingtalk.TypeBoolean}},
	"!=": {{params: []thingtalk.Type{typeVarA, typeVarA}, result: thingtalk.TypeBoolean}},
	"<":  orderedSignatures(),
	"<=": orderedSignatures(),
	">":  orderedSignatures(),
	">=": orderedSignatures(),
	"=~": {{params: []thingtalk.Type{thingtalk.TypeString, thingtalk.TypeString}, result: thingtalk.TypeBoolean}},
	"~=": {{params: []thingtalk.Type{thingtalk.TypeString, thingtalk.TypeString}, result: thingtalk.TypeBoolean}},
	"starts_with": {
		{params: []thingtalk.Type{thingtalk.TypeString, thingtalk.TypeString}, result: thingtalk.TypeBoolean},
	},
	"ends_with": {
		{params: []thingtalk.Type{thingtalk.TypeString, thingtalk.TypeString}, result: thingtalk.TypeBoolean},
	},
	"prefix_of": {
		{params: []thingtalk.Type{thingtalk.TypeString, thingtalk.TypeString}, result: thingtalk.TypeBoolean},
	},
	"suffix_of": {
		{params: []thingtalk.Type{thingtalk.TypeString, thingtalk.TypeString}, result: thingtalk.TypeBoolean},
	},
	"contains": {{params: []thingtalk.Type{arrayOfVarA, typeVarA}, result: thingtalk.TypeBoolean}},
	"in_array": {{params: []thingtalk.Type{typeVarA, arrayOfVarA}, result: thingtalk.TypeBoolean}},
}

// stringMatchOps take string operands and accept anything that coerces to
// String.  Coercion stays off for the other comparators so an ordering
// like < cannot silently fall back to string comparison.
var stringMatchOps = map[string]bool{
	"=~":          true,
	"~=":          true,
	"starts_with": true,
	"ends_with":   true,
	"prefix_of":   true,
	"suffix_of":   true,
}

// scalarOps are the computation operators used by compute tables.
var scalarOps = map[string][]signature{
	"+": {
		{params: []thingtalk.Type{thingtalk.TypeString, thingtalk.TypeString}, result: thingtalk.TypeString},
		{params: []thingtalk.Type{anyMeasure, anyMeasure}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeNumber, thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{thingtalk.TypeCurrency, thingtalk.TypeCurrency}, result: thingtalk.TypeCurrency},
		{params: []thingtalk.Type{thingtalk.TypeDate, measureMs}, result: thingtalk.TypeDate},
		{params: []thingtalk.Type{thingtalk.TypeTime, measureMs}, result: thingtalk.TypeTime},
	},
	"-": {
		{params: []thingtalk.Type{thingtalk.TypeDate, thingtalk.TypeDate}, result: measureMs},
		{params: []thingtalk.Type{thingtalk.TypeDate, measureMs}, result: thingtalk.TypeDate},
		{params: []thingtalk.Type{thingtalk.TypeTime, measureMs}, result: thingtalk.TypeTime},
		{params: []thingtalk.Type{anyMeasure, anyMeasure}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeNumber, thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{thingtalk.TypeCurrency, thingtalk.TypeCurrency}, result: thingtalk.TypeCurrency},
	},
	"*": {
		{params: []thingtalk.Type{anyMeasure, thingtalk.TypeNumber}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeNumber, anyMeasure}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeNumber, thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{thingtalk.TypeCurrency, thingtalk.TypeNumber}, result: thingtalk.TypeCurrency},
	},
	"/": {
		{params: []thingtalk.Type{anyMeasure, anyMeasure}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{anyMeasure, thingtalk.TypeNumber}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeNumber, thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{thingtalk.TypeCurrency, thingtalk.TypeNumber}, result: thingtalk.TypeCurrency},
	},
}

// aggregations map aggregation operators over a single output field.
// count is the special case: it accepts any field (and the * field) and
// always yields Number.
var aggregations = map[string][]signature{
	"count": {{params: []thingtalk.Type{thingtalk.TypeAny}, result: thingtalk.TypeNumber}},
	"min": {
		{params: []thingtalk.Type{thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{anyMeasure}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeDate}, result: thingtalk.TypeDate},
		{params: []thingtalk.Type{thingtalk.TypeTime}, result: thingtalk.TypeTime},
		{params: []thingtalk.Type{thingtalk.TypeCurrency}, result: thingtalk.TypeCurrency},
	},
	"max": {
		{params: []thingtalk.Type{thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{anyMeasure}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeDate}, result: thingtalk.TypeDate},
		{params: []thingtalk.Type{thingtalk.TypeTime}, result: thingtalk.TypeTime},
		{params: []thingtalk.Type{thingtalk.TypeCurrency}, result: thingtalk.TypeCurrency},
	},
	"sum": {
		{params: []thingtalk.Type{thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{anyMeasure}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeCurrency}, result: thingtalk.TypeCurrency},
	},
	"avg": {
		{params: []thingtalk.Type{thingtalk.TypeNumber}, result: thingtalk.TypeNumber},
		{params: []thingtalk.Type{anyMeasure}, result: anyMeasure},
		{params: []thingtalk.Type{thingtalk.TypeCurrency}, result: thingtalk.TypeCurrency},
	},
}

// argMinMaxTypes are the orderable field types accepted by argmin and
// argmax.
var argMinMaxTypes = []thingtalk.Type{
	thingtalk.TypeNumber,
	anyMeasure,
	thingtalk.TypeDate,
	thingtalk.TypeTime,
	thingtalk.TypeCurrency,
	thingtalk.TypeString,
}

// resolveOverload walks the signatures of op in order and returns the
// result type and resolved operand types of the first signature all
// operands assign to.
func resolveOverload(table map[string][]signature, op string, operands []thingtalk.Type, coerce bool) (thingtalk.Type, []thingtalk.Type, error) {
	sigs, ok := table[op]
	if !ok {
		return nil, nil, errorf(ErrInvalidOperator, "invalid operator %q", op)
	}
	for _, sig := range sigs {
		if len(sig.params) != len(operands) {
			continue
		}
		scope := make(thingtalk.TypeScope)
		ok := true
		for i, operand := range operands {
			if !thingtalk.IsAssignable(operand, sig.params[i], scope, coerce) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		resolved := make([]thingtalk.Type, len(sig.params))
		for i, p := range sig.params {
			resolved[i] = thingtalk.ResolveTypeVars(p, scope)
		}
		return thingtalk.ResolveTypeVars(sig.result, scope), resolved, nil
	}
	return nil, nil, errorf(ErrInvalidParameterTypes, "invalid parameter types %s for %q", formatTypes(operands), op)
}

func formatTypes(types []thingtalk.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func isOrderable(t thingtalk.Type) bool {
	for _, ordered := range argMinMaxTypes {
		if thingtalk.IsAssignable(t, ordered, make(thingtalk.TypeScope), false) {
			return true
		}
	}
	return false
}
