package semantic

import (
	"strings"

	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
)

// typeForValue computes the type of a value in the current scope.
func (a *analyzer) typeForValue(v ast.Value) (thingtalk.Type, error) {
	return a.typeForValueIn(v, a.scope)
}

func (a *analyzer) typeForValueIn(v ast.Value, scope *Scope) (thingtalk.Type, error) {
	switch v := v.(type) {
	case *ast.VarRefValue:
		if strings.HasPrefix(v.Name, "$context.location.") {
			return thingtalk.TypeLocation, nil
		}
		return scope.Get(v.Name)
	case *ast.EventValue:
		switch v.Name {
		case "program_id":
			return thingtalk.NewEntity("tt:program_id"), nil
		case "":
			if !scope.HasEvent() {
				return nil, errorf(ErrVariableNotInScope, "$event is not in scope")
			}
			return thingtalk.TypeString, nil
		case "type":
			if !scope.HasEvent() {
				return nil, errorf(ErrVariableNotInScope, "$event.type is not in scope")
			}
			return thingtalk.NewEntity("tt:function_name"), nil
		default:
			return nil, errorf(ErrVariableNotInScope, "invalid event reference $event.%s", v.Name)
		}
	case *ast.ArrayValue:
		if len(v.Values) == 0 {
			return thingtalk.NewArray(thingtalk.TypeAny), nil
		}
		elem, err := a.typeForValueIn(v.Values[0], scope)
		if err != nil {
			return nil, err
		}
		for _, other := range v.Values[1:] {
			t, err := a.typeForValueIn(other, scope)
			if err != nil {
				return nil, err
			}
			if !thingtalk.IsAssignable(t, elem, make(thingtalk.TypeScope), false) {
				return nil, errorf(ErrInvalidType, "inconsistent array element types %s and %s", elem, t)
			}
		}
		return thingtalk.NewArray(elem), nil
	default:
		if t, ok := ast.TypeOf(v); ok {
			return t, nil
		}
		return nil, errorf(ErrNotImplemented, "unsupported value %T", v)
	}
}

// semFilter type-checks a boolean expression against a schema.  Atom
// names resolve first against the schema's inputs and outputs, then the
// scope.  And and Or recurse into every operand so external
// sub-expressions always resolve their schemas.
func (a *analyzer) semFilter(expr ast.BooleanExpression, schema *thingtalk.FunctionSchema) error {
	switch expr := expr.(type) {
	case *ast.TrueBoolean, *ast.FalseBoolean:
		return nil
	case *ast.AndBoolean:
		for _, op := range expr.Operands {
			if err := a.semFilter(op, schema); err != nil {
				return err
			}
		}
		return nil
	case *ast.OrBoolean:
		for _, op := range expr.Operands {
			if err := a.semFilter(op, schema); err != nil {
				return err
			}
		}
		return nil
	case *ast.NotBoolean:
		return a.semFilter(expr.Expr, schema)
	case *ast.AtomBoolean:
		return a.semAtom(expr, schema)
	case *ast.ExternalBoolean:
		if err := a.externalSchema(expr); err != nil {
			return err
		}
		if err := a.checkInputParams(expr.InParams, expr.Schema); err != nil {
			return err
		}
		if expr.Filter == nil {
			return nil
		}
		return a.semFilter(expr.Filter, expr.Schema)
	case nil:
		return nil
	default:
		return errorf(ErrNotImplemented, "unsupported filter %T", expr)
	}
}

func (a *analyzer) semAtom(atom *ast.AtomBoolean, schema *thingtalk.FunctionSchema) error {
	lhs, err := a.filterParamType(atom.Name, schema)
	if err != nil {
		return err
	}
	// Substring matching never applies to entities even though entities
	// coerce to String everywhere else.
	if lhs.ID() == thingtalk.IDEntity && (atom.Operator == "=~" || atom.Operator == "~=") {
		return errorf(ErrInvalidParameterTypes, "the %q operator does not apply to entities, use == instead", atom.Operator)
	}
	rhs, err := a.typeForValue(atom.Value)
	if err != nil {
		return err
	}
	_, overload, err := resolveOverload(binaryOps, atom.Operator, []thingtalk.Type{lhs, rhs}, stringMatchOps[atom.Operator])
	if err != nil {
		return err
	}
	atom.Overload = overload
	if ref, ok := atom.Value.(*ast.VarRefValue); ok && a.scope.IsLambdaArg(ref.Name) {
		a.scope.UpdateLambdaArgs(ref.Name, atom.Name)
	}
	return nil
}

// filterParamType resolves a filter parameter name against the schema's
// inputs and outputs, falling back to the scope.
func (a *analyzer) filterParamType(name string, schema *thingtalk.FunctionSchema) (thingtalk.Type, error) {
	if schema != nil {
		if t, ok := schema.InReq[name]; ok {
			return t, nil
		}
		if t, ok := schema.InOpt[name]; ok {
			return t, nil
		}
		if t, ok := schema.Out[name]; ok {
			return t, nil
		}
	}
	if a.scope.Has(name) {
		return a.scope.Get(name)
	}
	var candidates []string
	if schema != nil {
		candidates = schema.Args
	}
	return nil, errorf(ErrVariableNotInScope, "invalid filter parameter %q%s", name, suggest(name, candidates))
}

// semScalarExpression computes the result type of a scalar computation
// over a table's fields.
func (a *analyzer) semScalarExpression(expr ast.ScalarExpression, schema *thingtalk.FunctionSchema) (thingtalk.Type, error) {
	switch expr := expr.(type) {
	case *ast.PrimaryScalar:
		if ref, ok := expr.Value.(*ast.VarRefValue); ok && !strings.HasPrefix(ref.Name, "$context.") {
			return a.filterParamType(ref.Name, schema)
		}
		return a.typeForValue(expr.Value)
	case *ast.DerivedScalar:
		operands := make([]thingtalk.Type, len(expr.Operands))
		for i, op := range expr.Operands {
			t, err := a.semScalarExpression(op, schema)
			if err != nil {
				return nil, err
			}
			operands[i] = t
		}
		result, _, err := resolveOverload(scalarOps, expr.Op, operands, false)
		return result, err
	case *ast.BooleanScalar:
		if err := a.semFilter(expr.Value, schema); err != nil {
			return nil, err
		}
		return thingtalk.TypeBoolean, nil
	default:
		return nil, errorf(ErrNotImplemented, "unsupported scalar expression %T", expr)
	}
}
