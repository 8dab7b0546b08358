package semantic

import (
	"sort"

	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
)

// checkInputParams validates each input-parameter binding of a primitive
// against its schema, then pushes the required inputs left unsupplied
// into the scope so the enclosing boundary can lift them.  Inside a
// declaration the pending requireds accumulated so far are first lifted
// into this primitive's schema, since a declaration becomes a first-class
// function whose lifted requireds are its parameters.
func (a *analyzer) checkInputParams(inParams []*ast.InputParam, schema *thingtalk.FunctionSchema) error {
	if a.isDeclaration {
		if err := a.pushInReq(schema); err != nil {
			return err
		}
	}
	supplied := make(map[string]bool)
	for _, ip := range inParams {
		if err := a.checkInputParam(ip, schema, supplied, a.scope); err != nil {
			return err
		}
	}
	for name, t := range schema.InReq {
		if !supplied[name] {
			a.scope.inReq[name] = t
		}
	}
	return nil
}

func (a *analyzer) checkInputParam(ip *ast.InputParam, schema *thingtalk.FunctionSchema, supplied map[string]bool, valueScope *Scope) error {
	declared, _, ok := schema.InputType(ip.Name)
	if !ok {
		inputs := schema.Args[:schema.NumInputs()]
		return errorf(ErrInvalidInputParameter, "invalid input parameter %q%s", ip.Name, suggest(ip.Name, inputs))
	}
	if supplied[ip.Name] {
		return errorf(ErrDuplicateInputParam, "duplicate input parameter %q", ip.Name)
	}
	supplied[ip.Name] = true
	coerceContactEntity(ip.Value, declared)
	t, err := a.typeForValueIn(ip.Value, valueScope)
	if err != nil {
		return err
	}
	if !thingtalk.IsAssignable(t, declared, make(thingtalk.TypeScope), true) {
		return errorf(ErrInvalidType, "invalid type %s for input parameter %q, expected %s", t, ip.Name, declared)
	}
	if ref, ok := ip.Value.(*ast.VarRefValue); ok && valueScope.IsLambdaArg(ref.Name) {
		valueScope.UpdateLambdaArgs(ref.Name, ip.Name)
	}
	return nil
}

// coerceContactEntity retags a username entity bound to a phone-number or
// email-address slot as a contact name, to be resolved against the
// address book downstream.
func coerceContactEntity(v ast.Value, declared thingtalk.Type) {
	entity, ok := v.(*ast.EntityValue)
	if !ok || entity.Type != "tt:username" {
		return
	}
	e, ok := declared.(*thingtalk.TypeEntity)
	if !ok {
		return
	}
	if e.Kind == "tt:phone_number" || e.Kind == "tt:email_address" {
		entity.Type = "tt:contact_name"
	}
}

// pushInReq lifts the scope's pending required inputs into schema as new
// required inputs.  Names the schema already declares are left alone.
func (a *analyzer) pushInReq(schema *thingtalk.FunctionSchema) error {
	for _, name := range sortedNames(a.scope.inReq) {
		if _, ok := schema.Index(name); ok {
			continue
		}
		if err := schema.AddInput(name, a.scope.inReq[name], true); err != nil {
			return err
		}
	}
	a.scope.inReq = make(map[string]thingtalk.Type)
	return nil
}

func sortedNames(m map[string]thingtalk.Type) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
