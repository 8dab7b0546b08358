package semantic

import (
	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
)

// The composer expresses projection, aggregation, compute, and join by
// editing cloned schemas; the helpers here keep the schema rewrite and the
// matching scope update together.

// addOutput appends a new output to the schema and publishes it in scope.
func (a *analyzer) addOutput(schema *thingtalk.FunctionSchema, name string, typ thingtalk.Type) error {
	if err := schema.AddOutput(name, typ); err != nil {
		return errorf(ErrFieldRedefinition, "%s", err)
	}
	a.scope.Add(name, typ)
	return nil
}

// cleanOutput truncates the schema to its input prefix and purges the
// removed outputs from scope.
func (a *analyzer) cleanOutput(schema *thingtalk.FunctionSchema) {
	for _, name := range schema.CleanOutputs() {
		a.scope.Remove(name)
	}
}

// resolveProjection restricts the schema to the projected names,
// reordering the argument list to match the projection while keeping
// inputs ahead of outputs, and drops the non-projected outputs from
// scope.
func (a *analyzer) resolveProjection(args []string, schema *thingtalk.FunctionSchema) error {
	projected := make(map[string]bool, len(args))
	for _, name := range args {
		if _, ok := schema.Index(name); !ok {
			return errorf(ErrInvalidFieldName, "invalid field name %q in projection%s", name, suggest(name, schema.Args))
		}
		if projected[name] {
			return errorf(ErrInvalidFieldName, "duplicate field name %q in projection", name)
		}
		projected[name] = true
	}
	for _, name := range schema.Args {
		if _, isOut := schema.Out[name]; isOut && !projected[name] {
			a.scope.Remove(name)
		}
	}
	var newArgs []string
	var newTypes []thingtalk.Type
	for _, name := range args {
		if _, isOut := schema.Out[name]; !isOut {
			t, _ := schema.ArgType(name)
			newArgs = append(newArgs, name)
			newTypes = append(newTypes, t)
		}
	}
	for _, name := range args {
		if _, isOut := schema.Out[name]; isOut {
			newArgs = append(newArgs, name)
			newTypes = append(newTypes, schema.Out[name])
		}
	}
	replaceSignature(schema, newArgs, newTypes)
	return nil
}

// resolveJoin concatenates the two sides of a join into out: inputs
// first, with any rhs input dropped when its name is already an lhs input
// or when it is supplied by the join's parameter passing, then the
// outputs of both sides.  An output whose name is already taken by an
// earlier column (an input of either side, or an lhs output) is left out,
// and its name is returned so the caller can record it as a conflict.
func resolveJoin(out, lhs, rhs *thingtalk.FunctionSchema, passed map[string]bool) []string {
	var args []string
	var types []thingtalk.Type
	req := make(map[string]bool)
	add := func(schema *thingtalk.FunctionSchema, name string) {
		t, _ := schema.ArgType(name)
		args = append(args, name)
		types = append(types, t)
	}
	seen := make(map[string]bool)
	for _, name := range lhs.Args[:lhs.NumInputs()] {
		add(lhs, name)
		seen[name] = true
		req[name] = lhs.InReq[name] != nil
	}
	var dups []string
	for _, name := range rhs.Args[:rhs.NumInputs()] {
		if seen[name] || passed[name] {
			continue
		}
		add(rhs, name)
		seen[name] = true
		req[name] = rhs.InReq[name] != nil
	}
	boundary := len(args)
	for _, name := range lhs.Args[lhs.NumInputs():] {
		if seen[name] {
			dups = append(dups, name)
			continue
		}
		add(lhs, name)
		seen[name] = true
	}
	for _, name := range rhs.Args[rhs.NumInputs():] {
		if seen[name] {
			dups = append(dups, name)
			continue
		}
		add(rhs, name)
		seen[name] = true
	}
	out.Args = args
	out.Types = types
	out.InReq = make(map[string]thingtalk.Type)
	out.InOpt = make(map[string]thingtalk.Type)
	out.Out = make(map[string]thingtalk.Type)
	for i, name := range args {
		if i < boundary {
			if req[name] {
				out.InReq[name] = types[i]
			} else {
				out.InOpt[name] = types[i]
			}
		} else {
			out.Out[name] = types[i]
		}
	}
	out.Reindex()
	return dups
}

func replaceSignature(schema *thingtalk.FunctionSchema, args []string, types []thingtalk.Type) {
	keep := make(map[string]bool, len(args))
	for _, name := range args {
		keep[name] = true
	}
	for _, m := range []map[string]thingtalk.Type{schema.InReq, schema.InOpt, schema.Out} {
		for name := range m {
			if !keep[name] {
				delete(m, name)
			}
		}
	}
	schema.Args = args
	schema.Types = types
	schema.ArgCanonicals = nil
	schema.Reindex()
}

// rangeValue checks a window or history bound against the expected type.
func (a *analyzer) rangeValue(v ast.Value, expected thingtalk.Type, code ErrorCode, what string) error {
	if v == nil {
		return errorf(code, "missing %s", what)
	}
	t, err := a.typeForValue(v)
	if err != nil {
		return err
	}
	if !thingtalk.IsAssignable(t, expected, make(thingtalk.TypeScope), false) {
		return errorf(code, "invalid %s of type %s, expected %s", what, t, expected)
	}
	return nil
}
