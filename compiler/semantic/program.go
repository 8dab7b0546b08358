package semantic

import (
	"sort"

	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
)

func (a *analyzer) semProgram(p *ast.Program) error {
	for _, class := range p.Classes {
		a.classes[class.Name] = class
	}
	if p.Principal != nil {
		if err := checkPrincipal(p.Principal); err != nil {
			return err
		}
	}
	for _, d := range p.Declarations {
		a.scope.Clean(nil)
		if err := a.semDeclaration(d); err != nil {
			return err
		}
	}
	for _, r := range p.Rules {
		a.scope.Clean(nil)
		if err := a.semRule(r); err != nil {
			return err
		}
	}
	return nil
}

// checkPrincipal requires the program principal to be a contact or a
// username.
func checkPrincipal(v ast.Value) error {
	entity, ok := v.(*ast.EntityValue)
	if !ok || (entity.Type != "tt:contact" && entity.Type != "tt:username") {
		return errorf(ErrInvalidPrincipal, "invalid principal, must be a contact or a username")
	}
	return nil
}

// semDeclaration checks a declaration body with its lambda parameters in
// scope, lifts the pending required inputs into the resulting schema,
// renames the schema arguments bound to lambda parameters, and binds the
// declaration into the global scope.
func (a *analyzer) semDeclaration(d *ast.Declaration) error {
	a.scope.InitLambdaArgs(d.Args)
	a.isDeclaration = true
	defer func() { a.isDeclaration = false }()
	var schema *thingtalk.FunctionSchema
	switch d.Type {
	case "table":
		if err := a.semTable(d.Table); err != nil {
			return err
		}
		schema = d.Table.FunctionSchema().Clone()
	case "stream":
		if err := a.semStream(d.Stream); err != nil {
			return err
		}
		schema = d.Stream.FunctionSchema().Clone()
	case "action":
		if err := a.semAction(d.Action); err != nil {
			return err
		}
		schema = d.Action.Schema.Clone()
	default:
		return errorf(ErrNotImplemented, "invalid declaration type %q", d.Type)
	}
	if err := a.pushInReq(schema); err != nil {
		return err
	}
	if err := a.applyLambdaRenames(d, schema); err != nil {
		return err
	}
	// Parameters that never surfaced in the schema, such as those bound
	// only inside filters, still belong to the declaration's signature.
	for _, param := range d.Args {
		switch param.Type.Type.(type) {
		case *thingtalk.TypeOfTable, *thingtalk.TypeOfStream:
			continue
		}
		if _, ok := schema.Index(param.Name); ok {
			continue
		}
		if err := schema.AddInput(param.Name, param.Type.Type, true); err != nil {
			return errorf(ErrFieldRedefinition, "%s", err)
		}
	}
	d.Schema = schema
	argNames := make([]string, len(d.Args))
	for i, arg := range d.Args {
		argNames[i] = arg.Name
	}
	a.scope.Clean(argNames)
	return a.scope.AddGlobal(d.Name, schema)
}

// applyLambdaRenames rewrites the schema arguments through which each
// lambda parameter was bound so the declaration's signature names its own
// parameters.
func (a *analyzer) applyLambdaRenames(d *ast.Declaration, schema *thingtalk.FunctionSchema) error {
	renames := a.scope.LambdaRenames()
	for _, param := range d.Args {
		for _, alias := range renames[param.Name] {
			if _, ok := schema.Index(param.Name); ok {
				break
			}
			if _, _, isInput := schema.InputType(alias); !isInput {
				continue
			}
			if err := schema.RenameArg(alias, param.Name); err != nil {
				return errorf(ErrFieldRedefinition, "%s", err)
			}
		}
	}
	return nil
}

// semRule checks the rule's source, then its actions, then appends a
// remote undefined slot for every required input the rule leaves
// unsupplied, the postcondition downstream slot-filling relies on.
func (a *analyzer) semRule(r *ast.Rule) error {
	if r.Stream != nil {
		if err := a.semStream(r.Stream); err != nil {
			return err
		}
		a.scope.SetHasEvent(true)
	} else if r.Table != nil {
		if err := a.semTable(r.Table); err != nil {
			return err
		}
		a.scope.SetHasEvent(true)
	}
	builtinOnly := len(r.Actions) > 0
	for _, action := range r.Actions {
		if err := a.semAction(action); err != nil {
			return err
		}
		if action.Selector != nil && !action.Selector.Builtin {
			builtinOnly = false
		}
	}
	if r.Stream == nil && r.Table == nil && builtinOnly {
		return errorf(ErrNoGetFunction, "cannot have a rule with only builtin actions and no query or stream")
	}
	appendUndefinedSlots(r)
	return nil
}

// semAction resolves and checks an action invocation.
func (a *analyzer) semAction(inv *ast.Invocation) error {
	if err := a.ensureSchema(inv, thingtalk.Action); err != nil {
		return err
	}
	return a.checkInputParams(inv.InParams, inv.Schema)
}

// appendUndefinedSlots extends the in_params of every primitive in the
// rule with remote undefined slots for the required inputs not supplied.
// Re-analysis is a no-op because the appended slots count as supplied.
func appendUndefinedSlots(r *ast.Rule) {
	if r.Table != nil {
		walkTablePrimitives(r.Table)
	}
	if r.Stream != nil {
		walkStreamPrimitives(r.Stream)
	}
	for _, action := range r.Actions {
		fillUndefined(&action.InParams, action.Schema)
	}
}

func walkTablePrimitives(t ast.Table) {
	switch t := t.(type) {
	case *ast.InvocationTable:
		fillUndefined(&t.Invocation.InParams, t.Invocation.Schema)
	case *ast.VarRefTable:
		fillUndefined(&t.InParams, t.Schema)
	case *ast.FilteredTable:
		walkTablePrimitives(t.Table)
	case *ast.ProjectionTable:
		walkTablePrimitives(t.Table)
	case *ast.AliasTable:
		walkTablePrimitives(t.Table)
	case *ast.AggregationTable:
		walkTablePrimitives(t.Table)
	case *ast.ArgMinMaxTable:
		walkTablePrimitives(t.Table)
	case *ast.JoinTable:
		walkTablePrimitives(t.LHS)
		walkTablePrimitives(t.RHS)
	case *ast.WindowTable:
		walkStreamPrimitives(t.Stream)
	case *ast.TimeSeriesTable:
		walkStreamPrimitives(t.Stream)
	case *ast.SequenceTable:
		walkTablePrimitives(t.Table)
	case *ast.HistoryTable:
		walkTablePrimitives(t.Table)
	case *ast.ComputeTable:
		walkTablePrimitives(t.Table)
	}
}

func walkStreamPrimitives(s ast.Stream) {
	switch s := s.(type) {
	case *ast.MonitorStream:
		walkTablePrimitives(s.Table)
	case *ast.EdgeFilterStream:
		walkStreamPrimitives(s.Stream)
	case *ast.EdgeNewStream:
		walkStreamPrimitives(s.Stream)
	case *ast.FilteredStream:
		walkStreamPrimitives(s.Stream)
	case *ast.ProjectionStream:
		walkStreamPrimitives(s.Stream)
	case *ast.AliasStream:
		walkStreamPrimitives(s.Stream)
	case *ast.JoinStream:
		walkStreamPrimitives(s.Stream)
		walkTablePrimitives(s.Table)
	case *ast.VarRefStream:
		fillUndefined(&s.InParams, s.Schema)
	}
}

func fillUndefined(inParams *[]*ast.InputParam, schema *thingtalk.FunctionSchema) {
	if schema == nil {
		return
	}
	supplied := make(map[string]bool, len(*inParams))
	for _, ip := range *inParams {
		supplied[ip.Name] = true
	}
	var missing []string
	for name := range schema.InReq {
		if !supplied[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		*inParams = append(*inParams, &ast.InputParam{
			Name:  name,
			Value: ast.Undefined(true),
		})
	}
}

// semPermissionRule checks a permission rule: the principal filter over
// source, the query, and the action, with the query's outputs visible to
// the action filter.
func (a *analyzer) semPermissionRule(r *ast.PermissionRule) error {
	a.scope.Add("source", thingtalk.NewEntity("tt:contact"))
	if r.Principal != nil {
		if err := a.semFilter(r.Principal, nil); err != nil {
			return err
		}
	}
	if err := a.semPermissionFunction(r.Query, thingtalk.Query); err != nil {
		return err
	}
	a.scope.SetHasEvent(true)
	return a.semPermissionFunction(r.Action, thingtalk.Action)
}

func (a *analyzer) semPermissionFunction(f *ast.PermissionFunction, what thingtalk.FunctionKind) error {
	if f == nil {
		return nil
	}
	switch f.Specifier {
	case ast.SpecifierStar, ast.SpecifierBuiltin, ast.SpecifierClass:
		if f.Filter != nil {
			return a.semFilter(f.Filter, nil)
		}
		return nil
	case ast.SpecifierSpecified:
		schema, err := a.schemas.AllowedSchema(a.ctx, f.Class, f.Channel, what, a.useMeta)
		if err != nil {
			return err
		}
		if schema == nil {
			return errorf(ErrUnknownFunction, "no such function @%s.%s", f.Class, f.Channel)
		}
		f.Schema = schema.Clone()
		if f.Filter != nil {
			if err := a.semFilter(f.Filter, f.Schema); err != nil {
				return err
			}
		}
		if what == thingtalk.Query {
			a.scope.Assign(f.Schema.Out)
		}
		return nil
	default:
		return errorf(ErrNotImplemented, "invalid permission function specifier %q", f.Specifier)
	}
}
