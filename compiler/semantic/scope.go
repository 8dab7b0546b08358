package semantic

import (
	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
)

// A Scope is the lexical environment threaded through a single check.  It
// holds the globals (declarations and aliases bound as first-class
// schemas), the locals (parameters and published outputs), the names made
// ambiguous by a join, the required inputs not yet supplied, the has-event
// flag, and the rename aliases of lambda arguments.
type Scope struct {
	global     map[string]*thingtalk.FunctionSchema
	locals     map[string]thingtalk.Type
	conflicts  map[string]struct{}
	inReq      map[string]thingtalk.Type
	lambdaArgs map[string][]string
	hasEvent   bool
}

func NewScope() *Scope {
	return &Scope{
		global:     make(map[string]*thingtalk.FunctionSchema),
		locals:     make(map[string]thingtalk.Type),
		conflicts:  make(map[string]struct{}),
		inReq:      make(map[string]thingtalk.Type),
		lambdaArgs: make(map[string][]string),
	}
}

// Clone copies every map so child scopes never alias their parent.
func (s *Scope) Clone() *Scope {
	clone := NewScope()
	clone.hasEvent = s.hasEvent
	for k, v := range s.global {
		clone.global[k] = v
	}
	for k, v := range s.locals {
		clone.locals[k] = v
	}
	for k := range s.conflicts {
		clone.conflicts[k] = struct{}{}
	}
	for k, v := range s.inReq {
		clone.inReq[k] = v
	}
	for k, v := range s.lambdaArgs {
		clone.lambdaArgs[k] = append([]string(nil), v...)
	}
	return clone
}

func (s *Scope) Has(name string) bool {
	_, ok := s.locals[name]
	return ok
}

func (s *Scope) HasGlobal(name string) bool {
	_, ok := s.global[name]
	return ok
}

// Get resolves a local name.  Names rendered ambiguous by a join fail
// with FieldConflict.
func (s *Scope) Get(name string) (thingtalk.Type, error) {
	if _, ok := s.conflicts[name]; ok {
		return nil, errorf(ErrFieldConflict, "%q is ambiguous in this scope", name)
	}
	t, ok := s.locals[name]
	if !ok {
		return nil, errorf(ErrVariableNotInScope, "variable %q is not in scope%s", name, suggest(name, s.localNames()))
	}
	return t, nil
}

func (s *Scope) GetGlobal(name string) (*thingtalk.FunctionSchema, bool) {
	schema, ok := s.global[name]
	return schema, ok
}

func (s *Scope) Add(name string, t thingtalk.Type) {
	s.locals[name] = t
}

// AddGlobal binds a first-class schema; redefining a global is an error.
func (s *Scope) AddGlobal(name string, schema *thingtalk.FunctionSchema) error {
	if _, ok := s.global[name]; ok {
		return errorf(ErrFieldRedefinition, "%q is already defined", name)
	}
	s.global[name] = schema
	return nil
}

func (s *Scope) AddConflict(name string) {
	s.conflicts[name] = struct{}{}
}

func (s *Scope) Remove(name string) {
	delete(s.locals, name)
	delete(s.conflicts, name)
}

// Assign publishes a schema's outputs: table- and stream-typed entries
// become empty global schemas, function entries become their own schema,
// and everything else becomes a local.
func (s *Scope) Assign(out map[string]thingtalk.Type) {
	for name, t := range out {
		switch t := t.(type) {
		case *thingtalk.TypeOfTable:
			s.global[name] = thingtalk.NewFunctionSchema(thingtalk.Query)
		case *thingtalk.TypeOfStream:
			s.global[name] = thingtalk.NewFunctionSchema(thingtalk.Trigger)
		case *thingtalk.TypeFunction:
			s.global[name] = t.Schema
		default:
			s.locals[name] = t
		}
	}
}

// Clean resets locals, conflicts, pending requireds, lambda args, and the
// event flag, and strips the named globals.
func (s *Scope) Clean(globals []string) {
	s.locals = make(map[string]thingtalk.Type)
	s.conflicts = make(map[string]struct{})
	s.inReq = make(map[string]thingtalk.Type)
	s.lambdaArgs = make(map[string][]string)
	s.hasEvent = false
	for _, name := range globals {
		delete(s.global, name)
	}
}

// Prefix renames every local k to p.k, so after an alias sibling
// references must qualify.
func (s *Scope) Prefix(p string) {
	renamed := make(map[string]thingtalk.Type, len(s.locals))
	for k, v := range s.locals {
		renamed[p+"."+k] = v
	}
	s.locals = renamed
}

// Merge copies other's globals into the globals and other's locals into
// the locals, along with the pending requireds, conflicts, and lambda-arg
// aliases accumulated by the merged branch.
func (s *Scope) Merge(other *Scope) {
	for k, v := range other.global {
		s.global[k] = v
	}
	for k, v := range other.locals {
		s.locals[k] = v
	}
	for k := range other.conflicts {
		s.conflicts[k] = struct{}{}
	}
	for k, v := range other.inReq {
		s.inReq[k] = v
	}
	for k, aliases := range other.lambdaArgs {
		for _, alias := range aliases {
			if !containsString(s.lambdaArgs[k], alias) {
				s.lambdaArgs[k] = append(s.lambdaArgs[k], alias)
			}
		}
		if _, ok := s.lambdaArgs[k]; !ok {
			s.lambdaArgs[k] = nil
		}
	}
}

func containsString(list []string, s string) bool {
	for _, elem := range list {
		if elem == s {
			return true
		}
	}
	return false
}

// InitLambdaArgs seeds the scope with a declaration's parameters: table-
// and stream-typed parameters become empty global schemas and the rest
// become locals.  Every parameter is registered as a lambda argument so
// call-site bindings can be recorded.
func (s *Scope) InitLambdaArgs(args []*ast.LambdaParam) {
	for _, arg := range args {
		switch arg.Type.Type.(type) {
		case *thingtalk.TypeOfTable:
			s.global[arg.Name] = thingtalk.NewFunctionSchema(thingtalk.Query)
		case *thingtalk.TypeOfStream:
			s.global[arg.Name] = thingtalk.NewFunctionSchema(thingtalk.Trigger)
		default:
			s.locals[arg.Name] = arg.Type.Type
		}
		s.lambdaArgs[arg.Name] = nil
	}
}

// IsLambdaArg reports whether name is a parameter of the enclosing
// declaration.
func (s *Scope) IsLambdaArg(name string) bool {
	_, ok := s.lambdaArgs[name]
	return ok
}

// UpdateLambdaArgs records that the lambda parameter lambdaName was bound
// through the input named actualName at a call site.
func (s *Scope) UpdateLambdaArgs(lambdaName, actualName string) {
	if containsString(s.lambdaArgs[lambdaName], actualName) {
		return
	}
	s.lambdaArgs[lambdaName] = append(s.lambdaArgs[lambdaName], actualName)
}

// LambdaRenames returns, per lambda parameter, the input names it was
// bound through.
func (s *Scope) LambdaRenames() map[string][]string {
	return s.lambdaArgs
}

// PendingRequired exposes the required inputs awaiting supply.
func (s *Scope) PendingRequired() map[string]thingtalk.Type {
	return s.inReq
}

func (s *Scope) HasEvent() bool { return s.hasEvent }

func (s *Scope) SetHasEvent(b bool) { s.hasEvent = b }

func (s *Scope) localNames() []string {
	names := make([]string, 0, len(s.locals))
	for name := range s.locals {
		names = append(names, name)
	}
	return names
}
