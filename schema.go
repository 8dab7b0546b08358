package thingtalk

import (
	"fmt"
	"strings"
)

// FunctionKind distinguishes the three classes of Thingpedia functions.
type FunctionKind string

const (
	Query   FunctionKind = "query"
	Action  FunctionKind = "action"
	Trigger FunctionKind = "trigger"
)

// A FunctionSchema is the structured signature of a Thingpedia function:
// an ordered argument list partitioned into required inputs, optional
// inputs, and outputs.  Inputs always precede outputs in Args, and the
// name index is a bijection onto Args.
//
// Schemas fetched from Thingpedia are shared; the semantic analyzer clones
// a schema before mutating it so composition never aliases a shared
// signature.
type FunctionSchema struct {
	Kind          FunctionKind
	Args          []string
	Types         []Type
	InReq         map[string]Type
	InOpt         map[string]Type
	Out           map[string]Type
	ArgCanonicals []string
	Confirmation  string

	index map[string]int
}

func NewFunctionSchema(kind FunctionKind) *FunctionSchema {
	return &FunctionSchema{
		Kind:  kind,
		InReq: make(map[string]Type),
		InOpt: make(map[string]Type),
		Out:   make(map[string]Type),
		index: make(map[string]int),
	}
}

// NumInputs returns the size of the input prefix of Args.
func (s *FunctionSchema) NumInputs() int {
	return len(s.InReq) + len(s.InOpt)
}

// Index returns the position of name in Args.
func (s *FunctionSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// ArgType returns the declared type of name wherever it lives.
func (s *FunctionSchema) ArgType(name string) (Type, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.Types[i], true
}

// InputType returns the declared type of the named input and whether it is
// required.
func (s *FunctionSchema) InputType(name string) (Type, bool, bool) {
	if t, ok := s.InReq[name]; ok {
		return t, true, true
	}
	if t, ok := s.InOpt[name]; ok {
		return t, false, true
	}
	return nil, false, false
}

// AddInput inserts a new input at the input boundary, shifting the index of
// every output by one.  Adding a name that already exists is an error.
func (s *FunctionSchema) AddInput(name string, typ Type, required bool) error {
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("duplicate argument %q", name)
	}
	boundary := s.NumInputs()
	s.Args = append(s.Args, "")
	copy(s.Args[boundary+1:], s.Args[boundary:])
	s.Args[boundary] = name
	s.Types = append(s.Types, nil)
	copy(s.Types[boundary+1:], s.Types[boundary:])
	s.Types[boundary] = typ
	if s.ArgCanonicals != nil {
		s.ArgCanonicals = append(s.ArgCanonicals, "")
		copy(s.ArgCanonicals[boundary+1:], s.ArgCanonicals[boundary:])
		s.ArgCanonicals[boundary] = canonicalize(name)
	}
	if required {
		s.InReq[name] = typ
	} else {
		s.InOpt[name] = typ
	}
	s.Reindex()
	return nil
}

// AddOutput appends a new output argument.
func (s *FunctionSchema) AddOutput(name string, typ Type) error {
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("duplicate argument %q", name)
	}
	s.index[name] = len(s.Args)
	s.Args = append(s.Args, name)
	s.Types = append(s.Types, typ)
	if s.ArgCanonicals != nil {
		s.ArgCanonicals = append(s.ArgCanonicals, canonicalize(name))
	}
	s.Out[name] = typ
	return nil
}

// CleanOutputs truncates Args and Types to the input prefix and returns
// the names of the removed outputs.
func (s *FunctionSchema) CleanOutputs() []string {
	boundary := s.NumInputs()
	removed := make([]string, 0, len(s.Args)-boundary)
	for _, name := range s.Args[boundary:] {
		removed = append(removed, name)
		delete(s.Out, name)
		delete(s.index, name)
	}
	s.Args = s.Args[:boundary]
	s.Types = s.Types[:boundary]
	if s.ArgCanonicals != nil && len(s.ArgCanonicals) > boundary {
		s.ArgCanonicals = s.ArgCanonicals[:boundary]
	}
	return removed
}

// RenameArg renames an argument in place, preserving its partition and
// position.
func (s *FunctionSchema) RenameArg(from, to string) error {
	i, ok := s.index[from]
	if !ok {
		return fmt.Errorf("no such argument %q", from)
	}
	if _, ok := s.index[to]; ok {
		return fmt.Errorf("duplicate argument %q", to)
	}
	s.Args[i] = to
	delete(s.index, from)
	s.index[to] = i
	for _, m := range []map[string]Type{s.InReq, s.InOpt, s.Out} {
		if t, ok := m[from]; ok {
			delete(m, from)
			m[to] = t
		}
	}
	return nil
}

// Clone returns a deep copy of the schema.  Types are immutable and stay
// shared.
func (s *FunctionSchema) Clone() *FunctionSchema {
	clone := &FunctionSchema{
		Kind:         s.Kind,
		Args:         append([]string(nil), s.Args...),
		Types:        append([]Type(nil), s.Types...),
		InReq:        make(map[string]Type, len(s.InReq)),
		InOpt:        make(map[string]Type, len(s.InOpt)),
		Out:          make(map[string]Type, len(s.Out)),
		Confirmation: s.Confirmation,
		index:        make(map[string]int, len(s.index)),
	}
	if s.ArgCanonicals != nil {
		clone.ArgCanonicals = append([]string(nil), s.ArgCanonicals...)
	}
	for k, v := range s.InReq {
		clone.InReq[k] = v
	}
	for k, v := range s.InOpt {
		clone.InOpt[k] = v
	}
	for k, v := range s.Out {
		clone.Out[k] = v
	}
	for k, v := range s.index {
		clone.index[k] = v
	}
	return clone
}

// Reindex rebuilds the name index after the argument list has been
// rewritten in place.
func (s *FunctionSchema) Reindex() {
	s.index = make(map[string]int, len(s.Args))
	for i, name := range s.Args {
		s.index[name] = i
	}
}

func (s *FunctionSchema) String() string {
	var b strings.Builder
	b.WriteString(string(s.Kind))
	b.WriteByte('(')
	for i, name := range s.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		switch {
		case s.InReq[name] != nil:
			b.WriteString("in req ")
		case s.InOpt[name] != nil:
			b.WriteString("in opt ")
		default:
			b.WriteString("out ")
		}
		fmt.Fprintf(&b, "%s: %s", name, s.Types[i])
	}
	b.WriteByte(')')
	return b.String()
}

func canonicalize(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
