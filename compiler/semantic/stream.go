package semantic

import (
	"golang.org/x/sync/errgroup"

	"github.com/stanford-oval/thingtalk"
	"github.com/stanford-oval/thingtalk/compiler/ast"
)

// semStream mirrors semTable over the stream constructors.  Timers carry
// an empty trigger schema; monitors lift a table into a stream; the
// stream join requires its right side to be a table.
func (a *analyzer) semStream(s ast.Stream) error {
	switch s := s.(type) {
	case *ast.TimerStream:
		if err := a.rangeValue(s.Base, thingtalk.TypeDate, ErrInvalidType, "timer base"); err != nil {
			return err
		}
		if err := a.rangeValue(s.Interval, measureMs, ErrInvalidType, "timer interval"); err != nil {
			return err
		}
		s.Schema = thingtalk.NewFunctionSchema(thingtalk.Trigger)
		return nil
	case *ast.AtTimerStream:
		if err := a.rangeValue(s.Time, thingtalk.TypeTime, ErrInvalidType, "attimer time"); err != nil {
			return err
		}
		s.Schema = thingtalk.NewFunctionSchema(thingtalk.Trigger)
		return nil
	case *ast.MonitorStream:
		if err := a.semTable(s.Table); err != nil {
			return err
		}
		schema := s.Table.FunctionSchema().Clone()
		s.Schema = schema
		for _, arg := range s.Args {
			if _, ok := schema.Out[arg]; !ok {
				return errorf(ErrInvalidFieldName, "invalid field name %q in monitor%s", arg, suggest(arg, outputNames(schema)))
			}
		}
		return nil
	case *ast.EdgeFilterStream:
		if err := a.semStream(s.Stream); err != nil {
			return err
		}
		schema := s.Stream.FunctionSchema().Clone()
		s.Schema = schema
		return a.semFilter(s.Filter, schema)
	case *ast.EdgeNewStream:
		if err := a.semStream(s.Stream); err != nil {
			return err
		}
		s.Schema = s.Stream.FunctionSchema().Clone()
		return nil
	case *ast.FilteredStream:
		if err := a.semStream(s.Stream); err != nil {
			return err
		}
		schema := s.Stream.FunctionSchema().Clone()
		s.Schema = schema
		return a.semFilter(s.Filter, schema)
	case *ast.ProjectionStream:
		if err := a.semStream(s.Stream); err != nil {
			return err
		}
		schema := s.Stream.FunctionSchema().Clone()
		s.Schema = schema
		return a.resolveProjection(s.Args, schema)
	case *ast.AliasStream:
		if err := a.semStream(s.Stream); err != nil {
			return err
		}
		schema := s.Stream.FunctionSchema().Clone()
		s.Schema = schema
		if err := a.scope.AddGlobal(s.Name, schema); err != nil {
			return err
		}
		a.scope.Prefix(s.Name)
		return nil
	case *ast.JoinStream:
		return a.semJoinStream(s)
	case *ast.VarRefStream:
		global, ok := a.scope.GetGlobal(s.Name)
		if !ok {
			return errorf(ErrUnknownFunction, "no declared stream %q", s.Name)
		}
		schema := global.Clone()
		s.Schema = schema
		if err := a.checkInputParams(s.InParams, schema); err != nil {
			return err
		}
		a.scope.Assign(schema.Out)
		return nil
	default:
		return errorf(ErrNotImplemented, "unsupported stream %T", s)
	}
}

func (a *analyzer) semJoinStream(s *ast.JoinStream) error {
	leftscope, rightscope := a.scope.Clone(), a.scope.Clone()
	g, ctx := errgroup.WithContext(a.ctx)
	al, ar := a.fork(ctx, leftscope), a.fork(ctx, rightscope)
	g.Go(func() error { return al.semStream(s.Stream) })
	g.Go(func() error { return ar.semTable(s.Table) })
	if err := g.Wait(); err != nil {
		return err
	}
	lhs, rhs := s.Stream.FunctionSchema(), s.Table.FunctionSchema()
	passed := make(map[string]bool, len(s.InParams))
	for _, ip := range s.InParams {
		passed[ip.Name] = true
	}
	schema := thingtalk.NewFunctionSchema(thingtalk.Trigger)
	dups := resolveJoin(schema, lhs, rhs, passed)
	s.Schema = schema
	leftscope.SetHasEvent(true)
	supplied := make(map[string]bool)
	for _, ip := range s.InParams {
		delete(rightscope.inReq, ip.Name)
		if err := al.checkInputParam(ip, rhs, supplied, leftscope); err != nil {
			return err
		}
	}
	a.scope.Merge(leftscope)
	a.scope.Merge(rightscope)
	for _, name := range dups {
		a.scope.AddConflict(name)
	}
	return nil
}
