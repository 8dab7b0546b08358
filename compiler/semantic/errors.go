// Package semantic implements the ThingTalk static semantic analyzer: the
// recursive type checker that resolves primitives against their Thingpedia
// schemas, threads a lexical scope through composable stream and table
// constructors, validates filters, input parameters, aggregations, joins,
// projections, and computations against the operator overload tables, and
// rewrites schemas in place to reflect composition.
package semantic

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

// ErrorCode classifies analyzer failures.
type ErrorCode string

const (
	ErrInvalidPrincipal       ErrorCode = "InvalidPrincipal"
	ErrUnknownMemoryTable     ErrorCode = "UnknownMemoryTable"
	ErrInvalidBuiltinAction   ErrorCode = "InvalidBuiltinAction"
	ErrUnknownFunction        ErrorCode = "UnknownFunction"
	ErrVariableNotInScope     ErrorCode = "VariableNotInScope"
	ErrFieldConflict          ErrorCode = "FieldConflict"
	ErrInvalidFieldName       ErrorCode = "InvalidFieldName"
	ErrFieldRedefinition      ErrorCode = "FieldRedefinition"
	ErrInvalidInputParameter  ErrorCode = "InvalidInputParameter"
	ErrDuplicateInputParam    ErrorCode = "DuplicateInputParam"
	ErrInvalidType            ErrorCode = "InvalidType"
	ErrInvalidOperator        ErrorCode = "InvalidOperator"
	ErrInvalidParameterTypes  ErrorCode = "InvalidParameterTypes"
	ErrInvalidAggregationFld  ErrorCode = "InvalidAggregationField"
	ErrInvalidAggregation     ErrorCode = "InvalidAggregation"
	ErrInvalidArgMinMaxField  ErrorCode = "InvalidArgMinMaxField"
	ErrInvalidRange           ErrorCode = "InvalidRange"
	ErrInvalidTimeRange       ErrorCode = "InvalidTimeRange"
	ErrNotImplemented         ErrorCode = "NotImplemented"
	ErrNoGetFunction          ErrorCode = "NoGetFunction"
)

// An Error is a typed analyzer failure.  All analyzer entry points report
// the first Error encountered; there is no recovery or partial result.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errorf(code ErrorCode, format string, args ...interface{}) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the error code, or the empty string if err is not an
// analyzer error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// suggest returns a parenthesized "did you mean" hint naming the closest
// candidate within an edit distance of 2, or the empty string.
func suggest(name string, candidates []string) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	best, bestDist := "", 3
	for _, c := range sorted {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
