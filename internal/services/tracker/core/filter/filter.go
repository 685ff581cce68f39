// Package filter translates AIP-160 filter expressions into SQL conditions
// over the event journal.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
)

// Condition is a SQL WHERE fragment with positional parameters, shaped for
// storage.EventPageRequest.FilterClause and FilterParams.
type Condition struct {
	Clause string
	Params []any
}

// columns maps filter fields to journal columns. ts compares against the
// millisecond occurred-at column, so timestamp() values translate to
// integers.
var columns = map[string]string{
	"type":        "event_type",
	"entity_type": "entity_type",
	"entity_id":   "entity_id",
	"source":      "source",
	"ts":          "occurred_at",
}

// operators maps CEL call names and their text forms to SQL operators.
var operators = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

// Declarations returns the identifier declarations for event filters.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("entity_type", filtering.TypeString),
		filtering.DeclareIdent("entity_id", filtering.TypeString),
		filtering.DeclareIdent("source", filtering.TypeString),
		filtering.DeclareIdent("ts", filtering.TypeTimestamp),
	)
}

// ParseEventFilter parses an expression like
//
//	type = "comment.added" AND ts >= timestamp("2026-04-02T00:00:00Z")
//
// into a SQL condition over the events table. An empty filter parses to the
// empty condition. Anything unparseable or outside the declared fields is
// an invalid argument.
func ParseEventFilter(filterStr string) (Condition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return Condition{}, nil
	}
	decls, err := Declarations()
	if err != nil {
		return Condition{}, fmt.Errorf("declare filter fields: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return Condition{}, apperrors.Wrap(apperrors.CodeInvalidArgument, "parse filter", err)
	}
	return translate(parsed.CheckedExpr.GetExpr())
}

func translate(e *expr.Expr) (Condition, error) {
	if e == nil {
		return Condition{}, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return Condition{}, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unsupported filter expression %T", e.ExprKind))
	}
	fn := call.CallExpr.GetFunction()
	switch fn {
	case "_&&_", "AND":
		return combine("AND", call.CallExpr.GetArgs())
	case "_||_", "OR":
		return combine("OR", call.CallExpr.GetArgs())
	}
	if op, ok := operators[fn]; ok {
		return comparison(op, call.CallExpr.GetArgs())
	}
	return Condition{}, apperrors.New(apperrors.CodeInvalidArgument,
		fmt.Sprintf("unsupported filter function %q", fn))
}

func combine(op string, args []*expr.Expr) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, apperrors.New(apperrors.CodeInvalidArgument, op+" requires two operands")
	}
	left, err := translate(args[0])
	if err != nil {
		return Condition{}, err
	}
	right, err := translate(args[1])
	if err != nil {
		return Condition{}, err
	}
	return Condition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func comparison(op string, args []*expr.Expr) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, apperrors.New(apperrors.CodeInvalidArgument, "comparison requires two operands")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return Condition{}, apperrors.New(apperrors.CodeInvalidArgument, "comparison must start with a field name")
	}
	field := ident.IdentExpr.GetName()
	column, ok := columns[field]
	if !ok {
		return Condition{}, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unknown filter field %q", field))
	}
	value, err := extractValue(args[1])
	if err != nil {
		return Condition{}, err
	}
	return Condition{Clause: column + " " + op + " ?", Params: []any{value}}, nil
}

func extractValue(e *expr.Expr) (any, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		return constValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.GetFunction() == "timestamp" && len(kind.CallExpr.GetArgs()) == 1 {
			return timestampMillis(kind.CallExpr.GetArgs()[0])
		}
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unsupported function %q in value position", kind.CallExpr.GetFunction()))
	default:
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "filter value must be a constant or timestamp()")
	}
}

func constValue(c *expr.Constant) (any, error) {
	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unsupported constant %T", kind))
	}
}

// timestampMillis converts timestamp("...") into the millisecond integer
// the occurred_at column stores.
func timestampMillis(e *expr.Expr) (int64, error) {
	konst, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return 0, apperrors.New(apperrors.CodeInvalidArgument, "timestamp argument must be a constant string")
	}
	strVal, ok := konst.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, apperrors.New(apperrors.CodeInvalidArgument, "timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339, strVal.StringValue)
	if err != nil {
		return 0, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("invalid timestamp %q", strVal.StringValue))
	}
	return t.UTC().UnixMilli(), nil
}
