package filter

import (
	"fmt"
	"iter"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	apperrors "github.com/tannhaus/accord/internal/errors"
	"github.com/tannhaus/accord/internal/trade/resource"
	"github.com/tannhaus/accord/internal/trade/transaction"
)

// Predicate reports whether a resolved trade record matches a filter
// expression. It is the in-memory counterpart of the SQL translation and
// accepts the same field set.
type Predicate func(transaction.Record) bool

// ParseTradePredicate parses an AIP-160 filter expression and returns a
// predicate over resolved trade records. An empty filter matches everything.
func ParseTradePredicate(filterStr string) (Predicate, error) {
	if strings.TrimSpace(filterStr) == "" {
		return func(transaction.Record) bool { return true }, nil
	}

	decls, err := TradeDeclarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFilterInvalid, "parse filter", err)
	}

	return predicateExpr(parsed.CheckedExpr.Expr)
}

// Matching narrows a record sequence to those that satisfy the predicate.
func Matching(seq iter.Seq[transaction.Record], p Predicate) iter.Seq[transaction.Record] {
	return func(yield func(transaction.Record) bool) {
		for rec := range seq {
			if !p(rec) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func predicateExpr(e *expr.Expr) (Predicate, error) {
	if e == nil {
		return func(transaction.Record) bool { return true }, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return predicateCall(kind.CallExpr)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func predicateCall(call *expr.Expr_Call) (Predicate, error) {
	switch call.Function {
	case "_&&_", "AND":
		return predicateLogical(call.Args, "AND")
	case "_||_", "OR":
		return predicateLogical(call.Args, "OR")
	case "_==_", "=":
		return predicateComparison(call.Args, "=")
	case "_!=_", "!=":
		return predicateComparison(call.Args, "!=")
	case "_<_", "<":
		return predicateComparison(call.Args, "<")
	case "_<=_", "<=":
		return predicateComparison(call.Args, "<=")
	case "_>_", ">":
		return predicateComparison(call.Args, ">")
	case "_>=_", ">=":
		return predicateComparison(call.Args, ">=")
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func predicateLogical(args []*expr.Expr, op string) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s requires 2 arguments", op)
	}

	left, err := predicateExpr(args[0])
	if err != nil {
		return nil, err
	}

	right, err := predicateExpr(args[1])
	if err != nil {
		return nil, err
	}

	if op == "AND" {
		return func(rec transaction.Record) bool {
			return left(rec) && right(rec)
		}, nil
	}
	return func(rec transaction.Record) bool {
		return left(rec) || right(rec)
	}, nil
}

func predicateComparison(args []*expr.Expr, op string) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return nil, err
	}

	value, err := extractValue(args[1])
	if err != nil {
		return nil, err
	}

	switch field {
	case "status", "proposer", "counterparty":
		want, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s requires a string value", field)
		}
		accessor := stringField(field)
		return func(rec transaction.Record) bool {
			return compareOrdered(strings.Compare(accessor(rec), want), op)
		}, nil
	case "participant":
		// A participant matches a trade from either side.
		if op != "=" {
			return nil, fmt.Errorf("participant only supports equality")
		}
		want, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("participant requires a string value")
		}
		return func(rec transaction.Record) bool {
			return rec.Involves(resource.ParticipantID(want))
		}, nil
	case "kind":
		if op != "=" {
			return nil, fmt.Errorf("kind only supports equality")
		}
		want, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("kind requires a string value")
		}
		// Unknown kind names reference nothing and match no record.
		return func(rec transaction.Record) bool {
			return rec.References(resource.Kind(want))
		}, nil
	case "ts":
		want, ok := value.(int64)
		if !ok {
			return nil, fmt.Errorf("ts requires a timestamp value")
		}
		return func(rec transaction.Record) bool {
			if rec.ResolvedAt == nil {
				return false
			}
			return compareOrdered(compareInt64(rec.ResolvedAt.UTC().UnixMilli(), want), op)
		}, nil
	}

	return nil, fmt.Errorf("unknown field: %s", field)
}

func stringField(field string) func(transaction.Record) string {
	switch field {
	case "status":
		return func(rec transaction.Record) string { return string(rec.Status) }
	case "proposer":
		return func(rec transaction.Record) string { return string(rec.Proposer) }
	default:
		return func(rec transaction.Record) string { return string(rec.Counterparty) }
	}
}

// compareOrdered maps a three-way comparison result onto the filter operator.
func compareOrdered(cmp int, op string) bool {
	switch op {
	case "=":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return false
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
