// Package querysql compiles journal queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/cellcad/internal/queryir"
)

// operationColumns is the fixed projection of the operations table.
const operationColumns = "seq, op, operands, result, substitutions, detail, error"

// Compile converts a journal query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// CRITICAL: Every query ends in ORDER BY seq ASC so replays compare
// row-for-row. Values are never interpolated.
func Compile(q queryir.Operations) (string, []any, error) {
	if problems := queryir.Validate(q); len(problems) > 0 {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(problems, "; "))
	}

	where := "run_id = ?"
	params := []any{q.Run}
	if q.Filter != nil {
		filterSQL, filterParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND (" + filterSQL + ")"
		params = append(params, filterParams...)
	}

	sql := fmt.Sprintf("SELECT %s FROM operations WHERE %s ORDER BY seq ASC", operationColumns, where)
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.OpIs:
		return "op = ?", []any{pred.Op}, nil
	case queryir.Involves:
		h := int64(pred.Handle)
		return "(result = ?" +
				" OR EXISTS (SELECT 1 FROM json_each(operations.operands) WHERE value = ?)" +
				" OR EXISTS (SELECT 1 FROM json_each(operations.substitutions)" +
				" WHERE json_extract(value, '$.old') = ? OR json_extract(value, '$.new') = ?))",
			[]any{h, h, h, h}, nil
	case queryir.Failed:
		return "error <> ''", nil, nil
	case queryir.SeqRange:
		if pred.To == 0 {
			return "seq >= ?", []any{pred.From}, nil
		}
		return "seq BETWEEN ? AND ?", []any{pred.From, pred.To}, nil
	case queryir.And:
		return compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	var parts []string
	var params []any
	for _, p := range preds {
		sql, ps, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, ps...)
	}
	return strings.Join(parts, sep), params, nil
}
