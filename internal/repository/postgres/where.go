package postgres

import (
	"fmt"
	"strings"

	"docrepo/internal/repository"
)

// buildWhere folds typed predicates into a WHERE clause and its arguments.
// Placeholders start at $startArg so the clause can follow earlier
// parameters in the same query. An empty predicate list yields "".
func buildWhere(preds []repository.Predicate, startArg int) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}

	conds := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	n := startArg
	for _, p := range preds {
		switch p.Kind {
		case repository.KindContainsFold:
			conds = append(conds, fmt.Sprintf("%s ILIKE $%d", p.Column, n))
			args = append(args, "%"+p.Value.(string)+"%")
		case repository.KindEquals:
			conds = append(conds, fmt.Sprintf("%s = $%d", p.Column, n))
			args = append(args, p.Value)
		case repository.KindGTE:
			conds = append(conds, fmt.Sprintf("%s >= $%d", p.Column, n))
			args = append(args, p.Value)
		case repository.KindLTE:
			conds = append(conds, fmt.Sprintf("%s <= $%d", p.Column, n))
			args = append(args, p.Value)
		case repository.KindOverlaps:
			conds = append(conds, fmt.Sprintf("%s && $%d", p.Column, n))
			args = append(args, textArray(p.Value.([]string)))
		default:
			continue
		}
		n++
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
