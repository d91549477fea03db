package pg

import (
	"fmt"
	"strings"
)

// Where accumulates AND-ed predicates and their positional arguments.
type Where struct {
	conds []string
	Args  []any
}

// Param registers v and returns its placeholder.
func (w *Where) Param(v any) string {
	w.Args = append(w.Args, v)
	return fmt.Sprintf("$%d", len(w.Args))
}

func (w *Where) And(cond string) {
	w.conds = append(w.conds, cond)
}

// Eq adds "column = $n".
func (w *Where) Eq(column string, v any) {
	w.And(column + " = " + w.Param(v))
}

func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Page appends LIMIT and OFFSET placeholders.
func (w *Where) Page(limit, offset int) string {
	return " LIMIT " + w.Param(limit) + " OFFSET " + w.Param(offset)
}
