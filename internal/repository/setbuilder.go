package repository

import (
	"fmt"
	"strings"
)

// setBuilder accumulates the SET list and positional arguments of a
// partial UPDATE.
type setBuilder struct {
	sets []string
	args []any
}

func (b *setBuilder) add(col string, v any) {
	b.args = append(b.args, v)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

// build appends id and userID as the final arguments and returns the
// statement for table.
func (b *setBuilder) build(table, id, userID string) (string, []any) {
	args := append(b.args, id, userID)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d AND user_id = $%d",
		table, strings.Join(b.sets, ", "), len(args)-1, len(args),
	)
	return query, args
}
