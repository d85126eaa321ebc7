package repository

import (
	"fmt"
	"strings"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// conditions accumulates WHERE clauses with positional arguments.
// Each clause is a format string whose %d verbs receive the argument's position.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, arg interface{}) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

func (c *conditions) raw(clause string) {
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page appends LIMIT/OFFSET placeholders. A non-positive limit returns every row.
func (c *conditions) page(limit, offset int) (string, []interface{}) {
	if limit <= 0 {
		return "", c.args
	}
	args := append(append([]interface{}{}, c.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// unqualified strips table aliases from a column list so it can be reused in INSERT statements.
func unqualified(columns string) string {
	for _, alias := range []string{"t.", "p.", "g.", "u."} {
		columns = strings.ReplaceAll(columns, alias, "")
	}
	return columns
}
