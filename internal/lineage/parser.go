package lineage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// ParseTables extracts the distinct table names referenced by a SQL
// statement. Names keep their qualifier when present (schema.table).
func ParseTables(sql string) ([]string, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parsing sql: %w", err)
	}

	seen := make(map[string]struct{})
	err = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case sqlparser.TableName:
			name := n.Name.String()
			if name == "" {
				return true, nil
			}
			if q := n.Qualifier.String(); q != "" {
				name = q + "." + name
			}
			seen[name] = struct{}{}
		case *sqlparser.AliasedTableExpr:
			// Derived tables (subqueries) have no table name; their inner
			// SELECTs are walked separately.
		}
		return true, nil
	}, stmt)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(seen))
	for name := range seen {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables, nil
}

// ParseModelSQL is ParseTables with dbt-style relation quoting stripped, so
// `"analytics"."stg_orders"` resolves the same as analytics.stg_orders.
func ParseModelSQL(sql string) ([]string, error) {
	cleaned := strings.ReplaceAll(sql, `"`, "")
	return ParseTables(cleaned)
}
