package analytics

import (
	"fmt"
)

// dialect supplies the SQL fragments that differ between stores. Every
// date-valued expression it returns renders as 'YYYY-MM-DD' text so rows
// scan identically on both drivers.
type dialect interface {
	name() string
	// bucket truncates column to the start of its bucket.
	bucket(g Granularity, column string) string
	// dateText renders a date expression.
	dateText(expr string) string
	// absDays is the whole number of days between two date columns,
	// ignoring order.
	absDays(from, to string) string
}

func dialectFor(name string) (dialect, error) {
	switch name {
	case "sqlite":
		return sqliteDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", name)
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) bucket(g Granularity, column string) string {
	switch g {
	case Week:
		// Step back six days, then forward to the next Monday.
		return fmt.Sprintf("date(%s, '-6 days', 'weekday 1')", column)
	case Month:
		return fmt.Sprintf("strftime('%%Y-%%m-01', %s)", column)
	case Year:
		return fmt.Sprintf("strftime('%%Y-01-01', %s)", column)
	default:
		return fmt.Sprintf("date(%s)", column)
	}
}

func (sqliteDialect) dateText(expr string) string {
	return fmt.Sprintf("date(%s)", expr)
}

func (sqliteDialect) absDays(from, to string) string {
	return fmt.Sprintf("CAST(ROUND(ABS(julianday(%s) - julianday(%s))) AS INTEGER)", to, from)
}

type postgresDialect struct{}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) bucket(g Granularity, column string) string {
	return fmt.Sprintf("to_char(date_trunc('%s', %s), 'YYYY-MM-DD')", g.String(), column)
}

func (postgresDialect) dateText(expr string) string {
	return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", expr)
}

func (postgresDialect) absDays(from, to string) string {
	return fmt.Sprintf("ABS(%s::date - %s::date)", to, from)
}
