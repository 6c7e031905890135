// Package sqlrewrite implements the best-effort text substitution that swaps
// a dataset's rolling-window date predicate for a single-day filter and back.
// It recognizes a fixed set of predicate shapes; anything else passes through
// untouched.
package sqlrewrite

import (
	"fmt"
	"regexp"
)

// DefaultColumn is the date column used by the hosted dataset queries.
const DefaultColumn = "yyyymmdd"

// Rewriter holds compiled predicate patterns for one date column. Both
// directions preserve a table-alias prefix (q.yyyymmdd stays q.yyyymmdd).
type Rewriter struct {
	column    string
	rolling   []*regexp.Regexp
	singleDay []*regexp.Regexp
}

// New compiles the recognized predicate shapes for the given date column.
// An empty column selects DefaultColumn.
func New(column string) *Rewriter {
	if column == "" {
		column = DefaultColumn
	}

	col := regexp.QuoteMeta(column)
	alias := `\b(\w+\.)?` + col
	windowCast := `CAST\(format_datetime\(current_date\s*-\s*interval\s*'\d+'\s*day\s*,\s*'yyyyMMdd'\)\s+AS\s+INTEGER\)`
	todayCast := `CAST\(format_datetime\(current_date\s*,\s*'yyyyMMdd'\)\s+AS\s+INTEGER\)`

	return &Rewriter{
		column: column,
		rolling: []*regexp.Regexp{
			// format_datetime inequality, the shape QuickSight datasets ship with
			regexp.MustCompile(`(?i)` + alias + `\s*>=\s*` + windowCast),
			// BETWEEN a window expression and today
			regexp.MustCompile(`(?i)` + alias + `\s+BETWEEN\s+` + windowCast + `\s+AND\s+` + todayCast),
			// BETWEEN two explicit dates
			regexp.MustCompile(`(?i)` + alias + `\s+BETWEEN\s+\d{8}\s+AND\s+\d{8}\b`),
			// explicit lower bound
			regexp.MustCompile(`(?i)` + alias + `\s*>=\s*\d{8}\b`),
		},
		singleDay: []*regexp.Regexp{
			regexp.MustCompile(`(?i)` + alias + `\s*=\s*\d{8}\b`),
			regexp.MustCompile(`(?i)` + alias + `\s*=\s*'\d{8}'`),
		},
	}
}

// Narrow replaces every recognized rolling-window predicate with an equality
// filter against yyyymmdd. It returns the rewritten SQL and how many
// predicates were replaced; zero matches leave the input unchanged.
func (r *Rewriter) Narrow(sql, yyyymmdd string) (string, int) {
	return r.replaceAll(sql, r.rolling, func(alias string) string {
		return alias + r.column + " = " + yyyymmdd
	})
}

// Widen replaces every recognized single-day equality predicate with the
// rolling-window predicate for windowDays. When the query originally carried
// predicates with different window lengths they all come back as windowDays;
// per-predicate windows are not tracked across a Narrow/Widen cycle.
func (r *Rewriter) Widen(sql string, windowDays int) (string, int) {
	pred := fmt.Sprintf(
		"%s >= CAST(format_datetime(current_date - interval '%d' day, 'yyyyMMdd') AS INTEGER)",
		r.column, windowDays,
	)
	return r.replaceAll(sql, r.singleDay, func(alias string) string {
		return alias + pred
	})
}

func (r *Rewriter) replaceAll(sql string, patterns []*regexp.Regexp, repl func(alias string) string) (string, int) {
	count := 0
	out := sql
	for _, re := range patterns {
		out = re.ReplaceAllStringFunc(out, func(match string) string {
			count++
			alias := ""
			if sub := re.FindStringSubmatch(match); len(sub) > 1 {
				alias = sub[1]
			}
			return repl(alias)
		})
	}
	return out, count
}
