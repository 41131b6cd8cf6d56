package scan

import (
	"strings"

	"github.com/complyscan/complyscan/internal/types"
)

// MatchColumns resolves which columns of a table a rule targets. Entity
// hints are checked first ("table.column" qualifiers are stripped, bare
// names must match exactly), then the rule category's keyword list adds
// any column whose name contains a known sensitive substring. The result
// preserves discovery order and contains no duplicates.
//
// An empty result is a valid "not applicable" outcome: the caller must
// skip the (table, rule) pair unless the rule carries a raw predicate.
func MatchColumns(rule types.Rule, columns []string) []string {
	var applicable []string
	seen := map[string]bool{}
	add := func(col string) {
		if !seen[col] {
			seen[col] = true
			applicable = append(applicable, col)
		}
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	for _, entity := range rule.Entities {
		if i := strings.Index(entity, "."); i >= 0 {
			col := entity[i+1:]
			if present[col] {
				add(col)
			}
		} else if present[entity] {
			add(entity)
		}
	}

	for _, col := range columns {
		if nameContainsAny(col, sensitivePatterns[rule.Type]) {
			add(col)
		}
	}

	return applicable
}

func nameContainsAny(column string, hints []string) bool {
	lower := strings.ToLower(column)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
