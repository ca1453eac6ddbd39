package prisons

import (
	"sort"
	"strings"
)

// AllPrisonsCode is the choice value meaning "no restriction to particular prisons"
const AllPrisonsCode = "ALL"

// NormalizeSelection flattens submitted prison values. Each value may hold
// several comma-separated identifiers; blanks are dropped, duplicates removed
// and the result sorted. A selection containing AllPrisonsCode means no
// restriction and normalizes to an empty selection.
func NormalizeSelection(values []string) []string {
	seen := make(map[string]struct{})

	for _, value := range values {
		for _, id := range strings.Split(value, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if id == AllPrisonsCode {
				return []string{}
			}
			seen[id] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)

	return out
}
