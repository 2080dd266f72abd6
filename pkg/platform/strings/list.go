// Package strings provides string helpers shared by configuration parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value into trimmed, non-empty,
// de-duplicated elements in first-seen order. A blank value yields nil.
//
// Example:
//
//	SplitList(" broker-1:9092, broker-2:9092,,broker-1:9092")
//	// Returns: []string{"broker-1:9092", "broker-2:9092"}
func SplitList(raw string) []string {
	var result []string
	seen := make(map[string]struct{})
	for _, v := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
