package cache

import "strings"

// GenerateKey joins key parts with underscores: GenerateKey("sales", "2024-05-01", "raw")
// yields "sales_2024-05-01_raw".
func GenerateKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + "_" + strings.Join(parts, "_")
}

// BuildPattern creates a glob pattern matching every key under prefix.
func BuildPattern(prefix string) string {
	return prefix + "*"
}
