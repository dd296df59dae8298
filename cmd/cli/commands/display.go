package commands

import (
	"fmt"
	"sort"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// scoreColor picks a color for an affinity score: high above 0.7, low below the neutral 0.5
func scoreColor(score float64, high, mid, low string) string {
	switch {
	case score >= 0.7:
		return high
	case score >= 0.5:
		return mid
	default:
		return low
	}
}

// formatFactors renders a factor breakdown as "name=value" pairs in name order
func formatFactors(factors map[string]float64) string {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.2f", name, factors[name]))
	}
	return strings.Join(parts, " ")
}

func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Printf("⚠️  %d warnings:\n", len(warnings))
	for _, w := range warnings {
		fmt.Printf("  %s%s%s\n", colorYellow, w, colorReset)
	}
	fmt.Println()
}
