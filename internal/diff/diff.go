// Package diff produces classic diff-tool edit scripts for two texts.
// It is used to render human-readable previews of diverging reading
// progress, never as a merge primitive.
package diff

import (
	"fmt"
	"strings"
)

// Diff compares two texts line by line and returns an edit script in the
// classic `diff` notation (NcM, NaM, NdM groups with "< ", "> " and "---"
// body lines). Blank lines are ignored and lines are compared with
// surrounding whitespace stripped. Identical inputs yield an empty string.
func Diff(a, b string) string {
	linesA := splitNonBlank(a)
	linesB := splitNonBlank(b)

	lcs := longestCommonSubsequence(linesA, linesB)

	var out []string
	i, j, k := 0, 0, 0

	for i < len(linesA) || j < len(linesB) {
		if k < len(lcs) && i < len(linesA) && trimEqual(linesA[i], lcs[k]) {
			i++
			j++
			k++
			continue
		}

		delStart, addStart := i, j
		for i < len(linesA) && (k >= len(lcs) || !trimEqual(linesA[i], lcs[k])) {
			i++
		}
		for j < len(linesB) && (k >= len(lcs) || !trimEqual(linesB[j], lcs[k])) {
			j++
		}

		switch {
		case delStart < i && addStart < j:
			out = append(out, fmt.Sprintf("%sc%s", lineRange(delStart+1, i), lineRange(addStart+1, j)))
			for m := delStart; m < i; m++ {
				out = append(out, "< "+linesA[m])
			}
			out = append(out, "---")
			for m := addStart; m < j; m++ {
				out = append(out, "> "+linesB[m])
			}
		case delStart < i:
			out = append(out, fmt.Sprintf("%sd%d", lineRange(delStart+1, i), addStart))
			for m := delStart; m < i; m++ {
				out = append(out, "< "+linesA[m])
			}
		case addStart < j:
			out = append(out, fmt.Sprintf("%da%s", delStart, lineRange(addStart+1, j)))
			for m := addStart; m < j; m++ {
				out = append(out, "> "+linesB[m])
			}
		}
	}

	return strings.Join(out, "\n")
}

func splitNonBlank(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func trimEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func lineRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, end)
}

// longestCommonSubsequence computes an LCS over trim-compared lines.
// Ties during backtracking prefer consuming from the first sequence,
// keeping the edit script left-biased like the reference diff tool.
func longestCommonSubsequence(a, b []string) []string {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if trimEqual(a[i-1], b[j-1]) {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	var lcs []string
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case trimEqual(a[i-1], b[j-1]):
			lcs = append(lcs, a[i-1])
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	// Reverse: the walk collected lines back to front.
	for l, r := 0, len(lcs)-1; l < r; l, r = l+1, r-1 {
		lcs[l], lcs[r] = lcs[r], lcs[l]
	}
	return lcs
}
