// Package fuzzy scores approximate string matches on a 0-100 scale.
package fuzzy

// Ratio is the normalized indel similarity of a and b:
// 100 * 2*LCS(a, b) / (len(a) + len(b)). Two empty strings score 100.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

// PartialRatio scores the best alignment of the shorter string against any
// window of the longer one. Windows that hang off either end of the longer
// string are included, so "jon" against "john" scores 80 through "jo".
// It returns 100 when both inputs are empty and 0 when exactly one is.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	best := bestWindow(ra, rb)
	if len(ra) == len(rb) && best < 100 {
		if swapped := bestWindow(rb, ra); swapped > best {
			best = swapped
		}
	}
	return best
}

// bestWindow slides short across long and keeps the highest ratio.
func bestWindow(short, long []rune) float64 {
	n, m := len(short), len(long)
	best := 0.0
	consider := func(window []rune) bool {
		if s := ratioRunes(short, window); s > best {
			best = s
		}
		return best == 100
	}

	for i := 1; i < n; i++ {
		if consider(long[:i]) {
			return best
		}
	}
	for i := 0; i+n <= m; i++ {
		if consider(long[i : i+n]) {
			return best
		}
	}
	for i := m - n + 1; i < m; i++ {
		if consider(long[i:]) {
			return best
		}
	}
	return best
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcsLength(a, b)) / float64(total)
}

// lcsLength is the classic two-row dynamic program for the longest common subsequence.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
