package condition

// matchWildcard matches s against a LIKE pattern where % matches any run of
// characters (including empty) and _ matches exactly one character. These
// are the only wildcards; the pattern never reaches a general regular
// expression engine, so matching cost stays linear in pattern x target
// length with no catastrophic backtracking.
func matchWildcard(s, pattern string) bool {
	target := []rune(s)
	pat := []rune(pattern)

	si, pi := 0, 0
	star, mark := -1, 0

	for si < len(target) {
		switch {
		case pi < len(pat) && (pat[pi] == '_' || pat[pi] == target[si]):
			si++
			pi++
		case pi < len(pat) && pat[pi] == '%':
			// Remember the wildcard and the position it started absorbing.
			star = pi
			mark = si
			pi++
		case star >= 0:
			// Mismatch after a %: let the % absorb one more character.
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}

	for pi < len(pat) && pat[pi] == '%' {
		pi++
	}
	return pi == len(pat)
}
