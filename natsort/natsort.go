// Package natsort implements the natural-order collation used for part
// identifiers: runs of digits compare by numeric value, everything else
// compares case-insensitively, so "R10" sorts after "R9".
package natsort

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Compare returns -1, 0 or 1 ordering a relative to b.
//
// Each operand is split into alternating runs of digit and non-digit
// characters. Corresponding run pairs compare left to right: two digit
// runs by integer value, anything else case-insensitively by code point.
// When one run sequence is a strict prefix of the other, the shorter
// operand sorts first. Equal run sequences fall back to a plain string
// compare ("a01" vs "a1") so the relation is a total order and safe as
// an ORDER BY key.
func Compare(a, b string) int {
	ia, ib := 0, 0

	for ia < len(a) && ib < len(b) {
		runA, digitsA, nextA := nextRun(a, ia)
		runB, digitsB, nextB := nextRun(b, ib)

		var c int
		if digitsA && digitsB {
			c = compareNumeric(runA, runB)
		} else {
			c = compareFold(runA, runB)
		}

		if c != 0 {
			return c
		}

		ia, ib = nextA, nextB
	}

	switch {
	case ia < len(a):
		return 1
	case ib < len(b):
		return -1
	}

	return strings.Compare(a, b)
}

// Less is a sort.Slice-shaped view of Compare.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Strings sorts s in natural order.
func Strings(s []string) {
	sort.Slice(s, func(i, j int) bool { return Less(s[i], s[j]) })
}

func nextRun(s string, i int) (string, bool, int) {
	digits := isDigit(rune(s[i]))

	j := i
	for j < len(s) {
		r, size := utf8.DecodeRuneInString(s[j:])
		if isDigit(r) != digits {
			break
		}

		j += size
	}

	return s[i:j], digits, j
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// compareNumeric orders two digit runs by integer value without parsing
// them, so arbitrarily long runs cannot overflow.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}

func compareFold(a, b string) int {
	for a != "" && b != "" {
		ra, sizeA := utf8.DecodeRuneInString(a)
		rb, sizeB := utf8.DecodeRuneInString(b)

		la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
		if la != lb {
			if la < lb {
				return -1
			}

			return 1
		}

		a, b = a[sizeA:], b[sizeB:]
	}

	switch {
	case a != "":
		return 1
	case b != "":
		return -1
	}

	return 0
}
