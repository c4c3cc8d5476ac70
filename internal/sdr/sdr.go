// Package sdr holds helpers for sparse distributed representations: binary
// rows, active index lists and their console rendering.
package sdr

import (
	"sort"
	"strings"
)

// GroupWidth is the number of bits printed before a separating space.
const GroupWidth = 10

// Indices returns the positions of the non-zero bits in row.
func Indices(row []uint8) []int {
	idxs := make([]int, 0)
	for i, b := range row {
		if b != 0 {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// Bits expands idxs into a row of width bits. Indices outside the row are
// ignored.
func Bits(width int, idxs []int) []uint8 {
	if width < 0 {
		width = 0
	}
	row := make([]uint8, width)
	for _, i := range idxs {
		if i >= 0 && i < width {
			row[i] = 1
		}
	}
	return row
}

// BitString renders idxs as a string of '0' and '1' of length width.
func BitString(width int, idxs []int) string {
	row := Bits(width, idxs)
	var b strings.Builder
	b.Grow(width)
	for _, v := range row {
		if v != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// FormatRow splits s into space separated groups of GroupWidth characters.
func FormatRow(s string) string {
	if len(s) <= GroupWidth {
		return s
	}
	parts := make([]string, 0, (len(s)+GroupWidth-1)/GroupWidth)
	for i := 0; i < len(s); i += GroupWidth {
		end := i + GroupWidth
		if end > len(s) {
			end = len(s)
		}
		parts = append(parts, s[i:end])
	}
	return strings.Join(parts, " ")
}

// Unique returns a sorted copy of idxs with duplicates removed.
func Unique(idxs []int) []int {
	out := append([]int(nil), idxs...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}

// Equal reports whether a and b hold the same set of indices.
func Equal(a, b []int) bool {
	ua, ub := Unique(a), Unique(b)
	if len(ua) != len(ub) {
		return false
	}
	for i := range ua {
		if ua[i] != ub[i] {
			return false
		}
	}
	return true
}
