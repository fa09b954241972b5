// Package internal holds helpers shared by the simulator packages.
package internal

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// HexDefines yields the entries of a constant table as hexadecimal equates,
// sorted by name.
func HexDefines(values map[string]uint32) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, name := range slices.Sorted(maps.Keys(values)) {
			if !yield(name, fmt.Sprintf("%#x", values[name])) {
				return
			}
		}
	}
}

// ConcatDefines chains define tables, in order.
func ConcatDefines(seqs ...iter.Seq2[string, string]) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, seq := range seqs {
			for name, value := range seq {
				if !yield(name, value) {
					return
				}
			}
		}
	}
}
