// Package helpers contains helper functions
package helpers

import (
	"github.com/google/go-cmp/cmp"
)

// Diff prints the diff between two structs.
// It is useful in testing to compare two structs when they are large. In such a case, without Diff it will be difficult
// to pinpoint the difference between the two structs.
func Diff(want, got any, opts ...cmp.Option) string {
	r := cmp.Diff(want, got, opts...)

	if r != "" {
		return "(-want +got)\n" + r
	}
	return r
}
