// Package textnorm folds surface forms, glosses and citation forms so that
// pattern constraints compare the way a linguist reads them: canonically
// composed and case-insensitive.
package textnorm

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// A Caser keeps state between calls and must not be shared between goroutines.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Fold returns the NFC-normalised, case-folded form of s with surrounding
// whitespace removed.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return norm.NFC.String(c.String(norm.NFC.String(s)))
}

// Equal reports whether a and b are equal after folding.
func Equal(a, b string) bool {
	if a == b {
		return true
	}
	return Fold(a) == Fold(b)
}
