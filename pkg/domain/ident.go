package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold is the case-folder behind Fold. cases.Fold is used instead of
// strings.ToLower so multi-byte identifiers fold correctly, not just ASCII.
var fold = cases.Fold()

// Fold trims and case-folds a table, column, or field identifier. The
// catalog and engine do not call it: they use identifiers exactly as
// given, and pkg/sqlfront lower-cases the identifiers it parses with
// strings.ToLower.
func Fold(s string) string {
	return fold.String(strings.TrimSpace(s))
}

// FoldKey trims (but does not case-fold) an external record key; keys are
// not identifiers. The catalog does not call it and compares keys exactly
// as given.
func FoldKey(s string) string {
	return strings.TrimSpace(s)
}
