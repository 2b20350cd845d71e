// Package patch compares migration scripts.
package patch

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Result is the outcome of comparing two scripts
type Result struct {
	Changed bool
	Added   int
	Removed int
	Diff    string
}

// Unified computes a unified diff from the existing script to the
// regenerated one. An empty Diff means the scripts are identical.
func Unified(from, to, fromName, toName string, context int) (*Result, error) {
	a := difflib.SplitLines(from)
	b := difflib.SplitLines(to)

	diff := difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s and %s: %w", fromName, toName, err)
	}

	result := &Result{Changed: text != "", Diff: text}
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'r':
			result.Removed += op.I2 - op.I1
			result.Added += op.J2 - op.J1
		case 'd':
			result.Removed += op.I2 - op.I1
		case 'i':
			result.Added += op.J2 - op.J1
		}
	}

	return result, nil
}
