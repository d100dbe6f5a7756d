package diag

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationResult aggregates the diagnostics of one compilation.
type ValidationResult struct {
	Diagnostics  []Diagnostic
	ErrorCount   int
	WarningCount int
	InfoCount    int
	HintCount    int
	Valid        bool // true iff ErrorCount == 0
}

// NewValidationResult counts diags by severity. The slice is copied.
func NewValidationResult(diags []Diagnostic) ValidationResult {
	r := ValidationResult{Diagnostics: append([]Diagnostic(nil), diags...)}
	for _, d := range r.Diagnostics {
		switch d.Severity {
		case SeverityError:
			r.ErrorCount++
		case SeverityWarning:
			r.WarningCount++
		case SeverityInfo:
			r.InfoCount++
		case SeverityHint:
			r.HintCount++
		}
	}
	r.Valid = r.ErrorCount == 0
	return r
}

// Errors returns only the error-severity diagnostics.
func (r ValidationResult) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

// Warnings returns only the warning-severity diagnostics.
func (r ValidationResult) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

func (r ValidationResult) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Sorted returns the diagnostics ordered by position. Ties keep stage order.
func (r ValidationResult) Sorted() []Diagnostic {
	out := append([]Diagnostic(nil), r.Diagnostics...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].StartCol < out[j].StartCol
	})
	return out
}

// Format renders every diagnostic, one per line, followed by a summary.
func (r ValidationResult) Format() string {
	var b strings.Builder
	for _, d := range r.Sorted() {
		b.WriteString(d.Format())
		b.WriteString("\n")
	}
	b.WriteString(r.Summary())
	return b.String()
}

// Summary is a one-line count, e.g. "2 errors, 1 warning".
func (r ValidationResult) Summary() string {
	parts := []string{plural(r.ErrorCount, "error"), plural(r.WarningCount, "warning")}
	if r.InfoCount > 0 {
		parts = append(parts, plural(r.InfoCount, "info"))
	}
	if r.HintCount > 0 {
		parts = append(parts, plural(r.HintCount, "hint"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 || word == "info" {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Err returns a *ValidationError when the result is not valid, nil otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return NewValidationError(r.Diagnostics)
}

// ValidationError is the "validated or fail" form of a result: it carries
// the complete diagnostic list and a formatted summary.
type ValidationError struct {
	Result  ValidationResult
	Summary string
}

// NewValidationError wraps diags.
func NewValidationError(diags []Diagnostic) *ValidationError {
	r := NewValidationResult(diags)
	return &ValidationError{Result: r, Summary: r.Format()}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Result.Summary())
}
