// Package diag holds the diagnostic model shared by every compiler stage:
// the code taxonomy, severities, aggregated validation results and the
// "did you mean" suggestion engine.
package diag

import (
	"fmt"
	"strings"
)

// Severity indicates how serious a diagnostic is.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is a single problem report. Line is 1-based; StartCol and
// EndCol are 0-based rune columns with EndCol exclusive.
type Diagnostic struct {
	Code        Code
	Message     string
	Severity    Severity
	Line        int
	StartCol    int
	EndCol      int
	Suggestions []string // ordered by edit distance
	Token       string   // offending source text, if any
}

// New builds a diagnostic with the code's default severity.
func New(code Code, message string, line, startCol, endCol int) Diagnostic {
	return Diagnostic{
		Code:     code,
		Message:  message,
		Severity: code.DefaultSeverity(),
		Line:     line,
		StartCol: startCol,
		EndCol:   endCol,
	}
}

// WithSeverity returns a copy of d carrying severity s.
func (d Diagnostic) WithSeverity(s Severity) Diagnostic {
	d.Severity = s
	return d
}

// WithSuggestions returns a copy of d carrying the given suggestions.
func (d Diagnostic) WithSuggestions(suggestions []string) Diagnostic {
	if len(suggestions) > 0 {
		d.Suggestions = append([]string(nil), suggestions...)
	}
	return d
}

// WithToken returns a copy of d recording the offending source text.
func (d Diagnostic) WithToken(text string) Diagnostic {
	d.Token = text
	return d
}

// Error makes a Diagnostic usable as an error value.
func (d Diagnostic) Error() string {
	return d.Format()
}

// Format renders the diagnostic on one line, in the form
//
//	[ERROR] Line 3:5 - Undefined page 'Usr'. Did you mean: User?
//
// The column is printed 1-based.
func (d Diagnostic) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Line %d:%d - %s", strings.ToUpper(d.Severity.String()), d.Line, d.StartCol+1, strings.TrimSuffix(d.Message, "."))
	if len(d.Suggestions) > 0 {
		b.WriteString(". Did you mean: ")
		b.WriteString(strings.Join(d.Suggestions, ", "))
		b.WriteString("?")
	}
	return b.String()
}
