package parser

import (
	"strings"

	"github.com/chriserin/vero/internal/diag"
)

// FileSummary is the flat view of one source file used by the scenario index.
type FileSummary struct {
	Name      string
	Pages     []string
	Features  []string
	Scenarios []ScenarioSummary
	Errors    []diag.Diagnostic
}

// ScenarioSummary describes one scenario without its statements.
type ScenarioSummary struct {
	Feature string
	Name    string
	Tags    []string // with the leading "@"
	Line    int      // 1-based line of SCENARIO
	Steps   int      // top-level statement count
}

// Summarize flattens prog into a FileSummary. Only error-severity
// diagnostics are kept.
func Summarize(prog *Program, filename string, diags []diag.Diagnostic) *FileSummary {
	fs := &FileSummary{Name: filenameWithoutExt(filename)}

	for _, d := range diags {
		if d.Severity == diag.SeverityError {
			fs.Errors = append(fs.Errors, d)
		}
	}
	if prog == nil {
		return fs
	}

	for _, page := range prog.Pages {
		fs.Pages = append(fs.Pages, page.Name)
	}
	for _, f := range prog.Features {
		fs.Features = append(fs.Features, f.Name)
		for _, s := range f.Scenarios {
			fs.Scenarios = append(fs.Scenarios, ScenarioSummary{
				Feature: f.Name,
				Name:    s.Name,
				Tags:    append([]string(nil), s.Tags...),
				Line:    s.Line,
				Steps:   len(s.Body),
			})
		}
	}
	return fs
}

func filenameWithoutExt(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}
