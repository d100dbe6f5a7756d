package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chriserin/vero/internal/diag"
)

var (
	newStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	updStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	trkStyle  = lipgloss.NewStyle().Faint(true)
	delStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	pathStyle = lipgloss.NewStyle().Bold(true)
	tagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	hintStyle = lipgloss.NewStyle().Faint(true)

	severityStyles = map[diag.Severity]lipgloss.Style{
		diag.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		diag.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		diag.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		diag.SeverityHint:    lipgloss.NewStyle().Faint(true),
	}
)

func NewLine(w io.Writer, path string) {
	fmt.Fprintln(w, newStyle.Render("new")+"  "+path)
}

func UpdLine(w io.Writer, path string) {
	fmt.Fprintln(w, updStyle.Render("upd")+"  "+path)
}

func TrkLine(w io.Writer, path string) {
	fmt.Fprintln(w, trkStyle.Render("trk")+"  "+path)
}

func DelLine(w io.Writer, path string) {
	fmt.Fprintln(w, delStyle.Render("del")+"  "+path)
}

func SummaryLine(w io.Writer, count int) {
	fmt.Fprintf(w, "synced %d files\n", count)
}

// Diagnostics prints the diagnostics of one file, sorted by position,
// under a path heading. Nothing is printed for a clean file.
func Diagnostics(w io.Writer, path string, r diag.ValidationResult) {
	if len(r.Diagnostics) == 0 {
		return
	}
	fmt.Fprintln(w, pathStyle.Render(path))
	for _, d := range r.Sorted() {
		fmt.Fprintln(w, "  "+Diagnostic(d))
	}
}

// Diagnostic renders d in its one-line form with a colored severity label.
func Diagnostic(d diag.Diagnostic) string {
	line := d.Format()
	label := "[" + strings.ToUpper(d.Severity.String()) + "]"
	rest := strings.TrimPrefix(line, label)
	style, ok := severityStyles[d.Severity]
	if !ok {
		return line
	}
	return style.Render(label) + rest
}

// CheckSummary prints the totals of a check or build run.
func CheckSummary(w io.Writer, files int, r diag.ValidationResult) {
	noun := "files"
	if files == 1 {
		noun = "file"
	}
	fmt.Fprintf(w, "checked %d %s: %s\n", files, noun, r.Summary())
}

func WroteLine(w io.Writer, path string) {
	fmt.Fprintln(w, newStyle.Render("wrote")+"  "+path)
}

func LinkedLine(w io.Writer, count int) {
	fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("linked %d scenarios", count)))
}

// ListRow prints one indexed scenario in aligned columns.
func ListRow(w io.Writer, id int64, fileName, feature, name string, tags []string, idWidth, fileWidth, featureWidth int) {
	idText := fmt.Sprintf("#%d", id)
	row := fmt.Sprintf("%-*s  %-*s  %-*s  %s", idWidth, idText, fileWidth, fileName, featureWidth, feature, name)
	if len(tags) > 0 {
		row += "  " + tagStyle.Render(strings.Join(tags, " "))
	}
	fmt.Fprintln(w, strings.TrimRight(row, " "))
}

// TagCount prints one line of the status report.
func TagCount(w io.Writer, tag string, count int) {
	fmt.Fprintf(w, "  %s: %d\n", tagStyle.Render(tag), count)
}

// ErrorFile prints a file that failed to parse in the status report.
func ErrorFile(w io.Writer, path string, count int) {
	noun := "errors"
	if count == 1 {
		noun = "error"
	}
	fmt.Fprintf(w, "  %s  %s\n", delStyle.Render(fmt.Sprintf("%d %s", count, noun)), path)
}

// ShowHeader introduces one generated module in a preview.
func ShowHeader(w io.Writer, path string) {
	fmt.Fprintln(w, pathStyle.Render("// "+path))
}

// ShowCode prints generated source verbatim.
func ShowCode(w io.Writer, content string) {
	fmt.Fprint(w, content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(w)
	}
}

// TestLink prints one generated test location.
func TestLink(w io.Writer, path string, line int) {
	fmt.Fprintf(w, "  %s:%d\n", path, line)
}
