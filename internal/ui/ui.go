// Package ui renders combitest output for a terminal.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/report"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/storage"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Printer writes formatted messages to one writer.
type Printer struct {
	w io.Writer
}

// New returns a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Header prints a section header
func (p *Printer) Header(title string) {
	line := strings.Repeat("=", len(title)+4)
	fmt.Fprintf(p.w, "\n%s\n%s\n%s\n\n",
		headerStyle.Render(line),
		headerStyle.Render("  "+title),
		headerStyle.Render(line))
}

// Step prints a step in progress
func (p *Printer) Step(message string) {
	fmt.Fprintf(p.w, "%s %s\n", stepStyle.Render("▶"), message)
}

// Success prints a success message
func (p *Printer) Success(message string) {
	fmt.Fprintf(p.w, "%s %s\n", successStyle.Render("✓"), message)
}

// Error prints an error message
func (p *Printer) Error(message string) {
	fmt.Fprintf(p.w, "%s %s\n", errorStyle.Render("✗"), message)
}

// Warning prints a warning message
func (p *Printer) Warning(message string) {
	fmt.Fprintf(p.w, "%s %s\n", warningStyle.Render("⚠"), message)
}

// Info prints an informational message
func (p *Printer) Info(message string) {
	fmt.Fprintf(p.w, "  %s\n", message)
}

// Infof formats and prints an informational message.
func (p *Printer) Infof(format string, args ...any) {
	p.Info(fmt.Sprintf(format, args...))
}

// Result prints the outcome of one executed test input.
func (p *Printer) Result(model *modelfile.Model, execution domain.TestExecution) {
	assignment := model.FormatAssignment(execution.Input)
	if execution.Result.IsFailure() {
		msg := assignment
		if execution.Result.Cause != "" {
			msg += " " + mutedStyle.Render("("+execution.Result.Cause+")")
		}
		fmt.Fprintf(p.w, "%s %s\n", errorStyle.Render("FAIL"), msg)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", successStyle.Render("PASS"), assignment)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(" ")
	table.SetRowSeparator("-")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// InputsTable prints test inputs, one row per input and one column per
// parameter.
func (p *Printer) InputsTable(model *modelfile.Model, inputs []domain.Combination) {
	table := newTable(p.w, append([]string{"#"}, model.ParameterNames()...))
	for i, input := range inputs {
		table.Append(append([]string{strconv.Itoa(i + 1)}, model.Values(input)...))
	}
	table.Render()
}

// GroupsTable prints what happened to each test input group.
func (p *Printer) GroupsTable(groups []report.GroupSummary) {
	table := newTable(p.w, []string{"Group", "Initial", "Additional", "Characterized", "Failure-inducing"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
	})
	for _, g := range groups {
		table.Append([]string{
			g.ID,
			strconv.Itoa(g.InitialInputs),
			strconv.Itoa(g.AdditionalInputs),
			yesNo(g.Characterized),
			strconv.Itoa(len(g.FailureInducing)),
		})
	}
	table.Render()
}

// FailureInducingTable prints failure-inducing combinations with parameter
// names. Unset parameters are left out.
func (p *Printer) FailureInducingTable(model *modelfile.Model, combinations []domain.Combination) {
	if len(combinations) == 0 {
		p.Success("No failure-inducing combinations")
		return
	}
	table := newTable(p.w, []string{"#", "Size", "Combination"})
	for i, c := range combinations {
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(c.NumberOfSetParameters()),
			model.FormatAssignment(c),
		})
	}
	table.Render()
}

// SessionsTable prints stored sessions, newest first.
func (p *Printer) SessionsTable(sessions []*storage.Session) {
	if len(sessions) == 0 {
		p.Info("No sessions")
		return
	}
	table := newTable(p.w, []string{"ID", "State", "Model", "t", "Executed", "Failed", "Started", "Duration"})
	for _, s := range sessions {
		duration := "-"
		if !s.FinishedAt.IsZero() {
			duration = FormatDuration(s.FinishedAt.Sub(s.CreatedAt))
		}
		table.Append([]string{
			s.ID,
			string(s.State),
			s.ModelPath,
			strconv.Itoa(s.Strength),
			strconv.Itoa(s.Executed),
			strconv.Itoa(s.Failed),
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
		})
	}
	table.Render()
}

// Summary prints the totals of a finished run.
func (p *Printer) Summary(executed, failed, failureInducing int, elapsed time.Duration) {
	p.Header("Summary")
	p.Infof("Tests executed:    %d", executed)
	p.Infof("Tests failed:      %d", failed)
	p.Infof("Failure-inducing:  %d", failureInducing)
	p.Infof("Time elapsed:      %s", FormatDuration(elapsed))
	p.Info("")
	switch {
	case failureInducing > 0:
		p.Warning(fmt.Sprintf("Found %d failure-inducing combination(s)", failureInducing))
	case failed > 0:
		p.Warning("Tests failed but no failure-inducing combination was identified")
	default:
		p.Success("All tests passed")
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
