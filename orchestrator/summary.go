package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"rewritebot/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF0000"
	colorInfo    = "#626262"
	colorBorder  = "#874BFD"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo)).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorSuccess))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 2)
)

// LogSummary adds the summary counts to ev.
func LogSummary(ev *zerolog.Event, s *types.RunSummary) *zerolog.Event {
	kinds := zerolog.Dict()
	for kind, n := range s.FailuresByKind {
		kinds = kinds.Int(string(kind), n)
	}
	ev = ev.Str("run_id", s.RunID).
		Int("fetched", s.Fetched).
		Int("extracted", s.Extracted).
		Int("duplicate", s.Duplicates).
		Int("irrelevant", s.Irrelevant).
		Int("rewritten", s.Rewritten).
		Int("rejected", s.Rejected).
		Int("failed", s.Failed).
		Int("persisted", s.Persisted).
		Int("sources_failed", s.SourcesFailed).
		Int("processed", s.Processed()).
		Dict("failures_by_kind", kinds).
		Dur("duration", s.Duration()).
		Bool("dry_run", s.DryRun)
	if s.StoppedEarly {
		ev = ev.Str("stop_reason", s.StopReason)
	}
	if !s.NextRun.IsZero() {
		ev = ev.Time("next_run", s.NextRun)
	}
	return ev
}

// RenderSummary draws the summary as a bordered box for terminals.
func RenderSummary(s *types.RunSummary, runErr error) string {
	var b strings.Builder
	title := "Run summary"
	if s.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	row := func(label string, n int) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(fmt.Sprintf("%d\n", n))
	}
	row("fetched", s.Fetched)
	row("extracted", s.Extracted)
	row("duplicate", s.Duplicates)
	row("irrelevant", s.Irrelevant)
	row("rewritten", s.Rewritten)
	row("rejected", s.Rejected)
	row("failed", s.Failed)
	row("persisted", s.Persisted)
	if s.SourcesFailed > 0 {
		row("bad sources", s.SourcesFailed)
	}

	if len(s.FailuresByKind) > 0 {
		kinds := make([]string, 0, len(s.FailuresByKind))
		for kind, n := range s.FailuresByKind {
			kinds = append(kinds, fmt.Sprintf("%s=%d", kind, n))
		}
		sort.Strings(kinds)
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("by kind"))
		b.WriteString(strings.Join(kinds, " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case runErr != nil:
		b.WriteString(errStyle.Render("fatal: " + runErr.Error()))
	case s.StoppedEarly:
		b.WriteString(okStyle.Render("stopped: " + s.StopReason))
	default:
		b.WriteString(okStyle.Render("completed"))
	}
	b.WriteString(fmt.Sprintf(" in %s", s.Duration().Round(time.Millisecond)))
	if !s.NextRun.IsZero() {
		b.WriteString(fmt.Sprintf("\nnext run %s", s.NextRun.Format("2006-01-02 15:04 MST")))
	}
	return boxStyle.Render(b.String())
}
