package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/kavikulu/shadowmine/internal/domain"
	"github.com/kavikulu/shadowmine/pkg/pattern"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warn      = lipgloss.AdaptiveColor{Light: "#D98A00", Dark: "#E8B341"}
	alert     = lipgloss.AdaptiveColor{Light: "#C23B22", Dark: "#F25D52"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true).
			MarginBottom(1)

	sequenceStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	significantStyle = lipgloss.NewStyle().
				Foreground(special).
				Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(alert)

	footerStyle = lipgloss.NewStyle().
			Foreground(subtle).
			MarginTop(1)
)

// Renderer formats run reports for terminal output, styled text by
// default or json when requested.
type Renderer struct {
	w    io.Writer
	json bool
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer, asJSON bool) *Renderer {
	return &Renderer{w: w, json: asJSON}
}

// Render writes the report.
func (r *Renderer) Render(report domain.RunReport) error {
	if r.json {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, "marshal report")
		}
		_, err = fmt.Fprintln(r.w, string(data))
		return err
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("SHADOWMINE RUN %s", shortID(report.RunID))))
	b.WriteString("\n")

	for _, seq := range report.Sequences {
		b.WriteString(sequenceStyle.Render(seq.Sequence))
		b.WriteString("\n")
		for _, v := range seq.Verdicts {
			b.WriteString(verdictLine(v))
		}
		if seq.Failed() {
			b.WriteString(fmt.Sprintf("  %s\n", errStyle.Render(seq.Err)))
		}
	}

	if len(report.Pairs) > 0 {
		b.WriteString(sequenceStyle.Render("pairs"))
		b.WriteString("\n")
		for _, p := range report.Pairs {
			name := fmt.Sprintf("%s × %s", p.A, p.B)
			if p.Failed() {
				b.WriteString(fmt.Sprintf("  %-26s %s\n", name, errStyle.Render(p.Err)))
				continue
			}
			b.WriteString(fmt.Sprintf("  %-26s %7.3f  %s%s\n",
				name, p.Verdict.Score,
				interpretationStyle(p.Verdict.Interpretation).Render(string(p.Verdict.Interpretation)),
				significanceBadge(p.Verdict)))
		}
	}

	b.WriteString(footerStyle.Render(fmt.Sprintf(
		"%d sequences · %d significant · %d failed · %s",
		len(report.Sequences), report.SignificantCount(), report.FailedCount(), report.Elapsed.Round(time.Millisecond))))
	b.WriteString("\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

func verdictLine(v pattern.Result) string {
	return fmt.Sprintf("  %-26s %7.3f  %s%s\n",
		v.Kind.Title(), v.Score,
		interpretationStyle(v.Interpretation).Render(string(v.Interpretation)),
		significanceBadge(v))
}

func significanceBadge(v pattern.Result) string {
	if !v.Significant {
		return ""
	}
	return "  " + significantStyle.Render("✓ significant")
}

func interpretationStyle(i pattern.Interpretation) lipgloss.Style {
	switch i {
	case pattern.InterpretationHigh:
		return lipgloss.NewStyle().Foreground(special)
	case pattern.InterpretationModerate:
		return lipgloss.NewStyle().Foreground(warn)
	default:
		return lipgloss.NewStyle().Foreground(subtle)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
