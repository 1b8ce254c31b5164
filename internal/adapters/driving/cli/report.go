package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// Palette for the styled report.
var (
	colourPrimary   = lipgloss.Color("#7C3AED") // Purple
	colourSecondary = lipgloss.Color("#06B6D4") // Cyan
	colourMuted     = lipgloss.Color("#6C7086")
	colourSuccess   = lipgloss.Color("#A6E3A1")
	colourWarning   = lipgloss.Color("#F9E2AF")
	colourError     = lipgloss.Color("#F38BA8")
	colourBorder    = lipgloss.Color("#45475A")
)

// reportStyles renders report text. The zero-styled variant is used when
// output is not a terminal.
type reportStyles struct {
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Abstract lipgloss.Style
}

func newReportStyles(styled bool) reportStyles {
	if !styled {
		plain := lipgloss.NewStyle()
		return reportStyles{
			Title: plain, Heading: plain, Label: plain, Muted: plain,
			Success: plain, Warning: plain, Error: plain, Abstract: plain,
		}
	}
	return reportStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colourPrimary),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(colourSecondary),
		Label:   lipgloss.NewStyle().Foreground(colourMuted),
		Muted:   lipgloss.NewStyle().Foreground(colourMuted),
		Success: lipgloss.NewStyle().Foreground(colourSuccess),
		Warning: lipgloss.NewStyle().Foreground(colourWarning),
		Error:   lipgloss.NewStyle().Foreground(colourError),
		Abstract: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colourBorder).
			Padding(0, 1).
			Width(80),
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// statusText renders a status with its colour.
func (s reportStyles) statusText(a *domain.DocumentAnalysis) string {
	switch a.Status {
	case domain.StatusCompleted:
		if a.IsDegraded() {
			return s.Warning.Render("completed (degraded)")
		}
		return s.Success.Render("completed")
	case domain.StatusFailed:
		return s.Error.Render("failed")
	default:
		return s.Warning.Render(a.Status.String())
	}
}

// renderReport writes the human-readable report for one analysis.
func renderReport(w io.Writer, a *domain.DocumentAnalysis, styled bool) {
	s := newReportStyles(styled)
	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "  %s %s\n", s.Label.Render(label+":"), value)
	}

	title := a.Content.Structure.Title
	if title == "" {
		title = a.Filename
	}
	fmt.Fprintln(w, s.Title.Render(title))
	field("ID", a.ID)
	field("File", fmt.Sprintf("%s (%s, %d bytes)", a.Filename, a.FileType, a.Size))
	field("Status", s.statusText(a))
	field("Stage", a.Stage.String())
	field("Type", a.Classification.String())
	meta := a.Content.Metadata
	if meta.WordCount > 0 {
		field("Content", fmt.Sprintf("%d words, %d pages", meta.WordCount, meta.PageCount))
	}
	field("Language", meta.Language)
	field("Uploaded", a.UploadedAt.Format(time.RFC3339))
	if a.ProcessedAt != nil {
		field("Processed", a.ProcessedAt.Format(time.RFC3339))
	}
	if a.Error != "" {
		field("Error", s.Error.Render(a.Error))
	}

	if abstract := a.Content.Structure.Abstract; abstract != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Heading.Render("Abstract"))
		fmt.Fprintln(w, s.Abstract.Render(abstract))
	}

	if len(a.Content.Structure.Sections) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Heading.Render("Sections"))
		for _, sec := range a.Content.Structure.Sections {
			indent := strings.Repeat("  ", max(sec.Level, 1))
			fmt.Fprintf(w, "%s%s\n", indent, sec.Title)
		}
	}

	if r := a.Research; r != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Heading.Render("Research Analysis"))
		list(w, s, "Questions", r.ResearchQuestions)
		field("Methodology", r.Methodology.Description)
		for _, f := range r.KeyFindings {
			fmt.Fprintf(w, "  - %s %s\n", f.Finding, s.Muted.Render("["+string(f.Significance)+"]"))
		}
		field("Novelty", fmt.Sprintf("%.1f/10", r.Novelty.Score))
		field("Rigour", fmt.Sprintf("%.1f/10", r.MethodologyCritique.Score))
		list(w, s, "Gaps", r.LiteratureGaps)
		list(w, s, "Future work", r.FutureWork)
	}

	if e := a.Experimental; e != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Heading.Render("Experimental Analysis"))
		field("Design", e.Design.Description)
		if e.Design.SampleSize > 0 {
			field("Sample size", fmt.Sprintf("%d", e.Design.SampleSize))
		}
		field("Data quality", fmt.Sprintf("%.1f/10", e.DataQuality.Score))
		field("Significance", e.Statistics.OverallSignificance)
		for _, p := range e.Patterns {
			fmt.Fprintf(w, "  - %s %s\n", p.Pattern, s.Muted.Render(fmt.Sprintf("(%.2f)", p.Confidence)))
		}
		for _, h := range e.Hypotheses {
			fmt.Fprintf(w, "  ? %s %s\n", h.Hypothesis, s.Muted.Render(fmt.Sprintf("[testability %.1f]", h.Testability)))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Heading.Render("Related Documents"))
	if len(a.Relationships) == 0 {
		fmt.Fprintln(w, s.Muted.Render("  none"))
	}
	for _, rel := range a.Relationships {
		target := rel.TargetTitle
		if target == "" {
			target = rel.TargetDocumentID
		}
		fmt.Fprintf(w, "  %s %s %s\n", target, s.Label.Render(string(rel.Type)), s.Muted.Render(fmt.Sprintf("(%.2f)", rel.Similarity)))
		if rel.Description != "" {
			fmt.Fprintf(w, "    %s\n", rel.Description)
		}
	}

	if len(a.Degraded) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Warning.Render("Degraded stages"))
		for _, d := range a.Degraded {
			fmt.Fprintf(w, "  %s: %s\n", d.Stage, d.Reason)
		}
	}
}

func list(w io.Writer, s reportStyles, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", s.Label.Render(label+":"))
	for _, item := range items {
		fmt.Fprintf(w, "    - %s\n", item)
	}
}

// renderList writes one line per analysis.
func renderList(w io.Writer, analyses []domain.DocumentAnalysis, styled bool) {
	s := newReportStyles(styled)
	if len(analyses) == 0 {
		fmt.Fprintln(w, "No analyses found.")
		return
	}
	for i := range analyses {
		a := &analyses[i]
		title := a.Content.Structure.Title
		if title == "" {
			title = a.Filename
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			s.Muted.Render(a.ID),
			s.statusText(a),
			s.Label.Render(a.Classification.String()),
			title,
		)
	}
}
