package cmdutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"audio-sessions/internal/app/converter"
	"audio-sessions/internal/app/converter/export"
	"audio-sessions/internal/app/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	staleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)
)

const maxCell = 40

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCell {
		return string(r[:maxCell-3]) + "..."
	}
	return s
}

// RenderTable writes the session table in export column order
func RenderTable(w io.Writer, sessions []model.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No sessions found"))
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(export.Header...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range sessions {
		row := export.Row(s)
		row[export.DurationColumn] = fmt.Sprintf("%.2f", s.DurationSec)
		row[1] = truncate(row[1])
		row[len(row)-1] = truncate(row[len(row)-1])
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d session(s)", len(sessions))))
}

// RenderSession writes the full detail view of one session
func RenderSession(w io.Writer, s model.Session) {
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
	}

	row := export.Row(s)
	for i, h := range export.Header {
		field(h, row[i])
	}
	field("Path", s.Path)
	field("File Size", fmt.Sprintf("%d bytes", s.FileSize))
	if s.TranscriptionStatus != model.StatusNone {
		field("Status", string(s.TranscriptionStatus))
	}

	if s.HasTranscript() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("Transcript"))
		fmt.Fprintln(w, s.TranscriptText())
	}
	if s.Transformed != nil {
		fmt.Fprintln(w)
		label := labelStyle.Render("Transformed (" + s.TransformPrompt + ")")
		if s.TransformStale {
			label += " " + staleStyle.Render("stale: transcript changed since")
		}
		fmt.Fprintln(w, label)
		fmt.Fprintln(w, s.TransformedText())
	}
}

// Spinner shows an mpb spinner on stderr while fn runs, when stderr is a terminal
func Spinner(description string, fn func() error) error {
	pm := converter.NewProgressManager(converter.ProgressConfig{
		Enabled: converter.ShouldShowProgress(false),
	})
	bar := pm.CreateSpinner(description)
	err := fn()
	bar.Complete()
	pm.Wait()
	return err
}
