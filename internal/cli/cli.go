// Package cli runs an assessment interactively in a terminal. Prompts are
// styled with lipgloss and the final report is rendered as markdown.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/skillpath/internal/assessment"
	"github.com/ashureev/skillpath/internal/domain"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Responder is the engine surface the terminal needs.
type Responder interface {
	Start(ctx context.Context) (assessment.StartResult, error)
	Respond(ctx context.Context, id, text string) (assessment.Turn, error)
}

var (
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	promptStyle = lipgloss.NewStyle().Bold(true)
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Options configure a terminal session.
type Options struct {
	// Plain disables styling and markdown rendering.
	Plain bool
	// Width is the markdown word-wrap width. Zero means 80.
	Width int
}

// Session is one interactive conversation.
type Session struct {
	eng  Responder
	in   *bufio.Scanner
	out  io.Writer
	opts Options
}

// New creates a terminal session reading from in and writing to out.
func New(eng Responder, in io.Reader, out io.Writer, opts Options) *Session {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return &Session{eng: eng, in: bufio.NewScanner(in), out: out, opts: opts}
}

// Run drives the conversation until input ends, the user types "quit", or
// ctx is done. It returns the session id.
func (s *Session) Run(ctx context.Context) (string, error) {
	start, err := s.eng.Start(ctx)
	if err != nil {
		return "", fmt.Errorf("start assessment: %w", err)
	}
	s.say(start.Message)
	s.prompt(start.NextPrompt)

	for {
		if ctx.Err() != nil {
			return start.SessionID, ctx.Err()
		}
		fmt.Fprint(s.out, s.style(promptStyle, "> "))
		if !s.in.Scan() {
			return start.SessionID, s.in.Err()
		}
		text := strings.TrimSpace(s.in.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "quit", "exit":
			s.meta("Bye!")
			return start.SessionID, nil
		}

		turn, err := s.eng.Respond(ctx, start.SessionID, text)
		if err != nil {
			return start.SessionID, fmt.Errorf("respond: %w", err)
		}
		s.show(turn)
	}
}

func (s *Session) show(t assessment.Turn) {
	if t.Recommendations != nil && t.Completed && t.Outcome == assessment.OutcomeCompleted {
		s.say(t.Reply)
		fmt.Fprintln(s.out, s.markdown(ReportMarkdown(t)))
		s.meta("Ask about improving, docs, or another domain. Type quit to leave.")
		return
	}

	s.say(t.Reply)
	for _, d := range t.Docs {
		s.say(fmt.Sprintf("- %s: %s", d.Title, d.URL))
	}
	s.prompt(t.NextPrompt)
	if t.Stage == domain.StageDomainEvaluation && t.Progress > 0 {
		s.meta(fmt.Sprintf("progress %.0f%%", t.Progress))
	}
}

// ReportMarkdown formats the final assessment report.
func ReportMarkdown(t assessment.Turn) string {
	rec := t.Recommendations
	var b strings.Builder
	fmt.Fprintf(&b, "# %s assessment: %s\n\n", domainTitle(rec.Domain), rec.Level)
	fmt.Fprintf(&b, "**Score:** %s (%s)\n\n%s\n\n", rec.Score, rec.Percentage, rec.LevelDescription)
	if t.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Summary)
	}
	if len(rec.AreasToImprove) > 0 {
		b.WriteString("## Areas to improve\n\n")
		for _, a := range rec.AreasToImprove {
			fmt.Fprintf(&b, "- **%s** %s\n", a.Question, a.Explanation)
		}
		b.WriteString("\n")
	}
	writeList(&b, "Topics", rec.Topics)
	writeList(&b, "Projects", rec.Projects)
	if len(rec.Docs) > 0 {
		b.WriteString("## Documentation\n\n")
		for _, d := range rec.Docs {
			fmt.Fprintf(&b, "- [%s](%s)\n", d.Title, d.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func domainTitle(name string) string {
	if name == "" {
		return "Skills"
	}
	return cases.Title(language.English).String(name)
}

func (s *Session) markdown(md string) string {
	if s.opts.Plain {
		return md
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(s.opts.Width),
	)
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(rendered, "\n ")
}

func (s *Session) style(st lipgloss.Style, text string) string {
	if s.opts.Plain {
		return text
	}
	return st.Render(text)
}

func (s *Session) say(text string) {
	if text != "" {
		fmt.Fprintln(s.out, s.style(botStyle, text))
	}
}

func (s *Session) prompt(text string) {
	if text != "" {
		fmt.Fprintln(s.out, s.style(promptStyle, text))
	}
}

func (s *Session) meta(text string) {
	fmt.Fprintln(s.out, s.style(metaStyle, text))
}
