package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/MrSnakeDoc/ussm/internal/client"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/reconcile"
)

var (
	colorOK      = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

// screen draws views and notices. Render and Notify arrive from the loop
// goroutine, commands from stdin, so writes are serialized.
type screen struct {
	mu     sync.Mutex
	out    io.Writer
	clear  bool
	header string

	title  lipgloss.Style
	muted  lipgloss.Style
	notice lipgloss.Style
	status map[domain.Status]lipgloss.Style
	plain  lipgloss.Style
}

func newScreen(out io.Writer, color, clear bool) *screen {
	r := lipgloss.NewRenderer(out)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return r.NewStyle().Foreground(c) }

	return &screen{
		out:    out,
		clear:  clear,
		title:  r.NewStyle().Bold(true).Foreground(colorOK),
		muted:  fg(colorMuted),
		notice: fg(colorError).Bold(true),
		status: map[domain.Status]lipgloss.Style{
			domain.StatusOperational:        fg(colorOK),
			domain.StatusPartialOutage:      fg(colorWarning),
			domain.StatusDown:               fg(colorError).Bold(true),
			domain.StatusPlannedMaintenance: fg(colorMuted),
			domain.StatusUnderInvestigation: fg(colorWarning),
		},
		plain: r.NewStyle(),
	}
}

func (s *screen) Render(v client.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if s.clear {
		b.WriteString("\033[H\033[2J")
	}
	b.WriteString(s.title.Render("ussm " + s.header))
	b.WriteString("\n")
	if f := describeFilters(v.Filters); f != "" {
		b.WriteString(s.muted.Render("filters: " + f))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	width := 4
	for _, svc := range v.Services {
		width = max(width, len(svc.Name))
	}
	for _, svc := range v.Services {
		star := " "
		if slices.Contains(v.Favourites, svc.Name) {
			star = "*"
		}
		style, ok := s.status[svc.Status]
		if !ok {
			style = s.plain  
		}
		fmt.Fprintf(&b, "%s %-*s  %-8s  %s  %s\n",
			star, width, svc.Name, svc.Type,
			style.Render(fmt.Sprintf("%-18s", svc.Status)),
			s.muted.Render(svc.LastUpdated))
	}
	if len(v.Services) == 0 {
		b.WriteString(s.muted.Render("no services match"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.summary(v.Summary))
	b.WriteString("\n")
	_, _ = io.WriteString(s.out, b.String())
}

func (s *screen) summary(sum reconcile.Summary) string {
	parts := make([]string, 0, len(domain.Statuses)+1)
	for _, st := range domain.Statuses {
		style := s.status[st]
		parts = append(parts, style.Render(fmt.Sprintf("%s %d", st, sum.Counts[string(st)])))
	}
	if n := sum.Counts[reconcile.OtherBucket]; n > 0 {
		parts = append(parts, fmt.Sprintf("%s %d", reconcile.OtherBucket, n))
	}
	return fmt.Sprintf("%d services: %s", sum.Total, strings.Join(parts, ", "))
}

func (s *screen) Notify(err error) {
	s.Message(s.notice.Render("! " + err.Error()))
}

// Message prints one line below the current view.
func (s *screen) Message(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, line+"\n")
}

func describeFilters(f reconcile.Filters) string {
	var parts []string
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.Search))
	}
	if f.Status != "" {
		parts = append(parts, "status="+f.Status)
	}
	if f.Type != "" {
		parts = append(parts, "type="+f.Type)
	}
	if f.PieStatus != "" {
		parts = append(parts, "chart="+f.PieStatus)
	}
	if f.ShowAll {
		parts = append(parts, "all")
	}
	return strings.Join(parts, " ")
}
