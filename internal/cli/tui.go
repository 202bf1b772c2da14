package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Progress bar styles
var (
	barDoneStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barTodoStyle = lipgloss.NewStyle().Foreground(colorDim)
	barInfoStyle = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	barWidth = 40
	barDone  = "█"
	barTodo  = "░"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// =============================================================================
// ProgressModel - q-point progress bar
// =============================================================================

// progressMsg reports finished q-points.
type progressMsg struct {
	done, total int
}

// finishedMsg ends the program once the computation returned.
type finishedMsg struct{}

// ProgressModel is the bubbletea model for the compute progress bar.
type ProgressModel struct {
	Title     string
	Done      int
	Total     int
	Start     time.Time
	Cancelled bool

	cancel context.CancelFunc
	now    func() time.Time
}

// NewProgressModel creates a progress model. cancel is invoked when the
// user presses ctrl+c or q.
func NewProgressModel(title string, cancel context.CancelFunc) ProgressModel {
	return ProgressModel{Title: title, Start: time.Now(), cancel: cancel, now: time.Now}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case progressMsg:
		m.Done, m.Total = msg.done, msg.total
	case finishedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")

	frac := 0.0
	if m.Total > 0 {
		frac = float64(m.Done) / float64(m.Total)
	}
	filled := int(frac * barWidth)
	b.WriteString(barDoneStyle.Render(strings.Repeat(barDone, filled)))
	b.WriteString(barTodoStyle.Render(strings.Repeat(barTodo, barWidth-filled)))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%3.0f%%", frac*100)))

	info := fmt.Sprintf("  %d/%d q-points", m.Done, m.Total)
	if eta := m.eta(); eta > 0 {
		info += fmt.Sprintf(" · eta %s", eta)
	}
	b.WriteString("\n")
	b.WriteString(barInfoStyle.Render(info))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  q: cancel"))
	b.WriteString("\n")

	return b.String()
}

// eta extrapolates the remaining time from the rate so far.
func (m ProgressModel) eta() time.Duration {
	if m.Done == 0 || m.Done >= m.Total {
		return 0
	}
	elapsed := m.now().Sub(m.Start)
	left := time.Duration(float64(elapsed) / float64(m.Done) * float64(m.Total-m.Done))
	return left.Round(time.Second)
}

// =============================================================================
// Helpers
// =============================================================================

// runWithProgress runs fn while showing a progress bar on stderr. fn gets a
// context that is cancelled when the user quits the bar, and a progress
// callback to report finished q-points.
func runWithProgress(ctx context.Context, title string, fn func(context.Context, func(done, total int)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title, cancel), tea.WithOutput(os.Stderr))

	errc := make(chan error, 1)
	go func() {
		var (
			mu   sync.Mutex
			last int
		)
		err := fn(ctx, func(done, total int) {
			mu.Lock()
			// One message per percent keeps the event loop responsive.
			if step := max(total/100, 1); done-last < step && done != total {
				mu.Unlock()
				return
			}
			last = done
			mu.Unlock()
			p.Send(progressMsg{done: done, total: total})
		})
		errc <- err
		p.Send(finishedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("progress: %w", err)
	}
	return <-errc
}
