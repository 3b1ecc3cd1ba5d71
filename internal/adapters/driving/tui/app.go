package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// entry is one rendered exchange in the transcript.
type entry struct {
	question string
	answer   *domain.Answer
	err      error
}

// resultMsg carries the outcome of an async session call.
type resultMsg struct {
	question string
	answer   *domain.Answer
	err      error
}

// App is the chat TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *Styles

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	// entries is the transcript, oldest first.
	entries []entry

	// status is the one-line footer message.
	status string

	// waiting blocks input while a question is in flight.
	waiting bool

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the contract (/clear resets memory, /quit exits)"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   DefaultStyles(),
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready.",
	}, nil
}

// WithContext sets the context used for session calls.
func (a *App) WithContext(ctx context.Context) {
	a.ctx = ctx
}

// Init starts the text input cursor blink.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key, window and result events.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.ready = true
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		a.viewport.SetContent(a.renderTranscript())
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return a, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !a.waiting {
			return a.submit()
		}

	case resultMsg:
		a.waiting = false
		a.entries = append(a.entries, entry{
			question: msg.question,
			answer:   msg.answer,
			err:      msg.err,
		})
		if msg.err != nil {
			a.status = "Error. Ask again or /quit."
		} else if msg.answer != nil && msg.answer.FromCache {
			a.status = "Answered from cache."
		} else {
			a.status = "Answered."
		}
		a.viewport.SetContent(a.renderTranscript())
		a.viewport.GotoBottom()
		return a, nil

	case spinner.TickMsg:
		if a.waiting {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// submit handles an entered line: either a slash command or a question.
func (a *App) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(a.input.Value())
	if line == "" {
		return a, nil
	}
	a.input.SetValue("")

	switch {
	case line == "/quit" || line == "/exit":
		return a, tea.Quit

	case line == "/clear":
		a.ports.Session.ClearMemory()
		a.entries = nil
		a.status = "Conversation memory cleared."
		a.viewport.SetContent(a.renderTranscript())
		return a, nil

	case strings.HasPrefix(line, "/summary"):
		kindName := strings.TrimSpace(strings.TrimPrefix(line, "/summary"))
		if kindName == "" {
			kindName = string(domain.SummaryBrief)
		}
		kind, err := domain.ParseSummaryKind(kindName)
		if err != nil {
			a.status = "Unknown summary type. Use brief, comprehensive or key_points."
			return a, nil
		}
		a.waiting = true
		a.status = "Summarising..."
		return a, tea.Batch(a.spinner.Tick, a.summarizeCmd(line, kind))

	case strings.HasPrefix(line, "/"):
		a.status = "Unknown command. Commands: /clear /summary /quit"
		return a, nil
	}

	a.waiting = true
	a.status = "Thinking..."
	return a, tea.Batch(a.spinner.Tick, a.askCmd(line))
}

// askCmd runs Ask off the UI goroutine.
func (a *App) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := a.ports.Session.Ask(a.ctx, question)
		return resultMsg{question: question, answer: answer, err: err}
	}
}

// summarizeCmd runs Summarize off the UI goroutine.
func (a *App) summarizeCmd(label string, kind domain.SummaryKind) tea.Cmd {
	return func() tea.Msg {
		answer, err := a.ports.Session.Summarize(a.ctx, kind)
		return resultMsg{question: label, answer: answer, err: err}
	}
}

// View renders the chat layout.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	title := "Contracta"
	if doc := a.ports.Session.Document(); doc != nil {
		title = fmt.Sprintf("Contracta - %s (%d pages)", doc.Title, doc.PageCount())
	}
	header := a.styles.Title.Render(title)

	input := a.styles.InputBox.Render(a.input.View())

	status := a.styles.Muted.Render(a.status)
	if a.waiting {
		status = a.spinner.View() + " " + status
	}

	return header + "\n" + a.viewport.View() + "\n" + input + "\n" + status
}

// resize fits the viewport to the terminal, reserving header, input
// frame and status lines.
func (a *App) resize() {
	_, frameH := a.styles.InputBox.GetFrameSize()
	reserved := 2 + frameH + 1
	h := a.height - reserved
	if h < 3 {
		h = 3
	}
	w := a.width
	if w < 20 {
		w = 20
	}
	a.viewport.Width = w
	a.viewport.Height = h
}

// renderTranscript renders all exchanges, oldest first.
func (a *App) renderTranscript() string {
	if len(a.entries) == 0 {
		return a.styles.Muted.Render("Ask a question about the loaded contract.")
	}

	var b strings.Builder
	for i := range a.entries {
		e := &a.entries[i]
		b.WriteString(a.styles.Question.Render("Q: " + e.question))
		b.WriteString("\n")

		switch {
		case e.err != nil:
			b.WriteString(a.styles.Error.Render("error: " + e.err.Error()))
		case e.answer != nil:
			b.WriteString(a.styles.AnswerText.Render(e.answer.Text))
			if e.answer.FromCache {
				b.WriteString(a.styles.Muted.Render("  (cached)"))
			}
			for _, c := range e.answer.Citations {
				b.WriteString("\n")
				b.WriteString(a.styles.Citation.Render(
					fmt.Sprintf("[Page %d] %s", c.Page, c.Excerpt)))
			}
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
