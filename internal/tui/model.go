// Package tui is a terminal chat over the same session contract as the web
// surface: one greeted transcript, an index built once in the background.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/console"
	"docchat/internal/domain"
	"docchat/internal/session"
)

const loadingText = "Loading models and indexing documents... This might take a minute."

type builtMsg struct {
	asker session.Asker
	err   error
}

type answerMsg struct {
	question string
	resp     domain.Response
	err      error
}

// Model is the Bubble Tea model for the terminal chat.
type Model struct {
	ctx      context.Context
	title    string
	manager  *session.Manager
	history  *session.History
	asker    session.Asker
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	status   string
	failed   bool
	busy     bool
	ready    bool

	sources  []domain.SearchResult
	cursor   int
	question string
}

// New creates a chat model. The index is built by Init through manager.
func New(ctx context.Context, title string, manager *session.Manager, greeting string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Your question here..."
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return Model{
		ctx:      ctx,
		title:    title,
		manager:  manager,
		history:  session.NewHistory(greeting),
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   loadingText,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.build())
}

func (m Model) build() tea.Cmd {
	return func() tea.Msg {
		asker, err := m.manager.Get(m.ctx)
		return builtMsg{asker: asker, err: err}
	}
}

func (m Model) ask(question string) tea.Cmd {
	asker := m.asker
	return func() tea.Msg {
		resp, err := asker.Query(m.ctx, question)
		return answerMsg{question: question, resp: resp, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 + sourcesHeight + th // header, status, input, sources
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case builtMsg:
		if msg.err != nil {
			m.failed = true
			m.status = "Error loading data: " + msg.err.Error()
			return m, nil
		}
		m.asker = msg.asker
		m.status = "System Ready! Ask away."
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.history.Append(domain.RoleAssistant, msg.resp.String())
		m.sources = msg.resp.Sources
		m.cursor = 0
		m.question = msg.question
		m.status = fmt.Sprintf("Answered from %d source(s)", len(msg.resp.Sources))
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyDown:
			if len(m.sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.sources)
				return m, nil
			}
		case tea.KeyUp:
			if len(m.sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.sources)) % len(m.sources)
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if console.IsExit(q) {
		return m, tea.Quit
	}
	if q == "" || m.busy || m.failed {
		return m, nil
	}
	if m.asker == nil {
		m.status = "Still indexing your documents, please wait."
		return m, nil
	}
	m.input.Reset()
	m.history.Append(domain.RoleUser, q)
	m.busy = true
	m.status = "Thinking..."
	m.refresh()
	return m, m.ask(q)
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.history.Messages(), max(20, m.viewport.Width-4)))
	m.viewport.GotoBottom()
}

// History exposes the transcript, mainly for tests.
func (m Model) History() *session.History { return m.history }

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.title)
	status := statusStyle.Render(m.status)
	switch {
	case m.failed:
		status = errorStyle.Render(m.status)
	case m.asker == nil || m.busy:
		status = m.spinner.View() + " " + status
	}
	parts := []string{header, status, transcriptBoxStyle.Render(m.viewport.View())}
	if s := m.renderSource(); s != "" {
		parts = append(parts, sourceStyle.Render(s))
	}
	if !m.failed {
		parts = append(parts, queryBoxStyle.Render(m.input.View()))
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderSource() string {
	if len(m.sources) == 0 {
		return ""
	}
	r := m.sources[m.cursor]
	title := fmt.Sprintf("Source %d/%d  %s  score=%.3f", m.cursor+1, len(m.sources), r.Chunk.Source, r.Score)
	sentences, best := bestSentence(r.Chunk.Text, m.question)
	snippet := sentences[0]
	if best >= 0 {
		snippet = highlightStyle.Render(sentences[best])
	}
	return title + "\n" + snippet
}

func renderTranscript(msgs []domain.Message, width int) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := assistantStyle.Render("AI")
		if msg.Role == domain.RoleUser {
			label = userStyle.Render("You")
		}
		b.WriteString(label + "\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content))
	}
	return b.String()
}

const sourcesHeight = 4

var (
	titleStyle         = lipgloss.NewStyle().Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
