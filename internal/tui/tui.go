// Package tui is the interactive terminal front end: load a video, read its
// transcript, then ask questions about it.
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

	"jamesfarrell.me/youtube-rag/internal/rag"
	"jamesfarrell.me/youtube-rag/internal/transcript"
)

// Session is the part of *rag.Session the UI drives.
type Session interface {
	Load(ctx context.Context, videoID string) rag.Result
	Ask(ctx context.Context, question string) rag.Result
	Close() error
}

// viewState is the screen currently shown.
type viewState int

const (
	// viewVideoInput asks for a video ID or link.
	viewVideoInput viewState = iota
	// viewLoading shows the spinner while the transcript is fetched and indexed.
	viewLoading
	// viewQuestion shows the transcript and takes a question.
	viewQuestion
	// viewAnswering shows the spinner while the answer is generated.
	viewAnswering
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	answerStyle = lipgloss.NewStyle().PaddingLeft(2)
)

// loadedMsg carries the result of Session.Load.
type loadedMsg struct{ res rag.Result }

// answeredMsg carries the result of Session.Ask.
type answeredMsg struct{ res rag.Result }

type model struct {
	ctx      context.Context
	session  Session
	state    viewState
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	videoID    string
	transcript string
	question   string
	answer     string
	errMsg     string

	width, height int
}

func newModel(ctx context.Context, session Session) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "YouTube video ID or link"
	ti.Prompt = "Video: "
	ti.CharLimit = 256
	ti.Focus()

	return &model{
		ctx:      ctx,
		session:  session,
		state:    viewVideoInput,
		input:    ti,
		viewport: viewport.New(80, 10),
		spinner:  s,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func loadCmd(ctx context.Context, session Session, videoID string) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{res: session.Load(ctx, videoID)}
	}
}

func askCmd(ctx context.Context, session Session, question string) tea.Cmd {
	return func() tea.Msg {
		return answeredMsg{res: session.Ask(ctx, question)}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-8, 3)
		m.input.Width = max(msg.Width-12, 10)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case loadedMsg:
		if msg.res.Failed() {
			m.state = viewVideoInput
			m.errMsg = msg.res.Message()
			m.videoID, m.transcript = "", ""
			m.useVideoInput()
			return m, nil
		}
		m.state = viewQuestion
		m.videoID = msg.res.VideoID
		m.transcript = msg.res.Transcript
		m.question, m.answer, m.errMsg = "", "", ""
		m.useQuestionInput()
		m.refreshViewport()
		m.viewport.GotoTop()
		return m, nil

	case answeredMsg:
		m.state = viewQuestion
		if msg.res.Failed() {
			m.errMsg = msg.res.Message()
			m.answer = ""
		} else {
			m.errMsg = ""
			m.answer = msg.res.Answer
		}
		m.refreshViewport()
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.state != viewLoading && m.state != viewAnswering {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	// Only ctrl+c interrupts a running load or ask.
	if m.state == viewLoading || m.state == viewAnswering {
		return m, nil
	}
	if msg.Type == tea.KeyEsc {
		if m.state == viewQuestion {
			m.state = viewVideoInput
			m.errMsg = ""
			m.useVideoInput()
			return m, nil
		}
		return m, tea.Quit
	}

	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		if m.state == viewVideoInput {
			videoID, err := transcript.ExtractVideoID(value)
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.state = viewLoading
			m.errMsg = ""
			m.input.Reset()
			return m, tea.Batch(m.spinner.Tick, loadCmd(m.ctx, m.session, videoID))
		}
		m.state = viewAnswering
		m.question = value
		m.errMsg = ""
		m.input.Reset()
		return m, tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.session, value))
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) useVideoInput() {
	m.input.Reset()
	m.input.Prompt = "Video: "
	m.input.Placeholder = "YouTube video ID or link"
}

func (m *model) useQuestionInput() {
	m.input.Reset()
	m.input.Prompt = "Ask: "
	m.input.Placeholder = "Ask a question about the video"
}

func (m *model) refreshViewport() {
	var b strings.Builder
	if m.answer != "" {
		b.WriteString(labelStyle.Render("Q: " + m.question))
		b.WriteString("\n")
		b.WriteString(answerStyle.Width(max(m.viewport.Width-2, 10)).Render(m.answer))
		b.WriteString("\n\n")
	}
	if m.transcript != "" {
		b.WriteString(labelStyle.Render("Transcript"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(max(m.viewport.Width, 10)).Render(m.transcript))
	}
	m.viewport.SetContent(b.String())
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("YouTube transcript Q&A"))
	if m.videoID != "" {
		b.WriteString(helpStyle.Render("  " + m.videoID))
	}
	b.WriteString("\n\n")

	switch m.state {
	case viewLoading:
		b.WriteString(fmt.Sprintf("%s Fetching and indexing transcript...\n", m.spinner.View()))
	case viewAnswering:
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s Thinking about %q...\n", m.spinner.View(), m.question))
	case viewQuestion:
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	default:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m *model) help() string {
	if m.state == viewQuestion {
		return "enter: ask • ↑/↓ pgup/pgdn: scroll • esc: load another video • ctrl+c: quit"
	}
	if m.state == viewLoading || m.state == viewAnswering {
		return "ctrl+c: quit"
	}
	return "enter: submit • esc/ctrl+c: quit"
}

// Run starts the UI and blocks until the user quits. On the way out the
// context of any running load or ask is cancelled, then the session is closed.
func Run(ctx context.Context, session Session, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer session.Close()
	defer cancel()
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(newModel(ctx, session), opts...).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
