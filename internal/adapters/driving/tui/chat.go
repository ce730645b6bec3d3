// Package tui implements the interactive chat interface built on
// Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	emptyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// turn is one question/answer exchange in the transcript.
type turn struct {
	question string
	answer   string
	empty    bool
}

// answerMsg delivers the result of an asynchronous query.
type answerMsg struct {
	question string
	answer   *domain.Answer
	err      error
}

// ChatModel is the Bubble Tea model for the project chat.
type ChatModel struct {
	service   driving.AnswerService
	projectID string
	limit     int

	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	status   string
	errored  bool
	waiting  bool
	ready    bool
}

// NewChat creates a chat model bound to one project.
func NewChat(service driving.AnswerService, projectID string, limit int) ChatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return ChatModel{
		service:   service,
		projectID: projectID,
		limit:     limit,
		input:     ti,
		viewport:  vp,
		status:    "Ready. Esc or Ctrl+C to quit.",
	}
}

// Init initializes the model (text input cursor blink).
func (m ChatModel) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header + spacer + input frame + status
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-chatBoxStyle.GetHorizontalFrameSize())
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.errored = false
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, m.ask(q)
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}

	case answerMsg:
		m.waiting = false
		switch {
		case msg.err != nil:
			m.errored = true
			m.status = "Error: " + msg.err.Error()
		case msg.answer == nil:
			m.turns = append(m.turns, turn{question: msg.question, empty: true})
			m.status = "No relevant knowledge found."
		default:
			m.turns = append(m.turns, turn{question: msg.question, answer: msg.answer.Text})
			m.status = fmt.Sprintf("Answered from project %s", m.projectID)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask queries the answer service off the UI loop.
func (m ChatModel) ask(question string) tea.Cmd {
	service, projectID, limit := m.service, m.projectID, m.limit
	return func() tea.Msg {
		answer, err := service.AnswerQuery(context.Background(), projectID, question, limit)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// View renders the chat layout.
func (m ChatModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("ragpipe chat: " + m.projectID)
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.errored {
		status = errStatusStyle.Render(m.status)
	}
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m ChatModel) renderTranscript() string {
	if len(m.turns) == 0 {
		return emptyStyle.Render("No questions yet.")
	}

	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + t.question))
		b.WriteString("\n")
		if t.empty {
			b.WriteString(emptyStyle.Render("No relevant knowledge found for this project."))
		} else {
			b.WriteString(t.answer)
		}
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
