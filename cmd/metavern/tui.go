package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/TitzMcgie/Metavern/core"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

type styles struct {
	player    lipgloss.Style
	character lipgloss.Style
	action    lipgloss.Style
	scene     lipgloss.Style
	presence  lipgloss.Style
	status    lipgloss.Style
	errorLine lipgloss.Style
}

func newStyles() styles {
	return styles{
		player:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		character: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		action:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Italic(true),
		scene:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		presence:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		errorLine: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

type sessionModel struct {
	orchestrator *orchestration.Orchestrator
	playerName   string

	lines      []string
	processing bool
	ready      bool
	width      int
	height     int

	transcript viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	styles     styles
}

type roundDoneMsg struct {
	events []timeline.Event
	err    error
}

func newModel(orchestrator *orchestration.Orchestrator, playerName string) sessionModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Say something, add a [bracketed action], or type skip / quit"
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := sessionModel{
		orchestrator: orchestrator,
		playerName:   playerName,
		transcript:   viewport.New(0, 0),
		input:        input,
		spinner:      sp,
		styles:       newStyles(),
	}
	for _, event := range orchestrator.Timeline().Events() {
		m.lines = append(m.lines, m.renderEvent(event))
	}
	return m
}

func (m sessionModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = msg.Width
		m.transcript.Height = msg.Height - 3
		m.ready = true
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.processing {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			switch strings.ToLower(text) {
			case "":
				return m, nil
			case "quit", "exit":
				return m, tea.Quit
			case "skip":
				m.processing = true
				return m, tea.Batch(m.spinner.Tick, m.skipCmd())
			default:
				m.processing = true
				return m, tea.Batch(m.spinner.Tick, m.submitCmd(text))
			}
		}

	case roundDoneMsg:
		m.processing = false
		for _, event := range msg.events {
			m.lines = append(m.lines, m.renderEvent(event))
		}
		if msg.err != nil {
			m.lines = append(m.lines, m.styles.errorLine.Render("! "+msg.err.Error()))
		}
		m.refreshTranscript()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m sessionModel) View() string {
	if !m.ready {
		return "loading..."
	}

	status := m.styles.status.Render("enter to send, skip for a beat, esc to leave")
	if m.processing {
		status = m.spinner.View() + m.styles.status.Render(" the story unfolds...")
	}
	return m.transcript.View() + "\n" + status + "\n" + m.input.View()
}

// submitCmd records the player's line and plays out a round sequence in
// the background.
func (m sessionModel) submitCmd(text string) tea.Cmd {
	orchestrator := m.orchestrator
	return func() tea.Msg {
		ctx := context.Background()
		playerEvent, err := orchestrator.SubmitPlayerMessage(ctx, text)
		if err != nil {
			return roundDoneMsg{err: err}
		}
		events := append([]timeline.Event{playerEvent}, orchestrator.ProcessRound(ctx)...)
		return roundDoneMsg{events: events}
	}
}

// skipCmd lets the cast carry the scene without player input.
func (m sessionModel) skipCmd() tea.Cmd {
	orchestrator := m.orchestrator
	return func() tea.Msg {
		return roundDoneMsg{events: orchestrator.ProcessRound(context.Background())}
	}
}

func (m sessionModel) refreshTranscript() {
	width := m.transcript.Width
	if width <= 0 {
		width = 80
	}
	m.transcript.SetContent(wordwrap.String(strings.Join(m.lines, "\n"), width))
	m.transcript.GotoBottom()
}

func (m sessionModel) renderEvent(event timeline.Event) string {
	switch e := event.(type) {
	case timeline.MessageEvent:
		name := m.styles.character.Render(e.Character)
		if e.Character == m.playerName {
			name = m.styles.player.Render(e.Character)
		}
		line := fmt.Sprintf("%s: %s", name, e.Dialogue)
		if e.ActionDescription != "" && e.ActionDescription != "speaks" {
			line += " " + m.styles.action.Render("("+e.ActionDescription+")")
		}
		return line
	case timeline.ActionEvent:
		return m.styles.action.Render(fmt.Sprintf("* %s %s", e.Character, e.Description))
	case timeline.SceneEvent:
		return m.styles.scene.Render(fmt.Sprintf("[%s] %s", e.Location, e.Description))
	case timeline.CharacterEntryEvent:
		line := e.Character + " enters"
		if e.Circumstances != "" {
			line += ": " + e.Circumstances
		}
		return m.styles.presence.Render(line)
	case timeline.CharacterExitEvent:
		line := e.Character + " leaves"
		if e.Circumstances != "" {
			line += ": " + e.Circumstances
		}
		return m.styles.presence.Render(line)
	}
	return ""
}
