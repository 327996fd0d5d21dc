// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CTS-SAT-1/ground-support/pkg/telecommand"
	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	commandListWidth = 38
	minLogHeight     = 5
)

// Focus states
const (
	focusCommands = iota
	focusArguments
	focusExecute
	focusLog
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// commandItem is a telecommand in the command list
type commandItem struct {
	def telecommand.Definition
}

// Implement list.Item interface
func (c commandItem) Title() string { return c.def.DisplayName() }
func (c commandItem) Description() string {
	return fmt.Sprintf("%d args · %s", c.def.ArgumentCount, c.def.ShortReadiness())
}
func (c commandItem) FilterValue() string { return c.def.Name }

// terminalSettings are the toggles the terminal starts with
type terminalSettings struct {
	sentTimestamp   bool
	sha256          bool
	showLineEndings bool
	showTimestamps  bool
}

// terminalModel is the Bubble Tea model for the telecommand terminal
type terminalModel struct {
	catalog *telecommand.Catalog
	link    *uplink.Link
	encoder uplink.Encoder
	connect func(context.Context) (uplink.Connection, string, error)

	// Command selection
	commands list.Model
	selected string
	args     []textinput.Model
	argFocus int
	execAt   textinput.Model

	// RX/TX log
	log       viewport.Model
	followLog bool

	terminalSettings

	// UI state
	focusedField int
	connecting   bool
	width        int
	height       int
	quitting     bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type linkUpdateMsg struct{}

type connectedMsg struct {
	conn uplink.Connection
	name string
}

type connectFailedMsg struct {
	err error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialTerminalModel(cat *telecommand.Catalog, link *uplink.Link, settings terminalSettings) terminalModel {
	var items []list.Item
	for _, d := range cat.Definitions() {
		if d.Name != "" {
			items = append(items, commandItem{def: d})
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	commands := list.New(items, delegate, commandListWidth, 20)
	commands.Title = "Telecommands"
	commands.SetShowStatusBar(false)
	commands.SetShowHelp(false)

	execAt := textinput.New()
	execAt.Placeholder = "now"
	execAt.Prompt = "@tsexec="
	execAt.CharLimit = 20
	execAt.Width = 20

	m := terminalModel{
		catalog:          cat,
		link:             link,
		commands:         commands,
		execAt:           execAt,
		log:              viewport.New(80, minLogHeight),
		followLog:        true,
		terminalSettings: settings,
		focusedField:     focusCommands,
		width:            80,
		height:           24,
	}
	m.syncSelection()
	m.refreshLog()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m terminalModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m terminalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		m.followLog = m.log.AtBottom()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshLog()

	case linkUpdateMsg:
		m.refreshLog()

	case connectedMsg:
		m.connecting = false
		m.link.Attach(msg.conn, msg.name)
		m.refreshLog()

	case connectFailedMsg:
		m.connecting = false
		m.link.Error(fmt.Sprintf("Connection failed: %v", msg.err))
		m.refreshLog()
	}

	return m, nil
}

func (m terminalModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.focusedField == focusCommands && m.commands.FilterState() == list.Filtering

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if !filtering {
			return m.cycleFocus(1), nil
		}

	case "shift+tab":
		if !filtering {
			return m.cycleFocus(-1), nil
		}

	case "enter":
		if !filtering {
			m.sendSelected()
			m.refreshLog()
			return m, nil
		}

	case "ctrl+g":
		m.sentTimestamp = !m.sentTimestamp
		return m, nil

	case "ctrl+s":
		m.sha256 = !m.sha256
		return m, nil

	case "ctrl+e":
		m.showLineEndings = !m.showLineEndings
		m.refreshLog()
		return m, nil

	case "ctrl+t":
		m.showTimestamps = !m.showTimestamps
		m.refreshLog()
		return m, nil

	case "ctrl+l":
		m.link.ClearLog()
		m.followLog = true
		m.refreshLog()
		return m, nil

	case "ctrl+d":
		m.link.Detach()
		m.refreshLog()
		return m, nil

	case "ctrl+r":
		if m.connecting || m.connect == nil {
			return m, nil
		}
		m.connecting = true
		return m, m.reconnectCmd()

	case "q":
		if m.focusedField == focusLog {
			m.quitting = true
			return m, tea.Quit
		}
	}

	// Pass through to focused component
	var cmd tea.Cmd
	switch m.focusedField {
	case focusCommands:
		m.commands, cmd = m.commands.Update(msg)
		m.syncSelection()
	case focusArguments:
		if len(m.args) > 0 {
			m.args[m.argFocus], cmd = m.args[m.argFocus].Update(msg)
		}
	case focusExecute:
		m.execAt, cmd = m.execAt.Update(msg)
	case focusLog:
		m.log, cmd = m.log.Update(msg)
		m.followLog = m.log.AtBottom()
	}
	return m, cmd
}

func (m terminalModel) reconnectCmd() tea.Cmd {
	connect := m.connect
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		conn, name, err := connect(ctx)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{conn: conn, name: name}
	}
}

// cycleFocus moves focus through the command list, each argument input, the
// tsexec input and the log.
func (m terminalModel) cycleFocus(delta int) terminalModel {
	type stop struct{ field, arg int }
	stops := []stop{{focusCommands, 0}}
	for i := range m.args {
		stops = append(stops, stop{focusArguments, i})
	}
	stops = append(stops, stop{focusExecute, 0}, stop{focusLog, 0})

	current := 0
	for i, s := range stops {
		if s.field == m.focusedField && (s.field != focusArguments || s.arg == m.argFocus) {
			current = i
			break
		}
	}
	next := stops[(current+delta+len(stops))%len(stops)]
	m.focusedField, m.argFocus = next.field, next.arg

	for i := range m.args {
		if m.focusedField == focusArguments && i == m.argFocus {
			m.args[i].Focus()
		} else {
			m.args[i].Blur()
		}
	}
	if m.focusedField == focusExecute {
		m.execAt.Focus()
	} else {
		m.execAt.Blur()
	}
	return m
}

// syncSelection rebuilds the argument inputs when the selected command changes.
func (m *terminalModel) syncSelection() {
	item, ok := m.commands.SelectedItem().(commandItem)
	if !ok {
		m.selected, m.args = "", nil
		return
	}
	if item.def.Name == m.selected {
		return
	}

	m.selected = item.def.Name
	m.argFocus = 0
	m.args = make([]textinput.Model, item.def.ArgumentCount)
	for i := range m.args {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("Arg %d: ", i)
		ti.Placeholder = argumentPlaceholder(item.def, i)
		ti.CharLimit = uplink.MaxArgumentsLength
		ti.Width = 40
		m.args[i] = ti
	}
	m.resize()
}

func argumentPlaceholder(d telecommand.Definition, i int) string {
	if d.ArgumentsDocumented && i < len(d.ArgumentDescriptions) {
		return d.ArgumentDescriptions[i]
	}
	return "undocumented"
}

// encodeSelected validates the form and returns the encoded command.
func (m terminalModel) encodeSelected() (string, error) {
	if m.selected == "" {
		return "", errors.New("no telecommand selected")
	}

	args := make([]string, len(m.args))
	for i, ti := range m.args {
		args[i] = ti.Value()
	}
	if err := checkCommand(m.catalog, m.selected, args); err != nil {
		return "", err
	}

	execAt := strings.TrimSpace(m.execAt.Value())
	if err := checkExecuteAt(execAt); err != nil {
		return "", err
	}

	return m.encoder.Encode(m.selected, args, uplink.Options{
		SentTimestamp: m.sentTimestamp,
		ExecuteAt:     execAt,
		SHA256:        m.sha256,
	}), nil
}

func (m *terminalModel) sendSelected() {
	command, err := m.encodeSelected()
	if err != nil {
		m.link.Error(err.Error())
		return
	}
	m.followLog = true
	// A disconnected link records its own error entry
	m.link.Send(command)
}

func (m *terminalModel) resize() {
	m.commands.SetSize(commandListWidth, max(m.height-4, minLogHeight))

	formLines := len(m.args) + 5
	m.log.Width = max(m.width-commandListWidth-6, 20)
	m.log.Height = max(m.height-formLines-8, minLogHeight)
}

func (m *terminalModel) refreshLog() {
	m.log.SetContent(renderEntries(m.link.Entries(), m.showLineEndings, m.showTimestamps))
	if m.followLog {
		m.log.GotoBottom()
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m terminalModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	onStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	boxFor := func(field int) lipgloss.Style {
		if m.focusedField == field {
			return focusedBoxStyle
		}
		return boxStyle
	}

	// Header
	var header strings.Builder
	header.WriteString(titleStyle.Render("CTS1 - TELECOMMAND TERMINAL"))
	header.WriteString(" ")
	status := m.link.Name()
	if m.connecting {
		status = "connecting..."
	}
	if m.link.Connected() {
		header.WriteString(onStyle.Render("● " + status))
	} else {
		header.WriteString(errorStyle.Render("○ " + status))
	}
	if pending := m.link.Pending(); pending > 0 {
		header.WriteString(headerStyle.Render(fmt.Sprintf("  %d queued", pending)))
	}

	// Command form
	var form strings.Builder
	if m.selected == "" {
		form.WriteString(headerStyle.Render("No telecommand selected"))
	} else {
		form.WriteString(labelStyle.Render(m.selected))
		if len(m.args) == 0 {
			form.WriteString(headerStyle.Render("  (no arguments)"))
		}
		form.WriteString("\n")
		for _, ti := range m.args {
			form.WriteString(ti.View())
			form.WriteString("\n")
		}
	}
	form.WriteString("\n")
	form.WriteString(m.execAt.View())
	form.WriteString("\n")

	toggle := func(name string, on bool) string {
		if on {
			return onStyle.Render("[x] " + name)
		}
		return headerStyle.Render("[ ] " + name)
	}
	form.WriteString(strings.Join([]string{
		toggle("tssent", m.sentTimestamp),
		toggle("sha256", m.sha256),
		toggle("line endings", m.showLineEndings),
		toggle("timestamps", m.showTimestamps),
	}, "  "))
	form.WriteString("\n")

	if command, err := m.encodeSelected(); err != nil {
		form.WriteString(errorStyle.Render("✗ " + err.Error()))
	} else {
		form.WriteString(onStyle.Render("→ " + command))
	}

	formField := focusArguments
	if m.focusedField == focusExecute {
		formField = focusExecute
	}
	rightWidth := max(m.width-commandListWidth-4, 24)
	right := lipgloss.JoinVertical(lipgloss.Left,
		boxFor(formField).Width(rightWidth).Render(form.String()),
		boxFor(focusLog).Width(rightWidth).Render(m.log.View()),
	)
	left := boxFor(focusCommands).Render(m.commands.View())

	help := headerStyle.Render("tab focus · enter send · ctrl+g tssent · ctrl+s sha256 · ctrl+l clear · ctrl+r reconnect · ctrl+c quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header.String(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		help,
	)
}

// renderEntries renders RX/TX log entries, one per line group, styled by kind.
func renderEntries(entries []uplink.Entry, showLineEndings, showTimestamps bool) string {
	transmitStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	noticeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	var s strings.Builder
	for _, e := range entries {
		text := e.Text(showLineEndings, showTimestamps)
		switch e.Kind {
		case uplink.EntryTransmit:
			s.WriteString(transmitStyle.Render(text))
			s.WriteString("\n")
		case uplink.EntryNotice:
			s.WriteString(noticeStyle.Render(text))
			s.WriteString("\n")
		case uplink.EntryError:
			s.WriteString(errorStyle.Render(text))
			s.WriteString("\n")
		default:
			s.WriteString(text)
			if !strings.HasSuffix(text, "\n") {
				s.WriteString("\n")
			}
		}
	}
	return s.String()
}
