// Package tui provides a terminal user interface for fractune
package tui

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/fractune/pkg/converter"
	"github.com/james-see/fractune/pkg/engine"
)

// Phosphor color scheme
var (
	phosphor   = lipgloss.Color("#39FF14")
	amber      = lipgloss.Color("#FFB000")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(phosphor).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(phosphor).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(amber).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(phosphor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(phosphor).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilename
	StateFilePicker
	StateWorking
	StateResult
)

// Action is what a menu item does
type Action int

const (
	ActionGenerate Action = iota
	ActionConvert
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
	Scale       engine.ScaleID
}

// Model represents the TUI model
type Model struct {
	engine *engine.Engine
	conv   *converter.Converter
	seed   int64

	state      State
	menu       []MenuItem
	menuIndex  int
	selected   MenuItem
	filename   textinput.Model
	filePicker filepicker.Model
	spinner    spinner.Model

	inputFile  string
	outputFile string
	usedSeed   int64
	counts     map[engine.Track]int
	err        error
	width      int
	height     int
}

// doneMsg signals that generation or conversion finished
type doneMsg struct {
	outputFile string
	seed       int64
	counts     map[engine.Track]int
	err        error
}

// New creates a new TUI model. A zero seed picks a fresh seed per generation.
func New(eng *engine.Engine, seed int64) Model {
	fi := textinput.New()
	fi.Placeholder = "output.mid"
	fi.CharLimit = 256
	fi.Width = 48

	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi", ".json"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(phosphor)

	return Model{
		engine:     eng,
		conv:       converter.New(eng.Config()),
		seed:       seed,
		state:      StateMenu,
		menu:       buildMenu(eng.Config()),
		filename:   fi,
		filePicker: fp,
		spinner:    s,
	}
}

func buildMenu(cfg *engine.Config) []MenuItem {
	items := make([]MenuItem, 0, len(cfg.ScaleIDs())+2)
	for _, id := range cfg.ScaleIDs() {
		offsets, _ := cfg.Scale(id)
		items = append(items, MenuItem{
			Title:       strings.ToUpper(strings.ReplaceAll(string(id), "_", " ")),
			Description: fmt.Sprintf("Generate in %s (intervals %v)", id, offsets),
			Action:      ActionGenerate,
			Scale:       id,
		})
	}
	return append(items,
		MenuItem{Title: "CONVERT FILE", Description: "Convert MIDI to JSON or JSON to MIDI", Action: ActionConvert},
		MenuItem{Title: "Exit", Description: "Exit the application", Action: ActionExit},
	)
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive every message
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.inputFile = path
			m.state = StateWorking
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateFilename:
			return m.updateFilename(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case doneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.usedSeed = msg.seed
		m.counts = msg.counts
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(m.menu)-1 {
			m.menuIndex++
		}
	case "enter":
		m.selected = m.menu[m.menuIndex]
		switch m.selected.Action {
		case ActionExit:
			return m, tea.Quit
		case ActionConvert:
			m.state = StateFilePicker
			return m, m.filePicker.Init()
		default:
			m.state = StateFilename
			m.filename.SetValue(fmt.Sprintf("fractune-%s.mid", m.selected.Scale))
			m.filename.CursorEnd()
			return m, m.filename.Focus()
		}
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateFilename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filename.Blur()
		m.state = StateMenu
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		name := strings.TrimSpace(m.filename.Value())
		if name == "" {
			return m, nil
		}
		if converter.DetectFormat(name) == converter.FormatUnknown {
			name += ".mid"
		}
		m.outputFile = name
		m.filename.Blur()
		m.state = StateWorking
		return m, tea.Batch(m.spinner.Tick, m.performGeneration())
	}

	var cmd tea.Cmd
	m.filename, cmd = m.filename.Update(msg)
	return m, cmd
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.inputFile = ""
		m.outputFile = ""
		m.counts = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performGeneration() tea.Cmd {
	eng, conv, scale, output := m.engine, m.conv, m.selected.Scale, m.outputFile
	seed := m.seed
	if seed == 0 {
		seed = rand.Int64()
	}
	return func() tea.Msg {
		p := eng.Config().Defaults()
		p.Scale = scale
		if err := eng.ValidateParameters(p); err != nil {
			return doneMsg{err: err}
		}
		comp, err := eng.Generate(p, engine.NewRand(seed))
		if err != nil {
			return doneMsg{err: err}
		}
		if err := conv.ExportFile(comp, output); err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{outputFile: output, seed: seed, counts: comp.Counts()}
	}
}

func (m Model) performConversion() tea.Cmd {
	conv, input := m.conv, m.inputFile
	return func() tea.Msg {
		outputExt := ".mid"
		if converter.DetectFormat(input) == converter.FormatMIDI {
			outputExt = ".json"
		}
		outputFile := strings.TrimSuffix(input, filepath.Ext(input)) + outputExt

		comp, err := conv.ImportFile(input)
		if err != nil {
			return doneMsg{err: err}
		}
		if err := conv.ExportFile(comp, outputFile); err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{outputFile: outputFile, counts: comp.Counts()}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilename:
		s.WriteString(m.viewFilename())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateWorking:
		s.WriteString(m.viewWorking())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT SCALE "))
	s.WriteString("\n\n")

	for i, item := range m.menu {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(amber).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilename() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" OUTPUT FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filename.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(".mid or .json • esc: back to menu"))

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI OR JSON FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewWorking() string {
	var s strings.Builder

	if m.selected.Action == ActionConvert {
		s.WriteString(titleStyle.Render(" CONVERTING "))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.inputFile)))
	} else {
		s.WriteString(titleStyle.Render(" GENERATING "))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("%s Growing a %s composition...\n", m.spinner.View(), m.selected.Scale))
		s.WriteString(statusStyle.Render(fmt.Sprintf("  → %s", m.outputFile)))
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Done!"))
		s.WriteString("\n\n")
		if m.inputFile != "" {
			s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.inputFile)))
		} else {
			s.WriteString(fmt.Sprintf("Seed:   %d\n", m.usedSeed))
		}
		s.WriteString(fmt.Sprintf("Output: %s\n", m.outputFile))
		for _, t := range engine.Tracks {
			s.WriteString(fmt.Sprintf("%-7s %d notes\n", string(t)+":", m.counts[t]))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   __                _
  / _|_ __ __ _  ___| |_ _   _ _ __   ___
 | |_| '__/ _' |/ __| __| | | | '_ \ / _ \
 |  _| | | (_| | (__| |_| |_| | | | |  __/
 |_| |_|  \__,_|\___|\__|\__,_|_| |_|\___|
`
	return lipgloss.NewStyle().Foreground(phosphor).Render(logo)
}

// Run starts the TUI application
func Run(eng *engine.Engine, seed int64) error {
	p := tea.NewProgram(New(eng, seed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
