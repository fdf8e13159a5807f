package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/rollup/internal/cache"
	"github.com/nconklindev/rollup/internal/export"
	"github.com/nconklindev/rollup/internal/logging"
	"github.com/nconklindev/rollup/internal/pipeline"
	"github.com/nconklindev/rollup/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateMenu state = iota
	stateFilePicker
	stateProcessing
	stateResults
	stateComplete
	stateError
)

// AptitudeChoice is the menu entry for the aptitude report.
const AptitudeChoice = "Aptitude"

// Departments listed in the menu, before the aptitude entry.
var Departments = []string{"COMP", "IT", "ENTC"}

// trackSlots is how many track files the TUI asks for.
const trackSlots = 2

// Deps are the collaborators the TUI drives.
type Deps struct {
	Pipeline  *pipeline.Pipeline
	Cache     *cache.Store
	OutputDir string
	Logger    *slog.Logger
}

type Model struct {
	deps Deps

	state      state
	menu       []string
	cursor     int
	choice     string
	filepicker filepicker.Model
	slots      []string
	files      []string
	notice     string

	result   *types.RunResult
	aptitude []types.AptitudeRecord
	table    table.Model
	output   string

	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan runResultMsg
}

type runResultMsg struct {
	result   *types.RunResult
	aptitude []types.AptitudeRecord
	err      error
}

type runCompleteMsg runResultMsg

type exportDoneMsg struct {
	path string
	err  error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.OutputDir == "" {
		deps.OutputDir = "."
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".xlsx"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	prog := progress.New(progress.WithGradient("#FF8C42", "#FF9F5A"))

	return Model{
		deps:       deps,
		state:      stateMenu,
		menu:       append(append([]string{}, Departments...), AptitudeChoice),
		filepicker: fp,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) isAptitude() bool {
	return m.choice == AptitudeChoice
}

// slotsFor lists the files to pick for a menu choice, in order.
func slotsFor(choice string) []string {
	if choice == AptitudeChoice {
		return []string{"aptitude results"}
	}
	slots := []string{"roster"}
	for i := 1; i <= trackSlots; i++ {
		slots = append(slots, fmt.Sprintf("track %d", i))
	}
	return slots
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, slot list, help text and padding.
		height := msg.Height - 16
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)
		if m.state == stateResults {
			m.table.SetHeight(height)
		}

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateMenu:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.menu)-1 {
					m.cursor++
				}
			case "enter":
				m.choice = m.menu[m.cursor]
				m.slots = slotsFor(m.choice)
				m.files = nil
				m.notice = ""
				m.state = stateFilePicker
				return m, m.filepicker.Init()
			}
			return m, nil

		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "c":
				if !m.isAptitude() && len(m.files) == 0 {
					return m.useCachedRoster()
				}
			}

		case stateResults:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "e":
				return m, m.exportResults()
			case "b":
				return m.backToMenu(), nil
			}
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd

		case stateComplete, stateError:
			switch msg.String() {
			case "b":
				return m.backToMenu(), nil
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
			return m, nil
		}

	case runCompleteMsg:
		if msg.err != nil {
			m.deps.Logger.Error("run failed", slog.String("error", msg.err.Error()))
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.aptitude = msg.aptitude
		m.table = m.buildTable()
		m.state = stateResults
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.output = msg.path
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			return m.addFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) backToMenu() Model {
	m.state = stateMenu
	m.choice = ""
	m.files = nil
	m.slots = nil
	m.notice = ""
	m.result = nil
	m.aptitude = nil
	m.output = ""
	m.err = nil
	return m
}

// addFile fills the next slot and starts processing once every slot is set.
func (m Model) addFile(path string) (Model, tea.Cmd) {
	m.files = append(m.files, path)
	m.notice = ""

	if !m.isAptitude() && len(m.files) == 1 && m.deps.Cache != nil {
		if _, err := m.deps.Cache.Save(m.choice, path); err != nil {
			m.deps.Logger.Warn("roster not cached",
				slog.String("department", m.choice),
				slog.String("error", err.Error()))
		}
	}

	if len(m.files) < len(m.slots) {
		return m, nil
	}
	m.state = stateProcessing
	return m.startRun()
}

func (m Model) useCachedRoster() (Model, tea.Cmd) {
	if m.deps.Cache == nil {
		m.notice = "Roster cache is disabled"
		return m, nil
	}
	path, err := m.deps.Cache.Load(m.choice)
	if err != nil {
		if errors.Is(err, cache.ErrNotCached) {
			m.notice = fmt.Sprintf("No cached roster for %s", m.choice)
		} else {
			m.notice = err.Error()
		}
		return m, nil
	}
	m.files = append(m.files, path)
	m.notice = "Using cached roster " + filepath.Base(path)
	return m, nil
}

func (m Model) startRun() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan runResultMsg, 1)

	// Capture for the goroutine
	progressChan := m.progressChan
	resultChan := m.resultChan
	files := append([]string(nil), m.files...)
	choice := m.choice
	p := m.deps.Pipeline

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				var res runResultMsg
				if choice == AptitudeChoice {
					res.aptitude, res.err = p.RunAptitude(context.Background(), files[0], progressChan)
				} else {
					res.result, res.err = p.Run(context.Background(), pipeline.Request{
						Department: choice,
						Roster:     files[0],
						Tracks:     files[1:],
					}, progressChan)
				}

				resultChan <- res

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan runResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return runCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) buildTable() table.Model {
	var (
		cols []table.Column
		rows []table.Row
	)

	if m.isAptitude() {
		cols = []table.Column{
			{Title: "Name", Width: 24}, {Title: "Roll No", Width: 10}, {Title: "Div", Width: 4},
			{Title: "Email", Width: 28}, {Title: "Tests", Width: 12}, {Title: "Aptitude", Width: 9},
			{Title: "Coding", Width: 8},
		}
		for _, r := range m.aptitude {
			rows = append(rows, table.Row{r.Name, r.RollNo, r.Division, r.Email, r.TestsAppeared, r.RecentAptitude, r.RecentCoding})
		}
	} else {
		cols = []table.Column{
			{Title: "Name", Width: 24}, {Title: "Roll No", Width: 10}, {Title: "Div", Width: 4},
			{Title: "Email", Width: 28}, {Title: "Sessions", Width: 14}, {Title: "Tests", Width: 12},
		}
		for _, r := range m.result.Records {
			rows = append(rows, table.Row{r.Name, r.RollNo, r.Division, r.Email, r.SessionsAttended, r.TestsAppeared})
		}
	}

	height := m.height - 16
	if height < 5 {
		height = 5
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	t.SetStyles(TableStyles())
	return t
}

func (m Model) exportResults() tea.Cmd {
	prefix := m.choice
	if m.isAptitude() {
		prefix = strings.ToLower(AptitudeChoice)
	}
	path := filepath.Join(m.deps.OutputDir, export.DefaultName(prefix, ".xlsx"))
	isAptitude := m.isAptitude()
	aptitude := m.aptitude
	result := m.result
	logger := m.deps.Logger

	return func() tea.Msg {
		var err error
		if isAptitude {
			err = export.Aptitude(path, aptitude)
		} else {
			err = export.Records(path, result.Records)
		}
		if err != nil {
			return exportDoneMsg{err: fmt.Errorf("export %s: %w", path, err)}
		}
		logger.Info("report exported", slog.String("file", path))
		return exportDoneMsg{path: path}
	}
}

func (m Model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateFilePicker:
		return m.viewFilePicker()
	case stateProcessing:
		return m.viewProcessing()
	case stateResults:
		return m.viewResults()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func header() string {
	title := TitleStyle.Render("📋 Rollup - Attendance & Assessment Reports")

	byLine := SubtitleStyle.Render("Per-department reports from platform exports")

	return lipgloss.JoinVertical(lipgloss.Left, title, byLine)
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(header())
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Choose a report"))
	s.WriteString("\n\n")

	for i, item := range m.menu {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s", cursor, item)
		if m.cursor == i {
			line = SelectedStyle.Render(line)
		} else {
			line = UnselectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: select • q: quit"))
	return s.String()
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("📋 %s report", m.choice)))
	s.WriteString("\n")

	for i, slot := range m.slots {
		switch {
		case i < len(m.files):
			s.WriteString(CheckedStyle.Render(fmt.Sprintf("✓ %s: %s", slot, filepath.Base(m.files[i]))))
		case i == len(m.files):
			s.WriteString(SelectedStyle.Render(fmt.Sprintf("> %s", slot)))
		default:
			s.WriteString(UnselectedStyle.Render(fmt.Sprintf("  %s", slot)))
		}
		s.WriteString("\n")
	}

	if m.notice != "" {
		s.WriteString(SubtitleStyle.Render(m.notice))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")

	help := "enter: pick file • q: quit"
	if !m.isAptitude() && len(m.files) == 0 {
		help = "enter: pick file • c: use cached roster • q: quit"
	}
	s.WriteString(HelpStyle.Render(help))

	return s.String()
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📋 Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Reading %d file(s)...", len(m.files)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewResults() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("📋 %s results", m.choice)))
	s.WriteString("\n")
	if m.result != nil {
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("%d students • %d sessions • %d tests",
			len(m.result.Records), m.result.TotalSessions, m.result.TotalTests)))
	} else {
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("%d students", len(m.aptitude))))
	}
	s.WriteString("\n")
	s.WriteString(m.table.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: scroll • e: export • b: back • q: quit"))

	return s.String()
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Export Complete!"))
	s.WriteString("\n\n")

	// Truncate paths if they're too long
	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	outputPath := m.output
	if len(outputPath) > maxPathLen {
		outputPath = "..." + outputPath[len(outputPath)-maxPathLen+3:]
	}

	for i, f := range m.files {
		s.WriteString(fmt.Sprintf("%-10s %s\n", m.slots[i]+":", filepath.Base(f)))
	}
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", outputPath)))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("b: back to menu • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("b: back to menu • q: quit"))

	return BoxStyle.Render(s.String())
}
