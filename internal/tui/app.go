// internal/tui/app.go
//
// Interactive module inspector. It lists every discovered module, shows the
// selected module's metadata and dependency edges, and can switch to the DOT
// rendering of the whole graph.
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/lattice-bot/internal/diagnostics"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

// Loader produces a fresh snapshot, typically by running a load pass.
type Loader func() diagnostics.Snapshot

type snapshotMsg struct {
	snapshot diagnostics.Snapshot
}

// moduleItem implements list.Item for one discovered module.
type moduleItem struct {
	info diagnostics.ModuleInfo
}

func (i moduleItem) Title() string {
	if i.info.Version == "" {
		return i.info.Name
	}
	return fmt.Sprintf("%s v%s", i.info.Name, i.info.Version)
}

func (i moduleItem) Description() string {
	if i.info.Active {
		return fmt.Sprintf("active #%d · %s", i.info.Order, i.info.Source)
	}
	return "inactive · " + i.info.Source
}

func (i moduleItem) FilterValue() string { return i.info.Name }

// App is the inspector model.
type App struct {
	loader    Loader
	snapshot  diagnostics.Snapshot
	modules   list.Model
	showGraph bool
	loaded    bool
	width     int
	height    int
}

// NewApp builds an inspector that loads its snapshot on Init and on "r".
func NewApp(loader Loader) *App {
	modules := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	modules.Title = "Modules"
	modules.SetShowHelp(false)
	return &App{loader: loader, modules: modules}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.reload()
}

func (a *App) reload() tea.Cmd {
	loader := a.loader
	if loader == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg{snapshot: loader()}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.modules.SetSize(max(20, msg.Width/2-4), max(5, msg.Height-8))
		return a, nil

	case snapshotMsg:
		a.setSnapshot(msg.snapshot)
		return a, nil

	case tea.KeyMsg:
		if a.modules.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "r":
			return a, a.reload()
		case "g":
			a.showGraph = !a.showGraph
			return a, nil
		case "esc":
			if a.showGraph {
				a.showGraph = false
				return a, nil
			}
		}
	}
	var cmd tea.Cmd
	a.modules, cmd = a.modules.Update(msg)
	return a, cmd
}

func (a *App) setSnapshot(snap diagnostics.Snapshot) {
	a.snapshot = snap
	a.loaded = true
	items := make([]list.Item, 0, len(snap.Modules))
	for _, info := range snap.Modules {
		items = append(items, moduleItem{info: info})
	}
	a.modules.SetItems(items)
}

// Selected returns the highlighted module, if any.
func (a *App) Selected() (diagnostics.ModuleInfo, bool) {
	item, ok := a.modules.SelectedItem().(moduleItem)
	if !ok {
		return diagnostics.ModuleInfo{}, false
	}
	return item.info, true
}

// View implements tea.Model.
func (a *App) View() string {
	header := headerStyle.Render("⬡ LATTICEBOT MODULES")
	if !a.loaded {
		return header + "\nLoading modules..."
	}
	var body string
	if a.showGraph {
		body = panelStyle.Render(strings.TrimRight(a.snapshot.DOT, "\n"))
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Render(a.modules.View()),
			panelStyle.Width(max(30, a.width/2-4)).Render(a.renderDetail()),
		)
	}
	sections := []string{header, body}
	if status := a.renderStatus(); status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, footerStyle.Render("↑/↓ select · / filter · g graph · r reload · q quit"))
	return strings.Join(sections, "\n")
}

func (a *App) renderDetail() string {
	info, ok := a.Selected()
	if !ok {
		return inactiveStyle.Render("No modules discovered.")
	}
	state := inactiveStyle.Render("inactive")
	if info.Active {
		state = activeStyle.Render(fmt.Sprintf("active (#%d, %.2fms)", info.Order, info.DurationMS))
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(info.Name) + "  " + state,
		detailStyle.Render("source:     " + info.Source),
	}
	if info.Author != "" {
		lines = append(lines, detailStyle.Render("author:     "+info.Author))
	}
	if info.Description != "" {
		lines = append(lines, "", info.Description, "")
	}
	lines = append(lines,
		detailStyle.Render("requires:   "+joinOrNone(info.Requires)),
		detailStyle.Render("optional:   "+joinOrNone(info.Optional)),
		detailStyle.Render("dependents: "+joinOrNone(info.Dependents)),
	)
	return strings.Join(lines, "\n")
}

func (a *App) renderStatus() string {
	var lines []string
	if a.snapshot.Error != "" {
		lines = append(lines, errorStyle.Render("load failed: "+a.snapshot.Error))
	}
	for _, w := range a.snapshot.Warnings {
		lines = append(lines, warnStyle.Render("warning: "+w))
	}
	return strings.Join(lines, "\n")
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
