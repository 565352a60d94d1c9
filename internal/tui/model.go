// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/localsoundboard/internal/block"
	"github.com/jmylchreest/localsoundboard/internal/config"
	"github.com/jmylchreest/localsoundboard/internal/model"
	"github.com/jmylchreest/localsoundboard/internal/player"
	"github.com/jmylchreest/localsoundboard/internal/soundboard"
)

// Messages shown in place of a widget's track list.
const (
	EmptyFolderMessage = "No audio files found in the specified folder."
	LoadErrorPrefix    = "Error loading audio files: "
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeBoard Mode = iota
	ModePicker
	ModeSearch
	ModeHelp
)

// Model is the main TUI model.
type Model struct {
	// Configuration
	board            *soundboard.Board
	title            string
	volumeStep       float64
	clipboardCommand string

	// Current mode
	mode Mode

	// Components
	widgets     list.Model
	picker      list.Model
	searchInput textinput.Model
	help        help.Model

	// State
	pickerWidget int // 1-based widget the picker belongs to
	searchQuery  string
	width        int
	height       int
	ready        bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool

	// Board change subscription
	changes <-chan soundboard.WidgetChange
}

// widgetItem wraps a widget for the board list.
type widgetItem struct {
	widget soundboard.Widget
}

func (i widgetItem) Title() string {
	return stateGlyph(i.widget.Controller.State()) + " " + i.widget.Title()
}

func (i widgetItem) Description() string {
	w := i.widget
	if w.Err != nil {
		return LoadErrorPrefix + w.Err.Error()
	}
	if len(w.Catalog) == 0 {
		return EmptyFolderMessage
	}

	track := "no track selected"
	if sel := w.Controller.Selected(); sel != nil {
		track = sel.Basename
	}
	desc := fmt.Sprintf("%s · vol %d%% · %d tracks", track, volumePercent(w.Controller.Volume()), len(w.Catalog))
	if w.Controller.Loop() {
		desc += " · loop"
	}
	return desc
}

func (i widgetItem) FilterValue() string {
	return i.widget.Title() + " " + i.widget.Folder.Path
}

// trackItem wraps an asset for the picker list.
type trackItem struct {
	asset   model.Asset
	current bool
}

func (i trackItem) Title() string {
	if i.current {
		return "● " + i.asset.Basename
	}
	return i.asset.Basename
}

func (i trackItem) Description() string {
	parts := []string{strings.ToUpper(i.asset.Extension)}
	if i.asset.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(i.asset.Size)))
	}
	if !i.asset.ModTime.IsZero() {
		parts = append(parts, humanize.Time(i.asset.ModTime))
	}
	parts = append(parts, i.asset.Path)
	return strings.Join(parts, " · ")
}

func (i trackItem) FilterValue() string {
	return i.asset.Name()
}

// widgetDelegate renders widgets, dimming the ones without playable tracks.
type widgetDelegate struct {
	list.DefaultDelegate
}

func newWidgetDelegate() widgetDelegate {
	return widgetDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a widget with state-dependent styling.
func (d widgetDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	wi, ok := item.(widgetItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	unusable := wi.widget.Err != nil || len(wi.widget.Catalog) == 0
	itemWidth := m.Width() - d.DefaultDelegate.Styles.NormalTitle.GetHorizontalPadding()

	var titleStyle, descStyle lipgloss.Style
	if isSelected {
		titleStyle = d.DefaultDelegate.Styles.SelectedTitle
		descStyle = d.DefaultDelegate.Styles.SelectedDesc
	} else {
		titleStyle = d.DefaultDelegate.Styles.NormalTitle
		descStyle = d.DefaultDelegate.Styles.NormalDesc
	}

	switch {
	case wi.widget.Err != nil:
		descStyle = descStyle.Foreground(lipgloss.Color("9"))
	case unusable:
		titleStyle = titleStyle.Foreground(lipgloss.Color("8"))
		descStyle = descStyle.Foreground(lipgloss.Color("8"))
	case wi.widget.Controller.IsPlaying():
		titleStyle = titleStyle.Foreground(lipgloss.Color("10"))
	}

	title := truncate(wi.Title(), itemWidth)
	desc := truncate(wi.Description(), itemWidth)

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

// Options configures the TUI.
type Options struct {
	Title            string
	VolumeStep       float64 // zero uses config.DefaultVolumeStep
	ClipboardCommand string
}

// New creates a new TUI model over board.
func New(board *soundboard.Board, opts Options) Model {
	widgets := list.New(nil, newWidgetDelegate(), 0, 0)
	widgets.Title = opts.Title
	if widgets.Title == "" {
		widgets.Title = "Soundboard"
	}
	widgets.SetShowStatusBar(false)
	widgets.SetShowHelp(false)
	widgets.SetFilteringEnabled(false)
	widgets.DisableQuitKeybindings()

	picker := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	picker.SetShowStatusBar(true)
	picker.SetShowHelp(false)
	picker.SetFilteringEnabled(false)
	picker.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Placeholder = "Search..."
	searchInput.CharLimit = 100

	step := opts.VolumeStep
	if step <= 0 {
		step = config.DefaultVolumeStep
	}

	m := Model{
		board:            board,
		title:            widgets.Title,
		volumeStep:       step,
		clipboardCommand: opts.ClipboardCommand,
		mode:             ModeBoard,
		widgets:          widgets,
		picker:           picker,
		searchInput:      searchInput,
		help:             help.New(),
		keys:             DefaultKeyMap(),
	}

	if board != nil {
		m.changes = board.Subscribe()
		m.widgets.SetItems(m.buildWidgetItems())
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return m.watchForChanges
}

// watchForChanges waits for the next widget state change.
func (m Model) watchForChanges() tea.Msg {
	if m.changes == nil {
		return nil
	}
	change, ok := <-m.changes
	if !ok {
		return nil
	}
	return changeMsg{change: change}
}

type changeMsg struct {
	change soundboard.WidgetChange
}

type refreshDoneMsg struct {
	err error
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.widgets.SetSize(msg.Width, msg.Height-2)
		m.picker.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case changeMsg:
		m.syncWidgets()
		var cmd tea.Cmd
		if err := msg.change.Err; err != nil {
			cmd = statusCmd(fmt.Sprintf("Widget %d: %v", msg.change.Index, err), true)
		}
		return m, tea.Batch(cmd, m.watchForChanges)

	case refreshDoneMsg:
		m.syncWidgets()
		if m.mode == ModePicker || m.mode == ModeSearch {
			m.picker.SetItems(m.buildTrackItems())
		}
		if msg.err != nil {
			return m, statusCmd("Refresh failed: "+msg.err.Error(), true)
		}
		return m, statusCmd("Refreshed", false)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, statusCmd("Copy failed: "+msg.err.Error(), true)
		}
		return m, statusCmd("Copied block to clipboard", false)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeBoard:
		m.widgets, cmd = m.widgets.Update(msg)
	case ModePicker:
		m.picker, cmd = m.picker.Update(msg)
	case ModeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search input owns every key except ctrl+c.
	if m.mode == ModeSearch {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeBoard
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeBoard:
		return m.handleBoardKey(msg)
	case ModePicker:
		return m.handlePickerKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeBoard
		}
		return m, nil
	}

	return m, nil
}

// handleBoardKey handles keys in the widget list.
func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		w, ok := m.currentWidget()
		if !ok {
			return m, nil
		}
		if w.Err != nil {
			return m, statusCmd(LoadErrorPrefix+w.Err.Error(), true)
		}
		if len(w.Catalog) == 0 {
			return m, statusCmd(EmptyFolderMessage, false)
		}
		m.openPicker(w)
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		w, ok := m.currentWidget()
		if !ok {
			return m, nil
		}
		if w.Controller.State() == player.StateIdle {
			return m, statusCmd("Pick a track first", false)
		}
		err := m.board.Toggle(w.Index)
		m.syncWidgets()
		if err != nil {
			return m, statusCmd("Playback failed: "+err.Error(), true)
		}
		return m, nil

	case key.Matches(msg, m.keys.VolumeUp):
		return m.stepVolume(m.volumeStep)

	case key.Matches(msg, m.keys.VolumeDown):
		return m.stepVolume(-m.volumeStep)

	case key.Matches(msg, m.keys.Clear):
		w, ok := m.currentWidget()
		if !ok {
			return m, nil
		}
		err := m.board.Select(w.Index, "")
		m.syncWidgets()
		if err != nil {
			return m, statusCmd(err.Error(), true)
		}
		return m, nil

	case key.Matches(msg, m.keys.StopAll):
		err := m.board.StopAll()
		m.syncWidgets()
		if err != nil {
			return m, statusCmd("Stop failed: "+err.Error(), true)
		}
		return m, statusCmd("Stopped all playback", false)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.CopyBlock):
		w, ok := m.currentWidget()
		if !ok {
			return m, nil
		}
		audioPath := ""
		if sel := w.Controller.Selected(); sel != nil {
			audioPath = sel.Path
		}
		return m, m.copyToClipboard(block.Format(w.Folder.Path, audioPath))
	}

	var cmd tea.Cmd
	m.widgets, cmd = m.widgets.Update(msg)
	return m, cmd
}

// handlePickerKey handles keys in the track picker.
func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closePicker()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.pickTrack()

	case key.Matches(msg, m.keys.Toggle):
		err := m.board.Toggle(m.pickerWidget)
		m.syncWidgets()
		if err != nil {
			return m, statusCmd("Playback failed: "+err.Error(), true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.picker.SetItems(m.buildTrackItems())
		m.mode = ModeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// handleSearchKey handles keys while filtering the picker.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModePicker
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.picker.SetItems(m.buildTrackItems())
		return m, nil

	case tea.KeyEnter:
		m.searchInput.Blur()
		return m.pickTrack()

	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Live filtering
	m.searchQuery = m.searchInput.Value()
	m.picker.SetItems(m.buildTrackItems())
	m.picker.Select(0)

	return m, cmd
}

func (m *Model) openPicker(w soundboard.Widget) {
	m.pickerWidget = w.Index
	m.searchQuery = ""
	m.picker.Title = w.Title()
	m.picker.SetItems(m.buildTrackItems())

	// Start on the current selection.
	if sel := w.Controller.Selected(); sel != nil {
		for i, p := range w.Catalog.Paths() {
			if p == sel.Path {
				m.picker.Select(i)
				break
			}
		}
	} else {
		m.picker.Select(0)
	}
	m.mode = ModePicker
}

func (m *Model) closePicker() {
	m.mode = ModeBoard
	m.pickerWidget = 0
	m.searchQuery = ""
	m.searchInput.SetValue("")
}

func (m Model) pickTrack() (tea.Model, tea.Cmd) {
	item, ok := m.picker.SelectedItem().(trackItem)
	if !ok {
		return m, nil
	}
	err := m.board.Select(m.pickerWidget, item.asset.Path)
	m.closePicker()
	m.syncWidgets()
	if err != nil {
		if errors.Is(err, soundboard.ErrAssetNotFound) {
			return m, statusCmd("Track no longer available, refresh with r", true)
		}
		return m, statusCmd("Playback failed: "+err.Error(), true)
	}
	return m, statusCmd("Selected "+item.asset.Basename, false)
}

func (m Model) stepVolume(delta float64) (tea.Model, tea.Cmd) {
	w, ok := m.currentWidget()
	if !ok {
		return m, nil
	}
	v := math.Round((w.Controller.Volume()+delta)*100) / 100
	if err := m.board.SetVolume(w.Index, v); err != nil {
		return m, statusCmd(err.Error(), true)
	}
	m.syncWidgets()
	return m, statusCmd(fmt.Sprintf("Volume %d%%", volumePercent(w.Controller.Volume())), false)
}

func (m Model) refresh() tea.Cmd {
	board := m.board
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return refreshDoneMsg{err: board.Refresh(ctx)}
	}
}

// currentWidget returns a fresh snapshot of the highlighted widget.
func (m Model) currentWidget() (soundboard.Widget, bool) {
	item, ok := m.widgets.SelectedItem().(widgetItem)
	if !ok || m.board == nil {
		return soundboard.Widget{}, false
	}
	w, err := m.board.Widget(item.widget.Index)
	if err != nil {
		return soundboard.Widget{}, false
	}
	return w, true
}

// syncWidgets rebuilds the widget items from the board, keeping the cursor.
func (m *Model) syncWidgets() {
	if m.board == nil {
		return
	}
	m.widgets.SetItems(m.buildWidgetItems())
}

func (m Model) buildWidgetItems() []list.Item {
	widgets := m.board.Widgets()
	items := make([]list.Item, len(widgets))
	for i, w := range widgets {
		items[i] = widgetItem{widget: w}
	}
	return items
}

// buildTrackItems lists the picker widget's catalog, filtered by the search query.
func (m Model) buildTrackItems() []list.Item {
	if m.board == nil || m.pickerWidget == 0 {
		return nil
	}
	w, err := m.board.Widget(m.pickerWidget)
	if err != nil {
		return nil
	}

	current := ""
	if sel := w.Controller.Selected(); sel != nil {
		current = sel.Path
	}

	tracks := w.Catalog.Search(m.searchQuery)
	items := make([]list.Item, len(tracks))
	for i, a := range tracks {
		items[i] = trackItem{asset: a, current: a.Path == current}
	}
	return items
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	command := m.clipboardCommand
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, command)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeBoard:
		return m.viewBoard()
	case ModePicker:
		return m.viewPicker()
	case ModeSearch:
		return m.viewSearch()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m Model) viewBoard() string {
	s := m.widgets.View()
	if len(m.widgets.Items()) == 0 {
		s = lipgloss.NewStyle().Bold(true).Render(m.title) + "\n\n" +
			lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("No soundboards configured.")
	}
	return s + "\n" + m.footer("board")
}

func (m Model) viewPicker() string {
	return m.picker.View() + "\n" + m.footer("picker")
}

func (m Model) viewSearch() string {
	countStr := fmt.Sprintf("(%d matches)", len(m.picker.Items()))
	searchBar := "Search: " + m.searchInput.View() + " " +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(countStr)

	return searchBar + "\n" + m.picker.View() + "\n" + m.buildKeybindBar(m.width, "search")
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	s += sectionStyle.Render("Navigation") + "\n"
	s += keyStyle.Render("  j/k, ↑/↓") + "     Move up/down\n"
	s += keyStyle.Render("  g/G") + "          Go to top/bottom\n"
	s += keyStyle.Render("  pgup/pgdn") + "    Page up/down\n"
	s += "\n"

	s += sectionStyle.Render("Playback") + "\n"
	s += keyStyle.Render("  enter") + "        Pick a track for the soundboard\n"
	s += keyStyle.Render("  space/p") + "      Play or stop the selected track\n"
	s += keyStyle.Render("  +/-") + "          Change volume\n"
	s += keyStyle.Render("  x") + "            Clear the selection\n"
	s += keyStyle.Render("  s") + "            Stop all soundboards\n"
	s += keyStyle.Render("  r") + "            Refresh audio files\n"
	s += keyStyle.Render("  c") + "            Copy a block for this folder\n"
	s += keyStyle.Render("  /") + "            Search tracks (picker)\n"
	s += "\n"

	s += sectionStyle.Render("General") + "\n"
	s += keyStyle.Render("  ?") + "            Toggle this help\n"
	s += keyStyle.Render("  esc") + "          Back / Cancel\n"
	s += keyStyle.Render("  q") + "            Quit\n"

	s += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Press ? or esc to return")

	return s
}

func (m Model) footer(mode string) string {
	if m.statusMsg == "" {
		return m.buildKeybindBar(m.width, mode)
	}
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	if m.statusErr {
		statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
	}
	return statusStyle.Render(m.statusMsg)
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
// mode determines which keybinds are shown: "board", "picker", "search"
func (m Model) buildKeybindBar(width int, mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind

	switch mode {
	case "board":
		binds = []keybind{
			{"q", "quit", 1},
			{"enter", "pick", 2},
			{"space", "play/stop", 3},
			{"?", "help", 4},
			{"+/-", "volume", 5},
			{"s", "stop all", 6},
			{"r", "refresh", 7},
			{"x", "clear", 8},
			{"c", "copy block", 9},
		}
	case "picker":
		binds = []keybind{
			{"enter", "select", 1},
			{"esc", "back", 2},
			{"/", "search", 3},
			{"space", "play/stop", 4},
			{"q", "quit", 5},
		}
	case "search":
		binds = []keybind{
			{"enter", "select", 1},
			{"esc", "close", 2},
			{"↑/↓", "navigate", 3},
		}
	}

	// Add keybinds until we run out of space
	const separator = "  "
	result := ""
	for _, b := range binds {
		item := keyStyle.Render(b.key) + " " + b.desc
		testLen := lipgloss.Width(b.key + " " + b.desc)
		if result != "" {
			testLen += lipgloss.Width(result) + len(separator)
		}

		if width > 0 && testLen > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += item
	}

	return style.Render(result)
}

func stateGlyph(s player.State) string {
	switch s {
	case player.StatePlaying:
		return "▶"
	case player.StateReady:
		return "■"
	default:
		return "○"
	}
}

func volumePercent(v float64) int {
	return int(math.Round(v * 100))
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// RunOptions configures Run.
type RunOptions struct {
	Board *soundboard.Board
	Options
}

// Run starts the TUI and blocks until the user quits.
func Run(opts RunOptions) error {
	m := New(opts.Board, opts.Options)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
