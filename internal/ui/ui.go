package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/onehit/internal/formatter"
	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
	"github.com/desertthunder/onehit/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueryView ViewState = iota
	DiscoverView
	ResultView
)

// Engine is the discovery surface the TUI drives. [tasks.DiscoveryEngine] implements it.
type Engine interface {
	DiscoverQuery(ctx context.Context, query string, progress chan<- tasks.ProgressUpdate) (*tasks.Discovery, error)
	SaveHits(ctx context.Context, hits []models.Hit) error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	view     ViewState
	engine   Engine
	width    int
	height   int
	input    textinput.Model
	spinner  spinner.Model
	bar      progress.Model
	hitList  list.Model
	hits     []models.Hit
	query    string
	progress tasks.ProgressUpdate
	checked  int
	total    int
	outcome  tasks.Outcome
	saved    bool
	status   string
	err      error
	help     help.Model
	keys     keyMap
	openURL  func(string) error

	progressChan chan tasks.ProgressUpdate
	hitChan      chan models.Hit
	doneChan     chan Msg
}

// NewModel creates a new TUI model. A non-empty query starts discovering immediately.
func NewModel(ctx context.Context, engine Engine, query string) *Model {
	ti := textinput.New()
	ti.Placeholder = "artist or tag, e.g. nena or synthpop"
	ti.CharLimit = 200
	ti.Width = 50
	ti.SetValue(query)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:     ctx,
		view:    QueryView,
		engine:  engine,
		input:   ti,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		query:   strings.TrimSpace(query),
		help:    help.New(),
		keys:    newKeyMap(),
		openURL: shared.OpenBrowser,
	}
}

// Init starts the cursor blink, or the discovery when a query was given.
func (m *Model) Init() tea.Cmd {
	if m.query != "" {
		return tea.Batch(m.spinner.Tick, m.startDiscovery(m.query))
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-20, 20), 80)
		if m.view == ResultView {
			m.hitList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueryView:
			return m.handleQueryKeys(msg)
		case DiscoverView:
			return m.handleDiscoverKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != DiscoverView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateChildren(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		switch update.Phase {
		case tasks.ResolveCandidates:
			m.total = update.Total
		case tasks.CheckArtist:
			m.checked = max(m.checked, update.Step)
			m.total = update.Total
		}
		return m, m.listen()

	case MsgHitFound:
		m.hits = append(m.hits, msg.data.(models.Hit))
		return m, m.listen()

	case MsgDiscoveryComplete:
		result := msg.data.(discoveryResult)
		m.finishDiscovery()
		m.err = result.err
		m.outcome = result.outcome
		if result.hits != nil {
			m.hits = result.hits
		}
		m.hitList = list.New(hitItems(m.hits), list.NewDefaultDelegate(), 0, 0)
		m.hitList.Title = fmt.Sprintf("One-hit wonders for %q", m.query)
		m.hitList.SetSize(max(m.width-4, 20), max(m.height-8, 10))
		m.view = ResultView
		return m, nil

	case MsgHitsSaved:
		if err := errData(msg); err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Save failed: %v", err))
		} else {
			m.saved = true
			m.status = styles.ok.Render(fmt.Sprintf("✓ Saved %d hits to the playlist", len(m.hits)))
		}
		return m, nil

	case MsgBrowserOpened:
		if err := errData(msg); err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("Could not open browser: %v", err))
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.query = query
		return m, tea.Batch(m.spinner.Tick, m.startDiscovery(query))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleDiscoverKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.stopDiscovery()
		return m, tea.Quit
	case key.Matches(msg, m.keys.stop):
		m.stopDiscovery()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.hitList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.hitList, cmd = m.hitList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.reset()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.save):
		if m.saved || len(m.hits) == 0 {
			return m, nil
		}
		return m, m.saveHits()
	case key.Matches(msg, m.keys.open):
		if item, ok := m.hitList.SelectedItem().(hitItem); ok {
			return m, m.openVideo(item.hit)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.hitList, cmd = m.hitList.Update(msg)
	return m, cmd
}

func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case QueryView:
		m.input, cmd = m.input.Update(msg)
	case ResultView:
		m.hitList, cmd = m.hitList.Update(msg)
	}
	return m, cmd
}

// startDiscovery runs the discovery in the background and returns the command that waits for its first event.
func (m *Model) startDiscovery(query string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.view = DiscoverView
	m.hits = nil
	m.checked, m.total = 0, 0
	m.progress = tasks.ProgressUpdate{Message: fmt.Sprintf("Resolving %q...", query)}
	m.err = nil
	m.status = ""
	m.saved = false

	progressChan := make(chan tasks.ProgressUpdate, 50)
	hitChan := make(chan models.Hit, 16)
	doneChan := make(chan Msg, 1)
	m.progressChan, m.hitChan, m.doneChan = progressChan, hitChan, doneChan

	go func() {
		d, err := m.engine.DiscoverQuery(ctx, query, progressChan)
		if err != nil {
			doneChan <- discoveryCompleteMsg(nil, tasks.Cancelled, err)
			return
		}
		for h := range d.Hits() {
			select {
			case hitChan <- h:
			case <-ctx.Done():
			}
		}
		doneChan <- discoveryCompleteMsg(d.Collected(), d.Outcome(), nil)
	}()

	return m.listen()
}

// listen waits for the next progress update, hit or completion of the running discovery.
//
// Completion carries every delivered hit, so hits still buffered when it arrives are not lost.
func (m *Model) listen() tea.Cmd {
	progressChan, hitChan, doneChan := m.progressChan, m.hitChan, m.doneChan
	if doneChan == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-progressChan:
			return progressUpdateMsg(update)
		case h := <-hitChan:
			return hitFoundMsg(h)
		case msg := <-doneChan:
			return msg
		}
	}
}

func (m *Model) stopDiscovery() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) finishDiscovery() {
	m.stopDiscovery()
	m.progressChan, m.hitChan, m.doneChan = nil, nil, nil
}

func (m *Model) reset() {
	m.view = QueryView
	m.hits = nil
	m.err = nil
	m.status = ""
	m.saved = false
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) saveHits() tea.Cmd {
	hits := m.hits
	return func() tea.Msg {
		return hitsSavedMsg(m.engine.SaveHits(m.ctx, hits))
	}
}

func (m *Model) openVideo(h models.Hit) tea.Cmd {
	open := m.openURL
	return func() tea.Msg {
		return browserOpenedMsg(open(formatter.WatchURL(h.YoutubeID)))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case QueryView:
		return m.renderQuery()
	case DiscoverView:
		return m.renderDiscover()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderQuery() string {
	title := styles.title.Render("Find one-hit wonders")
	quit := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.search, quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderDiscover() string {
	title := styles.title.Render(fmt.Sprintf("Discovering hits for %q", m.query))

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.checked) / float64(m.total)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s %s\n", title, m.spinner.View(), m.progress.Message)
	fmt.Fprintf(&b, "%s %d/%d artists\n\n", m.bar.ViewAs(percent), m.checked, m.total)
	for _, h := range m.hits {
		fmt.Fprintf(&b, "  %s %s\n", styles.ok.Render("♪"), h.Name)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.stop, m.keys.quit})
	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Discovery failed: %v", m.err)), helpView)
	}

	summary := styles.help.Render(fmt.Sprintf("%d hits, discovery %s", len(m.hits), m.outcome))
	if len(m.hits) == 0 {
		summary = styles.warn.Render(fmt.Sprintf("No hits found (discovery %s)", m.outcome))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.open, m.keys.save, m.keys.restart, m.keys.quit})
	body := summary
	if len(m.hits) > 0 {
		body = fmt.Sprintf("%s\n%s", m.hitList.View(), summary)
	}
	if m.status != "" {
		body = fmt.Sprintf("%s\n%s", body, m.status)
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}
