package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seplag/discoteca/internal/album"
	"github.com/seplag/discoteca/internal/api"
	"github.com/seplag/discoteca/internal/artist"
	"github.com/seplag/discoteca/internal/auth"
	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/notify"
	"github.com/seplag/discoteca/internal/observable"
	"github.com/seplag/discoteca/internal/realtime"
	"github.com/seplag/discoteca/internal/regional"
	"github.com/seplag/discoteca/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
	StateConfirmLogout
)

// Tab is one of the top-level lists
type Tab int

const (
	TabArtists Tab = iota
	TabAlbums
	TabRegionals
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabAlbums:
		return "Albums"
	case TabRegionals:
		return "Regionals"
	default:
		return "Artists"
	}
}

// Buffer for each observable bridged into the program
const bridgeBuffer = 16

// Services holds the facades the TUI drives
type Services struct {
	Artists   *artist.Service
	Albums    *album.Service
	Regionals *regional.Service
	Auth      *auth.Service
	Realtime  *realtime.Channel // may be nil
	Toasts    *notify.Center    // may be nil
}

type pageInfo struct {
	page          int
	totalPages    int
	totalElements int
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool
	Tab   Tab

	// LoggedOut and Expired tell the caller why the program ended
	LoggedOut bool
	Expired   bool

	svc Services

	// UI Components
	tables      [tabCount]table.Model
	spinner     spinner.Model
	filterInput textinput.Model
	filtering   bool
	filters     [tabCount]string
	visible     [tabCount][]int
	loaded      [tabCount]bool

	// Data
	artists     []domain.Artist
	artistQuery domain.ArtistQuery
	artistPage  pageInfo
	albums      []domain.Album
	albumQuery  domain.ListQuery
	albumPage   pageInfo
	albumArtist *domain.Artist // Set when the album list is scoped to one artist
	regionals   []domain.Regional

	// Dimensions
	Width  int
	Height int

	// UI state
	pending    int
	toast      *notify.Toast
	conn       realtime.State
	loggingOut bool

	// Bridged observables
	stop          context.CancelFunc
	toasts        <-chan notify.Toast
	conns         <-chan realtime.State
	notifications <-chan domain.Notification
	session       <-chan bool
}

// NewModel creates a new application model. Observables are bridged into the
// program until the model quits.
func NewModel(svc Services, pageSize int) Model {
	ctx, stop := context.WithCancel(context.Background())

	m := Model{
		State:       StateBrowsing,
		svc:         svc,
		pending:     1, // Init loads the artists
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle)),
		filterInput: newFilterInput(),
		stop:        stop,
		session:     observable.Chan[bool](ctx, svc.Auth.Authenticated(), bridgeBuffer),
	}
	m.artistQuery.Size = pageSize
	m.albumQuery.Size = pageSize
	for i := range m.tables {
		m.tables[i] = newTable(Tab(i))
	}

	if svc.Toasts != nil {
		m.toasts = observable.Chan[notify.Toast](ctx, svc.Toasts.Toasts(), bridgeBuffer)
	}
	if svc.Realtime != nil {
		m.conns = observable.Chan[realtime.State](ctx, svc.Realtime.State(), bridgeBuffer)
		m.notifications = observable.Chan[domain.Notification](ctx, svc.Realtime.Notifications(), bridgeBuffer)
	}
	return m
}

func newFilterInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = styles.FilterPromptStyle.Render("/ ")
	ti.Placeholder = "filter this page"
	ti.CharLimit = 64
	return ti
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadArtistsCmd(m.svc.Artists, m.artistQuery),
		m.spinner.Tick,
		TickCmd(time.Second),
		m.listenToasts(),
		m.listenConns(),
		m.listenNotifications(),
		m.listenSession(),
	)
}

func (m Model) listenToasts() tea.Cmd {
	return waitFor(m.toasts, func(t notify.Toast) tea.Msg { return ToastMsg{Toast: t} })
}

func (m Model) listenConns() tea.Cmd {
	return waitFor(m.conns, func(s realtime.State) tea.Msg { return ConnStateMsg{State: s} })
}

func (m Model) listenNotifications() tea.Cmd {
	return waitFor(m.notifications, func(n domain.Notification) tea.Msg { return NotificationMsg{Notification: n} })
}

func (m Model) listenSession() tea.Cmd {
	return waitFor(m.session, func(v bool) tea.Msg { return SessionMsg{Authenticated: v} })
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.toast != nil && m.toast.Expired(time.Now()) {
			m.toast = nil
		}
		return m, TickCmd(time.Second)

	case ArtistsLoadedMsg:
		m.finishLoad()
		if msg.Query != m.artistQuery {
			// superseded by a newer request
			return m, nil
		}
		m.loaded[TabArtists] = true
		m.artists = msg.Page.Content
		m.artistPage = pageInfo{page: msg.Query.Page, totalPages: msg.Page.TotalPages, totalElements: msg.Page.TotalElements}
		m.refreshRows(TabArtists)
		return m, nil

	case AlbumsLoadedMsg:
		m.finishLoad()
		if msg.ArtistID != m.albumArtistID() || msg.Query != m.albumQuery {
			// superseded by a newer request
			return m, nil
		}
		m.loaded[TabAlbums] = true
		m.albums = msg.Page.Content
		m.albumPage = pageInfo{page: msg.Query.Page, totalPages: msg.Page.TotalPages, totalElements: msg.Page.TotalElements}
		m.refreshRows(TabAlbums)
		return m, nil

	case RegionalsLoadedMsg:
		m.finishLoad()
		m.loaded[TabRegionals] = true
		m.regionals = msg.Regionals
		m.refreshRows(TabRegionals)
		if msg.Synced {
			m.showToast(notify.LevelInfo, "Regionals synchronized")
		}
		return m, nil

	case ErrMsg:
		m.finishLoad()
		if !api.IsSurfaced(msg.Err) {
			m.showToast(notify.LevelError, msg.Context+": "+api.ErrorMessage(msg.Err, ""))
		}
		return m, nil

	case ToastMsg:
		t := msg.Toast
		m.toast = &t
		return m, m.listenToasts()

	case ConnStateMsg:
		m.conn = msg.State
		return m, m.listenConns()

	case NotificationMsg:
		var reload tea.Cmd
		n := msg.Notification
		switch {
		case n.IsArtist() && m.Tab == TabArtists:
			reload = m.load(TabArtists)
		case n.IsAlbum() && m.Tab == TabAlbums:
			reload = m.load(TabAlbums)
		}
		return m, tea.Batch(reload, m.listenNotifications())

	case SessionMsg:
		if !msg.Authenticated && !m.loggingOut {
			m.Expired = true
			m.stop()
			return m, tea.Quit
		}
		return m, m.listenSession()

	case LoggedOutMsg:
		m.LoggedOut = true
		m.stop()
		return m, tea.Quit
	}

	return m, nil
}

// load issues the list request for a tab with its current query
func (m *Model) load(tab Tab) tea.Cmd {
	var cmd tea.Cmd
	switch tab {
	case TabArtists:
		cmd = LoadArtistsCmd(m.svc.Artists, m.artistQuery)
	case TabAlbums:
		cmd = LoadAlbumsCmd(m.svc.Albums, m.albumArtistID(), m.albumQuery)
	case TabRegionals:
		cmd = LoadRegionalsCmd(m.svc.Regionals)
	}
	return m.startLoad(cmd)
}

func (m *Model) startLoad(cmd tea.Cmd) tea.Cmd {
	m.pending++
	if m.pending == 1 {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

func (m *Model) finishLoad() {
	if m.pending > 0 {
		m.pending--
	}
}

func (m *Model) showToast(level notify.Level, msg string) {
	m.toast = &notify.Toast{Level: level, Message: msg, At: time.Now(), Duration: notify.DefaultDuration}
}

func (m Model) albumArtistID() int64 {
	if m.albumArtist == nil {
		return 0
	}
	return m.albumArtist.ID
}

// Loading reports whether any request is in flight
func (m Model) Loading() bool {
	return m.pending > 0
}
