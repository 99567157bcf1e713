package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seplag/discoteca/internal/domain"
)

// handleKeyMsg routes key presses by application state
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			m.loggingOut = true
			return m, LogoutCmd(m.svc.Auth, m.svc.Realtime)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		m.stop()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Logout):
		m.State = StateConfirmLogout
		return m, nil

	case key.Matches(msg, Keys.NextTab):
		return m.switchTab((m.Tab + 1) % tabCount)

	case key.Matches(msg, Keys.PrevTab):
		return m.switchTab((m.Tab + tabCount - 1) % tabCount)

	case key.Matches(msg, Keys.NextPage):
		return m.changePage(1)

	case key.Matches(msg, Keys.PrevPage):
		return m.changePage(-1)

	case key.Matches(msg, Keys.ToggleOrder):
		switch m.Tab {
		case TabArtists:
			m.artistQuery.Direction = m.artistQuery.Direction.Toggle()
			m.artistQuery.Page = 0
		case TabAlbums:
			m.albumQuery.Direction = m.albumQuery.Direction.Toggle()
			m.albumQuery.Page = 0
		default:
			return m, nil
		}
		return m, m.load(m.Tab)

	case key.Matches(msg, Keys.Reload):
		switch m.Tab {
		case TabArtists:
			m.svc.Artists.InvalidateCache()
		case TabAlbums:
			m.svc.Albums.InvalidateCache()
		case TabRegionals:
			m.svc.Regionals.InvalidateCache()
		}
		return m, m.load(m.Tab)

	case key.Matches(msg, Keys.Sync):
		if m.Tab != TabRegionals {
			return m, nil
		}
		return m, m.startLoad(SyncRegionalsCmd(m.svc.Regionals))

	case key.Matches(msg, Keys.Filter):
		m.filtering = true
		m.filterInput.SetValue(m.filters[m.Tab])
		m.updateLayout()
		cmd := m.filterInput.Focus()
		return m, cmd

	case key.Matches(msg, Keys.Escape):
		if m.filters[m.Tab] != "" {
			m.setFilter("")
			return m, nil
		}
		if m.Tab == TabAlbums && m.albumArtist != nil {
			m.albumArtist = nil
			m.albumQuery.Page = 0
			return m, m.load(TabAlbums)
		}
		return m, nil

	case key.Matches(msg, Keys.Enter):
		if m.Tab != TabArtists {
			return m, nil
		}
		a, ok := m.selectedArtist()
		if !ok {
			return m, nil
		}
		m.albumArtist = &a
		m.albumQuery.Page = 0
		m.filters[TabAlbums] = ""
		m.Tab = TabAlbums
		m.updateLayout()
		return m, m.load(TabAlbums)
	}

	var cmd tea.Cmd
	m.tables[m.Tab], cmd = m.tables[m.Tab].Update(msg)
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filterInput.Blur()
		m.setFilter("")
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filterInput.Blur()
		m.updateLayout()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.setFilter(m.filterInput.Value())
	return m, cmd
}

func (m *Model) setFilter(q string) {
	m.filters[m.Tab] = q
	m.refreshRows(m.Tab)
	m.updateLayout()
}

func (m Model) switchTab(tab Tab) (tea.Model, tea.Cmd) {
	m.Tab = tab
	m.updateLayout()
	if !m.loaded[tab] {
		return m, m.load(tab)
	}
	return m, nil
}

// changePage moves the current tab by delta pages within the known range
func (m Model) changePage(delta int) (tea.Model, tea.Cmd) {
	var (
		q    *domain.ListQuery
		info pageInfo
	)
	switch m.Tab {
	case TabArtists:
		q, info = &m.artistQuery.ListQuery, m.artistPage
	case TabAlbums:
		q, info = &m.albumQuery, m.albumPage
	default:
		return m, nil
	}

	next := q.Page + delta
	if next < 0 || (info.totalPages > 0 && next >= info.totalPages) {
		return m, nil
	}
	q.Page = next
	return m, m.load(m.Tab)
}

func (m Model) selectedArtist() (domain.Artist, bool) {
	idx := m.visible[TabArtists]
	cur := m.tables[TabArtists].Cursor()
	if cur < 0 || cur >= len(idx) {
		return domain.Artist{}, false
	}
	return m.artists[idx[cur]], true
}
