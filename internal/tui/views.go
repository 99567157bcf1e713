package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/seplag/discoteca/internal/notify"
	"github.com/seplag/discoteca/internal/realtime"
	"github.com/seplag/discoteca/internal/tui/styles"
)

// refreshRows rebuilds the rows of a tab from its data and filter
func (m *Model) refreshRows(tab Tab) {
	var titles []string
	switch tab {
	case TabArtists:
		titles = make([]string, len(m.artists))
		for i, a := range m.artists {
			titles[i] = a.Name
		}
	case TabAlbums:
		titles = make([]string, len(m.albums))
		for i, a := range m.albums {
			titles[i] = a.Title + " " + a.ArtistName
		}
	case TabRegionals:
		titles = make([]string, len(m.regionals))
		for i, r := range m.regionals {
			titles[i] = r.Name
		}
	}

	idx := filterIndices(m.filters[tab], titles)
	m.visible[tab] = idx

	rows := make([]table.Row, len(idx))
	for i, j := range idx {
		switch tab {
		case TabArtists:
			a := m.artists[j]
			rows[i] = table.Row{strconv.FormatInt(a.ID, 10), a.Name, a.Type.Label(), a.Genre, strconv.Itoa(a.AlbumCount)}
		case TabAlbums:
			a := m.albums[j]
			rows[i] = table.Row{strconv.FormatInt(a.ID, 10), a.Title, a.ArtistName, a.Year()}
		case TabRegionals:
			r := m.regionals[j]
			rows[i] = table.Row{strconv.FormatInt(r.ID, 10), r.Name, r.Status()}
		}
	}
	m.tables[tab].SetRows(rows)
	if m.tables[tab].Cursor() >= len(rows) {
		m.tables[tab].SetCursor(0)
	}
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmLogout:
		return m.renderLogoutConfirmation()
	}

	parts := []string{m.renderTabs(), m.tables[m.Tab].View()}
	if m.filtering {
		parts = append(parts, m.filterInput.View())
	} else if q := m.filters[m.Tab]; q != "" {
		parts = append(parts, styles.FilterPromptStyle.Render("/ ")+q+styles.DimStyle.Render("  (esc to clear)"))
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderTabs renders the tab bar with the signed-in user on the right
func (m Model) renderTabs() string {
	var tabs []string
	for t := Tab(0); t < tabCount; t++ {
		label := t.String()
		if t == TabAlbums && m.albumArtist != nil {
			label += ": " + styles.Truncate(m.albumArtist.Name, 24)
		}
		if t == m.Tab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	left := strings.Join(tabs, " ")

	var right string
	if u := m.svc.Auth.CurrentUser(); u != nil {
		right = styles.DimStyle.Render(u.Username)
	}
	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter renders a single-line footer: status, paging, connection
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.pending > 0:
		left = m.spinner.View() + " " + styles.DimStyle.Render("Loading...")
	case m.toast != nil:
		left = renderToast(*m.toast)
	}

	center := styles.DimStyle.Render(m.pageSummary())

	right := renderConnState(m.conn) + "  " + styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := m.Width - leftWidth - rightWidth
		if gap < 0 {
			gap = 0
		}
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad
	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

func (m Model) pageSummary() string {
	switch m.Tab {
	case TabArtists:
		return summarize(m.artistPage, string(m.artistQuery.Direction))
	case TabAlbums:
		return summarize(m.albumPage, string(m.albumQuery.Direction))
	default:
		if last := m.svc.Regionals.LastSync().Get(); !last.IsZero() {
			return fmt.Sprintf("%d regionals · updated %s", len(m.regionals), last.Format("15:04:05"))
		}
		return fmt.Sprintf("%d regionals", len(m.regionals))
	}
}

func summarize(info pageInfo, dir string) string {
	if dir == "" {
		dir = "ASC"
	}
	pages := info.totalPages
	if pages == 0 {
		pages = 1
	}
	return fmt.Sprintf("page %d/%d · %d items · %s", info.page+1, pages, info.totalElements, dir)
}

func renderToast(t notify.Toast) string {
	switch t.Level {
	case notify.LevelError:
		return styles.ErrorStyle.Render(t.Message)
	case notify.LevelWarn:
		return styles.WarnStyle.Render(t.Message)
	default:
		return styles.SuccessStyle.Render(t.Message)
	}
}

func renderConnState(s realtime.State) string {
	switch s {
	case realtime.Connected:
		return styles.ConnectedDot + styles.DimStyle.Render(" live")
	case realtime.Connecting:
		return styles.ConnectingDot + styles.DimStyle.Render(" connecting")
	default:
		return styles.DisconnectedDot + styles.DimStyle.Render(" offline")
	}
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      ACTIONS
  j/k        Up/down               r      Reload (drops cache)
  tab/l      Next tab              o      Toggle sort order
  S-tab/h    Previous tab          s      Sync regionals
  n/p        Next/previous page    /      Filter this page
  enter      Albums of artist      L      Logout
  esc        Clear filter/scope    q      Quit

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderLogoutConfirmation renders the logout confirmation modal
func (m Model) renderLogoutConfirmation() string {
	modal := `
              Log Out?

  This will end your session and
  clear the stored credentials.

        [Y] Yes      [N] No
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
