package tui

import (
	"github.com/charmbracelet/bubbles/table"

	"github.com/seplag/discoteca/internal/tui/styles"
)

// Vertical chrome: tab bar, blank line, footer
const ChromeHeight = 3

const MinColumnWidth = 6

// Column proportions per tab, in percent of the usable width
var columnPercents = [tabCount][]int{
	TabArtists:   {8, 40, 14, 26, 12},
	TabAlbums:    {8, 46, 34, 12},
	TabRegionals: {10, 60, 30},
}

var columnTitles = [tabCount][]string{
	TabArtists:   {"ID", "Name", "Type", "Genre", "Albums"},
	TabAlbums:    {"ID", "Title", "Artist", "Year"},
	TabRegionals: {"ID", "Name", "Status"},
}

func newTable(tab Tab) table.Model {
	t := table.New(
		table.WithColumns(columnsFor(tab, 80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = styles.HeaderStyle
	s.Selected = styles.SelectedRowStyle
	t.SetStyles(s)
	return t
}

func columnsFor(tab Tab, width int) []table.Column {
	titles := columnTitles[tab]
	percents := columnPercents[tab]
	// each cell carries one space of padding on both sides
	usable := width - 2*len(titles)
	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		w := usable * percents[i] / 100
		if w < MinColumnWidth {
			w = MinColumnWidth
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

// updateLayout sizes every table to the window
func (m *Model) updateLayout() {
	if m.Width == 0 {
		return
	}
	height := m.Height - ChromeHeight
	if m.filtering || m.filters[m.Tab] != "" {
		height--
	}
	if height < 3 {
		height = 3
	}
	for i := range m.tables {
		m.tables[i].SetColumns(columnsFor(Tab(i), m.Width))
		m.tables[i].SetWidth(m.Width)
		m.tables[i].SetHeight(height)
	}
	m.filterInput.Width = m.Width - 4
}
