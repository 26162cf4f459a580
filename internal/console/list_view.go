package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dennisdiepolder/monti/opsdash/internal/listing"
	"github.com/dennisdiepolder/monti/opsdash/internal/viewstate"
)

// listView is the console rendering of one tabular section. It owns the
// section's search, facet and page state, which survive switching away.
type listView[T any] struct {
	section viewstate.Section
	list    *listing.List[T]
	facets  []string
	row     func(T) table.Row
	table   table.Model
	search  textinput.Model

	loading  bool
	loadedAt time.Time
	err      string
}

func newListView[T any](
	section viewstate.Section,
	fields func(T) []string,
	facet func(T) string,
	facets []string,
	columns []table.Column,
	row func(T) table.Row,
) *listView[T] {
	list := listing.NewList(section.PageSize(), fields)
	if facet != nil {
		list.WithFacet(facet)
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 64
	search.Width = 32
	search.Cursor.SetMode(cursor.CursorStatic)

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(section.PageSize()+1),
		table.WithFocused(true),
		table.WithStyles(tableStyles()),
	)

	v := &listView[T]{
		section: section,
		list:    list,
		facets:  facets,
		row:     row,
		table:   t,
		search:  search,
	}
	v.sync()
	return v
}

// setItems replaces the collection; term, facet and page are kept
func (v *listView[T]) setItems(items []T, at time.Time) {
	v.list.SetItems(items)
	v.loading = false
	v.loadedAt = at
	v.err = ""
	v.sync()
}

// fail records a load error; the previously loaded rows stay visible
func (v *listView[T]) fail(msg string) {
	v.loading = false
	v.err = msg
}

func (v *listView[T]) loaded() bool {
	return !v.loadedAt.IsZero()
}

func (v *listView[T]) current() listing.View[T] {
	return v.list.View()
}

// selected returns the item under the table cursor on the current page
func (v *listView[T]) selected() (T, bool) {
	var zero T
	items := v.current().Items
	i := v.table.Cursor()
	if i < 0 || i >= len(items) {
		return zero, false
	}
	return items[i], true
}

func (v *listView[T]) searching() bool {
	return v.search.Focused()
}

func (v *listView[T]) focusSearch() {
	v.search.Focus()
}

func (v *listView[T]) blurSearch() {
	v.search.Blur()
}

// clearSearch drops the term and returns to the first page
func (v *listView[T]) clearSearch() {
	v.search.SetValue("")
	v.search.Blur()
	v.list.SetTerm("")
	v.sync()
}

// updateSearch feeds a key to the search field and applies the new term
func (v *listView[T]) updateSearch(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	v.list.SetTerm(v.search.Value())
	v.sync()
	return cmd
}

// cycleFacet advances to the next status facet; no-op without facets
func (v *listView[T]) cycleFacet() {
	if len(v.facets) == 0 {
		return
	}
	next := v.facets[0]
	for i, f := range v.facets {
		if f == v.list.Facet() {
			next = v.facets[(i+1)%len(v.facets)]
			break
		}
	}
	v.list.SetFacet(next)
	v.sync()
}

func (v *listView[T]) nextPage() {
	v.list.Next()
	v.sync()
}

func (v *listView[T]) prevPage() {
	v.list.Prev()
	v.sync()
}

func (v *listView[T]) moveUp()   { v.table.MoveUp(1) }
func (v *listView[T]) moveDown() { v.table.MoveDown(1) }

// sync rebuilds the table rows from the current page
func (v *listView[T]) sync() {
	page := v.current()
	rows := make([]table.Row, 0, len(page.Items))
	for _, item := range page.Items {
		rows = append(rows, v.row(item))
	}
	v.table.SetRows(rows)
	if c := v.table.Cursor(); c >= len(rows) || c < 0 {
		v.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (v *listView[T]) render(width int) string {
	var b strings.Builder

	b.WriteString(v.search.View())
	if len(v.facets) > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("   status: %s", v.list.Facet())))
	}
	b.WriteString("\n\n")

	page := v.current()
	switch {
	case !v.loaded() && v.err != "":
		b.WriteString(errorStyle.Render(v.err))
		return b.String()
	case !v.loaded():
		b.WriteString(dimStyle.Render("Loading " + strings.ToLower(v.section.Title()) + "..."))
		return b.String()
	case page.Total == 0:
		b.WriteString(dimStyle.Render(emptyText(v.list.Term() != "" || v.list.Facet() != listing.FacetAll)))
	default:
		b.WriteString(v.table.View())
	}
	b.WriteString("\n")
	b.WriteString(renderPager(page.From, page.To, page.Total, page.Page, page.PageCount, page.Window))
	if v.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(v.err))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

func emptyText(filtered bool) string {
	if filtered {
		return "No matching entries"
	}
	return "Nothing here yet"
}

// renderPager shows "Showing a–b of n" and the page jump targets, or
// "page n of N" once the window collapses
func renderPager(from, to, total, page, pageCount int, w listing.Window) string {
	parts := []string{fmt.Sprintf("Showing %d–%d of %d", from, to, total)}

	prev := dimStyle.Render("‹")
	if w.HasPrev {
		prev = "‹"
	}
	parts = append(parts, prev)

	if w.Collapsed {
		parts = append(parts, fmt.Sprintf("page %d of %d", page, pageCount))
	} else {
		for _, p := range w.Pages {
			label := fmt.Sprintf("%d", p)
			if p == page {
				label = activeTabStyle.Render(label)
			} else {
				label = dimStyle.Render(label)
			}
			parts = append(parts, label)
		}
	}

	next := dimStyle.Render("›")
	if w.HasNext {
		next = "›"
	}
	parts = append(parts, next)
	return strings.Join(parts, " ")
}
