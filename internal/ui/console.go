package ui

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/catalog"
	"github.com/chukul/daintree/internal/log"
	"github.com/chukul/daintree/internal/notify"
	"github.com/chukul/daintree/internal/resource"
	"github.com/chukul/daintree/internal/router"
)

const (
	defaultTick    = time.Second
	maxColumnWidth = 40
)

// ErrSessionEnded is returned by RunConsole when the console closed because
// the credentials expired or were dropped.
var ErrSessionEnded = errors.New("session expired, run 'daintree login'")

// Session is the part of the auth store the console follows.
type Session interface {
	IsLoggedIn() bool
	PrettyCredentials() string
	Regions() []string
	OnRoleChange(fn func())
	OnRegionsChange(fn func([]string))
}

// ConsoleOptions wires a Console.
type ConsoleOptions struct {
	Entries []catalog.Entry
	// Start is the index into Entries shown first.
	Start int
	// NewEngine builds the engine for an entry. The console shuts it down
	// when switching away.
	NewEngine     func(catalog.Entry) *resource.Engine
	Session       Session
	Notifications *notify.Store
	Activity      *resource.Activity
	// Router, when set, is sent to the login view once the session ends.
	Router *router.Router
	Tick   time.Duration
}

// RoleChangedMsg tells the console the active credentials changed.
type RoleChangedMsg struct{}

// RegionsChangedMsg tells the console the enabled regions changed.
type RegionsChangedMsg struct {
	Regions []string
}

type engineMsg struct {
	event resource.Event
}

type notificationsMsg struct {
	items []notify.Notification
}

type tickMsg time.Time

// Console is the interactive list view over one resource type at a time.
type Console struct {
	opts    ConsoleOptions
	send    func(tea.Msg)
	current int
	engine  *resource.Engine

	table     table.Model
	filter    textinput.Model
	filtering bool
	keys      []string
	spinner   spinner.Model
	notes     []notify.Notification
	width     int
	height    int
	quitting  bool
	ended     bool
}

// NewConsole builds the model. send delivers asynchronous updates back into
// the program without blocking, or is nil to drop them.
func NewConsole(opts ConsoleOptions, send func(tea.Msg)) *Console {
	if opts.Tick <= 0 {
		opts.Tick = defaultTick
	}
	if opts.Activity == nil {
		opts.Activity = resource.NewActivity()
	}
	if opts.Notifications == nil {
		opts.Notifications = notify.NewStore()
	}
	if send == nil {
		send = func(tea.Msg) {}
	}
	if opts.Start < 0 || opts.Start >= len(opts.Entries) {
		opts.Start = 0
	}

	fi := textinput.New()
	fi.Prompt = "/"
	fi.Placeholder = "filter"

	t := table.New(table.WithFocused(true), table.WithHeight(15))
	s := table.DefaultStyles()
	s.Selected = selectedStyle
	t.SetStyles(s)

	c := &Console{
		opts:    opts,
		send:    send,
		current: -1,
		table:   t,
		filter:  fi,
		spinner: newSpinner(),
		notes:   opts.Notifications.List(),
	}
	opts.Notifications.Subscribe(func(items []notify.Notification) {
		c.send(notificationsMsg{items: items})
	})
	if opts.Session != nil {
		opts.Session.OnRoleChange(func() {
			c.send(RoleChangedMsg{})
		})
		opts.Session.OnRegionsChange(func(regions []string) {
			c.send(RegionsChangedMsg{Regions: regions})
		})
	}
	if len(opts.Entries) > 0 {
		c.show(opts.Start)
	}
	return c
}

// RunConsole runs the console until the user quits.
func RunConsole(opts ConsoleOptions) error {
	var prog atomic.Pointer[tea.Program]
	c := NewConsole(opts, func(msg tea.Msg) {
		// Engines and the store notify synchronously, often from inside
		// Update, so delivery must not block the event loop.
		if p := prog.Load(); p != nil {
			go p.Send(msg)
		}
	})
	p := tea.NewProgram(c, tea.WithAltScreen())
	prog.Store(p)
	_, err := p.Run()
	c.Close()
	if err == nil && c.ended {
		err = ErrSessionEnded
	}
	return err
}

// Ended reports whether the console quit because the session ended.
func (c *Console) Ended() bool {
	return c.ended
}

// Close shuts the current engine down.
func (c *Console) Close() {
	if c.engine != nil {
		c.engine.Shutdown()
		c.engine = nil
	}
}

// Entry returns the entry on screen.
func (c *Console) Entry() catalog.Entry {
	return c.opts.Entries[c.current]
}

// Engine returns the engine behind the current entry.
func (c *Console) Engine() *resource.Engine {
	return c.engine
}

func (c *Console) show(index int) {
	n := len(c.opts.Entries)
	index = ((index % n) + n) % n
	if index == c.current {
		return
	}
	c.Close()
	c.current = index
	entry := c.opts.Entries[index]
	log.WithField("resource", entry.Name).Debugf("showing %s", entry.Route.Path)

	e := c.opts.NewEngine(entry)
	e.Subscribe(func(ev resource.Event) {
		c.send(engineMsg{event: ev})
	})
	c.engine = e

	c.table.SetRows(nil)
	c.table.SetColumns(c.columns(nil))
	if c.opts.Session != nil {
		e.SetRegions(c.opts.Session.Regions())
	}
	c.rebuild()
}

func (c *Console) Init() tea.Cmd {
	return tea.Batch(c.spinner.Tick, c.tick())
}

func (c *Console) tick() tea.Cmd {
	return tea.Tick(c.opts.Tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (c *Console) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		c.table.SetHeight(max(msg.Height-8, 3))
		return c, nil

	case tickMsg:
		c.rebuild()
		return c, c.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd

	case engineMsg:
		if msg.event.Kind == resource.Failed {
			log.WithError(msg.event.Err).Debugf("fetch failed in %s", msg.event.Region)
		}
		c.rebuild()
		return c, nil

	case notificationsMsg:
		c.notes = msg.items
		return c, nil

	case RoleChangedMsg:
		if c.opts.Session != nil && !c.opts.Session.IsLoggedIn() {
			return c.endSession()
		}
		if c.engine != nil {
			c.engine.ResetForRole()
		}
		c.rebuild()
		return c, nil

	case RegionsChangedMsg:
		if c.engine != nil {
			c.engine.SetRegions(msg.Regions)
		}
		c.rebuild()
		return c, nil

	case tea.KeyMsg:
		if c.filtering {
			return c.updateFilter(msg)
		}
		return c.updateKeys(msg)
	}
	return c, nil
}

// endSession leaves the console for the login view. Nothing is fetched
// without credentials.
func (c *Console) endSession() (tea.Model, tea.Cmd) {
	if c.ended {
		return c, nil
	}
	log.Infof("session ended, closing the console")
	c.Close()
	if c.opts.Router != nil {
		c.opts.Router.Push(router.LoginPath, nil)
	}
	c.ended = true
	c.quitting = true
	return c, tea.Quit
}

func (c *Console) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		c.quitting = true
		return c, tea.Quit
	case tea.KeyEsc:
		c.filter.SetValue("")
		c.filtering = false
		c.filter.Blur()
		c.rebuild()
		return c, nil
	case tea.KeyEnter:
		c.filtering = false
		c.filter.Blur()
		return c, nil
	}
	var cmd tea.Cmd
	c.filter, cmd = c.filter.Update(msg)
	c.rebuild()
	return c, cmd
}

func (c *Console) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		c.quitting = true
		return c, tea.Quit
	case "/":
		c.filtering = true
		return c, c.filter.Focus()
	case "esc":
		if c.engine != nil && c.engine.DrawerOpen() {
			c.engine.CloseDrawer()
		}
		return c, nil
	case "enter":
		if key := c.selectedKey(); key != "" && c.engine != nil {
			c.engine.Select(key)
		}
		return c, nil
	case "r":
		if c.engine != nil {
			c.engine.Refresh()
		}
		return c, nil
	case "]":
		c.show(c.current + 1)
		return c, nil
	case "[":
		c.show(c.current - 1)
		return c, nil
	case "x":
		if n := len(c.notes); n > 0 {
			c.opts.Notifications.Dismiss(n - 1)
			c.notes = c.opts.Notifications.List()
		}
		return c, nil
	}

	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	return c, cmd
}

func (c *Console) selectedKey() string {
	i := c.table.Cursor()
	if i < 0 || i >= len(c.keys) {
		return ""
	}
	return c.keys[i]
}

// rebuild refreshes the table rows from the engine, applying the filter.
func (c *Console) rebuild() {
	if c.engine == nil {
		return
	}
	entry := c.Entry()
	all := c.engine.Resources()

	cells := make([][]string, len(all))
	lines := make([]string, len(all))
	for i, r := range all {
		row := make([]string, 0, len(entry.Columns)+1)
		for _, col := range entry.Columns {
			row = append(row, col.Value(r))
		}
		row = append(row, r.Region)
		cells[i] = row
		lines[i] = strings.Join(row, " ")
	}

	visible := fuzzyFilter(c.filter.Value(), lines)
	rows := make([]table.Row, 0, len(visible))
	keys := make([]string, 0, len(visible))
	for _, idx := range visible {
		rows = append(rows, table.Row(cells[idx]))
		keys = append(keys, all[idx].Key)
	}

	selected := c.selectedKey()
	c.table.SetRows(nil)
	c.table.SetColumns(c.columns(rows))
	c.table.SetRows(rows)
	c.keys = keys
	for i, k := range keys {
		if k == selected {
			c.table.SetCursor(i)
			break
		}
	}
}

func (c *Console) columns(rows []table.Row) []table.Column {
	entry := c.Entry()
	headers := make([]string, 0, len(entry.Columns)+1)
	for _, col := range entry.Columns {
		headers = append(headers, col.Header)
	}
	headers = append(headers, "REGION")

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		w := lipgloss.Width(h)
		for _, row := range rows {
			if i < len(row) {
				w = max(w, lipgloss.Width(row[i]))
			}
		}
		cols[i] = table.Column{Title: h, Width: min(w, maxColumnWidth)}
	}
	return cols
}

func (c *Console) View() string {
	if c.quitting {
		return ""
	}
	if c.engine == nil {
		return emptyTextStyle.Render("No resource types.") + "\n"
	}
	var b strings.Builder
	b.WriteString(c.header() + "\n\n")

	if c.engine.DrawerOpen() {
		b.WriteString(c.drawer() + "\n")
	} else {
		b.WriteString(c.body() + "\n")
	}

	if c.filtering || c.filter.Value() != "" {
		b.WriteString(c.filter.View() + "\n")
	}
	for _, n := range c.notes {
		b.WriteString(notificationStyle(n.Variant).Render(noteLine(n)) + "\n")
	}
	b.WriteString(helpStyle.Render("enter details  esc close  / filter  r refresh  [ ] type  x dismiss  q quit"))
	return b.String()
}

func (c *Console) header() string {
	entry := c.Entry()
	who := ""
	regions := ""
	if c.opts.Session != nil {
		who = c.opts.Session.PrettyCredentials()
		regions = strings.Join(c.opts.Session.Regions(), ",")
	}
	title := headerStyle.Render(entry.Route.DocumentTitle())

	status := "last refresh " + internal.FormatClock(c.opts.Activity.LastRefresh())
	if c.opts.Activity.LastRefresh().IsZero() {
		status = "never refreshed"
	}
	if c.opts.Activity.Loading() {
		status = c.spinner.View() + " loading"
	}
	return fmt.Sprintf("%s  %s  %s  %s", title, who, helpStyle.Render(regions), helpStyle.Render(status))
}

func (c *Console) body() string {
	if len(c.keys) == 0 {
		if c.engine.Len() == 0 && !c.engine.Loading() {
			style := emptyTextStyle
			if c.width > 0 {
				style = style.Width(max(c.width-4, 40))
			}
			return style.Render(c.engine.EmptyStateDescription())
		}
		if c.engine.Len() > 0 {
			return emptyTextStyle.Render("Nothing matches the filter.")
		}
	}
	return c.table.View()
}

func (c *Console) drawer() string {
	r, ok := c.engine.Selected()
	if !ok {
		return ""
	}
	cfg := c.engine.Config()
	title := titleStyle.Render(cfg.Title(r))
	if state := c.engine.State(r); state != "" {
		title += "  " + helpStyle.Render(state)
	}
	body := r.Pretty()
	if c.height > 0 {
		lines := strings.Split(body, "\n")
		if limit := max(c.height-12, 5); len(lines) > limit {
			body = strings.Join(lines[:limit], "\n") + "\n..."
		}
	}
	return drawerStyle.Render(title + "\n\n" + body)
}

func noteLine(n notify.Notification) string {
	if n.Region != "" {
		return fmt.Sprintf("[%s] %s", n.Region, n.Text)
	}
	return n.Text
}
