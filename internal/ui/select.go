package ui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// Select shows items and returns the index of the chosen one. Typing
// narrows the list with a fuzzy match.
func Select(title string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("nothing to select")
	}
	m := newSelectModel(title, items)

	prog := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := prog.Run()
	if err != nil {
		return -1, err
	}
	if fm, ok := finalModel.(selectModel); ok && fm.chosen >= 0 {
		return fm.chosen, nil
	}
	return -1, ErrCancelled
}

type selectModel struct {
	title   string
	items   []string
	query   string
	visible []int
	cursor  int
	chosen  int
	done    bool
}

func newSelectModel(title string, items []string) selectModel {
	m := selectModel{title: title, items: items, chosen: -1}
	m.visible = fuzzyFilter("", items)
	return m
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.done = true
		return m, tea.Quit
	case tea.KeyEnter:
		if len(m.visible) > 0 {
			m.chosen = m.visible[m.cursor]
		}
		m.done = true
		return m, tea.Quit
	case tea.KeyUp, tea.KeyShiftTab:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown, tea.KeyTab:
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case tea.KeyBackspace:
		if m.query != "" {
			r := []rune(m.query)
			m.setQuery(string(r[:len(r)-1]))
		}
	case tea.KeyRunes, tea.KeySpace:
		m.setQuery(m.query + string(key.Runes))
	}
	return m, nil
}

func (m *selectModel) setQuery(q string) {
	m.query = q
	m.visible = fuzzyFilter(q, m.items)
	m.cursor = 0
}

func (m selectModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render(m.title) + "\n")
	if m.query != "" {
		b.WriteString(helpStyle.Render("filter: "+m.query) + "\n")
	}
	b.WriteString("\n")
	if len(m.visible) == 0 {
		b.WriteString(emptyTextStyle.Render("  no match") + "\n")
	}
	for i, idx := range m.visible {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+m.items[idx]) + "\n")
			continue
		}
		b.WriteString("  " + m.items[idx] + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("type to filter, enter to choose, esc to cancel") + "\n")
	return b.String()
}

// fuzzyFilter returns the indexes of items matching pattern, best match
// first. An empty pattern keeps every item in order.
func fuzzyFilter(pattern string, items []string) []int {
	if strings.TrimSpace(pattern) == "" {
		idx := make([]int, len(items))
		for i := range items {
			idx[i] = i
		}
		return idx
	}
	matches := fuzzy.Find(pattern, items)
	idx := make([]int, 0, len(matches))
	for _, match := range matches {
		idx = append(idx, match.Index)
	}
	return idx
}
