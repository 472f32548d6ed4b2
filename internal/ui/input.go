package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chukul/daintree/internal/notify"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled")

// Prompt describes one line of input.
type Prompt struct {
	Title       string
	Placeholder string
	Secret      bool
	// Validate rejects a value; its error is shown under the input.
	Validate func(string) error
}

// GetInput asks for one value on stderr.
func GetInput(prompt string, placeholder string, password bool) (string, error) {
	return Ask(Prompt{Title: prompt, Placeholder: placeholder, Secret: password})
}

// Ask runs p and returns the entered value.
func Ask(p Prompt) (string, error) {
	ti := textinput.New()
	ti.Placeholder = p.Placeholder
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 60

	if p.Secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}

	m := inputModel{textInput: ti, prompt: p.Title, validate: p.Validate}

	// Use Stderr to avoid polluting stdout
	prog := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := prog.Run()
	if err != nil {
		return "", err
	}

	if m, ok := finalModel.(inputModel); ok && m.complete {
		return strings.TrimSpace(m.textInput.Value()), nil
	}
	return "", ErrCancelled
}

type inputModel struct {
	textInput textinput.Model
	prompt    string
	validate  func(string) error
	invalid   error
	complete  bool
	quitting  bool
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.validate != nil {
				if err := m.validate(strings.TrimSpace(m.textInput.Value())); err != nil {
					m.invalid = err
					return m, nil
				}
			}
			m.complete = true
			return m, tea.Quit
		}
	}

	m.invalid = nil
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.complete {
		return ""
	}
	if m.quitting {
		return quitTextStyle.Render("Cancelled.")
	}
	hint := helpStyle.Render("enter to confirm, esc to cancel")
	if m.invalid != nil {
		hint = notificationStyle(notify.Danger).Render(m.invalid.Error())
	}
	return fmt.Sprintf(
		"\n%s\n\n%s\n\n%s\n",
		titleStyle.Render(m.prompt),
		m.textInput.View(),
		hint,
	)
}
