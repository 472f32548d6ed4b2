package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/auth"
	"github.com/chukul/daintree/internal/config"
	"github.com/chukul/daintree/internal/log"
	"github.com/chukul/daintree/internal/notify"
)

// app is everything a command needs once the session is restored.
type app struct {
	auth  *auth.Store
	prefs *config.File
	notes *notify.Store
}

// openApp resolves the secret, loads preferences and restores the saved
// session.
func openApp() (*app, error) {
	secret, err := internal.GetSecret(secretFlag)
	if err != nil {
		return nil, err
	}
	prefs, err := config.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	notes := notify.NewStore()
	store := auth.New(
		internal.NewAWS(),
		internal.NewSessionFile(secret),
		auth.WithPrefs(prefs),
		auth.WithNotifier(notes),
	)
	if err := store.Restore(); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return &app{auth: store, prefs: prefs, notes: notes}, nil
}

// mustOpenApp is openApp for commands with nothing to do without a session.
func mustOpenApp() *app {
	a, err := openApp()
	if err != nil {
		fail("%v", err)
	}
	return a
}

func (a *app) requireLogin() {
	if !a.auth.IsLoggedIn() {
		fail("not logged in, run 'daintree login' first")
	}
}

// printNotes writes pending notifications to stderr.
func (a *app) printNotes() {
	for _, n := range a.notes.List() {
		printNote(n)
	}
}

func printNote(n notify.Notification) {
	c := color.New(color.FgCyan)
	switch n.Variant {
	case notify.Danger:
		c = color.New(color.FgRed)
	case notify.Warning:
		c = color.New(color.FgYellow)
	case notify.Success:
		c = color.New(color.FgGreen)
	case notify.Tip:
		c = color.New(color.FgMagenta)
	}
	text := n.Text
	if n.Region != "" {
		text = fmt.Sprintf("[%s] %s", n.Region, text)
	}
	c.Fprintln(os.Stderr, text)
}

func fail(format string, args ...interface{}) {
	log.Debugf(format, args...)
	color.New(color.FgRed).Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}

func success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(os.Stderr, "✅ "+format+"\n", args...)
}

// readHidden reads a line from the terminal without echo. Piped input is
// read as is.
func readHidden(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		_, err := fmt.Fscanln(os.Stdin, &line)
		return strings.TrimSpace(line), err
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func truncateText(text string, max int) string {
	if len(text) > max {
		return text[:max-3] + "..."
	}
	return text
}
