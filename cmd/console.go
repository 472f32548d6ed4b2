package cmd

import (
	"context"
	"errors"
	"net/url"
	"slices"

	"github.com/alitto/pond"
	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal/auth"
	"github.com/chukul/daintree/internal/catalog"
	"github.com/chukul/daintree/internal/config"
	"github.com/chukul/daintree/internal/log"
	"github.com/chukul/daintree/internal/resource"
	"github.com/chukul/daintree/internal/router"
	"github.com/chukul/daintree/internal/ui"
)

var (
	consoleType    string
	consoleSelect  string
	consoleWorkers int
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Browse resources interactively",
	Long: `Open the interactive console. Resources of the chosen type are listed from
every enabled region and kept up to date while they change state.

Keys: enter details, esc close, / filter, r refresh, [ and ] change type, x dismiss, q quit.
Edits to the preferences file (regions) are picked up while the console runs.
Without --type the console opens where the last expired session left off.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		cat := catalog.New(a.auth)
		entries := cat.Entries()

		start := 0
		var query url.Values
		if consoleType != "" {
			entry, err := cat.Lookup(consoleType)
			if err != nil {
				fail("%v", err)
			}
			start = slices.IndexFunc(entries, func(e catalog.Entry) bool { return e.Name == entry.Name })
		} else if a.auth.IsLoggedIn() {
			if i, q, ok := resumeEntry(entries, a.auth.TakeRouteAfterLogin()); ok {
				start, query = i, q
			}
		}

		rt := router.New(a.auth, cat.Routes()...)
		if consoleSelect != "" {
			query = url.Values{entries[start].Config.UniqueKey: {consoleSelect}}
		}
		route := rt.Push(entries[start].Route.Path, query)
		if route.Path == router.LoginPath {
			fail("not logged in, run 'daintree login' first")
		}
		if rt.ShowRegionsModal() {
			fail("no regions enabled, run 'daintree regions set <region>...' first")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			err := a.prefs.Watch(ctx, func(p config.Prefs) {
				if slices.Equal(p.Regions, a.auth.Regions()) {
					return
				}
				log.Infof("regions changed on disk: %v", p.Regions)
				if err := a.auth.SetEnabledRegions(p.Regions); err != nil {
					log.Warnf("failed to apply regions: %v", err)
				}
			})
			if err != nil {
				log.Warnf("not watching preferences: %v", err)
			}
		}()

		pool := pond.New(consoleWorkers, 1024)
		defer pool.StopAndWait()
		activity := resource.NewActivity()

		first := true
		newEngine := func(e catalog.Entry) *resource.Engine {
			if !first {
				rt.Push(e.Route.Path, nil)
			}
			first = false
			return resource.New(e.Config,
				resource.WithNotifier(a.notes),
				resource.WithNavigator(rt),
				resource.WithActivity(activity),
				resource.WithPool(pool),
			)
		}

		err := ui.RunConsole(ui.ConsoleOptions{
			Entries:       entries,
			Start:         start,
			NewEngine:     newEngine,
			Session:       a.auth,
			Notifications: a.notes,
			Activity:      activity,
			Router:        rt,
		})
		if errors.Is(err, ui.ErrSessionEnded) {
			if n, ok := a.notes.Find(auth.KeyCredentialsExpired); ok {
				printNote(n)
			}
			fail("%v", err)
		}
		if err != nil {
			fail("%v", err)
		}
	},
}

// resumeEntry finds the entry and query a recorded "path?query" route points
// at.
func resumeEntry(entries []catalog.Entry, raw string) (int, url.Values, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, nil, false
	}
	i := slices.IndexFunc(entries, func(e catalog.Entry) bool { return e.Route.Path == u.Path })
	if i < 0 {
		return 0, nil, false
	}
	return i, u.Query(), true
}

func init() {
	consoleCmd.Flags().StringVarP(&consoleType, "type", "t", "", "Resource type to open, e.g. instances or /ecs/clusters")
	consoleCmd.Flags().StringVar(&consoleSelect, "select", "", "Open the details of this resource once it is loaded")
	consoleCmd.Flags().IntVar(&consoleWorkers, "workers", 16, "Concurrent AWS calls")
	rootCmd.AddCommand(consoleCmd)
}
