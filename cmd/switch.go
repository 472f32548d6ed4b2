package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/auth"
	"github.com/chukul/daintree/internal/ui"
)

var switchCmd = &cobra.Command{
	Use:   "switch [index|nickname|main]",
	Short: "Switch the active role",
	Long: `Switch to a role from the stack. Cached credentials are reused until they
expire, then the role is assumed again. "main" goes back to the main account.
Without an argument the role is picked interactively.`,
	Args: cobra.MaximumNArgs(1),
	Example: `  daintree switch
  daintree switch 1
  daintree switch prod-admin
  daintree switch main`,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		a.requireLogin()

		roles := a.auth.Roles()
		var index int
		if len(args) == 0 {
			items := []string{"main account (" + a.auth.MainAccountUsername() + ")"}
			for _, r := range roles {
				items = append(items, roleLabel(r.Nickname, r.RoleName, r.AccountID))
			}
			choice, err := ui.Select("Switch role", items)
			if err != nil {
				fail("%v", err)
			}
			index = choice - 1
		} else {
			var err error
			index, err = resolveRole(args[0], roles)
			if err != nil {
				fail("%v", err)
			}
		}

		_, err := ui.Spin("Switching...", func() (struct{}, error) {
			return struct{}{}, a.auth.SwitchRole(context.Background(), index)
		})
		if err != nil {
			a.printNotes()
			fail("%v", err)
		}
		success("Now using %s", a.auth.PrettyCredentials())
	},
}

var backCmd = &cobra.Command{
	Use:   "back",
	Short: "Go back to the main account",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		a.requireLogin()
		if err := a.auth.BackToMain(); err != nil {
			fail("%v", err)
		}
		success("Now using %s", a.auth.PrettyCredentials())
	},
}

func roleLabel(nickname, roleName, accountID string) string {
	if nickname != "" {
		return fmt.Sprintf("%s (%s @ %s)", nickname, roleName, accountID)
	}
	return fmt.Sprintf("%s @ %s", roleName, accountID)
}

// resolveRole maps "main", a stack index or a nickname/role name to an
// index for SwitchRole.
func resolveRole(arg string, roles []internal.Role) (int, error) {
	if strings.EqualFold(arg, "main") {
		return auth.MainAccount, nil
	}
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= len(roles) {
			return 0, fmt.Errorf("no role at index %d, see 'daintree role list'", i)
		}
		return i, nil
	}
	for i, r := range roles {
		if strings.EqualFold(r.Nickname, arg) {
			return i, nil
		}
	}
	for i, r := range roles {
		if strings.EqualFold(r.RoleName, arg) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no role named %q, see 'daintree role list'", arg)
}

func init() {
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(backCmd)
}
