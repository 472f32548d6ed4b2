package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal"
	"github.com/chukul/daintree/internal/auth"
)

var outputJSON bool

type statusInfo struct {
	State       string   `json:"state"`
	Identity    string   `json:"identity,omitempty"`
	UserArn     string   `json:"userArn,omitempty"`
	AccountID   string   `json:"accountId,omitempty"`
	LoginMethod string   `json:"loginMethod,omitempty"`
	Role        string   `json:"role,omitempty"`
	Expires     string   `json:"expires,omitempty"`
	Regions     []string `json:"regions"`
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"whoami"},
	Short:   "Show the login, the active role and the enabled regions",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()

		info := statusInfo{State: a.auth.State().String(), Regions: a.auth.Regions()}
		if a.auth.IsLoggedIn() {
			info.Identity = a.auth.PrettyCredentials()
			info.UserArn = a.auth.UserArn()
			info.AccountID = a.auth.AccountID()
			info.LoginMethod = string(a.auth.LoginMethod())
			if i := a.auth.CurrentRole(); i != auth.MainAccount {
				r := a.auth.Roles()[i]
				info.Role = r.ARN()
			}
			creds, err := a.auth.Credentials("")
			switch {
			case errors.Is(err, auth.ErrCredentialsExpired):
				info.State = a.auth.State().String()
				info.Expires = "expired"
			case err == nil:
				info.Expires = internal.FormatExpiry(&creds, time.Now())
			}
		}

		if outputJSON {
			data, _ := json.MarshalIndent(info, "", "  ")
			fmt.Println(string(data))
			return
		}

		label := color.New(color.FgCyan, color.Bold).SprintFunc()
		if info.Identity == "" {
			fmt.Printf("%-10s %s\n", label("STATE"), color.YellowString(info.State))
			a.printNotes()
			return
		}
		fmt.Printf("%-10s %s\n", label("STATE"), color.GreenString(info.State))
		fmt.Printf("%-10s %s\n", label("IDENTITY"), info.Identity)
		fmt.Printf("%-10s %s (%s)\n", label("LOGIN"), info.UserArn, info.LoginMethod)
		if info.Role != "" {
			fmt.Printf("%-10s %s\n", label("ROLE"), info.Role)
		}
		fmt.Printf("%-10s %s\n", label("EXPIRES"), info.Expires)
		regions := strings.Join(info.Regions, ", ")
		if regions == "" {
			regions = color.YellowString("none")
		}
		fmt.Printf("%-10s %s\n", label("REGIONS"), regions)
		a.printNotes()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output results in JSON format for automation")
	rootCmd.AddCommand(statusCmd)
}
