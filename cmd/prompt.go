package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the active identity for a shell prompt",
	Long:  `Print the active identity and its remaining lifetime, formatted for shell prompts. Prints nothing when logged out.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil || !a.auth.IsLoggedIn() {
			return
		}
		creds, err := a.auth.Credentials("")
		if err != nil {
			return
		}
		who := a.auth.PrettyCredentials()
		if creds.Expiration == nil {
			fmt.Printf("☁️  %s", who)
			return
		}
		remaining := time.Until(*creds.Expiration)
		hours := int(remaining.Hours())
		minutes := int(remaining.Minutes()) % 60
		if hours > 0 {
			fmt.Printf("☁️  %s (%dh%dm)", who, hours, minutes)
		} else {
			fmt.Printf("☁️  %s (%dm)", who, minutes)
		}
	},
}

var promptInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the active identity as JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil || !a.auth.IsLoggedIn() {
			fmt.Println("{}")
			return
		}
		creds, err := a.auth.Credentials("")
		if err != nil {
			fmt.Println("{}")
			return
		}

		info := map[string]interface{}{
			"identity": a.auth.PrettyCredentials(),
			"account":  a.auth.AccountID(),
			"state":    a.auth.State().String(),
			"expires":  internal.FormatExpiry(&creds, time.Now()),
		}
		if creds.Expiration != nil {
			info["expiration"] = creds.Expiration.Format(time.RFC3339)
			info["remaining"] = int(time.Until(*creds.Expiration).Seconds())
		}

		output, _ := json.Marshal(info)
		fmt.Println(string(output))
	},
}

func init() {
	promptCmd.AddCommand(promptInfoCmd)
	rootCmd.AddCommand(promptCmd)
}
