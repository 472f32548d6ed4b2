package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal"
)

var (
	syncProfile string
	syncPath    string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write the active credentials to ~/.aws/credentials",
	Long: `Write the active credentials into a profile of the shared AWS credentials file,
so other tools (Terraform, the AWS CLI, editors) act as the same identity.
Profiles written by daintree are marked and replaced on the next sync.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		a.requireLogin()

		creds, err := a.auth.Credentials("")
		if err != nil {
			a.printNotes()
			fail("%v", err)
		}

		path := syncPath
		if path == "" {
			path = internal.CredentialsFilePath()
		}
		entry := internal.SyncEntry{
			Profile:     syncProfile,
			Label:       a.auth.PrettyCredentials(),
			Credentials: creds,
		}
		count, err := internal.SyncToAWS(path, []internal.SyncEntry{entry}, time.Now())
		if err != nil {
			fail("sync failed: %v", err)
		}
		success("Synced %d profile(s) to %s (%s expires %s)", count, path, syncProfile, internal.FormatExpiry(&creds, time.Now()))
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncProfile, "profile", "daintree", "Profile name to write")
	syncCmd.Flags().StringVar(&syncPath, "file", "", "Credentials file (default AWS_SHARED_CREDENTIALS_FILE or ~/.aws/credentials)")
	rootCmd.AddCommand(syncCmd)
}
