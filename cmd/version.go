package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("daintree version %s\n", internal.CurrentVersion)
		if !versionCheck {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rel, err := internal.NewUpdateChecker().Latest(ctx)
		if err != nil {
			fmt.Printf("Unable to check for updates: %v\n", err)
			return
		}

		if internal.IsNewer(rel.TagName, internal.CurrentVersion) {
			fmt.Printf("\n💡 Update available: %s → %s\n", internal.CurrentVersion, rel.TagName)
			fmt.Printf("   Download: %s\n", rel.HTMLURL)
		} else {
			fmt.Println("✅ You're running the latest version")
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", true, "Look up the latest release")
	rootCmd.AddCommand(versionCmd)
}
