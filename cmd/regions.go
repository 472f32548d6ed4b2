package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// knownRegions are the commercial regions offered by default.
var knownRegions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2",
	"af-south-1", "ap-east-1", "ap-south-1", "ap-northeast-1", "ap-northeast-2", "ap-northeast-3",
	"ap-southeast-1", "ap-southeast-2", "ca-central-1",
	"eu-central-1", "eu-west-1", "eu-west-2", "eu-west-3", "eu-north-1", "eu-south-1",
	"me-south-1", "sa-east-1",
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Show the enabled regions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		enabled := a.auth.Regions()
		if len(enabled) == 0 {
			fmt.Println("📭 No regions enabled.")
			fmt.Println("\n💡 Enable some with:")
			fmt.Println("   daintree regions set us-east-1 eu-west-1")
			return
		}
		for _, r := range enabled {
			fmt.Println("🌍", r)
		}
	},
}

var regionsSetCmd = &cobra.Command{
	Use:   "set <region>...",
	Short: "Replace the enabled regions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		for _, r := range args {
			if !isKnownRegion(r) {
				fail("unknown region %q (known: %s)", r, strings.Join(knownRegions, ", "))
			}
		}
		if err := a.auth.SetEnabledRegions(args); err != nil {
			fail("failed to save regions: %v", err)
		}
		success("Enabled %s", strings.Join(a.auth.Regions(), ", "))
	},
}

var regionsAvailableCmd = &cobra.Command{
	Use:   "available",
	Short: "List the regions that can be enabled",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range knownRegions {
			fmt.Println(r)
		}
	},
}

func isKnownRegion(region string) bool {
	for _, r := range knownRegions {
		if r == region {
			return true
		}
	}
	return false
}

func init() {
	regionsCmd.AddCommand(regionsSetCmd)
	regionsCmd.AddCommand(regionsAvailableCmd)
	rootCmd.AddCommand(regionsCmd)
}
