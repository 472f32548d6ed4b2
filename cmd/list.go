package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/chukul/daintree/internal/catalog"
	"github.com/chukul/daintree/internal/resource"
	"github.com/chukul/daintree/internal/router"
	"github.com/chukul/daintree/internal/ui"
)

var (
	listRegions []string
	listJSON    bool
	listID      string
)

var listCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List resources of one type across the enabled regions",
	Long: `Fetch every resource of a type from each enabled region and print a table.
Without a type, the known resource types are printed.`,
	Args: cobra.MaximumNArgs(1),
	Example: `  daintree list
  daintree list instances
  daintree list /network/vpcs --region eu-west-1
  daintree list volumes --id vol-0123456789abcdef0`,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpenApp()
		cat := catalog.New(a.auth)

		if len(args) == 0 {
			printTypes(cat)
			return
		}

		entry, err := cat.Lookup(args[0])
		if err != nil {
			fail("%v", err)
		}

		rt := router.New(a.auth, cat.Routes()...)
		if route := rt.Push(entry.Route.Path, nil); route.Path == router.LoginPath {
			fail("not logged in, run 'daintree login' first")
		}

		regions := listRegions
		if len(regions) == 0 {
			regions = a.auth.Regions()
		}
		if len(regions) == 0 {
			fail("no regions enabled, run 'daintree regions set <region>...' or pass --region")
		}

		engine := resource.New(entry.Config, resource.WithNotifier(a.notes), resource.WithNavigator(rt))
		defer engine.Shutdown()

		_, _ = ui.Spin(fmt.Sprintf("Fetching %s from %s...", entry.Name, strings.Join(regions, ", ")), func() (struct{}, error) {
			engine.SetRegions(regions)
			engine.Wait()
			return struct{}{}, nil
		})
		a.printNotes()

		if listID != "" {
			r, ok := engine.Get(listID)
			if !ok {
				fail("%s %s not found in %s", entry.Config.ResourceName, listID, strings.Join(regions, ", "))
			}
			fmt.Println(r.Pretty())
			return
		}

		resources := engine.Resources()
		if listJSON {
			printJSON(resources)
			return
		}
		if len(resources) == 0 {
			fmt.Println(engine.EmptyStateDescription())
			return
		}
		printTable(entry, engine, resources)
	},
}

var (
	listHeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).PaddingRight(2)
	listCellStyle    = lipgloss.NewStyle().PaddingRight(2)
	listWorkingStyle = listCellStyle.Foreground(lipgloss.Color("3"))
)

// newListTable is a borderless table. Widths are measured without escape
// codes, so coloured cells stay aligned.
func newListTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers(headers...)
}

func printTypes(cat *catalog.Catalog) {
	t := newListTable("TYPE", "SERVICE", "ROUTE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			return listCellStyle
		})
	for _, e := range cat.Entries() {
		t.Row(e.Name, e.Service, e.Route.Path)
	}
	fmt.Println(t.Render())
}

func printTable(entry catalog.Entry, engine *resource.Engine, resources []resource.Resource) {
	fmt.Println(renderTable(entry, engine, resources))
	fmt.Fprintf(os.Stderr, "\n%d %s(s)\n", len(resources), entry.Config.ResourceName)
}

// renderTable lays out resources with the entry's columns plus REGION.
// State cells of resources still being polled are highlighted.
func renderTable(entry catalog.Entry, engine *resource.Engine, resources []resource.Resource) string {
	headers := make([]string, 0, len(entry.Columns)+1)
	for _, c := range entry.Columns {
		headers = append(headers, c.Header)
	}
	headers = append(headers, "REGION")

	type cell struct{ row, col int }
	working := map[cell]bool{}
	t := newListTable(headers...)
	for i, r := range resources {
		state := engine.State(r)
		pending := slices.Contains(engine.Pending(r.Region), r.Key)
		cells := make([]string, 0, len(headers))
		for j, c := range entry.Columns {
			v := truncateText(c.Value(r), 48)
			if pending && v != "" && v == state {
				working[cell{i, j}] = true
			}
			cells = append(cells, v)
		}
		t.Row(append(cells, r.Region)...)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return listHeaderStyle
		case working[cell{row, col}]:
			return listWorkingStyle
		}
		return listCellStyle
	})
	return t.Render()
}

func printJSON(resources []resource.Resource) {
	type item struct {
		Region   string          `json:"region"`
		Key      string          `json:"key"`
		Resource json.RawMessage `json:"resource"`
	}
	out := make([]item, 0, len(resources))
	for _, r := range resources {
		out = append(out, item{Region: r.Region, Key: r.Key, Resource: json.RawMessage(r.Doc)})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

func init() {
	listCmd.Flags().StringSliceVar(&listRegions, "region", nil, "Regions to query instead of the enabled ones")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output the raw documents as JSON")
	listCmd.Flags().StringVar(&listID, "id", "", "Print one resource in full")
	rootCmd.AddCommand(listCmd)
}
