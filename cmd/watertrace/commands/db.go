package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hydroline/watertrace/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the watertrace database",
	Long: `db - Database operations

Examples:
  watertrace db stats    # Element counts by category and connectivity
  watertrace db ghosts   # Identifiers referenced by edges but absent as elements`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show element counts by category and connectivity status",
	RunE:  runDbStats,
}

var dbGhostsCmd = &cobra.Command{
	Use:   "ghosts",
	Short: "List ghost endpoints: referenced by linkage but absent as elements",
	Long:  "Ghost endpoints mark connectivity gaps between the two sources. They are kept in the graph, not dropped, so the gaps stay visible.",
	RunE:  runDbGhosts,
}

var dbPathFlag string

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database path (overrides configuration)")
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbGhostsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	s, database, err := openStore(dbPathFlag)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := s.GetStats(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "query stats")
	}

	pterm.DefaultSection.Println("Database Statistics")
	pterm.DefaultTable.WithData(pterm.TableData{
		{"Total elements", fmt.Sprintf("%d", stats.TotalElements)},
		{"Nodes", fmt.Sprintf("%d", stats.Nodes)},
		{"Arcs", fmt.Sprintf("%d", stats.Arcs)},
		{"With geometry", fmt.Sprintf("%d", stats.WithGeometry)},
		{"Connected", fmt.Sprintf("%d", stats.Connected)},
		{"Partially connected", fmt.Sprintf("%d", stats.Partial)},
		{"Unconnected", fmt.Sprintf("%d", stats.Unconnected)},
	}).Render()
	return nil
}

func runDbGhosts(cmd *cobra.Command, args []string) error {
	s, database, err := openStore(dbPathFlag)
	if err != nil {
		return err
	}
	defer database.Close()

	graph, err := s.LoadSnapshot(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "load snapshot")
	}

	ghosts := graph.Ghosts()
	if len(ghosts) == 0 {
		pterm.Success.Println("No ghost endpoints: every linked identifier exists as an element")
		return nil
	}

	pterm.Warning.Printf("%d ghost endpoints\n", len(ghosts))
	for _, id := range ghosts {
		pterm.Printf("  %s\n", id)
	}
	return nil
}
