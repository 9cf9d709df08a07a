package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hydroline/watertrace/cache"
	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/feature"
	"github.com/hydroline/watertrace/logger"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/traverse"
)

// TraceCmd represents the trace command
var TraceCmd = &cobra.Command{
	Use:   "trace <start-identifier>",
	Short: "Run a trace-the-water query from an element",
	Long: `trace - Trace every element reachable from a start element

Walks the network upstream, downstream or both from the given element within
a depth bound, resolving missing connectivity through the strategy chain, and
prints the result as a GeoJSON FeatureCollection.

Examples:
  watertrace trace FOLSM
  watertrace trace FOLSM --direction downstream --max-depth 5
  watertrace trace SAC120 --include-arcs --multi-pass
  watertrace trace FOLSM --geometry-only --summary`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

var (
	traceDirectionFlag    string
	traceMaxDepthFlag     int
	traceIncludeArcsFlag  bool
	traceGeometryOnlyFlag bool
	traceMultiPassFlag    bool
	traceSummaryFlag      bool
	traceDbFlag           string
)

func init() {
	TraceCmd.Flags().StringVarP(&traceDirectionFlag, "direction", "d", "", "Trace direction: upstream, downstream or both (default from config)")
	TraceCmd.Flags().IntVar(&traceMaxDepthFlag, "max-depth", 0, "Depth bound (default from config, clamped to the ceiling)")
	TraceCmd.Flags().BoolVar(&traceIncludeArcsFlag, "include-arcs", false, "Keep arc elements in the output")
	TraceCmd.Flags().BoolVar(&traceGeometryOnlyFlag, "geometry-only", false, "Drop geometry-less elements instead of emitting null geometry")
	TraceCmd.Flags().BoolVar(&traceMultiPassFlag, "multi-pass", false, "Trace in accumulating passes: explicit backbone first, inferred edges later")
	TraceCmd.Flags().BoolVar(&traceSummaryFlag, "summary", false, "Print a human-readable summary instead of GeoJSON")
	TraceCmd.Flags().StringVar(&traceDbFlag, "db", "", "Database path (overrides configuration)")
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	s, database, err := openStore(traceDbFlag)
	if err != nil {
		return err
	}
	defer database.Close()

	engine := traverse.NewEngine(s, cfg, cache.FromConfig(cfg.Cache), logger.Logger.Named("traverse"))

	result, err := engine.Trace(cmd.Context(), traverse.TraceRequest{
		Start:        args[0],
		Direction:    network.Direction(traceDirectionFlag),
		MaxDepth:     traceMaxDepthFlag,
		IncludeArcs:  traceIncludeArcsFlag,
		GeometryOnly: traceGeometryOnlyFlag,
		MultiPass:    traceMultiPassFlag,
	})
	if err != nil {
		return err
	}

	if traceSummaryFlag {
		printTraceSummary(result)
		return nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal feature collection")
	}
	fmt.Println(string(out))
	return nil
}

func printTraceSummary(result *feature.Collection) {
	meta := result.Metadata
	pterm.DefaultSection.Printf("Trace from %s (%s, depth <= %d)", meta.StartElement, meta.Direction, meta.MaxDepth)
	pterm.Printf("Features:   %d\n", meta.TotalFeatures)
	pterm.Printf("Strategies: %v\n", meta.StrategiesInvoked)
	if meta.Truncated {
		pterm.Warning.Printf("Truncated: %s\n", meta.TruncationCause)
	}
	pterm.Println()

	rows := pterm.TableData{{"Depth", "Identifier", "Category", "Type", "Strategy", "Geometry"}}
	for _, f := range result.Features {
		p := f.Properties
		geom := "yes"
		if !p.HasGeometry {
			geom = "no"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.Depth),
			p.Identifier,
			string(p.Category),
			p.ElementType,
			string(p.Strategy),
			geom,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
