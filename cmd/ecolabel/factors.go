package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ecolabel/internal/adapters/memory"
	"ecolabel/internal/services/assessment"
)

var (
	factorsJSON bool
	factorsID   string
)

var factorsCmd = &cobra.Command{
	Use:   "factors [ingredient]",
	Short: "List the loaded reference tables or resolve one ingredient",
	Long: `Without arguments, lists the ingredients, packaging materials and
transport modes the loaded reference tables carry factors for.

With an ingredient name, shows the per-kg factors it resolves to and how
each one was found (exact, fuzzy or default).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFactors,
}

func init() {
	factorsCmd.Flags().BoolVar(&factorsJSON, "json", false, "Output JSON instead of text")
	factorsCmd.Flags().StringVar(&factorsID, "id", "", "Explicit database identifier to resolve with")
}

func runFactors(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	svc := assessment.New(memory.New(), loadTables(cfg, logger), nil, logger)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		f := svc.Factors()
		if factorsJSON {
			return writeJSON(out, f)
		}
		fmt.Fprintf(out, "Ingredients (%d):\n  %s\n", len(f.Ingredients), strings.Join(f.Ingredients, ", "))
		fmt.Fprintf(out, "Packaging materials (%d):\n  %s\n", len(f.Materials), strings.Join(f.Materials, ", "))
		fmt.Fprintf(out, "Transport modes (%d):\n  %s\n", len(f.TransportModes), strings.Join(f.TransportModes, ", "))
		return nil
	}

	res := svc.Resolve(args[0], factorsID)
	if factorsJSON {
		return writeJSON(out, res)
	}
	fmt.Fprintf(out, "%s -> %s\n\n", args[0], res.Key)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDICATOR\tPER KG\tMETHOD")
	fmt.Fprintf(tw, "co2 (kg CO2e)\t%.4f\t%s\n", res.Factor.CO2PerKg, res.CO2Method)
	fmt.Fprintf(tw, "water (L)\t%.4f\t%s\n", res.Factor.WaterPerKg, res.WaterMethod)
	fmt.Fprintf(tw, "energy (MJ)\t%.4f\t%s\n", res.Factor.EnergyPerKg, res.EnergyMethod)
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
