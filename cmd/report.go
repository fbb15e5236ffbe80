package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/report"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <report.json>",
	Short: "Summarize an exported scan report, optionally converting it",
	Long: `Reads a report written by "scan --export json" or the console and prints
its risk breakdown. With --format md or --format pdf the report is also
rendered next to the input file (or to --output).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		return runReport(cmd, args[0], formatName, output)
	},
}

func init() {
	reportCmd.Flags().String("format", "", "convert the report to md or pdf")
	reportCmd.Flags().String("output", "", "path of the converted file")
}

func runReport(cmd *cobra.Command, path, formatName, output string) error {
	out := cmd.OutOrStdout()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	rep, err := report.ReadJSON(f)
	f.Close()
	if err != nil {
		return err
	}

	results, err := report.Results(rep)
	if err != nil {
		return fmt.Errorf("invalid report %s: %w", path, err)
	}

	fmt.Fprintf(out, "%s %s\n", colorHeading("Report generated"), rep.GeneratedAt)
	printSummary(out, scan.Summarize(results))
	for _, res := range results {
		fmt.Fprintf(out, "  [%s] %-5s %s  %s / %s\n", res.Timestamp().UTC().Format(report.TimeLayout), res.Kind(), res.Input(),
			formatRiskWithColor(res.RiskLevel()), formatStatusWithColor(res.Status()))
	}

	if formatName == "" {
		return nil
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	content, err := report.Encode(rep, format)
	if err != nil {
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(format)
	}
	if err := os.WriteFile(output, content, consts.DefaultFilePerm); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(out, "%s Report written to %s\n", colorSuccess("✓"), output)
	return nil
}
