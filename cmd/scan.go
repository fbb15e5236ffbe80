package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a mock email, URL or port scan",
	Long: `Run a simulated security scan. Scans are keyword heuristics with an
artificial delay: no network traffic is sent and no port is probed.
Press Ctrl+C to cancel a scan in progress.`,
}

func newScanKindCmd(kind scan.Kind, use, short string) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readScanInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			exportFormat, _ := cmd.Flags().GetString("export")
			outputDir, _ := cmd.Flags().GetString("output")
			return runScan(cmd, kind, input, exportFormat, outputDir)
		},
	}
	c.Flags().String("export", "", "export the result as json, md or pdf")
	c.Flags().String("output", "", "directory for exported reports (default <data-dir>/reports)")
	return c
}

func init() {
	scanCmd.AddCommand(newScanKindCmd(scan.KindEmail, "email <text...|->", "Check email text for phishing keywords"))
	scanCmd.AddCommand(newScanKindCmd(scan.KindURL, "url <url>", "Check a URL against known suspicious domains"))
	scanCmd.AddCommand(newScanKindCmd(scan.KindPort, "port <address>", "Show the demonstration open-port listing for an address"))
}

// readScanInput joins the arguments; a single "-" reads stdin instead.
func readScanInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func runScan(cmd *cobra.Command, kind scan.Kind, input, exportFormat, outputDir string) error {
	appCtx := getAppContext(cmd)
	out := cmd.OutOrStdout()

	var format report.Format
	if exportFormat != "" {
		f, err := report.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = f
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	spin := newSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Scanning %s", kind))
	spin.Start()
	result, err := appCtx.Services.ScanService.Submit(ctx, kind, input)
	spin.Stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, colorWarn("Scan cancelled."))
			return nil
		}
		return err
	}

	printResult(out, result)

	if format != "" {
		dir := outputDir
		if dir == "" {
			if dir, err = getReportsDir(appCtx.DataDir); err != nil {
				return err
			}
		}
		path, err := appCtx.Services.ScanService.Export(dir, format)
		if err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		fmt.Fprintf(out, "%s Report written to %s\n", colorSuccess("✓"), path)
	}
	return nil
}

func printResult(w io.Writer, res *scan.Result) {
	fmt.Fprintf(w, "%s %s\n", colorHeading(titleCaser.String(string(res.Kind()))+" scan"), colorInfo(res.ID()))
	fmt.Fprintf(w, "  Input : %s\n", res.Input())
	fmt.Fprintf(w, "  Risk  : %s\n", formatRiskWithColor(res.RiskLevel()))
	fmt.Fprintf(w, "  Status: %s\n", formatStatusWithColor(res.Status()))
	for _, d := range res.Details() {
		fmt.Fprintf(w, "  - %s\n", d)
	}
}

func printSummary(w io.Writer, sum scan.Summary) {
	fmt.Fprintf(w, "Total scans: %d  High: %s  Medium: %s  Low: %s\n",
		sum.Total,
		colorError(fmt.Sprint(sum.High)),
		colorWarn(fmt.Sprint(sum.Medium)),
		colorSuccess(fmt.Sprint(sum.Low)),
	)
}
