package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	"github.com/cybershikshax/shiksha-cli/internal/report"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive session: scan, review results, export, chat and learn",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd)
	},
}

// console keeps one result store for the whole session.
type console struct {
	cmd    *cobra.Command
	appCtx *AppContext
	reader *bufio.Reader
	out    io.Writer
	lang   i18n.Lang
}

func runConsole(cmd *cobra.Command) error {
	appCtx := getAppContext(cmd)
	c := &console{
		cmd:    cmd,
		appCtx: appCtx,
		reader: bufio.NewReader(cmd.InOrStdin()),
		out:    cmd.OutOrStdout(),
		lang:   appCtx.Lang,
	}
	appCtx.Services.Network.Set(probeConnectivity())
	printBanner(c.out)

	for {
		c.printMenu()
		input, err := c.prompt(">")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.ToLower(input) {
		case "q", "quit", "exit":
			return nil
		case "":
			continue
		case "1", "email":
			c.scan(scan.KindEmail, "Paste email text")
		case "2", "url":
			c.scan(scan.KindURL, "Enter URL")
		case "3", "port":
			c.scan(scan.KindPort, "Enter IP address or hostname")
		case "r", "results":
			c.showResults()
		case "e", "export":
			c.export()
		case "c", "chat":
			c.chat()
		case "l", "learn":
			c.learn()
		case "t", "lang":
			c.lang = i18n.Toggle(c.lang)
			fmt.Fprintf(c.out, "%s %s\n", colorInfo("→"), i18n.Label(c.lang, i18n.Title))
		default:
			fmt.Fprintln(c.out, "Invalid selection")
		}
	}
}

func (c *console) printMenu() {
	fmt.Fprintf(c.out, "\n=== %s: %s ===\n", i18n.Label(c.lang, i18n.Title), i18n.Label(c.lang, i18n.Slogan))
	if c.appCtx.Services.Network.Offline() {
		fmt.Fprintln(c.out, colorWarn("● "+i18n.Label(c.lang, i18n.Offline)))
	}
	fmt.Fprintln(c.out, "[1] Email scan  [2] URL scan  [3] Port scan")
	fmt.Fprintln(c.out, "[r] Results     [e] Export    [c] Chat")
	fmt.Fprintf(c.out, "[l] Learn       [t] %-9s [q] Quit\n", i18n.Label(c.lang, i18n.SwitchTo))
}

// prompt reads one trimmed line. io.EOF is returned only when nothing
// was read.
func (c *console) prompt(label string) (string, error) {
	fmt.Fprintf(c.out, "%s ", label)
	line, err := c.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// interruptible returns a context cancelled by Ctrl+C for one operation.
func (c *console) interruptible() (context.Context, context.CancelFunc) {
	parent := c.cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (c *console) scan(kind scan.Kind, label string) {
	input, err := c.prompt(label + ":")
	if err != nil || input == "" {
		fmt.Fprintln(c.out, colorWarn("Input required."))
		return
	}

	ctx, stop := c.interruptible()
	defer stop()

	spin := newSpinner(c.cmd.ErrOrStderr(), fmt.Sprintf("Scanning %s", kind))
	spin.Start()
	result, err := c.appCtx.Services.ScanService.Submit(ctx, kind, input)
	spin.Stop()
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(c.out, colorWarn("Scan cancelled."))
	case err != nil:
		fmt.Fprintf(c.out, "%s %v\n", colorError("Error:"), err)
	default:
		printResult(c.out, result)
	}
}

func (c *console) showResults() {
	svc := c.appCtx.Services.ScanService
	results := svc.Results()
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No scans yet.")
		return
	}
	printSummary(c.out, svc.Summary())
	for _, res := range results {
		fmt.Fprintf(c.out, "  %s  %-5s %-40s %s / %s\n",
			res.Timestamp().Format("15:04:05"), res.Kind(), truncate(res.Input(), 40),
			formatRiskWithColor(res.RiskLevel()), formatStatusWithColor(res.Status()))
	}
}

func (c *console) export() {
	name, err := c.prompt("Format [json/md/pdf] (json):")
	if err != nil {
		return
	}
	if name == "" {
		name = string(report.FormatJSON)
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		fmt.Fprintf(c.out, "%s %v\n", colorError("Error:"), err)
		return
	}
	dir, err := getReportsDir(c.appCtx.DataDir)
	if err != nil {
		fmt.Fprintf(c.out, "%s %v\n", colorError("Error:"), err)
		return
	}
	path, err := c.appCtx.Services.ScanService.Export(dir, format)
	if err != nil {
		fmt.Fprintf(c.out, "%s %v\n", colorError("Error:"), err)
		return
	}
	fmt.Fprintf(c.out, "%s Report written to %s\n", colorSuccess("✓"), path)
}

func (c *console) chat() {
	fmt.Fprintln(c.out, "Ask about passwords, phishing, malware, firewalls... (blank line to return)")
	for {
		msg, err := c.prompt("You:")
		if err != nil || msg == "" {
			return
		}
		ctx, stop := c.interruptible()
		reply, err := c.appCtx.Services.LearnService.Ask(ctx, msg)
		stop()
		if err != nil {
			fmt.Fprintf(c.out, "%s %v\n", colorError("Error:"), err)
			continue
		}
		fmt.Fprintf(c.out, "%s %s\n", colorInfo("Tutor:"), reply.Text)
	}
}

func (c *console) learn() {
	svc := c.appCtx.Services.LearnService
	for _, track := range svc.Tracks() {
		p, err := svc.Progress(track.ID)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.out, "%-8s %s %d/%d\n", track.ID, progressBar(p.Ratio, 20), p.Completed, p.Total)
	}

	trackID, err := c.prompt("Track to open (blank to return):")
	if err != nil || trackID == "" {
		return
	}
	p, err := svc.Progress(trackID)
	if err != nil {
		fmt.Fprintf(c.out, "%s %v\n", colorError("Error:"), translateLearnError(err, trackID, ""))
		return
	}
	printTrackProgress(c.out, svc, p)

	topics, _ := svc.Topics(trackID)
	choice, err := c.prompt("Topic number to mark complete (blank to return):")
	if err != nil || choice == "" {
		return
	}
	var idx int
	if _, err := fmt.Sscanf(choice, "%d", &idx); err != nil || idx < 1 || idx > len(topics) {
		fmt.Fprintln(c.out, "Invalid selection")
		return
	}
	if err := svc.Complete(trackID, topics[idx-1]); err != nil {
		fmt.Fprintf(c.out, "%s %v\n", colorError("Error:"), err)
		return
	}
	fmt.Fprintf(c.out, "%s %s marked complete\n", colorSuccess("✓"), topics[idx-1])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
