package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/cybershikshax/shiksha-cli/internal/connectivity"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	"github.com/spf13/cobra"
)

// probeConnectivity is swapped out in tests.
var probeConnectivity connectivity.Prober = connectivity.InterfaceProbe

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the landing screen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		appCtx.Services.Network.Set(probeConnectivity())
		printHome(cmd.OutOrStdout(), appCtx.Lang, appCtx.Services.Network.Offline())
		return nil
	},
}

func printBanner(w io.Writer) {
	fig := figure.NewFigure("CyberShikshaX", "standard", true)
	fmt.Fprint(w, colorInfo(fig.String()))
}

func printHome(w io.Writer, lang i18n.Lang, offline bool) {
	printBanner(w)
	line := strings.Repeat("═", 48)

	fmt.Fprintln(w, colorInfo(line))
	fmt.Fprintf(w, "  %s\n", colorHeading(i18n.Label(lang, i18n.Title)))
	fmt.Fprintf(w, "  %s\n", i18n.Label(lang, i18n.Slogan))
	if offline {
		fmt.Fprintf(w, "  %s\n", colorWarn("● "+i18n.Label(lang, i18n.Offline)))
	}
	fmt.Fprintln(w, colorInfo(line))

	fmt.Fprintf(w, "\n%s\n  %s\n  → shiksha learn tracks\n", colorSuccess(i18n.Label(lang, i18n.LearnerButton)), i18n.Label(lang, i18n.LearnerDesc))
	fmt.Fprintf(w, "\n%s\n  %s\n  → shiksha scan email|url|port\n", colorSuccess(i18n.Label(lang, i18n.UserButton)), i18n.Label(lang, i18n.UserDesc))
	fmt.Fprintf(w, "\n%s · %s · --lang %s (%s)\n",
		i18n.Label(lang, i18n.About), i18n.Label(lang, i18n.Contact),
		i18n.Toggle(lang), i18n.Label(lang, i18n.SwitchTo))
}
