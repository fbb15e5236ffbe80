package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system information and data directory paths",
	Long: `Display shiksha configuration information including:
  - Data directory locations
  - Configuration and rules files
  - Display language and connectivity
  - Platform information`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		appCtx.Services.Network.Set(probeConnectivity())

		reportsDir, err := getReportsDir(appCtx.DataDir)
		if err != nil {
			return err
		}
		storagePath := appCtx.Services.Storage.Path()

		configFile := viper.ConfigFileUsed()
		if configFile == "" {
			configFile = "~/.shiksha-cli.yaml"
		}
		rulesFile := appCtx.Config.Defaults.RulesFile
		if rulesFile == "" {
			rulesFile = "(built-in)"
		}
		network := "online"
		if appCtx.Services.Network.Offline() {
			network = "offline"
		}

		completed, total := 0, 0
		for _, track := range appCtx.Services.LearnService.Tracks() {
			completed += appCtx.Services.Progress.Completed(track.ID)
			total += len(track.Topics)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "shiksha System Information")
		fmt.Fprintln(out, "==========================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Platform:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Language:          %s\n", appCtx.Lang)
		fmt.Fprintf(out, "Network:           %s\n", network)
		fmt.Fprintf(out, "Learning progress: %d/%d topics\n", completed, total)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Data Locations:")
		fmt.Fprintf(out, "  Data Directory:     %s\n", appCtx.DataDir)
		fmt.Fprintf(out, "  Progress Storage:   %s %s\n", storagePath, existence(storagePath, "(not created yet)"))
		fmt.Fprintf(out, "  Reports Directory:  %s\n", reportsDir)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Configuration File:   %s %s\n", configFile, existence(os.ExpandEnv(configFile), "(using defaults)"))
		fmt.Fprintf(out, "Rules File:           %s\n", rulesFile)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To override the data directory, set "+dataDirEnvVar+" or add to ~/.shiksha-cli.yaml:")
		fmt.Fprintln(out, "  data_dir: /custom/path")
		return nil
	},
}

func existence(path, missing string) string {
	if _, err := os.Stat(path); err == nil {
		return "✓ (exists)"
	}
	return "✗ " + missing
}
