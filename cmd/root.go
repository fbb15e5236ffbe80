package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cybershikshax/shiksha-cli/internal/application"
	"github.com/cybershikshax/shiksha-cli/internal/classifier"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string
var dataDirFlag string
var langFlag string
var verbose bool

var rootCmd = &cobra.Command{
	Use:           "shiksha",
	Short:         "CyberShikshaX: learn cybersecurity and try mock security scans",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".shiksha-cli")
			viper.SetConfigType("yaml")
		}
		_ = viper.ReadInConfig()

		applyConfigDefaults(cmd)

		logger, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		dataDir, err := resolveDataDir(cliConfig.Defaults.DataDir)
		if err != nil {
			return err
		}
		// Make final dataDir absolute (for clarity in logs)
		if abs, err := filepath.Abs(dataDir); err == nil {
			dataDir = abs
		}

		rules, err := classifier.LoadRules(cliConfig.Defaults.RulesFile)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}

		chatLatency := cliConfig.Latency.Chat
		services, err := application.NewContainer(application.Options{
			DataDir:     dataDir,
			Rules:       &rules,
			Latencies:   cliConfig.Latency.scanLatencies(),
			ChatLatency: &chatLatency,
			Logger:      logger.Desugar(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		storeAppContext(cmd, &AppContext{
			Logger:   logger,
			DataDir:  dataDir,
			Lang:     i18n.Match(cliConfig.Defaults.Language),
			Config:   cliConfig,
			Services: services,
		})

		logger.Debugf("data_dir=%s lang=%s", dataDir, cliConfig.Defaults.Language)
		return nil
	},
}

// newLogger writes to stderr so it never mixes with command output.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shiksha-cli.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory for progress and reports (or set "+dataDirEnvVar+")")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", string(i18n.English), "display language (en or ne)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable development logging")

	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}
