package cmd

import (
	"time"

	scanapp "github.com/cybershikshax/shiksha-cli/internal/application/scan"
	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultServeAddr       = "127.0.0.1:8080"
	defaultRateLimit       = 10
	defaultRateBurst       = 20
	defaultMaxJobs         = 1000
	defaultShutdownTimeout = 30 * time.Second
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Defaults DefaultValues
	Latency  LatencyConfig
	Serve    ServeConfig
}

// DefaultValues represent user-level defaults, typically derived from env/config.
type DefaultValues struct {
	DataDir   string
	RulesFile string
	Language  string
}

// LatencyConfig holds the simulated delays. Zero disables a delay.
type LatencyConfig struct {
	Email time.Duration
	URL   time.Duration
	Port  time.Duration
	Chat  time.Duration
}

func (l LatencyConfig) scanLatencies() scanapp.Latencies {
	return scanapp.Latencies{
		scan.KindEmail: l.Email,
		scan.KindURL:   l.URL,
		scan.KindPort:  l.Port,
	}
}

// ServeConfig captures API server options.
type ServeConfig struct {
	Addr            string
	AuthToken       string
	RateLimit       int
	RateBurst       int
	MaxJobs         int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

type defaultOverrides struct {
	DataDir   string
	RulesFile string
	Language  string
	Latency   map[string]time.Duration
	Serve     serveOverrides
}

type serveOverrides struct {
	Addr        string
	AuthToken   string
	RateLimit   *int
	RateBurst   *int
	MaxJobs     *int
	CORSOrigins []string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Defaults: DefaultValues{
			Language: string(i18n.English),
		},
		Latency: LatencyConfig{
			Email: consts.EmailScanLatency,
			URL:   consts.URLScanLatency,
			Port:  consts.PortScanLatency,
			Chat:  consts.ChatLatency,
		},
		Serve: ServeConfig{
			Addr:            defaultServeAddr,
			RateLimit:       defaultRateLimit,
			RateBurst:       defaultRateBurst,
			MaxJobs:         defaultMaxJobs,
			ShutdownTimeout: defaultShutdownTimeout,
		},
	}
}

func loadDefaultOverrides() defaultOverrides {
	overrides := defaultOverrides{Latency: map[string]time.Duration{}}

	if viper.IsSet("data_dir") {
		overrides.DataDir = viper.GetString("data_dir")
	}
	if viper.IsSet("rules_file") {
		overrides.RulesFile = viper.GetString("rules_file")
	}
	if viper.IsSet("language") {
		overrides.Language = viper.GetString("language")
	}

	for _, key := range []string{"email", "url", "port", "chat"} {
		if viper.IsSet("latency." + key) {
			overrides.Latency[key] = viper.GetDuration("latency." + key)
		}
	}

	if viper.IsSet("serve.addr") {
		overrides.Serve.Addr = viper.GetString("serve.addr")
	}
	if viper.IsSet("serve.auth_token") {
		overrides.Serve.AuthToken = viper.GetString("serve.auth_token")
	}
	if viper.IsSet("serve.rate_limit") {
		val := viper.GetInt("serve.rate_limit")
		overrides.Serve.RateLimit = &val
	}
	if viper.IsSet("serve.rate_burst") {
		val := viper.GetInt("serve.rate_burst")
		overrides.Serve.RateBurst = &val
	}
	if viper.IsSet("serve.max_jobs") {
		val := viper.GetInt("serve.max_jobs")
		overrides.Serve.MaxJobs = &val
	}
	if viper.IsSet("serve.cors_origins") {
		overrides.Serve.CORSOrigins = viper.GetStringSlice("serve.cors_origins")
	}

	return overrides
}

// applyConfigDefaults merges config file defaults into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	overrides := loadDefaultOverrides()
	flags := cmd.Flags()

	cliConfig.Defaults.DataDir = dataDirFlag
	if overrides.DataDir != "" {
		applyStringDefault(flags, "data-dir", overrides.DataDir, func(v string) {
			cliConfig.Defaults.DataDir = v
		})
	}

	cliConfig.Defaults.RulesFile = overrides.RulesFile

	cliConfig.Defaults.Language = langFlag
	if overrides.Language != "" {
		applyStringDefault(flags, "lang", overrides.Language, func(v string) {
			cliConfig.Defaults.Language = v
		})
	}

	for key, d := range overrides.Latency {
		if d < 0 {
			continue
		}
		switch key {
		case "email":
			cliConfig.Latency.Email = d
		case "url":
			cliConfig.Latency.URL = d
		case "port":
			cliConfig.Latency.Port = d
		case "chat":
			cliConfig.Latency.Chat = d
		}
	}

	serveFlags := serveCmd.Flags()
	if overrides.Serve.Addr != "" {
		applyStringDefault(serveFlags, "addr", overrides.Serve.Addr, func(v string) {
			cliConfig.Serve.Addr = v
		})
	}
	if overrides.Serve.AuthToken != "" {
		applyStringDefault(serveFlags, "auth-token", overrides.Serve.AuthToken, func(v string) {
			cliConfig.Serve.AuthToken = v
		})
	}
	if overrides.Serve.RateLimit != nil {
		applyIntDefault(serveFlags, "rate-limit", *overrides.Serve.RateLimit, func(v int) {
			cliConfig.Serve.RateLimit = v
		})
	}
	if overrides.Serve.RateBurst != nil {
		applyIntDefault(serveFlags, "rate-burst", *overrides.Serve.RateBurst, func(v int) {
			cliConfig.Serve.RateBurst = v
		})
	}
	if overrides.Serve.MaxJobs != nil {
		applyIntDefault(serveFlags, "max-jobs", *overrides.Serve.MaxJobs, func(v int) {
			cliConfig.Serve.MaxJobs = v
		})
	}
	if len(overrides.Serve.CORSOrigins) > 0 {
		if flag := serveFlags.Lookup("cors-origins"); flag == nil || !flag.Changed {
			cliConfig.Serve.CORSOrigins = overrides.Serve.CORSOrigins
		}
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
