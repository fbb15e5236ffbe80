package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/application"
	scanapp "github.com/cybershikshax/shiksha-cli/internal/application/scan"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zaptest"
)

// setupTestAppContext installs an AppContext backed by a temp data dir,
// with every simulated delay disabled and a deterministic tutor.
func setupTestAppContext(t *testing.T) *AppContext {
	t.Helper()

	originalCtx := globalAppContext
	originalNoColor := color.NoColor
	originalProbe := probeConnectivity
	t.Cleanup(func() {
		globalAppContext = originalCtx
		color.NoColor = originalNoColor
		probeConnectivity = originalProbe
	})
	color.NoColor = true
	probeConnectivity = func() bool { return true }

	dataDir := t.TempDir()
	t.Setenv(dataDirEnvVar, dataDir)

	noWait := time.Duration(0)
	logger := zaptest.NewLogger(t)
	services, err := application.NewContainer(application.Options{
		DataDir:     dataDir,
		Latencies:   scanapp.Latencies{},
		ChatLatency: &noWait,
		Picker:      func(int) int { return 0 },
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("failed to initialize services: %v", err)
	}

	appCtx := &AppContext{
		Logger:   logger.Sugar(),
		DataDir:  dataDir,
		Lang:     i18n.English,
		Config:   newCLIConfig(),
		Services: services,
	}
	globalAppContext = appCtx
	return appCtx
}

// runCommand invokes c.RunE with captured output and the given stdin.
func runCommand(t *testing.T, c *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c.SetIn(strings.NewReader(stdin))
	c.SetOut(&out)
	c.SetErr(&errOut)
	t.Cleanup(func() {
		c.SetIn(nil)
		c.SetOut(nil)
		c.SetErr(nil)
	})
	err := c.RunE(c, args)
	return out.String(), err
}
