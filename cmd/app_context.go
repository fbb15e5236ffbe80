package cmd

import (
	"context"

	"github.com/cybershikshax/shiksha-cli/internal/application"
	"github.com/cybershikshax/shiksha-cli/internal/i18n"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AppContext is the per-invocation state shared by every command. One
// AppContext means one session: its scan results live as long as it does.
type AppContext struct {
	Logger   *zap.SugaredLogger
	DataDir  string
	Lang     i18n.Lang
	Config   *CLIConfig
	Services *application.Container
}

type appContextKey struct{}

var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	if cmd == nil {
		return
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	cmd.SetContext(context.WithValue(parent, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if cmd != nil && cmd.Context() != nil {
		if appCtx, ok := cmd.Context().Value(appContextKey{}).(*AppContext); ok && appCtx != nil {
			return appCtx
		}
	}
	return globalAppContext
}
