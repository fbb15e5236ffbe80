package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message...>",
	Short: "Ask the cybersecurity tutor a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return askTutor(ctx, cmd, strings.Join(args, " "))
	},
}

func askTutor(ctx context.Context, cmd *cobra.Command, message string) error {
	svc := getAppContext(cmd).Services.LearnService

	spin := newSpinner(cmd.ErrOrStderr(), "Tutor is typing")
	spin.Start()
	reply, err := svc.Ask(ctx, message)
	spin.Stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colorInfo("Tutor:"), reply.Text)
	return nil
}
