package cmd

import (
	"fmt"
	"io"
	"strings"

	learnapp "github.com/cybershikshax/shiksha-cli/internal/application/learn"
	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Browse lessons and track your progress",
}

var learnTracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List the learning tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := getAppContext(cmd).Services.LearnService
		out := cmd.OutOrStdout()
		for _, track := range svc.Tracks() {
			p, err := svc.Progress(track.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-8s %s %d/%d topics complete\n", track.ID, progressBar(p.Ratio, 20), p.Completed, p.Total)
		}
		return nil
	},
}

var learnTopicsCmd = &cobra.Command{
	Use:   "topics <track>",
	Short: "List the topics of a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := getAppContext(cmd).Services.LearnService
		topics, err := svc.Topics(args[0])
		if err != nil {
			return translateLearnError(err, args[0], "")
		}
		for i, topic := range topics {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, topic)
		}
		return nil
	},
}

var learnCompleteCmd = &cobra.Command{
	Use:   "complete <track> <topic...>",
	Short: "Mark a topic as completed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := getAppContext(cmd).Services.LearnService
		track, topic := args[0], strings.Join(args[1:], " ")
		if err := svc.Complete(track, topic); err != nil {
			return translateLearnError(err, track, topic)
		}
		p, err := svc.Progress(track)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s marked complete (%d/%d in track %s)\n",
			colorSuccess("✓"), topic, p.Completed, p.Total, track)
		return nil
	},
}

var learnProgressCmd = &cobra.Command{
	Use:   "progress [track]",
	Short: "Show per-topic progress",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := getAppContext(cmd).Services.LearnService
		ids := svc.Tracks().IDs()
		if len(args) == 1 {
			ids = []string{args[0]}
		}
		for _, id := range ids {
			p, err := svc.Progress(id)
			if err != nil {
				return translateLearnError(err, id, "")
			}
			printTrackProgress(cmd.OutOrStdout(), svc, p)
		}
		return nil
	},
}

var learnResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear progress on every track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getAppContext(cmd).Services.LearnService.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Progress cleared\n", colorSuccess("✓"))
		return nil
	},
}

func init() {
	learnCmd.AddCommand(learnTracksCmd, learnTopicsCmd, learnCompleteCmd, learnProgressCmd, learnResetCmd)
}

func printTrackProgress(w io.Writer, svc *learnapp.Service, p learnapp.TrackProgress) {
	fmt.Fprintf(w, "%s %s\n", colorHeading("Track "+p.Track), progressBar(p.Ratio, 20))
	topics, _ := svc.Topics(p.Track)
	for i, topic := range topics {
		pct := p.Topics[topic]
		mark := colorWarn("○")
		if pct == 100 {
			mark = colorSuccess("●")
		}
		fmt.Fprintf(w, "  %d. %s %-36s %3d%%\n", i+1, mark, topic, pct)
	}
}

func progressBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
