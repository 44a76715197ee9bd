package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/payperiod"
	"github.com/Grasinga/TimeTracker/internal/slackfeed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "times [MM/DD/YY]",
		Short: "Report everyone's hours for a pay period",
		Long: "Compute weekly and total hours for every person clocked in the channel during the two weeks " +
			"starting on the given date. Without a date the current period on the period-anchor cycle is used. " +
			"With --post the report is sent to Slack in blocks that fit one message each.",
		Args: cobra.MaximumNArgs(1),
		Run:  runTimes,
	}

	cmd.Flags().StringP("channel", "C", "", "Channel id (default: slack.channel)")
	cmd.Flags().Bool("post", false, "Post the report to Slack")
	cmd.Flags().String("to", "", "Slack channel or user to post to (default: slack.report-to)")
	cmd.Flags().String("log", "", "Write invalid and unmatched clocks to this file")

	RootCmd.AddCommand(cmd)
}

func runTimes(cmd *cobra.Command, args []string) {
	channel, _ := cmd.Flags().GetString("channel")
	post, _ := cmd.Flags().GetBool("post")
	to, _ := cmd.Flags().GetString("to")
	logFile, _ := cmd.Flags().GetString("log")
	if channel == "" {
		channel = cfg.Slack.Channel
	}
	if to == "" {
		to = cfg.Slack.ReportTo
	}

	p, err := resolvePeriod(cfg, args, time.Now())
	if err != nil {
		exitErr("period", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	rep, err := computeTimes(ctx, s, cfg, logger, p, channel)
	if err != nil {
		exitErr("times", err)
	}

	var feed *slackfeed.Feed
	if post {
		if to == "" {
			exitErr("times", errors.New("nowhere to post (--to or slack.report-to)"))
		}
		if feed, err = slackfeed.NewFromToken(cfg.Slack.Token, logger); err != nil {
			exitErr("times", err)
		}
	}
	if err := deliver(ctx, feed, to, logFile, rep); err != nil {
		exitErr("times", err)
	}

	if formatFlag == "json" {
		printJSON(rep)
		return
	}
	if len(rep.Blocks) == 0 {
		fmt.Printf("No clocks between %s.\n", periodRange(rep))
		return
	}
	for _, b := range rep.Blocks {
		fmt.Println(b)
		fmt.Println()
	}
}

func periodRange(rep *timesReport) string {
	return rep.Period.Start() + " and " + rep.Period.EndOfWeek2.Format(payperiod.Layout)
}
