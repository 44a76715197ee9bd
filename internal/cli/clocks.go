package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clocks [MM/DD/YY]",
		Short: "Show one person's clocks for a pay period",
		Long: "List a person's clocks for the two weeks starting on the given date, grouped by week. " +
			"Without a date the current period on the period-anchor cycle is used.",
		Args: cobra.MaximumNArgs(1),
		Run:  runClocks,
	}

	cmd.Flags().StringP("person", "p", "", "Person id (required)")
	cmd.Flags().StringP("channel", "C", "", "Channel id (default: slack.channel)")
	cmd.Flags().Bool("hours", false, "Show weekly hours and warnings too")

	cmd.MarkFlagRequired("person")

	RootCmd.AddCommand(cmd)
}

func runClocks(cmd *cobra.Command, args []string) {
	person, _ := cmd.Flags().GetString("person")
	channel, _ := cmd.Flags().GetString("channel")
	withHours, _ := cmd.Flags().GetBool("hours")
	if channel == "" {
		channel = cfg.Slack.Channel
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
	msgs, err := s.ListMessages(ctx, store.ListParams{
		ChannelID: channel,
		PersonID:  person,
		Since:     p.StartOfWeek1,
		Until:     p.EndOfWeek2,
	})
	if err != nil {
		exitErr("list messages", err)
	}

	t, err := newTracker(cfg, logger)
	if err != nil {
		exitErr("clocks", err)
	}
	res := t.Compute(person, msgs, p)

	if formatFlag == "json" {
		printJSON(res)
		return
	}

	r, err := newRenderer(ctx, s, cfg, channel)
	if err != nil {
		exitErr("clocks", errors.Wrap(err, "render"))
	}
	if withHours {
		fmt.Print(r.Member(res))
		return
	}
	fmt.Print(r.Clocks(res))
}
