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
		Use:   "sync",
		Short: "Copy Slack channel history into the local store",
		Long: "Read recent messages and member names from Slack and store them. Reads at most " +
			"message-recall messages unless --limit is given.",
		Run: runSync,
	}

	cmd.Flags().StringP("channel", "C", "", "Slack channel id (default: slack.channel)")
	cmd.Flags().String("since", "", "Only read messages from this date on, MM/DD/YY")
	cmd.Flags().IntP("limit", "l", 0, "Max messages to read (default: message-recall)")

	RootCmd.AddCommand(cmd)
}

func runSync(cmd *cobra.Command, args []string) {
	channel, _ := cmd.Flags().GetString("channel")
	since, _ := cmd.Flags().GetString("since")
	limit, _ := cmd.Flags().GetInt("limit")

	if channel == "" {
		channel = cfg.Slack.Channel
	}
	if channel == "" {
		exitErr("sync", errors.New("channel is required (--channel or slack.channel)"))
	}
	if limit <= 0 {
		limit = cfg.MessageRecall
	}

	var oldest time.Time
	if since != "" {
		loc, err := cfg.Location()
		if err != nil {
			exitErr("sync", err)
		}
		p, err := payperiod.ParseInLocation(since, loc)
		if err != nil {
			exitErr("sync", err)
		}
		oldest = p.StartOfWeek1
	}

	feed, err := slackfeed.NewFromToken(cfg.Slack.Token, logger)
	if err != nil {
		exitErr("sync", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := syncChannel(cmd.Context(), feed, s, syncParams{
		ChannelID: channel,
		Since:     oldest,
		Limit:     limit,
	})
	if err != nil {
		exitErr("sync", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"channel":%q,"stored":%d}`+"\n", channel, n)
}
