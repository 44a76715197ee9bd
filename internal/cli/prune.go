package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/payperiod"
	"github.com/Grasinga/TimeTracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored messages older than a date",
		Run:   runPrune,
	}

	cmd.Flags().String("before", "", "Delete messages before this date, MM/DD/YY (required)")
	cmd.Flags().StringP("channel", "C", "", "Only prune this channel")

	cmd.MarkFlagRequired("before")

	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	before, _ := cmd.Flags().GetString("before")
	channel, _ := cmd.Flags().GetString("channel")

	loc, err := cfg.Location()
	if err != nil {
		exitErr("prune", err)
	}
	cutoff, err := payperiod.ParseInLocation(before, loc)
	if err != nil {
		exitErr("prune", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := s.Prune(cmd.Context(), store.PruneParams{
		ChannelID: channel,
		Before:    cutoff.StartOfWeek1,
	})
	if err != nil {
		exitErr("prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"deleted":%d,"before":%q}`+"\n", n, cutoff.Start())
}
