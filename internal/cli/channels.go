package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List channels with stored history",
		Run:   runChannels,
	}

	RootCmd.AddCommand(cmd)
}

func runChannels(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rows, err := s.Channels(cmd.Context())
	if err != nil {
		exitErr("list channels", err)
	}

	if formatFlag == "json" {
		printJSON(rows)
		return
	}
	for _, c := range rows {
		fmt.Printf("%-12s %6d messages %4d people  %s .. %s\n",
			c.ChannelID, c.Messages, c.People,
			c.First.Format("2006-01-02"), c.Last.Format("2006-01-02"))
	}
}
