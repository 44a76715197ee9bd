package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored messages",
		Long:  "List stored messages oldest first. --limit keeps the newest N.",
		Run:   runList,
	}

	cmd.Flags().StringP("channel", "C", "", "Filter by channel")
	cmd.Flags().StringP("person", "p", "", "Only messages whose first mention is this person")
	cmd.Flags().IntP("limit", "l", 20, "Max results (0 for all)")
	cmd.Flags().Bool("ids-only", false, "Only output message ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	channel, _ := cmd.Flags().GetString("channel")
	person, _ := cmd.Flags().GetString("person")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	msgs, err := s.ListMessages(cmd.Context(), store.ListParams{
		ChannelID: channel,
		PersonID:  person,
		Limit:     limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, m := range msgs {
			fmt.Println(m.ID)
		}
		return
	}

	printJSON(msgs)
}
