package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search stored messages by text",
		Long:  "Search stored message text, newest first. Useful for finding a clock that was typed oddly.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("channel", "C", "", "Filter by channel")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	channel, _ := cmd.Flags().GetString("channel")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		ChannelID: channel,
		Query:     query,
		Limit:     limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "json" {
		if len(results) == 0 {
			fmt.Println("[]")
			return
		}
		printJSON(results)
		return
	}
	for _, m := range results {
		fmt.Printf("%s  %s  %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.ChannelID, m.AuthorID, m.Text)
	}
}
