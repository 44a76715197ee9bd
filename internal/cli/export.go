package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export chat history as JSON",
		Long:  "Export stored messages and member names as a JSON archive. Filter by channel with -C.",
		Run:   runExport,
	}

	cmd.Flags().StringP("channel", "C", "", "Filter by channel")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	channel, _ := cmd.Flags().GetString("channel")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	archive, err := s.ExportAll(cmd.Context(), channel)
	if err != nil {
		exitErr("export", err)
	}

	printJSON(archive)
}
