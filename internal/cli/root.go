// Package cli implements the timetracker CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/config"
	"github.com/Grasinga/TimeTracker/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string

	cfg    *config.Config
	logger = slog.Default()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "timetracker",
	Short: "Timecards from chat clock-in messages",
	Long: "Reads clock-in and clock-out messages such as \"@alice in 0800\" from a chat channel, " +
		"pairs them per person and week, and reports hours for a two-week pay period.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		c, err := loadConfig(cmd)
		if err != nil {
			exitErr("config", err)
		}
		cfg = c
		logger = c.Log.NewLogger(os.Stderr)
		slog.SetDefault(logger)
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&dbPath, "db", "d", "", "Database path (default: $TIMETRACKER_DB or ~/.timetracker/timetracker.db)")
	flags.StringVarP(&configPath, "config", "c", "", "Config file (default: ./timetracker.yml or ~/.timetracker/timetracker.yml)")
	flags.StringVarP(&formatFlag, "format", "f", "text", "Output format: text or json")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	v := config.New()
	flags := cmd.Flags()
	for key, flag := range map[string]string{"db": "db", "log.level": "log-level", "log.format": "log-format"} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	if err := config.Read(v, configPath); err != nil {
		return nil, err
	}
	return config.Decode(v)
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DBPath()
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
