// Package config loads timetracker settings from a YAML file, the
// environment and an optional .env file.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/Grasinga/TimeTracker/internal/payperiod"
)

// EnvPrefix prefixes every environment override, e.g. TIMETRACKER_TIMEZONE.
const EnvPrefix = "TIMETRACKER"

// Config holds every setting.
type Config struct {
	InWords         []string `mapstructure:"in-words"`
	OutWords        []string `mapstructure:"out-words"`
	TimestampFormat string   `mapstructure:"timestamp-format"`
	Timezone        string   `mapstructure:"timezone"`
	LogURL          string   `mapstructure:"log-url"`
	MessageRecall   int      `mapstructure:"message-recall"`
	PeriodAnchor    string   `mapstructure:"period-anchor"`
	DB              string   `mapstructure:"db"`
	Schedule        string   `mapstructure:"schedule"`
	Report          Report   `mapstructure:"report"`
	Slack           Slack    `mapstructure:"slack"`
	Log             Log      `mapstructure:"log"`
}

// Report configures report output.
type Report struct {
	MaxBlock int    `mapstructure:"max-block"`
	LogFile  string `mapstructure:"log-file"`
}

// Slack configures the chat adapter.
type Slack struct {
	Token    string `mapstructure:"token"`
	Channel  string `mapstructure:"channel"`
	ReportTo string `mapstructure:"report-to"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("in-words", []string{"In", "On", "Back"})
	v.SetDefault("out-words", []string{"Out", "Off"})
	v.SetDefault("timestamp-format", "01/02/06 03:04 PM")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log-url", "")
	v.SetDefault("message-recall", 300)
	v.SetDefault("period-anchor", "")
	v.SetDefault("db", "")
	v.SetDefault("schedule", "")
	v.SetDefault("report.max-block", 2000)
	v.SetDefault("report.log-file", "log.txt")
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.channel", "")
	v.SetDefault("slack.report-to", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment overrides.
// Keys map to variables by upper-casing and replacing "-" and "." with "_":
// report.max-block is TIMETRACKER_REPORT_MAX_BLOCK. The Slack token is also
// read from SLACK_BOT_TOKEN.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("slack.token", EnvPrefix+"_SLACK_TOKEN", "SLACK_BOT_TOKEN")
	return v
}

// LoadEnv reads .env style files into the process environment. Missing
// files are skipped; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// Read loads the config file into v. An empty path searches for
// timetracker.yml in the working directory and ~/.timetracker; not finding
// one is fine. An explicit path must exist.
func Read(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("timetracker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".timetracker"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	return nil
}

// Decode unmarshals and validates v.
func Decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load is LoadEnv, Read and Decode with a fresh viper instance.
func Load(path string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}
	v := New()
	if err := Read(v, path); err != nil {
		return nil, err
	}
	return Decode(v)
}

func (c *Config) normalize() {
	c.InWords = trimWords(c.InWords)
	c.OutWords = trimWords(c.OutWords)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func trimWords(words []string) []string {
	out := words[:0:0]
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Validate checks every setting that can be checked without the network.
func (c *Config) Validate() error {
	if len(c.InWords) == 0 {
		return errors.New("in-words must not be empty")
	}
	if len(c.OutWords) == 0 {
		return errors.New("out-words must not be empty")
	}
	in := map[string]bool{}
	for _, w := range c.InWords {
		in[strings.ToLower(w)] = true
	}
	for _, w := range c.OutWords {
		if in[strings.ToLower(w)] {
			return errors.Errorf("%q is both an in-word and an out-word", w)
		}
	}
	if c.TimestampFormat == "" {
		return errors.New("timestamp-format must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.MessageRecall <= 0 {
		return errors.Errorf("message-recall must be positive, got %d", c.MessageRecall)
	}
	if c.Report.MaxBlock <= 0 {
		return errors.Errorf("report.max-block must be positive, got %d", c.Report.MaxBlock)
	}
	if c.PeriodAnchor != "" {
		if _, err := c.Anchor(); err != nil {
			return err
		}
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return errors.Wrapf(err, "invalid schedule %q", c.Schedule)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Location returns the configured zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", c.Timezone)
	}
	return loc, nil
}

// Anchor returns the period that starts on period-anchor.
func (c *Config) Anchor() (payperiod.Period, error) {
	if c.PeriodAnchor == "" {
		return payperiod.Period{}, errors.New("period-anchor is not set")
	}
	loc, err := c.Location()
	if err != nil {
		return payperiod.Period{}, err
	}
	p, err := payperiod.ParseInLocation(c.PeriodAnchor, loc)
	if err != nil {
		return payperiod.Period{}, errors.Wrap(err, "period-anchor")
	}
	return p, nil
}

// DBPath returns the database path, defaulting to ~/.timetracker/timetracker.db.
func (c *Config) DBPath() string {
	if c.DB != "" {
		return c.DB
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".timetracker", "timetracker.db")
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown log level %q", s)
}

// NewLogger builds a logger for the log settings.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(l.Level)
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
