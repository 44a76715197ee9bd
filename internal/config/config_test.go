package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDecode_Defaults(t *testing.T) {
	c, err := Decode(New())
	require.NoError(t, err)

	assert.Equal(t, []string{"In", "On", "Back"}, c.InWords)
	assert.Equal(t, []string{"Out", "Off"}, c.OutWords)
	assert.Equal(t, 300, c.MessageRecall)
	assert.Equal(t, 2000, c.Report.MaxBlock)
	assert.Equal(t, "log.txt", c.Report.LogFile)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Contains(t, c.DBPath(), filepath.Join(".timetracker", "timetracker.db"))
}

func TestRead_File(t *testing.T) {
	if _, err := (&Config{Timezone: "America/Denver"}).Location(); err != nil {
		t.Skipf("no zoneinfo: %v", err)
	}
	path := writeFile(t, "timetracker.yml", `
in-words: [Arrived, " Here "]
out-words: [Left]
timestamp-format: "Jan 2 15:04"
timezone: America/Denver
log-url: https://example.com/log
message-recall: 50
period-anchor: "01/06/24"
schedule: "0 6 * * 6"
report:
  max-block: 1000
slack:
  channel: C123
`)
	v := New()
	require.NoError(t, Read(v, path))
	c, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"Arrived", "Here"}, c.InWords)
	assert.Equal(t, []string{"Left"}, c.OutWords)
	assert.Equal(t, "Jan 2 15:04", c.TimestampFormat)
	assert.Equal(t, 50, c.MessageRecall)
	assert.Equal(t, 1000, c.Report.MaxBlock)
	assert.Equal(t, "C123", c.Slack.Channel)
	assert.Equal(t, "https://example.com/log", c.LogURL)

	anchor, err := c.Anchor()
	require.NoError(t, err)
	assert.Equal(t, "01/06/24", anchor.Start())
	assert.Equal(t, "America/Denver", anchor.StartOfWeek1.Location().String())
}

func TestRead_MissingExplicitFile(t *testing.T) {
	err := Read(New(), filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestRead_NoFileIsFine(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
	assert.NoError(t, Read(New(), ""))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TIMETRACKER_MESSAGE_RECALL", "25")
	t.Setenv("TIMETRACKER_REPORT_MAX_BLOCK", "500")
	t.Setenv("TIMETRACKER_LOG_LEVEL", "DEBUG")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")

	c, err := Decode(New())
	require.NoError(t, err)
	assert.Equal(t, 25, c.MessageRecall)
	assert.Equal(t, 500, c.Report.MaxBlock)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "xoxb-test", c.Slack.Token)
}

func TestLoadEnv(t *testing.T) {
	path := writeFile(t, ".env", "TIMETRACKER_TEST_ONLY=from-dotenv\n")
	t.Setenv("TIMETRACKER_TEST_ONLY", "")
	os.Unsetenv("TIMETRACKER_TEST_ONLY")

	require.NoError(t, LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("TIMETRACKER_TEST_ONLY"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c, err := Decode(New())
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no in-words", func(c *Config) { c.InWords = nil }, "in-words"},
		{"no out-words", func(c *Config) { c.OutWords = nil }, "out-words"},
		{"overlap", func(c *Config) { c.OutWords = []string{"IN"} }, "both"},
		{"bad zone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"recall", func(c *Config) { c.MessageRecall = 0 }, "message-recall"},
		{"block", func(c *Config) { c.Report.MaxBlock = -1 }, "max-block"},
		{"anchor", func(c *Config) { c.PeriodAnchor = "2024-01-06" }, "period-anchor"},
		{"schedule", func(c *Config) { c.Schedule = "every tuesday" }, "schedule"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	Log{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	Log{Level: "debug", Format: "json"}.NewLogger(&buf).Debug("shown", slog.String("k", "v"))
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
