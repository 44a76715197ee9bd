package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Grasinga/TimeTracker/internal/chunker"
	"github.com/Grasinga/TimeTracker/internal/classify"
	"github.com/Grasinga/TimeTracker/internal/config"
	"github.com/Grasinga/TimeTracker/internal/payperiod"
	"github.com/Grasinga/TimeTracker/internal/report"
	"github.com/Grasinga/TimeTracker/internal/slackfeed"
	"github.com/Grasinga/TimeTracker/internal/store"
	"github.com/Grasinga/TimeTracker/internal/tracker"
)

// timesReport is one rendered pay period for a channel.
type timesReport struct {
	RunID   string                 `json:"run_id"`
	Period  payperiod.Period       `json:"period"`
	Blocks  []string               `json:"blocks"`
	Log     string                 `json:"log,omitempty"`
	Results *tracker.ChannelResult `json:"-"`
}

func newTracker(c *config.Config, l *slog.Logger) (*tracker.Tracker, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return tracker.New(classify.New(c.InWords, c.OutWords),
		tracker.WithLocation(loc),
		tracker.WithLogger(l)), nil
}

func newRenderer(ctx context.Context, s store.Store, c *config.Config, channel string) (*report.Renderer, error) {
	members, err := s.Members(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load members")
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return report.New(report.NamesFrom(members), report.Options{
		Channel:         channel,
		TimestampLayout: c.TimestampFormat,
		Location:        loc,
		LogURL:          c.LogURL,
	}), nil
}

// resolvePeriod reads an MM/DD/YY start from args, or falls back to the
// period containing now on the configured cycle.
func resolvePeriod(c *config.Config, args []string, now time.Time) (payperiod.Period, error) {
	loc, err := c.Location()
	if err != nil {
		return payperiod.Period{}, err
	}
	if len(args) > 0 && args[0] != "" {
		return payperiod.ParseInLocation(args[0], loc)
	}
	anchor, err := c.Anchor()
	if err != nil {
		return payperiod.Period{}, errors.Wrap(err, "no period start given")
	}
	return payperiod.Current(anchor, now.In(loc)), nil
}

// computeTimes loads the period's messages for channel and renders the
// channel report as postable blocks plus the anomaly log.
func computeTimes(ctx context.Context, s store.Store, c *config.Config, l *slog.Logger, p payperiod.Period, channel string) (*timesReport, error) {
	runID := uuid.NewString()
	l = l.With(slog.String("run_id", runID), slog.String("channel", channel), slog.String("period", p.Start()))

	msgs, err := s.ListMessages(ctx, store.ListParams{
		ChannelID: channel,
		Since:     p.StartOfWeek1,
		Until:     p.EndOfWeek2,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}

	t, err := newTracker(c, l)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer(ctx, s, c, channel)
	if err != nil {
		return nil, err
	}

	res := t.ComputeChannelPeriod(msgs, p)
	text := strings.Join(r.Times(res), "\n")
	blocks := chunker.Texts(chunker.Chunk(text, chunker.Options{
		MaxSize:    c.Report.MaxBlock,
		SectionEnd: report.Separator,
	}))

	out := &timesReport{RunID: runID, Period: p, Blocks: blocks, Results: res}
	if res.HasAnomalies() {
		out.Log = r.Log(res)
	}
	l.Info("computed times",
		slog.Int("messages", len(msgs)),
		slog.Int("people", len(res.People)),
		slog.Int("blocks", len(blocks)),
		slog.Bool("anomalies", res.HasAnomalies()))
	return out, nil
}

type syncParams struct {
	ChannelID string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// syncChannel copies channel history and member names into the store.
func syncChannel(ctx context.Context, feed *slackfeed.Feed, s store.Store, p syncParams) (int, error) {
	msgs, err := feed.History(ctx, slackfeed.HistoryParams{
		ChannelID: p.ChannelID,
		Oldest:    p.Since,
		Latest:    p.Until,
		Limit:     p.Limit,
	})
	if err != nil {
		return 0, err
	}
	n, err := s.PutMessages(ctx, msgs)
	if err != nil {
		return 0, errors.Wrap(err, "store messages")
	}

	members, err := feed.Members(ctx)
	if err != nil {
		return n, err
	}
	if err := s.PutMembers(ctx, members); err != nil {
		return n, errors.Wrap(err, "store members")
	}
	return n, nil
}

// deliver posts the report blocks to a Slack channel or user and, when the
// report has anomalies, writes the log file.
func deliver(ctx context.Context, feed *slackfeed.Feed, to, logFile string, rep *timesReport) error {
	if feed != nil && to != "" {
		if err := feed.Publish(ctx, to, rep.Blocks); err != nil {
			return err
		}
	}
	return writeLog(logFile, rep)
}

func writeLog(path string, rep *timesReport) error {
	if path == "" || rep.Log == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(rep.Log), 0o644); err != nil {
		return errors.Wrap(err, "write clock log")
	}
	return nil
}
