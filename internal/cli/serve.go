package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Grasinga/TimeTracker/internal/config"
	"github.com/Grasinga/TimeTracker/internal/payperiod"
	"github.com/Grasinga/TimeTracker/internal/slackfeed"
	"github.com/Grasinga/TimeTracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Report the last finished pay period on a schedule",
		Long: "Run the schedule from config. Each run syncs the channel, computes the pay period that " +
			"ended most recently on the period-anchor cycle, posts it to slack.report-to and writes the " +
			"clock log to report.log-file.",
		Run: runServe,
	}

	cmd.Flags().Bool("once", false, "Run one report now and exit")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	once, _ := cmd.Flags().GetBool("once")

	if cfg.Slack.Channel == "" || cfg.Slack.ReportTo == "" {
		exitErr("serve", errors.New("slack.channel and slack.report-to are required"))
	}
	if _, err := cfg.Anchor(); err != nil {
		exitErr("serve", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		exitErr("serve", err)
	}

	feed, err := slackfeed.NewFromToken(cfg.Slack.Token, logger)
	if err != nil {
		exitErr("serve", err)
	}
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	j := &reportJob{cfg: cfg, feed: feed, store: s, logger: logger, now: time.Now}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		if err := j.run(ctx); err != nil {
			exitErr("report", err)
		}
		return
	}

	if cfg.Schedule == "" {
		exitErr("serve", errors.New("schedule is not set"))
	}
	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(cfg.Schedule, func() {
		if err := j.run(ctx); err != nil {
			logger.Error("report failed", slog.Any("error", err))
		}
	}); err != nil {
		exitErr("schedule", err)
	}

	c.Start()
	logger.Info("serving", slog.String("schedule", cfg.Schedule), slog.String("channel", cfg.Slack.Channel))
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("stopped")
}

// reportJob syncs, computes and delivers the last finished pay period.
type reportJob struct {
	cfg    *config.Config
	feed   *slackfeed.Feed
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func (j *reportJob) period() (payperiod.Period, error) {
	anchor, err := j.cfg.Anchor()
	if err != nil {
		return payperiod.Period{}, err
	}
	loc, err := j.cfg.Location()
	if err != nil {
		return payperiod.Period{}, err
	}
	return payperiod.Current(anchor, j.now().In(loc)).Previous(), nil
}

func (j *reportJob) run(ctx context.Context) error {
	p, err := j.period()
	if err != nil {
		return err
	}
	channel := j.cfg.Slack.Channel

	if _, err := syncChannel(ctx, j.feed, j.store, syncParams{
		ChannelID: channel,
		Since:     p.StartOfWeek1,
		Until:     p.EndOfWeek2,
		Limit:     j.cfg.MessageRecall,
	}); err != nil {
		return errors.Wrap(err, "sync")
	}

	rep, err := computeTimes(ctx, j.store, j.cfg, j.logger, p, channel)
	if err != nil {
		return err
	}
	return deliver(ctx, j.feed, j.cfg.Slack.ReportTo, j.cfg.Report.LogFile, rep)
}

// cronLogger routes scheduler logs to slog. Routine scheduler chatter goes
// to debug.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
