// Package tracker turns a channel's messages into per-person clocks and
// weekly hours for one pay period.
package tracker

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/Grasinga/TimeTracker/internal/classify"
	"github.com/Grasinga/TimeTracker/internal/model"
	"github.com/Grasinga/TimeTracker/internal/payperiod"
)

// Week is the outcome for one of the two weeks in a period.
type Week struct {
	Number int `json:"number"`
	// Clocks holds every clock that fell into the week, oldest first.
	Clocks []model.Clock `json:"clocks"`
	Association
	Hours float64 `json:"hours"`
	// Suspect lists pairs with a zero or negative delta. They are already
	// counted in Hours.
	Suspect []model.Pair `json:"suspect,omitempty"`
}

// Result is the timecard for one person.
type Result struct {
	PersonID string           `json:"person_id"`
	Period   payperiod.Period `json:"period"`
	Weeks    [2]Week          `json:"weeks"`
	Total    float64          `json:"total"`
	Invalid  []model.Clock    `json:"invalid"`
	Singles  []model.Clock    `json:"singles"`
}

// Clocks returns the clocks of both weeks in order.
func (r *Result) Clocks() []model.Clock {
	out := make([]model.Clock, 0, len(r.Weeks[0].Clocks)+len(r.Weeks[1].Clocks))
	out = append(out, r.Weeks[0].Clocks...)
	return append(out, r.Weeks[1].Clocks...)
}

// HasAnomalies reports whether any clock was invalid or left unmatched.
func (r *Result) HasAnomalies() bool {
	return len(r.Invalid) > 0 || len(r.Singles) > 0
}

// ChannelResult holds the timecards of everyone clocked in a channel.
type ChannelResult struct {
	Period payperiod.Period `json:"period"`
	People []*Result        `json:"people"`
	// Unassigned holds messages in the window that name a clock keyword but
	// mention nobody, so they cannot be credited to anyone.
	Unassigned []model.Clock `json:"unassigned,omitempty"`
}

// HasAnomalies reports whether any person or unassigned message needs review.
func (c *ChannelResult) HasAnomalies() bool {
	if len(c.Unassigned) > 0 {
		return true
	}
	for _, r := range c.People {
		if r.HasAnomalies() {
			return true
		}
	}
	return false
}

// Tracker computes timecards. It holds no per-run state and is safe for
// concurrent use.
type Tracker struct {
	classifier *classify.Classifier
	loc        *time.Location
	logger     *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger for association warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithLocation sets the zone period start dates are read in. UTC by default.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

// New returns a tracker that classifies with c.
func New(c *classify.Classifier, opts ...Option) *Tracker {
	t := &Tracker{classifier: c, logger: slog.Default()}
	for _, o := range opts {
		o(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.classifier == nil {
		t.classifier = classify.New(classify.DefaultInWords, classify.DefaultOutWords)
	}
	return t
}

// Period parses a MM/DD/YY start date in the tracker's zone.
func (t *Tracker) Period(start string) (payperiod.Period, error) {
	return payperiod.ParseInLocation(start, t.loc)
}

// ComputeClocksAndHours builds personID's timecard for the period starting on
// periodStart. Only messages whose first mention is personID and whose
// timestamp lies in the period are used. A malformed periodStart is the only
// error; bad messages end up in the invalid set.
func (t *Tracker) ComputeClocksAndHours(personID string, messages []model.ChatMessage, periodStart string) (*Result, error) {
	p, err := t.Period(periodStart)
	if err != nil {
		return nil, errors.Wrap(err, "compute clocks")
	}
	return t.Compute(personID, messages, p), nil
}

// Compute is ComputeClocksAndHours for an already parsed period.
func (t *Tracker) Compute(personID string, messages []model.ChatMessage, p payperiod.Period) *Result {
	var mine []model.ChatMessage
	for _, m := range messages {
		if m.FirstMention() == personID && p.WithinPeriod(m.Timestamp) {
			mine = append(mine, m)
		}
	}
	sortMessages(mine)
	return t.compute(personID, mine, p)
}

// ComputeChannel builds a timecard for every person first-mentioned in the
// period, ordered by person id.
func (t *Tracker) ComputeChannel(messages []model.ChatMessage, periodStart string) (*ChannelResult, error) {
	p, err := t.Period(periodStart)
	if err != nil {
		return nil, errors.Wrap(err, "compute channel")
	}
	return t.ComputeChannelPeriod(messages, p), nil
}

// ComputeChannelPeriod is ComputeChannel for an already parsed period.
func (t *Tracker) ComputeChannelPeriod(messages []model.ChatMessage, p payperiod.Period) *ChannelResult {
	byPerson := map[string][]model.ChatMessage{}
	res := &ChannelResult{Period: p}
	var loose []model.ChatMessage

	for _, m := range messages {
		if !p.WithinPeriod(m.Timestamp) {
			continue
		}
		person := m.FirstMention()
		if person == "" {
			loose = append(loose, m)
			continue
		}
		byPerson[person] = append(byPerson[person], m)
	}

	ids := make([]string, 0, len(byPerson))
	for id := range byPerson {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		msgs := byPerson[id]
		sortMessages(msgs)
		res.People = append(res.People, t.compute(id, msgs, p))
	}

	sortMessages(loose)
	for _, m := range loose {
		if c := t.classifier.Classify(m); c.Intended != "" {
			res.Unassigned = append(res.Unassigned, c)
		}
	}

	t.logger.Debug("computed channel",
		slog.String("period", p.Start()),
		slog.Int("people", len(res.People)),
		slog.Int("unassigned", len(res.Unassigned)))
	return res
}

// compute expects msgs to be filtered to the person and period and sorted.
func (t *Tracker) compute(personID string, msgs []model.ChatMessage, p payperiod.Period) *Result {
	res := &Result{PersonID: personID, Period: p}
	res.Weeks[0].Number = 1
	res.Weeks[1].Number = 2

	for _, m := range msgs {
		c := t.classifier.Classify(m)
		w := &res.Weeks[1]
		if p.WithinFirstWeek(c.Timestamp) {
			w = &res.Weeks[0]
		}
		w.Clocks = append(w.Clocks, c)
	}

	logger := t.logger.With(slog.String("person", personID), slog.String("period", p.Start()))
	for i := range res.Weeks {
		w := &res.Weeks[i]
		w.Association = Associate(personID, w.Clocks, logger.With(slog.Int("week", w.Number)))
		w.Hours = WeekHours(w.Pairs)
		w.Suspect = suspectPairs(w.Pairs)
		for _, s := range w.Suspect {
			logger.Warn("non-positive pair",
				slog.Int("week", w.Number),
				slog.String("in", s.In.Message.ID),
				slog.String("out", s.Out.Message.ID),
				slog.Float64("hours", s.Hours()))
		}
		res.Total += w.Hours
		res.Invalid = append(res.Invalid, w.Invalid...)
		res.Singles = append(res.Singles, w.Singles...)
	}

	logger.Debug("computed clocks",
		slog.Float64("week1", res.Weeks[0].Hours),
		slog.Float64("week2", res.Weeks[1].Hours),
		slog.Int("invalid", len(res.Invalid)),
		slog.Int("singles", len(res.Singles)))
	return res
}

func sortMessages(msgs []model.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
