package tracker

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Grasinga/TimeTracker/internal/model"
)

// Association is the outcome of pairing one person's clocks for one week.
type Association struct {
	Pairs   []model.Pair  `json:"pairs"`
	Singles []model.Clock `json:"singles"`
	Invalid []model.Clock `json:"invalid"`
}

type state int

const (
	awaitingIn state = iota
	awaitingOut
)

func (s state) String() string {
	if s == awaitingOut {
		return "awaiting_out"
	}
	return "awaiting_in"
}

// Associate pairs a chronological list of clocks for personID. Each in-clock
// opens a pair and the next out-clock closes it. An out-clock with no open
// pair, an in-clock replaced by a later in-clock, and a pair still open at
// the end are singles. Invalid clocks never change the state.
//
// Clocks for someone other than personID are logged and kept as singles.
func Associate(personID string, clocks []model.Clock, logger *slog.Logger) Association {
	if logger == nil {
		logger = slog.Default()
	}
	a := &associator{person: personID, logger: logger}
	for _, c := range clocks {
		a.step(c)
	}
	a.finish()
	return a.res
}

type associator struct {
	person string
	logger *slog.Logger
	state  state
	open   *model.Clock
	last   time.Time
	res    Association
}

func (a *associator) step(c model.Clock) {
	if c.Timestamp.Before(a.last) {
		a.warn("clock out of order", c, slog.Time("previous", a.last))
	} else {
		a.last = c.Timestamp
	}

	if !c.Valid() {
		a.res.Invalid = append(a.res.Invalid, c)
		return
	}
	if a.person != "" && c.PersonID != a.person {
		a.warn("clock belongs to another person", c, slog.String("clock_person", c.PersonID))
		a.single(c)
		return
	}

	switch c.Kind {
	case model.KindIn:
		if a.state == awaitingOut && a.open != nil {
			a.single(*a.open)
		}
		open := c
		a.open = &open
		a.state = awaitingOut

	case model.KindOut:
		if a.state == awaitingIn {
			a.single(c)
			return
		}
		if a.open == nil {
			a.warn("no open pair for clock-out", c)
			a.single(c)
			a.state = awaitingIn
			return
		}
		a.res.Pairs = append(a.res.Pairs, model.Pair{In: *a.open, Out: c})
		a.open = nil
		a.state = awaitingIn

	default:
		a.warn("unknown clock kind", c, slog.String("kind", string(c.Kind)))
		a.single(c)
	}
}

func (a *associator) finish() {
	if a.open != nil {
		a.single(*a.open)
		a.open = nil
	}
	a.state = awaitingIn
	sort.SliceStable(a.res.Singles, func(i, j int) bool {
		return a.res.Singles[i].Timestamp.Before(a.res.Singles[j].Timestamp)
	})
}

func (a *associator) single(c model.Clock) {
	a.res.Singles = append(a.res.Singles, c)
}

func (a *associator) warn(msg string, c model.Clock, attrs ...any) {
	args := []any{
		slog.String("person", a.person),
		slog.String("message", c.Message.ID),
		slog.Time("timestamp", c.Timestamp),
		slog.String("state", a.state.String()),
	}
	a.logger.Warn(msg, append(args, attrs...)...)
}
