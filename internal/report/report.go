// Package report renders timecards as chat-ready text.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Grasinga/TimeTracker/internal/model"
	"github.com/Grasinga/TimeTracker/internal/payperiod"
	"github.com/Grasinga/TimeTracker/internal/tracker"
)

// WeekLayout formats week boundaries, e.g. "01/06/24 (Saturday)".
const WeekLayout = "01/02/06 (Monday)"

// DefaultTimestampLayout formats message timestamps in listings.
const DefaultTimestampLayout = "01/02/06 03:04 PM"

// Separator ends every member section.
const Separator = "---------------"

// Names maps member ids to display names.
type Names map[string]string

// Name returns the display name for id, or id itself when unknown.
func (n Names) Name(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

// NamesFrom builds a lookup from stored members.
func NamesFrom(members []model.Member) Names {
	n := make(Names, len(members))
	for _, m := range members {
		n[m.ID] = m.Name
	}
	return n
}

// Options controls rendering.
type Options struct {
	// Channel is shown next to each member's name.
	Channel string
	// TimestampLayout is a Go time layout for message timestamps.
	TimestampLayout string
	// Location is the zone timestamps are shown in.
	Location *time.Location
	// LogURL is where readers can find the anomaly log.
	LogURL string
}

// Renderer formats results. It is safe for concurrent use.
type Renderer struct {
	names Names
	opts  Options
}

// New returns a renderer.
func New(names Names, opts Options) *Renderer {
	if opts.TimestampLayout == "" {
		opts.TimestampLayout = DefaultTimestampLayout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if names == nil {
		names = Names{}
	}
	return &Renderer{names: names, opts: opts}
}

// Times renders one section per person.
func (r *Renderer) Times(ch *tracker.ChannelResult) []string {
	out := make([]string, 0, len(ch.People))
	for _, res := range ch.People {
		out = append(out, r.Member(res))
	}
	return out
}

// Member renders a person's clocks, weekly hours and total, followed by a
// warning when any clock was invalid or unmatched.
func (r *Renderer) Member(res *tracker.Result) string {
	var b strings.Builder
	b.WriteString(r.header(res.PersonID))
	b.WriteString("\n\n")

	for i, w := range res.Weeks {
		start, end := weekBounds(res.Period, i)
		for _, c := range w.Clocks {
			b.WriteString(r.Line(c))
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "\n%s: %s hours\n\n", WeekRange(start, end), FormatHours(w.Hours))
	}

	fmt.Fprintf(&b, "Total: %s hours\n", FormatHours(res.Total))
	b.WriteString(r.Warning(res))
	b.WriteString(Separator)
	b.WriteByte('\n')
	return b.String()
}

// Clocks renders a person's clocks grouped by week without hours.
func (r *Renderer) Clocks(res *tracker.Result) string {
	var b strings.Builder
	b.WriteString(r.header(res.PersonID))
	b.WriteString("\n\n")
	for i, w := range res.Weeks {
		start, end := weekBounds(res.Period, i)
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s to %s:\n\n", start.Format(WeekLayout), end.Format(WeekLayout))
		for _, c := range w.Clocks {
			b.WriteString(r.Line(c))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Warning returns the notice appended to a section with anomalies, or "".
func (r *Renderer) Warning(res *tracker.Result) string {
	invalid, single := len(res.Invalid) > 0, len(res.Singles) > 0
	var cause string
	switch {
	case invalid && single:
		cause = "Having single or incorrectly formatted clocks."
	case invalid:
		cause = "Invalid format for clocks."
	case single:
		cause = "Single clocks."
	default:
		return ""
	}

	var b strings.Builder
	b.WriteString("Hours calculated may be invalid due to:\n")
	b.WriteString(cause)
	b.WriteByte('\n')
	if r.opts.LogURL != "" {
		fmt.Fprintf(&b, "Check %s for more info.\n", r.opts.LogURL)
	}
	return b.String()
}

// Log renders the anomaly log for a channel run. People without anomalies
// are left out.
func (r *Renderer) Log(ch *tracker.ChannelResult) string {
	var b strings.Builder
	for _, res := range ch.People {
		if !res.HasAnomalies() {
			continue
		}
		fmt.Fprintf(&b, "%s's clock errors:\n\n", r.names.Name(res.PersonID))
		r.logSection(&b, "Invalid Clocks:", res.Invalid)
		r.logSection(&b, "Single Clocks:", res.Singles)
		b.WriteByte('\n')
	}
	if len(ch.Unassigned) > 0 {
		b.WriteString("Unassigned clocks:\n\n")
		r.logSection(&b, "Invalid Clocks:", ch.Unassigned)
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Renderer) logSection(b *strings.Builder, title string, clocks []model.Clock) {
	if len(clocks) == 0 {
		return
	}
	b.WriteString(title)
	b.WriteByte('\n')
	for _, c := range clocks {
		b.WriteString(r.Line(c))
		if reason := c.Reason(); reason != "" {
			fmt.Fprintf(b, " [%s]", reason)
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

// Line formats one clock as "<timestamp> | <author>: @<person> <text>". The
// leading mention in the message text is replaced by the person's name.
func (r *Renderer) Line(c model.Clock) string {
	ts := c.Timestamp.In(r.opts.Location).Format(r.opts.TimestampLayout)
	author := r.names.Name(c.AuthorID)
	text := strings.TrimSpace(c.Message.Text)
	if c.PersonID == "" {
		return fmt.Sprintf("%s | %s: %s", ts, author, text)
	}
	return fmt.Sprintf("%s | %s: @%s%s", ts, author, r.names.Name(c.PersonID), StripLeadingMention(text))
}

func (r *Renderer) header(personID string) string {
	if r.opts.Channel == "" {
		return fmt.Sprintf("*%s*:", r.names.Name(personID))
	}
	return fmt.Sprintf("*%s* (#%s):", r.names.Name(personID), r.opts.Channel)
}

// WeekRange formats "start - end" with weekday names.
func WeekRange(start, end time.Time) string {
	return start.Format(WeekLayout) + " - " + end.Format(WeekLayout)
}

// FormatHours prints whole numbers with one decimal ("5.0") and fractions
// as they are ("8.25").
func FormatHours(h float64) string {
	if h == float64(int64(h)) {
		return strconv.FormatFloat(h, 'f', 1, 64)
	}
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// StripLeadingMention removes a leading "<@U123>" or "@name" token and
// returns the rest, keeping its leading space.
func StripLeadingMention(text string) string {
	switch {
	case strings.HasPrefix(text, "<@"):
		if i := strings.IndexByte(text, '>'); i >= 0 {
			return text[i+1:]
		}
	case strings.HasPrefix(text, "@"):
		if i := strings.IndexByte(text, ' '); i >= 0 {
			return text[i:]
		}
		return ""
	}
	if text == "" {
		return ""
	}
	return " " + text
}

func weekBounds(p payperiod.Period, i int) (time.Time, time.Time) {
	if i == 0 {
		return p.StartOfWeek1, p.EndOfWeek1
	}
	return p.StartOfWeek2, p.EndOfWeek2
}
