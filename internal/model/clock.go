package model

import "time"

// Kind is the type of a clock.
type Kind string

const (
	KindIn      Kind = "in"
	KindOut     Kind = "out"
	KindInvalid Kind = "invalid"
)

// FailureClass groups the reasons a message is not a valid clock.
type FailureClass string

const (
	// FailStructural: zero or more than one mention.
	FailStructural FailureClass = "structural"
	// FailKeyword: no clock-in or clock-out word.
	FailKeyword FailureClass = "keyword"
	// FailTime: the time of day could not be parsed.
	FailTime FailureClass = "time"
)

// Failure explains why a clock is invalid.
type Failure struct {
	Class  FailureClass `json:"class"`
	Reason string       `json:"reason"`
}

func (f *Failure) Error() string { return f.Reason }

// Clock is a single in/out event extracted from one message. Clocks are
// never mutated after classification.
type Clock struct {
	Message   ChatMessage `json:"message"`
	PersonID  string      `json:"person_id"`
	AuthorID  string      `json:"author_id"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      Kind        `json:"kind"`
	// Intended is the kind the keywords asked for, kept when Kind is
	// downgraded to invalid. Empty when no keyword matched.
	Intended Kind     `json:"intended,omitempty"`
	Value    float64  `json:"value"`
	Failure  *Failure `json:"failure,omitempty"`
}

// Valid reports whether the clock can take part in pairing.
func (c Clock) Valid() bool {
	return c.Kind != KindInvalid
}

// Reason returns the failure reason, or "" for a valid clock.
func (c Clock) Reason() string {
	if c.Failure == nil {
		return ""
	}
	return c.Failure.Reason
}

// Pair is a matched clock-in and clock-out for the same person and week.
type Pair struct {
	In  Clock `json:"in"`
	Out Clock `json:"out"`
}

// Hours returns the elapsed quarter-hour time. Out before In yields a
// negative value; no wrap-around is applied.
func (p Pair) Hours() float64 {
	return p.Out.Value - p.In.Value
}
