// Package classify turns a chat message into a clock.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Grasinga/TimeTracker/internal/model"
	"github.com/Grasinga/TimeTracker/internal/timeparse"
)

const (
	ReasonMissingMention  = "missing mention"
	ReasonTooManyMentions = "too many mentions"
	ReasonMissingKeyword  = "missing clock type key word"
)

// Default keyword lists.
var (
	DefaultInWords  = []string{"In", "On", "Back"}
	DefaultOutWords = []string{"Out", "Off"}
)

// Classifier recognizes clock messages. It is read-only after New and safe
// for concurrent use.
type Classifier struct {
	in  map[string]bool
	out map[string]bool
}

// New returns a classifier for the given keyword lists. Words are compared
// in title case, so "iN", "in" and "IN" all match "In".
func New(inWords, outWords []string) *Classifier {
	title := cases.Title(language.Und)
	c := &Classifier{in: map[string]bool{}, out: map[string]bool{}}
	for _, w := range inWords {
		c.in[title.String(strings.TrimSpace(w))] = true
	}
	for _, w := range outWords {
		c.out[title.String(strings.TrimSpace(w))] = true
	}
	return c
}

// Classify builds the clock for msg. The result only depends on msg and the
// keyword lists.
func (c *Classifier) Classify(msg model.ChatMessage) model.Clock {
	clock := model.Clock{
		Message:   msg,
		PersonID:  msg.FirstMention(),
		AuthorID:  msg.AuthorID,
		Timestamp: msg.Timestamp,
		Kind:      model.KindInvalid,
	}

	clock.Intended = c.Kind(msg.Text)

	switch n := len(msg.Mentions); {
	case n == 0:
		return invalid(clock, model.FailStructural, ReasonMissingMention)
	case n > 1:
		return invalid(clock, model.FailStructural, ReasonTooManyMentions)
	}

	if clock.Intended == "" {
		return invalid(clock, model.FailKeyword, ReasonMissingKeyword)
	}

	t, err := timeparse.Parse(msg.Text)
	if err != nil {
		return invalid(clock, model.FailTime, err.Error())
	}

	clock.Kind = clock.Intended
	clock.Value = t.Quarter()
	return clock
}

// Kind returns the clock kind named by the first keyword in text, or "" when
// no word matches. A message naming both kinds takes the earlier word.
func (c *Classifier) Kind(text string) model.Kind {
	// Casers keep state between calls, so each call gets its own.
	title := cases.Title(language.Und)
	for _, word := range strings.Fields(text) {
		w := title.String(word)
		switch {
		case c.in[w]:
			return model.KindIn
		case c.out[w]:
			return model.KindOut
		}
	}
	return ""
}

func invalid(clock model.Clock, class model.FailureClass, reason string) model.Clock {
	clock.Kind = model.KindInvalid
	clock.Failure = &model.Failure{Class: class, Reason: reason}
	return clock
}
