// Package timeparse finds the time of day in a clock message and rounds it
// to the quarter hour.
//
// A time token is a standalone word: it starts after a single space and is
// followed by a non-digit or the end of the text. Tokens are searched with an
// ordered list of patterns and the first pattern that matches anywhere in the
// text wins, even if a later pattern would match earlier in the text.
//
//	" 0800"   four digits, 24-hour unless a meridiem follows
//	" 800"    three digits, read as "0800"
//	" 12:30"  two-digit hour with colon, meridiem required
//	" 1:30"   one-digit hour with colon, meridiem required
//
// A meridiem is the two letters "am" or "pm" (any case) directly after the
// token or after exactly one space.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoTime             = errors.New("unable to find the clock's time")
	ErrMissingMeridiem    = errors.New("missing meridiem")
	ErrUnexpectedMeridiem = errors.New("unexpected meridiem")
	ErrMilitaryTime       = errors.New("invalid military time")
	ErrMeridiemHour       = errors.New("hour must be 12 or less with a meridiem")
	ErrMinutes            = errors.New("minutes must be less than 60")
	ErrNotNumeric         = errors.New("time is not numeric")
)

// Pattern is one attempt in the token search.
type Pattern struct {
	Name string
	re   *regexp.Regexp
	// Colon patterns split on the colon and require a meridiem. The others
	// split a zero-padded four digit string in half.
	Colon bool
}

// Patterns is the search order. Changing it changes which token wins when a
// message holds more than one time.
var Patterns = []Pattern{
	{Name: "HHMM", re: regexp.MustCompile(` (\d{4})(?:\D|$)`)},
	{Name: "HMM", re: regexp.MustCompile(` (\d{3})(?:\D|$)`)},
	{Name: "HH:MM", re: regexp.MustCompile(` (\d{2}:\d{2})(?:\D|$)`), Colon: true},
	{Name: "H:MM", re: regexp.MustCompile(` (\d:\d{2})(?:\D|$)`), Colon: true},
}

// Time is a parsed time of day. Meridiem is "am", "pm" or "".
type Time struct {
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Meridiem string `json:"meridiem,omitempty"`
	// Token is the text that matched, without the leading space.
	Token   string `json:"token"`
	Pattern string `json:"pattern"`
}

// Quarter returns the time rounded to the quarter hour in fractional hours.
func (t Time) Quarter() float64 {
	return QuarterHour(t.Hour, t.Minute, t.Meridiem)
}

// Parse locates the first time token in text and validates it.
func Parse(text string) (Time, error) {
	for _, p := range Patterns {
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		token := text[loc[2]:loc[3]]
		return p.build(token, text[loc[3]:])
	}
	return Time{}, ErrNoTime
}

func (p Pattern) build(token, rest string) (Time, error) {
	var hh, mm string
	if p.Colon {
		hh, mm, _ = strings.Cut(token, ":")
		hh = pad(hh, 2)
	} else {
		digits := pad(token, 4)
		hh, mm = digits[:2], digits[2:]
	}

	meridiem, letters := meridiemAfter(rest)
	if p.Colon && meridiem == "" {
		if letters {
			return Time{}, ErrUnexpectedMeridiem
		}
		return Time{}, ErrMissingMeridiem
	}

	hour, err := strconv.Atoi(hh)
	if err != nil {
		return Time{}, ErrNotNumeric
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return Time{}, ErrNotNumeric
	}

	switch {
	case meridiem != "" && hour > 12:
		return Time{}, ErrMeridiemHour
	case meridiem == "" && hour > 23:
		return Time{}, ErrMilitaryTime
	case minute >= 60:
		return Time{}, ErrMinutes
	}

	return Time{
		Hour:     hour,
		Minute:   minute,
		Meridiem: meridiem,
		Token:    token,
		Pattern:  p.Name,
	}, nil
}

// meridiemAfter reads "am"/"pm" from the start of rest, allowing one space.
// letters reports whether two letters were there at all.
func meridiemAfter(rest string) (meridiem string, letters bool) {
	rest = strings.TrimPrefix(rest, " ")
	if len(rest) < 2 || !isLetter(rest[0]) || !isLetter(rest[1]) {
		return "", false
	}
	m := strings.ToLower(rest[:2])
	if m == "am" || m == "pm" {
		return m, true
	}
	return "", true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func pad(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat("0", length-len(s)) + s
}
