// Package slackfeed adapts a Slack workspace into chat messages and member
// names, and posts rendered reports back.
package slackfeed

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"

	"github.com/Grasinga/TimeTracker/internal/model"
)

// PageSize is the largest history page Slack returns.
const PageSize = 200

// ErrBadTimestamp reports a Slack "ts" that is not "<seconds>.<micros>".
var ErrBadTimestamp = errors.New("malformed slack timestamp")

// API is the part of *slack.Client the feed uses.
type API interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
}

// Feed reads and writes one workspace.
type Feed struct {
	api    API
	logger *slog.Logger
}

// New returns a feed over api.
func New(api API, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{api: api, logger: logger}
}

// NewFromToken returns a feed using a bot token.
func NewFromToken(token string, logger *slog.Logger) (*Feed, error) {
	if token == "" {
		return nil, errors.New("slack token is not set (SLACK_BOT_TOKEN)")
	}
	return New(slack.New(token), logger), nil
}

// HistoryParams selects channel history.
type HistoryParams struct {
	ChannelID string
	// Oldest and Latest bound the history, both inclusive. Zero means open.
	Oldest time.Time
	Latest time.Time
	// Limit caps the number of messages read, newest first. 0 reads all.
	Limit int
}

// History reads channel messages and returns them oldest first. Join
// notices and other system messages are skipped.
func (f *Feed) History(ctx context.Context, p HistoryParams) ([]model.ChatMessage, error) {
	if p.ChannelID == "" {
		return nil, errors.New("history: channel is required")
	}

	req := &slack.GetConversationHistoryParameters{
		ChannelID: p.ChannelID,
		Inclusive: true,
	}
	if !p.Oldest.IsZero() {
		req.Oldest = FormatTimestamp(p.Oldest)
	}
	if !p.Latest.IsZero() {
		req.Latest = FormatTimestamp(p.Latest)
	}

	var newestFirst []model.ChatMessage
	read, pages := 0, 0
	for {
		req.Limit = PageSize
		if p.Limit > 0 && p.Limit-read < PageSize {
			req.Limit = p.Limit - read
		}

		resp, err := f.api.GetConversationHistoryContext(ctx, req)
		if err != nil {
			return nil, errors.Wrapf(err, "history of %s", p.ChannelID)
		}
		pages++

		for _, m := range resp.Messages {
			read++
			msg, ok, err := Convert(p.ChannelID, m)
			if err != nil {
				f.logger.Warn("skipping message", slog.String("channel", p.ChannelID), slog.String("ts", m.Timestamp), slog.Any("error", err))
				continue
			}
			if ok {
				newestFirst = append(newestFirst, msg)
			}
			if p.Limit > 0 && read >= p.Limit {
				break
			}
		}

		next := resp.ResponseMetaData.NextCursor
		if !resp.HasMore || next == "" || (p.Limit > 0 && read >= p.Limit) {
			break
		}
		req.Cursor = next
	}

	out := make([]model.ChatMessage, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	f.logger.Debug("read history",
		slog.String("channel", p.ChannelID),
		slog.Int("pages", pages),
		slog.Int("read", read),
		slog.Int("kept", len(out)))
	return out, nil
}

// Members lists workspace users with their display names. Bots and
// deactivated users are left out.
func (f *Feed) Members(ctx context.Context) ([]model.Member, error) {
	users, err := f.api.GetUsersContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	var out []model.Member
	for _, u := range users {
		if u.Deleted || u.IsBot {
			continue
		}
		out = append(out, model.Member{ID: u.ID, Name: DisplayName(u)})
	}
	return out, nil
}

// Publish posts each block as its own message with link previews off.
func (f *Feed) Publish(ctx context.Context, channelID string, blocks []string) error {
	for i, b := range blocks {
		_, ts, err := f.api.PostMessageContext(ctx, channelID,
			slack.MsgOptionText(b, false),
			slack.MsgOptionDisableLinkUnfurl(),
			slack.MsgOptionDisableMediaUnfurl(),
		)
		if err != nil {
			return errors.Wrapf(err, "post block %d of %d to %s", i+1, len(blocks), channelID)
		}
		f.logger.Debug("posted block", slog.String("channel", channelID), slog.String("ts", ts), slog.Int("size", len(b)))
	}
	return nil
}

// DisplayName prefers the profile display name, then the real name, then
// the handle.
func DisplayName(u slack.User) string {
	for _, n := range []string{u.Profile.DisplayName, u.RealName, u.Profile.RealName, u.Name} {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	return u.ID
}

var mentionRe = regexp.MustCompile(`<@([UW][A-Z0-9]+)(?:\|[^>]*)?>`)

// Mentions returns the user ids mentioned in text, in order of appearance.
func Mentions(text string) []string {
	var out []string
	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// Convert turns a Slack message into a chat message. ok is false for system
// messages such as channel joins. The id is "<channel>:<ts>", which Slack
// guarantees unique.
func Convert(channelID string, m slack.Message) (msg model.ChatMessage, ok bool, err error) {
	switch m.SubType {
	case "", "thread_broadcast", "bot_message":
	default:
		return msg, false, nil
	}
	ts, err := ParseTimestamp(m.Timestamp)
	if err != nil {
		return msg, false, err
	}
	author := m.User
	if author == "" {
		author = m.BotID
	}
	return model.ChatMessage{
		ID:        channelID + ":" + m.Timestamp,
		ChannelID: channelID,
		AuthorID:  author,
		Mentions:  Mentions(m.Text),
		Text:      m.Text,
		Timestamp: ts,
	}, true, nil
}

// ParseTimestamp reads a Slack "ts" such as "1700000000.000100".
func ParseTimestamp(ts string) (time.Time, error) {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil || sec == "" {
		return time.Time{}, errors.Wrapf(ErrBadTimestamp, "%q", ts)
	}
	var micros int64
	if frac != "" {
		if len(frac) > 6 {
			frac = frac[:6]
		}
		frac += strings.Repeat("0", 6-len(frac))
		if micros, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return time.Time{}, errors.Wrapf(ErrBadTimestamp, "%q", ts)
		}
	}
	return time.Unix(s, micros*int64(time.Microsecond)).UTC(), nil
}

// FormatTimestamp writes t as a Slack "ts".
func FormatTimestamp(t time.Time) string {
	us := t.UnixMicro()
	sec, frac := us/1e6, us%1e6
	if frac < 0 {
		sec--
		frac += 1e6
	}
	return strconv.FormatInt(sec, 10) + "." + leftPad(strconv.FormatInt(frac, 10), 6)
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
