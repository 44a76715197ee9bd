package slackfeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	pages    []*slack.GetConversationHistoryResponse
	requests []slack.GetConversationHistoryParameters
	posted   []posted
	users    []slack.User
	postErr  error
}

type posted struct {
	channel string
	text    string
	unfurl  string
	media   string
}

func (f *fakeAPI) GetConversationHistoryContext(_ context.Context, p *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	f.requests = append(f.requests, *p)
	i := len(f.requests) - 1
	if i >= len(f.pages) {
		return nil, errors.New("no more pages")
	}
	return f.pages[i], nil
}

func (f *fakeAPI) PostMessageContext(_ context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.postErr != nil {
		return "", "", f.postErr
	}
	_, values, err := slack.UnsafeApplyMsgOptions("token", channelID, "https://slack.test/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.posted = append(f.posted, posted{
		channel: channelID,
		text:    values.Get("text"),
		unfurl:  values.Get("unfurl_links"),
		media:   values.Get("unfurl_media"),
	})
	return channelID, fmt.Sprintf("1700000000.%06d", len(f.posted)), nil
}

func (f *fakeAPI) GetUsersContext(context.Context, ...slack.GetUsersOption) ([]slack.User, error) {
	return f.users, nil
}

func slackMsg(ts, user, text string) slack.Message {
	var m slack.Message
	m.Timestamp = ts
	m.User = user
	m.Text = text
	return m
}

func page(more bool, cursor string, msgs ...slack.Message) *slack.GetConversationHistoryResponse {
	resp := &slack.GetConversationHistoryResponse{HasMore: more, Messages: msgs}
	resp.ResponseMetaData.NextCursor = cursor
	return resp
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("1704700800.000100")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 8, 0, 0, 100000, time.UTC), got)

	got, err = ParseTimestamp("1704700800")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "abc", ".5", "17047.x"} {
		_, err := ParseTimestamp(bad)
		assert.ErrorIs(t, err, ErrBadTimestamp, bad)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 8, 8, 0, 0, 100000, time.UTC)
	assert.Equal(t, "1704700800.000100", FormatTimestamp(ts))

	back, err := ParseTimestamp(FormatTimestamp(ts))
	require.NoError(t, err)
	assert.Equal(t, ts, back)
}

func TestMentions(t *testing.T) {
	assert.Equal(t, []string{"U1", "W2"}, Mentions("<@U1> and <@W2|bob> in 0800"))
	assert.Nil(t, Mentions("in 0800 <#C1|general>"))
}

func TestConvert(t *testing.T) {
	msg, ok, err := Convert("C1", slackMsg("1704700800.000100", "U0BOSS", "<@U1> in 0800"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "C1:1704700800.000100", msg.ID)
	assert.Equal(t, "U0BOSS", msg.AuthorID)
	assert.Equal(t, []string{"U1"}, msg.Mentions)
	assert.Equal(t, "<@U1> in 0800", msg.Text)

	join := slackMsg("1704700801.000000", "U1", "<@U1> has joined the channel")
	join.SubType = "channel_join"
	_, ok, err = Convert("C1", join)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Convert("C1", slackMsg("nope", "U1", "hi"))
	assert.Error(t, err)
}

func TestHistory_PaginatesAndOrders(t *testing.T) {
	api := &fakeAPI{pages: []*slack.GetConversationHistoryResponse{
		page(true, "next",
			slackMsg("1704733200.000000", "U0", "<@U1> out 1700"),
			slackMsg("1704718800.000000", "U0", "<@U1> back 1300")),
		page(false, "",
			slackMsg("1704715200.000000", "U0", "<@U1> out 1200"),
			slackMsg("bogus", "U0", "dropped"),
			slackMsg("1704700800.000000", "U0", "<@U1> in 0800")),
	}}
	oldest := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	msgs, err := New(api, quiet()).History(context.Background(), HistoryParams{ChannelID: "C1", Oldest: oldest})
	require.NoError(t, err)

	require.Len(t, msgs, 4)
	assert.Equal(t, "<@U1> in 0800", msgs[0].Text)
	assert.Equal(t, "<@U1> out 1700", msgs[3].Text)

	require.Len(t, api.requests, 2)
	assert.Equal(t, "", api.requests[0].Cursor)
	assert.Equal(t, "next", api.requests[1].Cursor)
	assert.Equal(t, FormatTimestamp(oldest), api.requests[0].Oldest)
	assert.Equal(t, PageSize, api.requests[0].Limit)
}

func TestHistory_Limit(t *testing.T) {
	api := &fakeAPI{pages: []*slack.GetConversationHistoryResponse{
		page(true, "next",
			slackMsg("1704733200.000000", "U0", "three"),
			slackMsg("1704718800.000000", "U0", "two"),
			slackMsg("1704715200.000000", "U0", "one")),
	}}
	msgs, err := New(api, quiet()).History(context.Background(), HistoryParams{ChannelID: "C1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Text)
	assert.Equal(t, "three", msgs[1].Text)
	assert.Len(t, api.requests, 1)
	assert.Equal(t, 2, api.requests[0].Limit)
}

func TestHistory_Errors(t *testing.T) {
	_, err := New(&fakeAPI{}, quiet()).History(context.Background(), HistoryParams{})
	assert.Error(t, err)

	_, err = New(&fakeAPI{}, quiet()).History(context.Background(), HistoryParams{ChannelID: "C1"})
	assert.ErrorContains(t, err, "no more pages")
}

func TestPublish(t *testing.T) {
	api := &fakeAPI{}
	err := New(api, quiet()).Publish(context.Background(), "D1", []string{"first", "second"})
	require.NoError(t, err)

	require.Len(t, api.posted, 2)
	assert.Equal(t, posted{channel: "D1", text: "first", unfurl: "false", media: "false"}, api.posted[0])
	assert.Equal(t, "second", api.posted[1].text)

	api = &fakeAPI{postErr: errors.New("channel_not_found")}
	err = New(api, quiet()).Publish(context.Background(), "D1", []string{"x"})
	assert.ErrorContains(t, err, "post block 1 of 1")
}

func TestMembers(t *testing.T) {
	alice := slack.User{ID: "U1", Name: "alice", RealName: "Alice Smith"}
	alice.Profile.DisplayName = "Ali"
	bob := slack.User{ID: "U2", Name: "bob"}
	bot := slack.User{ID: "B1", Name: "timetracker", IsBot: true}
	gone := slack.User{ID: "U3", Name: "carol", Deleted: true}

	api := &fakeAPI{users: []slack.User{alice, bob, bot, gone}}
	members, err := New(api, quiet()).Members(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Ali", members[0].Name)
	assert.Equal(t, "bob", members[1].Name)
}

func TestNewFromToken(t *testing.T) {
	_, err := NewFromToken("", nil)
	assert.Error(t, err)

	f, err := NewFromToken("xoxb-test", nil)
	require.NoError(t, err)
	assert.NotNil(t, f)
}
