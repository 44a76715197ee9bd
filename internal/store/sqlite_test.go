package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Grasinga/TimeTracker/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "create store")
	t.Cleanup(func() { s.Close() })
	return s
}

func at(day, hh, mm int) time.Time {
	return time.Date(2024, 1, day, hh, mm, 0, 0, time.UTC)
}

func message(id, channel string, ts time.Time, text string, mentions ...string) model.ChatMessage {
	return model.ChatMessage{
		ID:        id,
		ChannelID: channel,
		AuthorID:  "U0BOSS",
		Mentions:  mentions,
		Text:      text,
		Timestamp: ts,
	}
}

func seed(t *testing.T, s *SQLiteStore) {
	t.Helper()
	n, err := s.PutMessages(context.Background(), []model.ChatMessage{
		message("1", "C1", at(8, 8, 0), "<@U1> in 0800", "U1"),
		message("2", "C1", at(8, 12, 0), "<@U1> out 1200", "U1"),
		message("3", "C1", at(9, 8, 0), "<@U2> <@U1> in 0800", "U2", "U1"),
		message("4", "C2", at(9, 9, 0), "<@U1> in 0900", "U1"),
		message("5", "C1", at(10, 7, 30), "morning all"),
	})
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestPutAndListMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s)

	got, err := s.ListMessages(ctx, ListParams{ChannelID: "C1"})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "5", got[3].ID)
	assert.Equal(t, at(8, 8, 0), got[0].Timestamp)
	assert.Equal(t, []string{"U1"}, got[0].Mentions)
	assert.Equal(t, []string{"U2", "U1"}, got[2].Mentions)
	assert.Nil(t, got[3].Mentions)
	assert.Equal(t, "<@U1> in 0800", got[0].Text)
}

func TestListMessages_Filters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s)

	got, err := s.ListMessages(ctx, ListParams{PersonID: "U1"})
	require.NoError(t, err)
	ids := func(msgs []model.ChatMessage) []string {
		var out []string
		for _, m := range msgs {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "2", "4"}, ids(got), "only first mentions count")

	got, err = s.ListMessages(ctx, ListParams{Since: at(8, 12, 0), Until: at(9, 8, 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(got), "bounds are inclusive")

	got, err = s.ListMessages(ctx, ListParams{ChannelID: "C1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "5"}, ids(got), "limit keeps the newest, oldest first")
}

func TestPutMessages_UpsertAndGeneratedID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s)

	n, err := s.PutMessages(ctx, []model.ChatMessage{
		message("1", "C1", at(8, 8, 0), "<@U1> in 0815", "U1"),
		message("", "C1", at(11, 9, 0), "<@U1> in 0900", "U1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.ListMessages(ctx, ListParams{ChannelID: "C1"})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "<@U1> in 0815", got[0].Text, "edited text replaces the stored one")
	assert.Len(t, got[4].ID, 26, "generated ids are ULIDs")
}

func TestPutMessages_Empty(t *testing.T) {
	s := newTestStore(t)
	n, err := s.PutMessages(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.PutMembers(ctx, []model.Member{{ID: "U2", Name: "Bob"}, {ID: "U1", Name: "Alicia"}}))
	require.NoError(t, s.PutMembers(ctx, []model.Member{{ID: "U1", Name: "Alice"}}))

	got, err := s.Members(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Member{{ID: "U1", Name: "Alice"}, {ID: "U2", Name: "Bob"}}, got)

	assert.Error(t, s.PutMembers(ctx, []model.Member{{Name: "nobody"}}))
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s)

	_, err := s.Prune(ctx, PruneParams{})
	assert.Error(t, err)

	n, err := s.Prune(ctx, PruneParams{ChannelID: "C1", Before: at(9, 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.ListMessages(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	seed(t, src)
	require.NoError(t, src.PutMembers(ctx, []model.Member{{ID: "U1", Name: "Alice"}}))

	archive, err := src.ExportAll(ctx, "C1")
	require.NoError(t, err)
	assert.Len(t, archive.Messages, 4)
	assert.Len(t, archive.Members, 1)

	dst := newTestStore(t)
	n, err := dst.Import(ctx, archive)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	again, err := dst.ExportAll(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, archive, again)
}

func TestStatsAndChannels(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s)

	path := filepath.Join(t.TempDir(), "missing.db")
	st, err := s.Stats(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 5, st.TotalMessages)
	assert.Zero(t, st.TotalMembers)
	require.Len(t, st.Channels, 2)

	c1 := st.Channels[0]
	assert.Equal(t, "C1", c1.ChannelID)
	assert.Equal(t, 4, c1.Messages)
	assert.Equal(t, 2, c1.People)
	assert.Equal(t, at(8, 8, 0), c1.First)
	assert.Equal(t, at(10, 7, 30), c1.Last)
}

func TestChannels_BadTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s)

	_, err := s.db.ExecContext(ctx, `UPDATE messages SET ts = 'yesterday' WHERE id = '1'`)
	require.NoError(t, err)

	_, err = s.Channels(ctx)
	assert.ErrorContains(t, err, "channel C1: bad last timestamp")

	_, err = s.Stats(ctx, "")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seed(t, s)

	got, err := s.Search(ctx, SearchParams{Query: "IN 08"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID, "newest first")

	got, err = s.Search(ctx, SearchParams{ChannelID: "C2", Query: "in"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.Search(ctx, SearchParams{Query: "100%"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Search(ctx, SearchParams{Query: "  "})
	assert.Error(t, err)
}
