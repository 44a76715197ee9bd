package store

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string         `json:"db_path"`
	DBSizeBytes   int64          `json:"db_size_bytes"`
	TotalMessages int            `json:"total_messages"`
	TotalMembers  int            `json:"total_members"`
	Channels      []ChannelStats `json:"channels"`
}

// ChannelStats holds per-channel counts.
type ChannelStats struct {
	ChannelID string    `json:"channel_id"`
	Messages  int       `json:"messages"`
	People    int       `json:"people"`
	First     time.Time `json:"first"`
	Last      time.Time `json:"last"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&st.TotalMessages); err != nil {
		return st, errors.Wrap(err, "count messages")
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&st.TotalMembers); err != nil {
		return st, errors.Wrap(err, "count members")
	}

	channels, err := s.Channels(ctx)
	if err != nil {
		return st, err
	}
	st.Channels = channels
	return st, nil
}

// Channels lists every channel with stored messages, busiest first. People
// counts distinct first mentions.
func (s *SQLiteStore) Channels(ctx context.Context) ([]ChannelStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, COUNT(*) AS cnt,
		       COUNT(DISTINCT json_extract(mentions, '$[0]')) AS people,
		       MIN(ts), MAX(ts)
		FROM messages
		GROUP BY channel_id
		ORDER BY cnt DESC, channel_id`)
	if err != nil {
		return nil, errors.Wrap(err, "query channels")
	}
	defer rows.Close()

	var out []ChannelStats
	for rows.Next() {
		var c ChannelStats
		var first, last sql.NullString
		if err := rows.Scan(&c.ChannelID, &c.Messages, &c.People, &first, &last); err != nil {
			return nil, errors.Wrap(err, "scan channel")
		}
		if c.First, err = time.Parse(tsLayout, first.String); err != nil {
			return nil, errors.Wrapf(err, "channel %s: bad first timestamp", c.ChannelID)
		}
		if c.Last, err = time.Parse(tsLayout, last.String); err != nil {
			return nil, errors.Wrapf(err, "channel %s: bad last timestamp", c.ChannelID)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
