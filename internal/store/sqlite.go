package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/Grasinga/TimeTracker/internal/model"
)

// tsLayout is fixed width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry retryPolicy

	mu      sync.Mutex
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}

	s := &SQLiteStore{
		db:      db,
		retry:   defaultRetryPolicy,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return s, nil
}

// newID returns a ULID whose time part is the message time, so generated
// ids sort with the messages they name.
func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.IsZero() {
		t = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id          TEXT PRIMARY KEY,
		channel_id  TEXT NOT NULL,
		author_id   TEXT NOT NULL,
		mentions    TEXT NOT NULL DEFAULT '[]',
		text        TEXT NOT NULL,
		ts          TEXT NOT NULL,
		stored_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_channel_ts ON messages(channel_id, ts);
	CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts);

	CREATE TABLE IF NOT EXISTS members (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) PutMessages(ctx context.Context, msgs []model.ChatMessage) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC().Format(tsLayout)

	written := 0
	err := s.retry.do(ctx, func() error {
		written = 0
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO messages (id, channel_id, author_id, mentions, text, ts, stored_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   channel_id = excluded.channel_id,
			   author_id  = excluded.author_id,
			   mentions   = excluded.mentions,
			   text       = excluded.text,
			   ts         = excluded.ts`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range msgs {
			id := m.ID
			if id == "" {
				id = s.newID(m.Timestamp)
			}
			mentions := m.Mentions
			if mentions == nil {
				mentions = []string{}
			}
			b, err := json.Marshal(mentions)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, id, m.ChannelID, m.AuthorID, string(b), m.Text,
				m.Timestamp.UTC().Format(tsLayout), now); err != nil {
				return errors.Wrapf(err, "insert message %s", id)
			}
			written++
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, errors.Wrap(err, "put messages")
	}
	return written, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, p ListParams) ([]model.ChatMessage, error) {
	var where []string
	var args []interface{}

	if p.ChannelID != "" {
		where = append(where, "channel_id = ?")
		args = append(args, p.ChannelID)
	}
	if p.PersonID != "" {
		where = append(where, "json_extract(mentions, '$[0]') = ?")
		args = append(args, p.PersonID)
	}
	if !p.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, p.Since.UTC().Format(tsLayout))
	}
	if !p.Until.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, p.Until.UTC().Format(tsLayout))
	}

	cond := ""
	if len(where) > 0 {
		cond = "WHERE " + strings.Join(where, " AND ")
	}

	// The newest Limit rows, returned oldest first.
	query := fmt.Sprintf(`
		SELECT id, channel_id, author_id, mentions, text, ts FROM (
			SELECT id, channel_id, author_id, mentions, text, ts
			FROM messages %s
			ORDER BY ts DESC, id DESC
			LIMIT ?
		) ORDER BY ts ASC, id ASC`, cond)
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	return s.queryMessages(ctx, query, args...)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...interface{}) ([]model.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query messages")
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Prune deletes messages stamped before p.Before. Returns the number deleted.
func (s *SQLiteStore) Prune(ctx context.Context, p PruneParams) (int64, error) {
	if p.Before.IsZero() {
		return 0, errors.New("prune: a cutoff time is required")
	}
	query := `DELETE FROM messages WHERE ts < ?`
	args := []interface{}{p.Before.UTC().Format(tsLayout)}
	if p.ChannelID != "" {
		query += ` AND channel_id = ?`
		args = append(args, p.ChannelID)
	}

	var n int64
	err := s.retry.do(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "prune")
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (model.ChatMessage, error) {
	var m model.ChatMessage
	var mentions, ts string

	if err := row.Scan(&m.ID, &m.ChannelID, &m.AuthorID, &mentions, &m.Text, &ts); err != nil {
		return m, errors.Wrap(err, "scan message")
	}
	if err := json.Unmarshal([]byte(mentions), &m.Mentions); err != nil {
		return m, errors.Wrapf(err, "message %s: bad mentions", m.ID)
	}
	if len(m.Mentions) == 0 {
		m.Mentions = nil
	}
	t, err := time.Parse(tsLayout, ts)
	if err != nil {
		return m, errors.Wrapf(err, "message %s: bad timestamp", m.ID)
	}
	m.Timestamp = t
	return m, nil
}
