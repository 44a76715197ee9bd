package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Grasinga/TimeTracker/internal/model"
)

func (s *SQLiteStore) PutMembers(ctx context.Context, members []model.Member) error {
	if len(members) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.retry.do(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for _, m := range members {
			if m.ID == "" {
				return errors.New("member id is required")
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO members (id, name, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
				m.ID, m.Name, now)
			if err != nil {
				return errors.Wrapf(err, "upsert member %s", m.ID)
			}
		}
		return tx.Commit()
	})
	return errors.Wrap(err, "put members")
}

func (s *SQLiteStore) Members(ctx context.Context) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM members ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query members")
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, errors.Wrap(err, "scan member")
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
