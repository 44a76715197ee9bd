package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/Grasinga/TimeTracker/internal/model"
)

// Search finds messages whose text contains the query, newest first. The
// match is case-insensitive for ASCII letters.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.ChatMessage, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, errors.New("search: empty query")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{`text LIKE ? ESCAPE '\'`}
	args := []interface{}{"%" + escapeLike(p.Query) + "%"}

	if p.ChannelID != "" {
		where = append(where, "channel_id = ?")
		args = append(args, p.ChannelID)
	}

	query := fmt.Sprintf(`
		SELECT id, channel_id, author_id, mentions, text, ts
		FROM messages
		WHERE %s
		ORDER BY ts DESC, id DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryMessages(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
