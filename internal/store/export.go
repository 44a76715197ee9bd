package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Grasinga/TimeTracker/internal/model"
)

// ExportAll returns every member and the messages of one channel, or of all
// channels when channelID is empty.
func (s *SQLiteStore) ExportAll(ctx context.Context, channelID string) (*model.Archive, error) {
	members, err := s.Members(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.ListMessages(ctx, ListParams{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return &model.Archive{Members: members, Messages: msgs}, nil
}

// Import stores an archive. Messages already present are overwritten by id.
// Returns the number of messages written.
func (s *SQLiteStore) Import(ctx context.Context, a *model.Archive) (int, error) {
	if a == nil {
		return 0, errors.New("import: nil archive")
	}
	if err := s.PutMembers(ctx, a.Members); err != nil {
		return 0, err
	}
	return s.PutMessages(ctx, a.Messages)
}
