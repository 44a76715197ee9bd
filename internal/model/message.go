// Package model defines the core timecard data types.
package model

import "time"

// ChatMessage is one message from a chat channel, already adapted from the
// platform's own representation.
type ChatMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"author_id"`
	Mentions  []string  `json:"mentions,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// FirstMention returns the first mentioned person, or "" when there is none.
func (m ChatMessage) FirstMention() string {
	if len(m.Mentions) == 0 {
		return ""
	}
	return m.Mentions[0]
}

// Member maps a person or author id to a display name.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Archive is the import/export envelope.
type Archive struct {
	Members  []Member      `json:"members,omitempty"`
	Messages []ChatMessage `json:"messages"`
}
