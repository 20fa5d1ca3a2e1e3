package domain

import "time"

// Conversation groups messages between two or more participants.
type Conversation struct {
	ID           string
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasParticipant reports whether the account takes part in the conversation.
func (c Conversation) HasParticipant(accountID string) bool {
	for _, p := range c.Participants {
		if p == accountID {
			return true
		}
	}
	return false
}

// Message is a single message within a conversation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Body           string
	Read           bool
	CreatedAt      time.Time
}
