package domain

import "time"

type Sender string

const (
	SenderUser   Sender = "user"
	SenderCoach  Sender = "coach"
	SenderSystem Sender = "system"
)

// ConversationEntry is one turn of the coaching playground transcript.
// Pending marks a placeholder shown while a remote command is outstanding;
// pending entries never survive a reload.
type ConversationEntry struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
	Pending   bool
}
