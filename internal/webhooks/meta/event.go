package meta

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

// Sender is the user who caused an event.
type Sender struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// InboundEvent is the canonical form of one messaging item or change. It is
// built only by Normalize and passed by value.
type InboundEvent struct {
	Platform     enums.Platform  `json:"platform"`
	AccountID    string          `json:"account_id"`
	EventType    enums.EventType `json:"event_type"`
	SubType      string          `json:"sub_type"`
	EventID      string          `json:"event_id"`
	Sender       Sender          `json:"from"`
	Text         string          `json:"text,omitempty"`
	TargetID     string          `json:"target_id,omitempty"`
	CommentID    string          `json:"comment_id,omitempty"`
	IsStoryReply bool            `json:"is_story_reply,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	ReceivedAt   time.Time       `json:"received_at"`
	Payload      json.RawMessage `json:"payload"`
}

// SelfAuthored reports whether the linked account produced the event itself,
// for example our own comment reply echoed back as a change.
func (e InboundEvent) SelfAuthored() bool {
	return e.Sender.ID != "" && e.Sender.ID == e.AccountID
}
