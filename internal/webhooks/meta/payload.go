package meta

import "encoding/json"

// Delivery is one webhook POST body. The platform batches several entries per
// delivery.
type Delivery struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the events of one account. Items stay raw so each one can be
// decoded and hashed independently.
type Entry struct {
	ID        string            `json:"id"`
	Time      int64             `json:"time"`
	Messaging []json.RawMessage `json:"messaging,omitempty"`
	Changes   []json.RawMessage `json:"changes,omitempty"`
}

type Party struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

type Messaging struct {
	Sender    *Party    `json:"sender,omitempty"`
	Recipient *Party    `json:"recipient,omitempty"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

type Message struct {
	Mid     string   `json:"mid"`
	Text    string   `json:"text"`
	IsEcho  bool     `json:"is_echo"`
	ReplyTo *ReplyTo `json:"reply_to,omitempty"`
}

type ReplyTo struct {
	Mid   string    `json:"mid,omitempty"`
	Story *StoryRef `json:"story,omitempty"`
}

type StoryRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

type Postback struct {
	Mid     string `json:"mid"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue covers the comment/feed/story fields the engine reads. Unknown
// fields are kept in the raw payload only.
type ChangeValue struct {
	ID        string    `json:"id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Message   string    `json:"message,omitempty"`
	MediaID   string    `json:"media_id,omitempty"`
	StoryID   string    `json:"story_id,omitempty"`
	Item      string    `json:"item,omitempty"`
	Verb      string    `json:"verb,omitempty"`
	Media     *MediaRef `json:"media,omitempty"`
	From      *Party    `json:"from,omitempty"`
	User      *Party    `json:"user,omitempty"`
}

type MediaRef struct {
	ID               string `json:"id"`
	MediaProductType string `json:"media_product_type,omitempty"`
}

// ParseDelivery decodes a verified webhook body.
func ParseDelivery(body []byte) (Delivery, error) {
	var d Delivery
	if err := json.Unmarshal(body, &d); err != nil {
		return Delivery{}, err
	}
	return d, nil
}
