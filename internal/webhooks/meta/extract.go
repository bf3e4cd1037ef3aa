package meta

import "strings"

// source is one decoded delivery item. Exactly one field is set.
type source struct {
	messaging *Messaging
	change    *Change
}

// strategy pulls one value out of a known payload location.
type strategy[T any] struct {
	name string
	fn   func(source) (T, bool)
}

// firstMatch tries the strategies in order and returns the first hit.
func firstMatch[T any](src source, strategies []strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s.fn(src); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

var senderStrategies = []strategy[Sender]{
	{name: "messaging.sender", fn: func(s source) (Sender, bool) {
		if s.messaging == nil {
			return Sender{}, false
		}
		return senderFromParty(s.messaging.Sender)
	}},
	{name: "value.from", fn: func(s source) (Sender, bool) {
		if s.change == nil {
			return Sender{}, false
		}
		return senderFromParty(s.change.Value.From)
	}},
	{name: "value.user", fn: func(s source) (Sender, bool) {
		if s.change == nil {
			return Sender{}, false
		}
		return senderFromParty(s.change.Value.User)
	}},
}

var textStrategies = []strategy[string]{
	{name: "message.text", fn: func(s source) (string, bool) {
		if s.messaging == nil || s.messaging.Message == nil {
			return "", false
		}
		return nonEmpty(s.messaging.Message.Text)
	}},
	{name: "postback.title", fn: func(s source) (string, bool) {
		if s.messaging == nil || s.messaging.Postback == nil {
			return "", false
		}
		return nonEmpty(s.messaging.Postback.Title)
	}},
	{name: "value.text", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.Text)
	}},
	{name: "value.message", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.Message)
	}},
}

var targetStrategies = []strategy[string]{
	{name: "message.reply_to.story.id", fn: func(s source) (string, bool) {
		if s.messaging == nil || s.messaging.Message == nil || s.messaging.Message.ReplyTo == nil || s.messaging.Message.ReplyTo.Story == nil {
			return "", false
		}
		return nonEmpty(s.messaging.Message.ReplyTo.Story.ID)
	}},
	{name: "value.media.id", fn: func(s source) (string, bool) {
		if s.change == nil || s.change.Value.Media == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.Media.ID)
	}},
	{name: "value.media_id", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.MediaID)
	}},
	{name: "value.story_id", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.StoryID)
	}},
	{name: "value.post_id", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.PostID)
	}},
}

var eventIDStrategies = []strategy[string]{
	{name: "message.mid", fn: func(s source) (string, bool) {
		if s.messaging == nil || s.messaging.Message == nil {
			return "", false
		}
		return nonEmpty(s.messaging.Message.Mid)
	}},
	{name: "postback.mid", fn: func(s source) (string, bool) {
		if s.messaging == nil || s.messaging.Postback == nil {
			return "", false
		}
		return nonEmpty(s.messaging.Postback.Mid)
	}},
	{name: "value.id", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.ID)
	}},
	{name: "value.comment_id", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.CommentID)
	}},
}

var commentIDStrategies = []strategy[string]{
	{name: "value.comment_id", fn: func(s source) (string, bool) {
		if s.change == nil {
			return "", false
		}
		return nonEmpty(s.change.Value.CommentID)
	}},
	{name: "comments.value.id", fn: func(s source) (string, bool) {
		if s.change == nil || s.change.Field != "comments" {
			return "", false
		}
		return nonEmpty(s.change.Value.ID)
	}},
}

func senderFromParty(p *Party) (Sender, bool) {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return Sender{}, false
	}
	username := p.Username
	if username == "" {
		username = p.Name
	}
	return Sender{ID: p.ID, Username: username}, true
}

func nonEmpty(v string) (string, bool) {
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
