package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSenderStrategiesOrder(t *testing.T) {
	src := source{change: &Change{Field: "comments", Value: ChangeValue{
		From: &Party{ID: "from-id", Username: "from"},
		User: &Party{ID: "user-id", Username: "user"},
	}}}
	got, ok := firstMatch(src, senderStrategies)
	assert.True(t, ok)
	assert.Equal(t, "from-id", got.ID)

	src.change.Value.From = nil
	got, ok = firstMatch(src, senderStrategies)
	assert.True(t, ok)
	assert.Equal(t, "user", got.Username)

	src.change.Value.User = &Party{ID: " "}
	_, ok = firstMatch(src, senderStrategies)
	assert.False(t, ok)
}

func TestEachStrategyIsolated(t *testing.T) {
	msg := source{messaging: &Messaging{
		Sender:   &Party{ID: "u1", Name: "Name Only"},
		Message:  &Message{Mid: "m", Text: "hello"},
		Postback: &Postback{Mid: "p", Title: "title"},
	}}
	change := source{change: &Change{Field: "comments", Value: ChangeValue{
		ID: "c1", CommentID: "c2", Text: "t", Message: "m", MediaID: "media", StoryID: "story",
		Media: &MediaRef{ID: "nested"},
	}}}

	cases := []struct {
		name  string
		run   func() (string, bool)
		want  string
		found bool
	}{
		{"message.text", func() (string, bool) { return textStrategies[0].fn(msg) }, "hello", true},
		{"postback.title", func() (string, bool) { return textStrategies[1].fn(msg) }, "title", true},
		{"value.text", func() (string, bool) { return textStrategies[2].fn(change) }, "t", true},
		{"value.message", func() (string, bool) { return textStrategies[3].fn(change) }, "m", true},
		{"value.text on messaging", func() (string, bool) { return textStrategies[2].fn(msg) }, "", false},
		{"value.media.id", func() (string, bool) { return targetStrategies[1].fn(change) }, "nested", true},
		{"value.media_id", func() (string, bool) { return targetStrategies[2].fn(change) }, "media", true},
		{"value.story_id", func() (string, bool) { return targetStrategies[3].fn(change) }, "story", true},
		{"message.mid", func() (string, bool) { return eventIDStrategies[0].fn(msg) }, "m", true},
		{"postback.mid", func() (string, bool) { return eventIDStrategies[1].fn(msg) }, "p", true},
		{"value.id", func() (string, bool) { return eventIDStrategies[2].fn(change) }, "c1", true},
		{"value.comment_id", func() (string, bool) { return eventIDStrategies[3].fn(change) }, "c2", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.run()
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	sender, ok := firstMatch(msg, senderStrategies)
	assert.True(t, ok)
	assert.Equal(t, "Name Only", sender.Username)
}

func TestStrategyNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range textStrategies {
		assert.False(t, seen[s.name], s.name)
		seen[s.name] = true
	}
}
