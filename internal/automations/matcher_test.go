package automations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

func commentEvent(text string) meta.InboundEvent {
	return meta.InboundEvent{
		AccountID: "acct",
		EventType: enums.EventTypeChanges,
		SubType:   enums.SubTypeComments,
		EventID:   "c1",
		Sender:    meta.Sender{ID: "u1", Username: "alice"},
		Text:      text,
		CommentID: "c1",
	}
}

func dmEvent(text string, story bool) meta.InboundEvent {
	return meta.InboundEvent{
		AccountID:    "acct",
		EventType:    enums.EventTypeMessaging,
		SubType:      enums.SubTypeMessage,
		EventID:      "m1",
		Sender:       meta.Sender{ID: "u1", Username: "alice"},
		Text:         text,
		IsStoryReply: story,
	}
}

func TestMatchesCommentKeywords(t *testing.T) {
	def := Definition{Trigger: CommentTrigger{Mode: enums.TriggerModeKeywords, Keywords: []string{"discount"}}}

	assert.True(t, Matches(def, commentEvent("got a DISCOUNT20 code")))
	assert.False(t, Matches(def, commentEvent("nice photo")))
}

func TestMatchesCommentAll(t *testing.T) {
	def := Definition{Trigger: CommentTrigger{Mode: enums.TriggerModeAll}}

	assert.True(t, Matches(def, commentEvent("")))
	assert.False(t, Matches(def, dmEvent("hello", false)), "comment triggers ignore messages")
}

func TestMatchesDirectMessages(t *testing.T) {
	keywords := Definition{Trigger: DirectMessageTrigger{Mode: enums.TriggerModeKeywords, Keywords: []string{"  Price ", ""}}}
	all := Definition{Trigger: DirectMessageTrigger{Mode: enums.TriggerModeAll}}

	assert.True(t, Matches(keywords, dmEvent("what's the price?", false)))
	assert.False(t, Matches(keywords, dmEvent("hello", false)))
	assert.True(t, Matches(all, dmEvent("hello", false)))
	assert.False(t, Matches(all, dmEvent("hello", true)), "story replies belong to story triggers")
}

func TestMatchesStoryReplyIgnoresStoryList(t *testing.T) {
	specific := Definition{Trigger: StoryReplyTrigger{Mode: enums.TriggerModeSpecific, StoryIDs: []string{"story-1"}}}
	all := Definition{Trigger: StoryReplyTrigger{Mode: enums.TriggerModeAll}}

	ev := dmEvent("love it", true)
	ev.TargetID = "story-2"
	assert.True(t, Matches(specific, ev))
	assert.True(t, Matches(all, ev))
	assert.False(t, Matches(all, dmEvent("love it", false)))
}

func TestMatchesSkipsEchoAndSelfAuthored(t *testing.T) {
	def := Definition{Trigger: DirectMessageTrigger{Mode: enums.TriggerModeAll}}

	echo := dmEvent("hi", false)
	echo.SubType = enums.SubTypeEcho
	assert.False(t, Matches(def, echo))

	self := commentEvent("thanks!")
	self.Sender.ID = self.AccountID
	assert.False(t, Matches(Definition{Trigger: CommentTrigger{Mode: enums.TriggerModeAll}}, self))
}

func TestMatchesNilTrigger(t *testing.T) {
	assert.False(t, Matches(Definition{}, dmEvent("hi", false)))
}

func TestTriggerTypesFor(t *testing.T) {
	assert.Equal(t, []enums.TriggerType{enums.TriggerTypePostComment}, TriggerTypesFor(commentEvent("x")))
	assert.Equal(t, []enums.TriggerType{enums.TriggerTypeUserDirectedMessages}, TriggerTypesFor(dmEvent("x", false)))
	assert.Equal(t, []enums.TriggerType{enums.TriggerTypeStoryReply}, TriggerTypesFor(dmEvent("x", true)))

	postback := dmEvent("x", false)
	postback.SubType = enums.SubTypePostback
	assert.Nil(t, TriggerTypesFor(postback))
}
