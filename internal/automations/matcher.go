package automations

import (
	"strings"

	"github.com/angelmondragon/replyflow-backend/internal/webhooks/meta"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

// TriggerTypesFor lists the trigger types whose automations can react to ev.
func TriggerTypesFor(ev meta.InboundEvent) []enums.TriggerType {
	switch {
	case ev.EventType == enums.EventTypeChanges && ev.SubType == enums.SubTypeComments:
		return []enums.TriggerType{enums.TriggerTypePostComment}
	case ev.EventType == enums.EventTypeMessaging && ev.SubType == enums.SubTypeMessage:
		if ev.IsStoryReply {
			return []enums.TriggerType{enums.TriggerTypeStoryReply}
		}
		return []enums.TriggerType{enums.TriggerTypeUserDirectedMessages}
	}
	return nil
}

// Matches reports whether def's trigger fires for ev.
func Matches(def Definition, ev meta.InboundEvent) bool {
	if ev.SubType == enums.SubTypeEcho || ev.SelfAuthored() {
		return false
	}
	switch t := def.Trigger.(type) {
	case CommentTrigger:
		if ev.EventType != enums.EventTypeChanges || ev.SubType != enums.SubTypeComments {
			return false
		}
		return matchText(t.Mode, t.Keywords, ev.Text)
	case DirectMessageTrigger:
		if ev.EventType != enums.EventTypeMessaging || ev.SubType != enums.SubTypeMessage || ev.IsStoryReply {
			return false
		}
		return matchText(t.Mode, t.Keywords, ev.Text)
	case StoryReplyTrigger:
		if ev.EventType != enums.EventTypeMessaging || ev.SubType != enums.SubTypeMessage || !ev.IsStoryReply {
			return false
		}
		// "specific" keeps its story list for display only
		return t.Mode == enums.TriggerModeAll || t.Mode == enums.TriggerModeSpecific
	default:
		return false
	}
}

func matchText(mode enums.TriggerMode, keywords []string, text string) bool {
	switch mode {
	case enums.TriggerModeAll:
		return true
	case enums.TriggerModeKeywords:
		return containsKeyword(text, keywords)
	}
	return false
}

func containsKeyword(text string, keywords []string) bool {
	haystack := strings.ToLower(text)
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
