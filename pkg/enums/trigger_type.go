package enums

import "fmt"

// TriggerType maps to automations.trigger_type.
type TriggerType string

const (
	TriggerTypePostComment          TriggerType = "post_comment"
	TriggerTypeStoryReply           TriggerType = "story_reply"
	TriggerTypeUserDirectedMessages TriggerType = "user_directed_messages"
)

var validTriggerTypes = []TriggerType{
	TriggerTypePostComment,
	TriggerTypeStoryReply,
	TriggerTypeUserDirectedMessages,
}

func (t TriggerType) IsValid() bool {
	for _, candidate := range validTriggerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseTriggerType(value string) (TriggerType, error) {
	for _, candidate := range validTriggerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger type %q", value)
}

// RouteShape returns the (event_type, sub_type) pair that events for this
// trigger arrive as.
func (t TriggerType) RouteShape() (EventType, string, error) {
	switch t {
	case TriggerTypePostComment:
		return EventTypeChanges, SubTypeComments, nil
	case TriggerTypeStoryReply, TriggerTypeUserDirectedMessages:
		return EventTypeMessaging, SubTypeMessage, nil
	}
	return "", "", fmt.Errorf("invalid trigger type %q", t)
}

// TriggerMode selects between matching everything and an allow-list.
type TriggerMode string

const (
	TriggerModeAll      TriggerMode = "all"
	TriggerModeKeywords TriggerMode = "keywords"
	TriggerModeSpecific TriggerMode = "specific"
)
