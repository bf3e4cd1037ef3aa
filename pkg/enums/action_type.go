package enums

import "fmt"

// ActionType maps to activity_logs.action_type and the action discriminator.
type ActionType string

const (
	ActionTypeReplyToComment ActionType = "reply_to_comment"
	ActionTypeSendDM         ActionType = "send_dm"
	ActionTypeAskToFollow    ActionType = "ask_to_follow"
)

var validActionTypes = []ActionType{
	ActionTypeReplyToComment,
	ActionTypeSendDM,
	ActionTypeAskToFollow,
}

func (a ActionType) IsValid() bool {
	for _, candidate := range validActionTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseActionType(value string) (ActionType, error) {
	for _, candidate := range validActionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action type %q", value)
}

// ButtonKind is the behaviour of an outbound message button.
type ButtonKind string

const (
	ButtonKindWebURL   ButtonKind = "web_url"
	ButtonKindPostback ButtonKind = "postback"
	ButtonKindCalendar ButtonKind = "calendar"
)

func (b ButtonKind) IsValid() bool {
	switch b {
	case ButtonKindWebURL, ButtonKindPostback, ButtonKindCalendar:
		return true
	}
	return false
}
