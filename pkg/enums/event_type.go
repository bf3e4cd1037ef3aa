package enums

import "fmt"

// EventType is the coarse shape of an inbound platform event.
type EventType string

const (
	EventTypeMessaging EventType = "messaging"
	EventTypeChanges   EventType = "changes"
)

var validEventTypes = []EventType{
	EventTypeMessaging,
	EventTypeChanges,
}

func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// Messaging sub types. Change events use the platform field name instead.
const (
	SubTypeMessage  = "message"
	SubTypePostback = "postback"
	SubTypeEcho     = "echo"
	SubTypeOther    = "other"
	SubTypeComments = "comments"
)
