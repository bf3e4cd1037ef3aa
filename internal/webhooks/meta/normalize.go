package meta

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

const hashedIDPrefix = "h_"

// Normalize converts every messaging item and change of entry into an
// InboundEvent. Items that cannot be decoded are skipped and reported in the
// returned error; the remaining events are still returned.
func Normalize(platform enums.Platform, entry Entry, receivedAt time.Time) ([]InboundEvent, error) {
	events := make([]InboundEvent, 0, len(entry.Messaging)+len(entry.Changes))
	var errs error

	for i, raw := range entry.Messaging {
		var item Messaging
		if err := json.Unmarshal(raw, &item); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("messaging[%d]: %w", i, err))
			continue
		}
		ev, err := newEvent(platform, entry, source{messaging: &item}, raw, receivedAt)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("messaging[%d]: %w", i, err))
			continue
		}
		events = append(events, ev)
	}

	for i, raw := range entry.Changes {
		var item Change
		if err := json.Unmarshal(raw, &item); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("changes[%d]: %w", i, err))
			continue
		}
		if item.Field == "" {
			errs = multierr.Append(errs, fmt.Errorf("changes[%d]: missing field", i))
			continue
		}
		ev, err := newEvent(platform, entry, source{change: &item}, raw, receivedAt)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("changes[%d]: %w", i, err))
			continue
		}
		events = append(events, ev)
	}

	return events, errs
}

func newEvent(platform enums.Platform, entry Entry, src source, raw json.RawMessage, receivedAt time.Time) (InboundEvent, error) {
	ev := InboundEvent{
		Platform:   platform,
		AccountID:  entry.ID,
		ReceivedAt: receivedAt.UTC(),
		Payload:    raw,
	}

	switch {
	case src.messaging != nil:
		ev.EventType = enums.EventTypeMessaging
		ev.SubType = messagingSubType(src.messaging)
		if msg := src.messaging.Message; msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Story != nil {
			ev.IsStoryReply = true
		}
		ev.Timestamp = fromMillis(src.messaging.Timestamp)
	case src.change != nil:
		ev.EventType = enums.EventTypeChanges
		ev.SubType = src.change.Field
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = fromEntryTime(entry.Time)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = ev.ReceivedAt
	}

	ev.Sender, _ = firstMatch(src, senderStrategies)
	ev.Text, _ = firstMatch(src, textStrategies)
	ev.TargetID, _ = firstMatch(src, targetStrategies)
	ev.CommentID, _ = firstMatch(src, commentIDStrategies)

	if id, ok := firstMatch(src, eventIDStrategies); ok {
		ev.EventID = id
		return ev, nil
	}
	id, err := hashEventID(ev.AccountID, ev.EventType, ev.SubType, raw)
	if err != nil {
		return InboundEvent{}, err
	}
	ev.EventID = id
	return ev, nil
}

func messagingSubType(m *Messaging) string {
	switch {
	case m.Message != nil && m.Message.IsEcho:
		return enums.SubTypeEcho
	case m.Message != nil:
		return enums.SubTypeMessage
	case m.Postback != nil:
		return enums.SubTypePostback
	}
	return enums.SubTypeOther
}

// hashEventID derives an id from a canonical encoding (sorted keys, exact
// numbers) of the item so identical redeliveries collide and distinct items
// do not.
func hashEventID(accountID string, eventType enums.EventType, subType string, raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var item any
	if err := dec.Decode(&item); err != nil {
		return "", fmt.Errorf("canonicalize item: %w", err)
	}
	canonical, err := json.Marshal(map[string]any{
		"account_id": accountID,
		"event_type": eventType,
		"sub_type":   subType,
		"item":       item,
	})
	if err != nil {
		return "", fmt.Errorf("canonicalize item: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hashedIDPrefix + hex.EncodeToString(sum[:]), nil
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Entry times arrive in seconds for changes and milliseconds for messaging.
func fromEntryTime(v int64) time.Time {
	switch {
	case v <= 0:
		return time.Time{}
	case v > 1e12:
		return time.UnixMilli(v).UTC()
	default:
		return time.Unix(v, 0).UTC()
	}
}
