package automations

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
)

// TriggerConfig is the per-trigger-type matching policy stored in
// automations.trigger_config. The set of variants is closed.
type TriggerConfig interface {
	TriggerType() enums.TriggerType
	validate() error
}

// CommentTrigger fires on comments on the account's posts.
type CommentTrigger struct {
	Mode     enums.TriggerMode `json:"commentsType" validate:"required,oneof=all keywords"`
	Keywords []string          `json:"keywords,omitempty"`
	PostIDs  []string          `json:"postIds,omitempty"`
}

// DirectMessageTrigger fires on direct messages that are not story replies.
type DirectMessageTrigger struct {
	Mode     enums.TriggerMode `json:"messagesType" validate:"required,oneof=all keywords"`
	Keywords []string          `json:"keywords,omitempty"`
}

// StoryReplyTrigger fires on replies to the account's stories. StoryIDs is
// stored for the "specific" mode but does not narrow matching.
type StoryReplyTrigger struct {
	Mode     enums.TriggerMode `json:"storiesType" validate:"required,oneof=all specific"`
	StoryIDs []string          `json:"storyIds,omitempty"`
}

func (CommentTrigger) TriggerType() enums.TriggerType { return enums.TriggerTypePostComment }
func (DirectMessageTrigger) TriggerType() enums.TriggerType {
	return enums.TriggerTypeUserDirectedMessages
}
func (StoryReplyTrigger) TriggerType() enums.TriggerType { return enums.TriggerTypeStoryReply }

func (t CommentTrigger) validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}
	return requireKeywords(t.Mode, t.Keywords)
}

func (t DirectMessageTrigger) validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}
	return requireKeywords(t.Mode, t.Keywords)
}

func (t StoryReplyTrigger) validate() error {
	return validate.Struct(t)
}

func requireKeywords(mode enums.TriggerMode, keywords []string) error {
	if mode != enums.TriggerModeKeywords {
		return nil
	}
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			return nil
		}
	}
	return fmt.Errorf("keywords mode requires at least one keyword")
}

// DecodeTrigger parses raw into the variant selected by triggerType.
func DecodeTrigger(triggerType enums.TriggerType, raw []byte) (TriggerConfig, error) {
	var cfg TriggerConfig
	switch triggerType {
	case enums.TriggerTypePostComment:
		var t CommentTrigger
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode comment trigger: %w", err)
		}
		cfg = t
	case enums.TriggerTypeUserDirectedMessages:
		var t DirectMessageTrigger
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode direct message trigger: %w", err)
		}
		cfg = t
	case enums.TriggerTypeStoryReply:
		var t StoryReplyTrigger
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode story reply trigger: %w", err)
		}
		cfg = t
	default:
		return nil, fmt.Errorf("invalid trigger type %q", triggerType)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s trigger: %w", triggerType, err)
	}
	return cfg, nil
}
