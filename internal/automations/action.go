package automations

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/types"
)

const maxButtons = 3

// Action is one step of an automation. The set of variants is closed; the
// executor switches over them exhaustively.
type Action interface {
	ActionType() enums.ActionType
	validate() error
}

// Button is an outbound message button. Calendar buttons are sent as web_url
// buttons pointing at the configured booking page.
type Button struct {
	Text    string           `json:"text" validate:"required,max=20"`
	Kind    enums.ButtonKind `json:"kind" validate:"required,oneof=web_url postback calendar"`
	URL     string           `json:"url,omitempty" validate:"required_if=Kind web_url"`
	Payload string           `json:"payload,omitempty"`
}

type ReplyToComment struct {
	Templates []string `json:"templates" validate:"min=1,dive,required"`
	Buttons   []Button `json:"buttons,omitempty" validate:"max=3,dive"`
}

type SendDM struct {
	Title     string   `json:"title,omitempty"`
	Templates []string `json:"templates,omitempty" validate:"omitempty,dive,required"`
	Message   string   `json:"message,omitempty"`
	Buttons   []Button `json:"buttons,omitempty" validate:"max=3,dive"`
}

type AskToFollow struct {
	Message          string `json:"message" validate:"required"`
	FollowButtonText string `json:"follow_button_text,omitempty" validate:"max=20"`
}

func (ReplyToComment) ActionType() enums.ActionType { return enums.ActionTypeReplyToComment }
func (SendDM) ActionType() enums.ActionType         { return enums.ActionTypeSendDM }
func (AskToFollow) ActionType() enums.ActionType    { return enums.ActionTypeAskToFollow }

func (a ReplyToComment) validate() error { return validate.Struct(a) }

func (a SendDM) validate() error {
	if err := validate.Struct(a); err != nil {
		return err
	}
	if len(a.Templates) == 0 && a.Message == "" {
		return fmt.Errorf("send_dm needs templates or a message")
	}
	return nil
}

func (a AskToFollow) validate() error { return validate.Struct(a) }

func (a ReplyToComment) MarshalJSON() ([]byte, error) {
	type alias ReplyToComment
	return json.Marshal(struct {
		Type enums.ActionType `json:"type"`
		alias
	}{a.ActionType(), alias(a)})
}

func (a SendDM) MarshalJSON() ([]byte, error) {
	type alias SendDM
	return json.Marshal(struct {
		Type enums.ActionType `json:"type"`
		alias
	}{a.ActionType(), alias(a)})
}

func (a AskToFollow) MarshalJSON() ([]byte, error) {
	type alias AskToFollow
	return json.Marshal(struct {
		Type enums.ActionType `json:"type"`
		alias
	}{a.ActionType(), alias(a)})
}

type actionEnvelope struct {
	Type enums.ActionType `json:"type"`
}

// DecodeActions parses the ordered action list of an automation.
func DecodeActions(raw []byte) ([]Action, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	actions := make([]Action, 0, len(items))
	for i, item := range items {
		action, err := decodeAction(item)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func decodeAction(raw json.RawMessage) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	var action Action
	switch env.Type {
	case enums.ActionTypeReplyToComment:
		var a ReplyToComment
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		action = a
	case enums.ActionTypeSendDM:
		var a SendDM
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		action = a
	case enums.ActionTypeAskToFollow:
		var a AskToFollow
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		action = a
	default:
		return nil, fmt.Errorf("unknown action type %q", env.Type)
	}
	if err := action.validate(); err != nil {
		return nil, err
	}
	return action, nil
}

// EncodeActions serializes actions with their type discriminator.
func EncodeActions(actions []Action) (types.JSON, error) {
	if actions == nil {
		actions = []Action{}
	}
	buf, err := json.Marshal(actions)
	if err != nil {
		return nil, fmt.Errorf("encode actions: %w", err)
	}
	return types.JSON(buf), nil
}
