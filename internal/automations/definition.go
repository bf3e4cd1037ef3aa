package automations

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Definition is an automation row with its trigger and actions decoded.
type Definition struct {
	Automation models.Automation
	Trigger    TriggerConfig
	Actions    []Action
}

// Decode turns a stored automation into a Definition. Rows whose trigger
// variant disagrees with trigger_type are rejected.
func Decode(automation models.Automation) (Definition, error) {
	trigger, err := DecodeTrigger(automation.TriggerType, automation.TriggerConfig)
	if err != nil {
		return Definition{}, fmt.Errorf("automation %s: %w", automation.ID, err)
	}
	actions, err := DecodeActions(automation.Actions)
	if err != nil {
		return Definition{}, fmt.Errorf("automation %s: %w", automation.ID, err)
	}
	return Definition{Automation: automation, Trigger: trigger, Actions: actions}, nil
}
