package models

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&SocialAccount{},
		&Automation{},
		&AutomationRoute{},
		&ProcessedEvent{},
		&ActivityLog{},
		&FailedEvent{},
	}
}
