package enums

import "fmt"

// ActivityStatus maps to activity_logs.status.
type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailed  ActivityStatus = "failed"
	ActivityStatusPending ActivityStatus = "pending"
)

var validActivityStatuses = []ActivityStatus{
	ActivityStatusSuccess,
	ActivityStatusFailed,
	ActivityStatusPending,
}

func (s ActivityStatus) IsValid() bool {
	for _, candidate := range validActivityStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseActivityStatus(value string) (ActivityStatus, error) {
	for _, candidate := range validActivityStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity status %q", value)
}

// AutomationStatus maps to automations.status.
type AutomationStatus string

const (
	AutomationStatusActive   AutomationStatus = "active"
	AutomationStatusInactive AutomationStatus = "inactive"
)

func (s AutomationStatus) IsValid() bool {
	return s == AutomationStatusActive || s == AutomationStatusInactive
}
