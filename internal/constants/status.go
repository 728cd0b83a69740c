// Package constants provides shared constants for the shop-timeline application
package constants

import "fmt"

// WorkOrderStatus is the lifecycle state of a work order
type WorkOrderStatus string

const (
	StatusOpen       WorkOrderStatus = "open"
	StatusInProgress WorkOrderStatus = "in-progress"
	StatusComplete   WorkOrderStatus = "complete"
	StatusBlocked    WorkOrderStatus = "blocked"
)

// IsValid checks if the status value is one of the known states
func (s WorkOrderStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusComplete, StatusBlocked:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s WorkOrderStatus) String() string {
	return string(s)
}

// Label returns the human readable name shown on bars
func (s WorkOrderStatus) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusInProgress:
		return "In progress"
	case StatusComplete:
		return "Complete"
	case StatusBlocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// ParseWorkOrderStatus parses a string into a WorkOrderStatus
func ParseWorkOrderStatus(s string) (WorkOrderStatus, error) {
	status := WorkOrderStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid work order status: %q (must be one of open, in-progress, complete, blocked)", s)
	}
	return status, nil
}

// GetAllWorkOrderStatuses returns all valid statuses in display order
func GetAllWorkOrderStatuses() []WorkOrderStatus {
	return []WorkOrderStatus{StatusOpen, StatusInProgress, StatusComplete, StatusBlocked}
}
