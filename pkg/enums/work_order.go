package enums

import "fmt"

// WorkOrderStatus is the lifecycle state of one production unit.
type WorkOrderStatus string

const (
	WorkOrderStatusPending    WorkOrderStatus = "pending"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusOnHold     WorkOrderStatus = "on_hold"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

var validWorkOrderStatuses = []WorkOrderStatus{
	WorkOrderStatusPending,
	WorkOrderStatusInProgress,
	WorkOrderStatusOnHold,
	WorkOrderStatusCompleted,
	WorkOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s WorkOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WorkOrderStatus.
func (s WorkOrderStatus) IsValid() bool {
	for _, candidate := range validWorkOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsFinal reports whether no further production happens on the unit.
func (s WorkOrderStatus) IsFinal() bool {
	return s == WorkOrderStatusCompleted || s == WorkOrderStatusCancelled
}

// ParseWorkOrderStatus converts raw input into a WorkOrderStatus.
func ParseWorkOrderStatus(value string) (WorkOrderStatus, error) {
	for _, candidate := range validWorkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order status %q", value)
}

// WorkOrderPriority orders the production queue.
type WorkOrderPriority string

const (
	WorkOrderPriorityLow    WorkOrderPriority = "low"
	WorkOrderPriorityNormal WorkOrderPriority = "normal"
	WorkOrderPriorityHigh   WorkOrderPriority = "high"
	WorkOrderPriorityUrgent WorkOrderPriority = "urgent"
)

var validWorkOrderPriorities = []WorkOrderPriority{
	WorkOrderPriorityLow,
	WorkOrderPriorityNormal,
	WorkOrderPriorityHigh,
	WorkOrderPriorityUrgent,
}

func (p WorkOrderPriority) String() string {
	return string(p)
}

func (p WorkOrderPriority) IsValid() bool {
	for _, candidate := range validWorkOrderPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParseWorkOrderPriority(value string) (WorkOrderPriority, error) {
	for _, candidate := range validWorkOrderPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order priority %q", value)
}
