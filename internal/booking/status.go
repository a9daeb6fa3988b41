package booking

// CanTransition is the appointment state machine. completed and cancelled
// are terminal; completion is only reachable through the completion
// workflow, never a bare status write.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled || to == StatusCompleted
	case StatusConfirmed:
		return to == StatusCancelled || to == StatusCompleted
	default:
		return false
	}
}

// ValidInitialStatus reports whether a booking may be created in the given
// state. Self-service flows start pending, staff-created bookings start
// confirmed; which one applies is a configuration choice.
func ValidInitialStatus(s Status) bool {
	return s == StatusPending || s == StatusConfirmed
}
