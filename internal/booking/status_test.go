package booking

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestValidInitialStatus(t *testing.T) {
	if !ValidInitialStatus(StatusPending) {
		t.Error("pending must be a valid initial status")
	}
	if !ValidInitialStatus(StatusConfirmed) {
		t.Error("confirmed must be a valid initial status")
	}
	if ValidInitialStatus(StatusCompleted) {
		t.Error("completed must not be a valid initial status")
	}
	if ValidInitialStatus(StatusCancelled) {
		t.Error("cancelled must not be a valid initial status")
	}
	if ValidInitialStatus(Status("nonsense")) {
		t.Error("unknown status must not be a valid initial status")
	}
}
