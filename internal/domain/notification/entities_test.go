package notification

import "testing"

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		in   Status
		want bool
	}{
		{StatusPending, false},
		{StatusResolved, true},
		{StatusDismissed, true},
	}
	for _, tt := range tests {
		if got := tt.in.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.in, got, tt.want)
		}
	}
}
