package sns

import (
	"strings"
	"testing"
)

func TestLifecycleName(t *testing.T) {
	tests := []struct {
		code int32
		want string
	}{
		{LifecyclePending, "PENDING"},
		{LifecycleOpen, "OPEN"},
		{LifecycleCommitted, "COMMITTED"},
		{LifecycleAborted, "ABORTED"},
		{LifecycleUnspecified, "UNKNOWN(0)"},
		{99, "UNKNOWN(99)"},
	}
	for _, tc := range tests {
		if got := LifecycleName(tc.code); got != tc.want {
			t.Errorf("LifecycleName(%d) = %s, want %s", tc.code, got, tc.want)
		}
	}
}

func TestTicketErrorMessages(t *testing.T) {
	existing := &TicketError{ErrorType: 1, ExistingTicket: &Ticket{TicketID: 42}}
	if msg := existing.Error(); !strings.Contains(msg, "ticket 42 already open") {
		t.Errorf("existing-ticket message = %q", msg)
	}

	bounds := &TicketError{ErrorType: 2, InvalidAmount: &AmountBounds{MinE8s: 100, MaxE8s: 900}}
	msg := bounds.Error()
	if !strings.Contains(msg, "[100, 900]") {
		t.Errorf("invalid-amount message = %q", msg)
	}

	bare := &TicketError{ErrorType: 3}
	if msg := bare.Error(); !strings.Contains(msg, "type 3") {
		t.Errorf("bare message = %q", msg)
	}
}
