package client

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusErr(t *testing.T) {
	tests := []struct {
		name     string
		status   int32
		wantErr  bool
		wantText string
	}{
		{name: "zero is never an error", status: 0},
		{name: "positive is never an error", status: 42},
		{name: "bad GPIO", status: -3, wantErr: true, wantText: "bad GPIO number"},
		{name: "bad mode", status: -4, wantErr: true, wantText: "bad GPIO mode"},
		{name: "not permitted", status: -41, wantErr: true, wantText: "no permission"},
		{name: "unknown code keeps raw value", status: -12345, wantErr: true, wantText: "daemon error -12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := statusErr(4, tt.status)
			if (err != nil) != tt.wantErr {
				t.Fatalf("statusErr(%d) = %v, wantErr %v", tt.status, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var derr *DaemonError
			if !errors.As(err, &derr) {
				t.Fatalf("error type = %T, want *DaemonError", err)
			}
			if derr.Status != tt.status {
				t.Errorf("Status = %d, want %d", derr.Status, tt.status)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Error() = %q, want it to mention %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := &TransportError{Op: "read reply", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not match the wrapped cause")
	}
	if err.Timeout() {
		t.Error("Timeout() = true for a non-timeout cause")
	}
	if !strings.Contains(err.Error(), "read reply") {
		t.Errorf("Error() = %q, want the failing op named", err.Error())
	}
}
