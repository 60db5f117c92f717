package protocol

import (
	"bytes"
	"testing"
)

func TestReadReport(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
		verify  func(t *testing.T, rpt Report)
	}{
		{
			name: "level snapshot",
			data: []byte{
				0x2a, 0x00, // seq = 42
				0x00, 0x00, // flags
				0x40, 0xe2, 0x01, 0x00, // tick = 123456
				0x03, 0x00, 0x00, 0x80, // level = GPIO 0,1,31 high
			},
			verify: func(t *testing.T, rpt Report) {
				if rpt.Seq != 42 {
					t.Errorf("seq = %d, want 42", rpt.Seq)
				}
				if rpt.Tick != 123456 {
					t.Errorf("tick = %d, want 123456", rpt.Tick)
				}
				if rpt.Level != 0x80000003 {
					t.Errorf("level = 0x%08x, want 0x80000003", rpt.Level)
				}
				if rpt.IsWatchdog() {
					t.Error("IsWatchdog() = true for a plain snapshot")
				}
			},
		},
		{
			name: "watchdog report for GPIO 23",
			data: []byte{
				0x01, 0x00,
				0x37, 0x00, // FlagWatchdog | 23
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
			verify: func(t *testing.T, rpt Report) {
				if !rpt.IsWatchdog() {
					t.Fatal("IsWatchdog() = false, want true")
				}
				if rpt.WatchdogGPIO() != 23 {
					t.Errorf("WatchdogGPIO() = %d, want 23", rpt.WatchdogGPIO())
				}
			},
		},
		{
			name:    "short record is a transport error",
			data:    []byte{0x01, 0x00, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpt, err := ReadReport(bytes.NewReader(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadReport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.verify != nil {
				tt.verify(t, rpt)
			}
		})
	}
}

func TestReadReportConsumesExactlyOneRecord(t *testing.T) {
	// Two back-to-back records; the second must remain readable.
	two := append(
		[]byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00},
		[]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}...,
	)
	rd := bytes.NewReader(two)

	first, err := ReadReport(rd)
	if err != nil {
		t.Fatalf("first ReadReport failed: %v", err)
	}
	second, err := ReadReport(rd)
	if err != nil {
		t.Fatalf("second ReadReport failed: %v", err)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("seq order = %d, %d; want 1, 2", first.Seq, second.Seq)
	}
	if first.Level != 1 || second.Level != 2 {
		t.Errorf("levels = 0x%x, 0x%x; want 0x1, 0x2", first.Level, second.Level)
	}
}

func TestStatusText(t *testing.T) {
	if got := StatusText(-3); got != "bad GPIO number" {
		t.Errorf("StatusText(-3) = %q, want %q", got, "bad GPIO number")
	}
	if got := StatusText(-41); got != "no permission to update GPIO" {
		t.Errorf("StatusText(-41) = %q", got)
	}
	if got := StatusText(-9999); got != "daemon error -9999" {
		t.Errorf("StatusText(-9999) = %q, want raw code preserved", got)
	}
	if KnownStatus(-9999) {
		t.Error("KnownStatus(-9999) = true, want false")
	}
}
