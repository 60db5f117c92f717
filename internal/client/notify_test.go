package client

import (
	"errors"
	"testing"
	"time"

	"github.com/pigwire/pigwire/internal/protocol"
)

type alertEvent struct {
	gpio  int
	level int
	tick  uint32
}

func collectAlerts(buf int) (chan alertEvent, AlertFunc) {
	ch := make(chan alertEvent, buf)
	return ch, func(gpio, level int, tick uint32) {
		ch <- alertEvent{gpio: gpio, level: level, tick: tick}
	}
}

func waitAlert(t *testing.T, ch chan alertEvent) alertEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
		return alertEvent{}
	}
}

// The documented diffing scenario: bitmaps 0b0000, 0b0001, 0b0011, 0b0001
// with pin 0 watched. The callback fires once, with level 1, at the second
// record; pin 0 is unchanged afterwards and pin 1 is unwatched.
func TestAlertDiffingIsPerPin(t *testing.T) {
	conn, daemon := openTestConn(t, 0, nil)

	alerts, fn := collectAlerts(8)
	if err := conn.RegisterAlert(0, fn); err != nil {
		t.Fatalf("RegisterAlert failed: %v", err)
	}

	daemon.sendReport(protocol.Report{Seq: 1, Tick: 100, Level: 0b0000})
	daemon.sendReport(protocol.Report{Seq: 2, Tick: 200, Level: 0b0001})
	daemon.sendReport(protocol.Report{Seq: 3, Tick: 300, Level: 0b0011})
	daemon.sendReport(protocol.Report{Seq: 4, Tick: 400, Level: 0b0001})

	ev := waitAlert(t, alerts)
	if ev.gpio != 0 || ev.level != 1 || ev.tick != 200 {
		t.Errorf("alert = %+v, want gpio=0 level=1 tick=200", ev)
	}

	// Flush: a final toggle of pin 0 bounds the stream, so anything
	// wrongly emitted for records 3-4 would arrive first.
	daemon.sendReport(protocol.Report{Seq: 5, Tick: 500, Level: 0b0000})
	ev = waitAlert(t, alerts)
	if ev.gpio != 0 || ev.level != 0 || ev.tick != 500 {
		t.Errorf("got spurious alert %+v before the bounding toggle", ev)
	}
	if len(alerts) != 0 {
		t.Errorf("%d unexpected extra alerts", len(alerts))
	}
}

func TestUnwatchedPinsNeverDispatch(t *testing.T) {
	conn, daemon := openTestConn(t, 0, nil)

	alerts, fn := collectAlerts(8)
	if err := conn.RegisterAlert(3, fn); err != nil {
		t.Fatalf("RegisterAlert failed: %v", err)
	}

	// Pins 0-2 toggle wildly; pin 3 toggles once.
	daemon.sendReport(protocol.Report{Seq: 1, Tick: 10, Level: 0b0111})
	daemon.sendReport(protocol.Report{Seq: 2, Tick: 20, Level: 0b0000})
	daemon.sendReport(protocol.Report{Seq: 3, Tick: 30, Level: 0b1101})

	ev := waitAlert(t, alerts)
	if ev.gpio != 3 || ev.level != 1 || ev.tick != 30 {
		t.Errorf("alert = %+v, want gpio=3 level=1 tick=30", ev)
	}
	if len(alerts) != 0 {
		t.Errorf("%d alerts for unwatched pins", len(alerts))
	}
}

func TestSequenceGapsTolerated(t *testing.T) {
	conn, daemon := openTestConn(t, 0, nil)

	alerts, fn := collectAlerts(8)
	if err := conn.RegisterAlert(0, fn); err != nil {
		t.Fatalf("RegisterAlert failed: %v", err)
	}

	daemon.sendReport(protocol.Report{Seq: 1, Tick: 10, Level: 0})
	// Records 2-9 dropped by the daemon; diffing proceeds against the
	// latest bitmap received.
	daemon.sendReport(protocol.Report{Seq: 10, Tick: 100, Level: 1})

	ev := waitAlert(t, alerts)
	if ev.gpio != 0 || ev.level != 1 {
		t.Errorf("alert after gap = %+v, want gpio=0 level=1", ev)
	}
}

func TestInitialLevelsSeedTheBaseline(t *testing.T) {
	// Pin 5 is already high when the connection opens. The first report
	// confirming that must not fire an edge; a report clearing it must.
	conn, daemon := openTestConn(t, 1<<5, nil)

	alerts, fn := collectAlerts(8)
	if err := conn.RegisterAlert(5, fn); err != nil {
		t.Fatalf("RegisterAlert failed: %v", err)
	}

	daemon.sendReport(protocol.Report{Seq: 1, Tick: 10, Level: 1 << 5})
	daemon.sendReport(protocol.Report{Seq: 2, Tick: 20, Level: 0})

	ev := waitAlert(t, alerts)
	if ev.gpio != 5 || ev.level != 0 || ev.tick != 20 {
		t.Errorf("alert = %+v, want the falling edge at tick 20", ev)
	}
	if len(alerts) != 0 {
		t.Error("spurious alert for the unchanged initial level")
	}
}

func TestRegisterThenUnregisterLeavesNoTrace(t *testing.T) {
	conn, daemon := openTestConn(t, 0, nil)

	alerts, fn := collectAlerts(8)
	if err := conn.RegisterAlert(4, fn); err != nil {
		t.Fatalf("RegisterAlert failed: %v", err)
	}
	if err := conn.UnregisterAlert(4); err != nil {
		t.Fatalf("UnregisterAlert failed: %v", err)
	}

	// Toggle the pin; nothing may be dispatched.
	daemon.sendReport(protocol.Report{Seq: 1, Tick: 10, Level: 1 << 4})
	daemon.sendReport(protocol.Report{Seq: 2, Tick: 20, Level: 0})

	time.Sleep(100 * time.Millisecond)
	if len(alerts) != 0 {
		t.Errorf("%d alerts after unregistration", len(alerts))
	}

	// Watch mask history: empty at open, pin 4 added, back to empty.
	masks := daemon.masks()
	if len(masks) != 3 {
		t.Fatalf("notify-begin sent %d times, want 3 (open, add, remove)", len(masks))
	}
	if masks[1] != 1<<4 {
		t.Errorf("mask after register = 0x%x, want 0x%x", masks[1], 1<<4)
	}
	if masks[2] != masks[0] {
		t.Errorf("final mask = 0x%x, want initial 0x%x", masks[2], masks[0])
	}
}

func TestUnregisterWithoutCallbackIsUsageError(t *testing.T) {
	conn, _ := openTestConn(t, 0, nil)

	err := conn.UnregisterAlert(12)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Errorf("error = %T (%v), want *UsageError", err, err)
	}
}

func TestReRegisterReplacesCallback(t *testing.T) {
	conn, daemon := openTestConn(t, 0, nil)

	first, firstFn := collectAlerts(8)
	second, secondFn := collectAlerts(8)

	if err := conn.RegisterAlert(2, firstFn); err != nil {
		t.Fatalf("RegisterAlert failed: %v", err)
	}
	if err := conn.RegisterAlert(2, secondFn); err != nil {
		t.Fatalf("re-RegisterAlert failed: %v", err)
	}

	daemon.sendReport(protocol.Report{Seq: 1, Tick: 10, Level: 1 << 2})

	ev := waitAlert(t, second)
	if ev.gpio != 2 || ev.level != 1 {
		t.Errorf("replacement callback got %+v", ev)
	}
	if len(first) != 0 {
		t.Error("replaced callback was still invoked")
	}

	// Replacement must not resend the mask: the pin set didn't change.
	if masks := daemon.masks(); len(masks) != 2 {
		t.Errorf("notify-begin sent %d times, want 2 (open, first register)", len(masks))
	}
}

func TestWatchdogReportsDispatchTimeout(t *testing.T) {
	conn, daemon := openTestConn(t, 0, nil)

	alerts, fn := collectAlerts(8)
	if err := conn.RegisterAlert(23, fn); err != nil {
		t.Fatalf("RegisterAlert failed: %v", err)
	}

	daemon.sendReport(protocol.Report{
		Seq:   1,
		Flags: protocol.FlagWatchdog | 23,
		Tick:  999,
	})

	ev := waitAlert(t, alerts)
	if ev.gpio != 23 || ev.level != LevelTimeout || ev.tick != 999 {
		t.Errorf("watchdog alert = %+v, want gpio=23 level=LevelTimeout tick=999", ev)
	}
}

func TestListenerDeathSurfacesToOwner(t *testing.T) {
	conn, daemon := openTestConn(t, 0, nil)

	// The daemon side of the notification socket drops.
	daemon.notifySrv.Close()

	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after listener read failure")
	}

	var terr *TransportError
	if !errors.As(conn.Err(), &terr) {
		t.Errorf("Err() = %T (%v), want *TransportError", conn.Err(), conn.Err())
	}

	// The failure invalidates both channels.
	if _, err := conn.Read(17); err == nil {
		t.Error("command channel still usable after listener death")
	}
}
