package bluetooth

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/homedash/internal/command"
	"github.com/five82/homedash/internal/relay"
)

type fakeSession struct {
	mu        sync.Mutex
	devices   []DeviceInfo
	connected map[DeviceID]bool
	readErr   map[DeviceID]error
	streams   map[DeviceID]chan Event
	calls     []string
	closed    bool
}

func newFakeSession(devices ...DeviceInfo) *fakeSession {
	s := &fakeSession{
		devices:   devices,
		connected: map[DeviceID]bool{},
		readErr:   map[DeviceID]error{},
		streams:   map[DeviceID]chan Event{},
	}
	for _, d := range devices {
		s.connected[d.ID] = d.Connected
		s.streams[d.ID] = make(chan Event, 4)
	}
	return s
}

func (s *fakeSession) Devices(context.Context) ([]DeviceInfo, error) {
	return s.devices, nil
}

func (s *fakeSession) Connected(_ context.Context, id DeviceID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErr[id]; err != nil {
		return false, err
	}
	return s.connected[id], nil
}

func (s *fakeSession) Connect(_ context.Context, id DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "connect "+string(id))
	return nil
}

func (s *fakeSession) Disconnect(_ context.Context, id DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "disconnect "+string(id))
	return errors.New("device busy")
}

func (s *fakeSession) Events(_ context.Context, id DeviceID) (<-chan Event, error) {
	return s.streams[id], nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func mac(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	addr, err := net.ParseMAC(s)
	if err != nil {
		t.Fatalf("ParseMAC(%q): %v", s, err)
	}
	return addr
}

func twoDevices(t *testing.T) (*fakeSession, []Target) {
	session := newFakeSession(
		DeviceInfo{ID: "/org/bluez/hci0/dev_A", Address: mac(t, "AA:BB:CC:DD:EE:01"), Connected: true},
		DeviceInfo{ID: "/org/bluez/hci0/dev_B", Address: mac(t, "AA:BB:CC:DD:EE:02")},
	)
	targets := []Target{
		{Name: "headphones", Address: "aa:bb:cc:dd:ee:01"},
		{Name: "speaker", Address: "AA:BB:CC:DD:EE:02"},
	}
	return session, targets
}

func opener(s Session) Opener {
	return func(context.Context) (Session, error) { return s, nil }
}

func TestInitialize_Errors(t *testing.T) {
	session, _ := twoDevices(t)

	_, err := Initialize(context.Background(), func(context.Context) (Session, error) {
		return nil, errors.New("no system bus")
	}, nil, nil)
	if !errors.Is(err, ErrSession) {
		t.Fatalf("open failure error = %v, want ErrSession", err)
	}

	_, err = Initialize(context.Background(), opener(session), []Target{{Name: "x", Address: "not-a-mac"}}, nil)
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("bad address error = %v, want ErrInvalidAddress", err)
	}
	if !session.closed {
		t.Fatalf("session left open after failed Initialize")
	}

	_, err = Initialize(context.Background(), opener(session), []Target{{Name: "x", Address: "11:22:33:44:55:66"}}, nil)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("unknown device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestCurrentState_ReadFailureReportsDisconnected(t *testing.T) {
	session, targets := twoDevices(t)
	session.readErr["/org/bluez/hci0/dev_A"] = errors.New("timeout")

	w, err := Initialize(context.Background(), opener(session), targets, nil)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	state := w.CurrentState(context.Background())
	if len(state.Devices) != 2 || state.Devices[0].Name != "headphones" || state.Devices[1].Name != "speaker" {
		t.Fatalf("devices = %+v, want configuration order", state.Devices)
	}
	if state.Connected("headphones") {
		t.Fatalf("failed read reported connected")
	}
	if state.Devices[0].Address != "aa:bb:cc:dd:ee:01" {
		t.Fatalf("address = %q", state.Devices[0].Address)
	}
}

func recv[T any](t *testing.T, rx *relay.Receiver[T]) T {
	t.Helper()
	select {
	case v := <-rx.C():
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestRun_PublishesWholeStateOnEachEvent(t *testing.T) {
	session, targets := twoDevices(t)
	w, err := Initialize(context.Background(), opener(session), targets, nil)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, rx := relay.New[ConnectionState](8)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, out) }()

	initial := recv(t, rx)
	if !initial.Connected("headphones") || initial.Connected("speaker") {
		t.Fatalf("initial state = %+v", initial)
	}

	session.streams["/org/bluez/hci0/dev_B"] <- Event{Device: "/org/bluez/hci0/dev_B", Connected: true}
	next := recv(t, rx)
	if len(next.Devices) != 2 || !next.Connected("headphones") || !next.Connected("speaker") {
		t.Fatalf("state after event = %+v, want both connected", next)
	}

	// Published states must not alias the watcher's mirror.
	next.Devices[0].Connected = false
	session.streams["/org/bluez/hci0/dev_A"] <- Event{Device: "/org/bluez/hci0/dev_A", Connected: true}
	if got := recv(t, rx); !got.Connected("headphones") {
		t.Fatalf("mirror was mutated through a published state")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run error = %v", err)
	}
}

func TestRun_StopsWhenAllStreamsEnd(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	session, targets := twoDevices(t)
	w, err := Initialize(context.Background(), opener(session), targets, zap.New(core))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for _, ch := range session.streams {
		close(ch)
	}

	out, _ := relay.New[ConnectionState](8)
	if err := w.Run(context.Background(), out); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if logs.FilterMessage("all bluetooth event streams ended").Len() != 1 {
		t.Fatalf("missing end-of-streams warning: %v", logs.All())
	}
}

func TestRun_FullChannelDropsAndContinues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	session, targets := twoDevices(t)
	w, err := Initialize(context.Background(), opener(session), targets, zap.New(core))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	out, rx := relay.New[ConnectionState](1)
	session.streams["/org/bluez/hci0/dev_B"] <- Event{Device: "/org/bluez/hci0/dev_B", Connected: true}
	close(session.streams["/org/bluez/hci0/dev_A"])
	close(session.streams["/org/bluez/hci0/dev_B"])

	if err := w.Run(context.Background(), out); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if logs.FilterMessage("bluetooth update dropped, aggregator is not consuming").Len() != 1 {
		t.Fatalf("want one dropped-update warning, got %v", logs.All())
	}
	if got := recv(t, rx); got.Connected("speaker") {
		t.Fatalf("buffered state = %+v, want the initial one", got)
	}
}

func TestRun_ReturnsWhenReceiverGone(t *testing.T) {
	session, targets := twoDevices(t)
	w, err := Initialize(context.Background(), opener(session), targets, nil)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	out, rx := relay.New[ConnectionState](1)
	rx.Close()
	if err := w.Run(context.Background(), out); err != nil {
		t.Fatalf("Run error = %v", err)
	}
}

func TestExecute(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	session, targets := twoDevices(t)
	w, err := Initialize(context.Background(), opener(session), targets, zap.New(core))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	w.Execute(context.Background(), command.ConnectDevice("speaker"))
	w.Execute(context.Background(), command.DisconnectDevice("headphones"))
	w.Execute(context.Background(), command.ConnectDevice("toaster"))

	want := []string{"connect /org/bluez/hci0/dev_B", "disconnect /org/bluez/hci0/dev_A"}
	if len(session.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", session.calls, want)
	}
	for i := range want {
		if session.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", session.calls, want)
		}
	}
	if logs.FilterMessage("bluetooth command failed").Len() != 1 {
		t.Fatalf("disconnect failure was not logged")
	}
	if logs.FilterMessage("command for untracked device ignored").Len() != 1 {
		t.Fatalf("unknown device was not logged")
	}
}

func TestConnectedChange(t *testing.T) {
	path := dbus.ObjectPath("/org/bluez/hci0/dev_A")
	sig := &dbus.Signal{
		Path: path,
		Name: propertiesChanged,
		Body: []interface{}{bluezDevice, map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)}, []string{}},
	}
	if connected, ok := connectedChange(sig, path); !ok || !connected {
		t.Fatalf("connectedChange = %v, %v; want true, true", connected, ok)
	}

	other := *sig
	other.Body = []interface{}{bluezDevice, map[string]dbus.Variant{"RSSI": dbus.MakeVariant(int16(-40))}, []string{}}
	if _, ok := connectedChange(&other, path); ok {
		t.Fatalf("signal without Connected was accepted")
	}
	if _, ok := connectedChange(sig, "/org/bluez/hci0/dev_B"); ok {
		t.Fatalf("signal for another path was accepted")
	}
}
