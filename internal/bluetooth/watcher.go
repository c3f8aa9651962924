package bluetooth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/homedash/internal/command"
	"github.com/five82/homedash/internal/relay"
)

var (
	// ErrSession means the Bluetooth stack could not be reached.
	ErrSession = errors.New("bluetooth session unavailable")
	// ErrInvalidAddress means a configured address is not a MAC address.
	ErrInvalidAddress = errors.New("invalid bluetooth address")
	// ErrDeviceNotFound means the adapter does not know a configured device.
	ErrDeviceNotFound = errors.New("bluetooth device not found")
)

// Target is a device the watcher should track.
type Target struct {
	Name    string
	Address string
}

type device struct {
	name string
	addr net.HardwareAddr
	id   DeviceID
}

// Watcher mirrors the connection status of a fixed set of devices.
type Watcher struct {
	session Session
	devices []device
	log     *zap.Logger
}

// Initialize opens a session and resolves every target. Any failure is
// fatal: the session is closed and no Watcher is returned.
func Initialize(ctx context.Context, open Opener, targets []Target, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	session, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSession, err)
	}

	devices, err := resolve(ctx, session, targets)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	for _, d := range devices {
		log.Info("tracking bluetooth device", zap.String("name", d.name), zap.Stringer("address", d.addr))
	}
	return &Watcher{session: session, devices: devices, log: log}, nil
}

func resolve(ctx context.Context, session Session, targets []Target) ([]device, error) {
	known, err := session.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %w", ErrSession, err)
	}

	devices := make([]device, 0, len(targets))
	for _, t := range targets {
		addr, err := net.ParseMAC(t.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q: %w", ErrInvalidAddress, t.Name, t.Address, err)
		}
		var id DeviceID
		for _, k := range known {
			if bytes.Equal(k.Address, addr) {
				id = k.ID
				break
			}
		}
		if id == "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrDeviceNotFound, t.Name, addr)
		}
		devices = append(devices, device{name: t.Name, addr: addr, id: id})
	}
	return devices, nil
}

// Close releases the session.
func (w *Watcher) Close() error {
	return w.session.Close()
}

// CurrentState reads every device's status. A failed read is logged and the
// device is reported disconnected.
func (w *Watcher) CurrentState(ctx context.Context) ConnectionState {
	state := ConnectionState{Devices: make([]DeviceStatus, len(w.devices))}
	for i, d := range w.devices {
		connected, err := w.session.Connected(ctx, d.id)
		if err != nil {
			w.log.Warn("read connection status failed", zap.String("device", d.name), zap.Error(err))
		}
		state.Devices[i] = DeviceStatus{Name: d.name, Address: d.addr.String(), Connected: connected}
	}
	return state
}

type indexedEvent struct {
	index int
	event Event
}

// Run publishes the current state, then republishes the whole state on every
// connection event until ctx is done, out is closed, or every event stream
// has ended.
//
// The initial read happens before the streams are subscribed, so a change
// landing between the two is not seen until the next event.
func (w *Watcher) Run(ctx context.Context, out *relay.Sender[ConnectionState]) error {
	state := w.CurrentState(ctx)
	if !w.publish(out, state) {
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	merged := make(chan indexedEvent)
	var wg sync.WaitGroup
	for i, d := range w.devices {
		events, err := w.session.Events(subCtx, d.id)
		if err != nil {
			w.log.Warn("subscribe to device events failed", zap.String("device", d.name), zap.Error(err))
			continue
		}
		wg.Add(1)
		go func(index int, events <-chan Event) {
			defer wg.Done()
			for {
				select {
				case <-subCtx.Done():
					return
				case ev, ok := <-events:
					if !ok {
						return
					}
					select {
					case merged <- indexedEvent{index: index, event: ev}:
					case <-subCtx.Done():
						return
					}
				}
			}
		}(i, events)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-out.Done():
			w.log.Warn("bluetooth channel closed, stopping")
			return nil
		case ie, ok := <-merged:
			if !ok {
				w.log.Warn("all bluetooth event streams ended")
				return nil
			}
			dev := &state.Devices[ie.index]
			dev.Connected = ie.event.Connected
			w.log.Debug("bluetooth connection changed", zap.String("device", dev.Name), zap.Bool("connected", dev.Connected))
			if !w.publish(out, state) {
				return nil
			}
		}
	}
}

// publish reports false once the receiver has hung up.
func (w *Watcher) publish(out *relay.Sender[ConnectionState], state ConnectionState) bool {
	switch out.TrySend(state.Clone()) {
	case relay.Full:
		w.log.Warn("bluetooth update dropped, aggregator is not consuming")
	case relay.Closed:
		w.log.Warn("bluetooth channel closed, stopping")
		return false
	}
	return true
}

// Execute performs a Connect or Disconnect command. Failures are logged.
func (w *Watcher) Execute(ctx context.Context, cmd command.Command) {
	log := w.log.With(zap.Stringer("command", cmd.ID), zap.Stringer("kind", cmd.Kind), zap.String("device", cmd.Device))

	var dev *device
	for i := range w.devices {
		if w.devices[i].name == cmd.Device {
			dev = &w.devices[i]
			break
		}
	}
	if dev == nil {
		log.Warn("command for untracked device ignored")
		return
	}

	var err error
	switch cmd.Kind {
	case command.Connect:
		err = w.session.Connect(ctx, dev.id)
	case command.Disconnect:
		err = w.session.Disconnect(ctx, dev.id)
	default:
		log.Warn("not a bluetooth command")
		return
	}
	if err != nil {
		log.Warn("bluetooth command failed", zap.Error(err))
		return
	}
	log.Info("bluetooth command completed")
}
