package bluetooth

import (
	"context"
	"fmt"
	"net"
	"sort"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService       = "org.bluez"
	bluezDevice        = "org.bluez.Device1"
	dbusProperties     = "org.freedesktop.DBus.Properties"
	dbusObjectManager  = "org.freedesktop.DBus.ObjectManager"
	propertiesChanged  = dbusProperties + ".PropertiesChanged"
	eventBufferSize    = 16
	connectedProperty  = "Connected"
	managedObjectsPath = dbus.ObjectPath("/")
)

type bluezSession struct {
	conn *dbus.Conn
}

// OpenBlueZ connects to BlueZ on the system bus. The connection is closed
// when ctx is done or Close is called.
func OpenBlueZ(ctx context.Context) (Session, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &bluezSession{conn: conn}, nil
}

func (s *bluezSession) device(id DeviceID) dbus.BusObject {
	return s.conn.Object(bluezService, dbus.ObjectPath(id))
}

func (s *bluezSession) Devices(ctx context.Context) ([]DeviceInfo, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := s.conn.Object(bluezService, managedObjectsPath).CallWithContext(ctx, dbusObjectManager+".GetManagedObjects", 0)
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("get managed objects: %w", err)
	}

	var devices []DeviceInfo
	for path, ifaces := range objects {
		props, ok := ifaces[bluezDevice]
		if !ok {
			continue
		}
		info := DeviceInfo{ID: DeviceID(path)}
		if v, ok := props["Address"].Value().(string); ok {
			info.Address, _ = net.ParseMAC(v)
		}
		if v, ok := props["Alias"].Value().(string); ok {
			info.Name = v
		} else if v, ok := props["Name"].Value().(string); ok {
			info.Name = v
		}
		info.Connected, _ = props[connectedProperty].Value().(bool)
		devices = append(devices, info)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}

func (s *bluezSession) Connected(ctx context.Context, id DeviceID) (bool, error) {
	var v dbus.Variant
	call := s.device(id).CallWithContext(ctx, dbusProperties+".Get", 0, bluezDevice, connectedProperty)
	if err := call.Store(&v); err != nil {
		return false, fmt.Errorf("read %s.%s: %w", id, connectedProperty, err)
	}
	connected, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("read %s.%s: unexpected type %s", id, connectedProperty, v.Signature())
	}
	return connected, nil
}

func (s *bluezSession) Connect(ctx context.Context, id DeviceID) error {
	if err := s.device(id).CallWithContext(ctx, bluezDevice+".Connect", 0).Err; err != nil {
		return fmt.Errorf("connect %s: %w", id, err)
	}
	return nil
}

func (s *bluezSession) Disconnect(ctx context.Context, id DeviceID) error {
	if err := s.device(id).CallWithContext(ctx, bluezDevice+".Disconnect", 0).Err; err != nil {
		return fmt.Errorf("disconnect %s: %w", id, err)
	}
	return nil
}

// Events subscribes to PropertiesChanged on the device object and forwards
// changes of the Connected property.
func (s *bluezSession) Events(ctx context.Context, id DeviceID) (<-chan Event, error) {
	path := dbus.ObjectPath(id)
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(dbusProperties),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, bluezDevice),
	}
	if err := s.conn.AddMatchSignalContext(ctx, match...); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", id, err)
	}

	signals := make(chan *dbus.Signal, eventBufferSize)
	s.conn.Signal(signals)

	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() {
			s.conn.RemoveSignal(signals)
			_ = s.conn.RemoveMatchSignal(match...)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				connected, ok := connectedChange(sig, path)
				if !ok {
					continue
				}
				select {
				case out <- Event{Device: id, Connected: connected}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// connectedChange extracts the new Connected value from a PropertiesChanged
// signal for path.
func connectedChange(sig *dbus.Signal, path dbus.ObjectPath) (bool, bool) {
	if sig == nil || sig.Path != path || sig.Name != propertiesChanged || len(sig.Body) < 2 {
		return false, false
	}
	if iface, _ := sig.Body[0].(string); iface != bluezDevice {
		return false, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return false, false
	}
	v, ok := changed[connectedProperty]
	if !ok {
		return false, false
	}
	connected, ok := v.Value().(bool)
	return connected, ok
}

func (s *bluezSession) Close() error {
	return s.conn.Close()
}
