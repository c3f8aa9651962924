package bluetooth

import (
	"context"
	"net"
)

// DeviceID identifies a device within a Session. For BlueZ it is the D-Bus
// object path.
type DeviceID string

// DeviceInfo describes a device known to the adapter.
type DeviceInfo struct {
	ID        DeviceID
	Address   net.HardwareAddr
	Name      string
	Connected bool
}

// Event reports a change of a device's connection status.
type Event struct {
	Device    DeviceID
	Connected bool
}

// Session is a connection to the host Bluetooth stack. Implementations must
// be safe for concurrent use.
type Session interface {
	// Devices lists every device the adapter knows about.
	Devices(ctx context.Context) ([]DeviceInfo, error)
	Connected(ctx context.Context, id DeviceID) (bool, error)
	Connect(ctx context.Context, id DeviceID) error
	Disconnect(ctx context.Context, id DeviceID) error
	// Events streams connection changes for id until ctx is done, then
	// closes the channel.
	Events(ctx context.Context, id DeviceID) (<-chan Event, error)
	Close() error
}

// Opener establishes a Session.
type Opener func(ctx context.Context) (Session, error)
