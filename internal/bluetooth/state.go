package bluetooth

// DeviceStatus is the mirrored connection status of one tracked device.
type DeviceStatus struct {
	Name      string
	Address   string
	Connected bool
}

// ConnectionState lists every tracked device in configuration order.
type ConnectionState struct {
	Devices []DeviceStatus
}

// Clone returns a copy that shares no memory with s.
func (s ConnectionState) Clone() ConnectionState {
	if s.Devices == nil {
		return ConnectionState{}
	}
	out := make([]DeviceStatus, len(s.Devices))
	copy(out, s.Devices)
	return ConnectionState{Devices: out}
}

// Connected reports whether the named device is connected. Unknown names
// report false.
func (s ConnectionState) Connected(name string) bool {
	for _, d := range s.Devices {
		if d.Name == name {
			return d.Connected
		}
	}
	return false
}
