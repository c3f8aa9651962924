package state

import (
	"time"

	"github.com/five82/homedash/internal/bluetooth"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/weather"
)

// Snapshot is the merged view of every source. Each field holds the most
// recent successful report of its source and stays empty until the source
// first reports.
type Snapshot struct {
	Bluetooth bluetooth.ConnectionState
	Weather   *weather.Reading
	Rooms     []weather.RoomReading // nil until a room fetch succeeds
	Display   *display.State
	UpdatedAt time.Time
}

// HasWeather reports whether a station reading has arrived.
func (s Snapshot) HasWeather() bool {
	return s.Weather != nil
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Bluetooth = s.Bluetooth.Clone()
	out.Weather = s.Weather.Clone()
	if s.Rooms != nil {
		out.Rooms = make([]weather.RoomReading, len(s.Rooms))
		copy(out.Rooms, s.Rooms)
	}
	if s.Display != nil {
		d := *s.Display
		out.Display = &d
	}
	return out
}
