package weather

import (
	"errors"
	"fmt"
	"time"
)

// Trend is the direction a measurement has moved over the last hours. The
// zero value means no trend was reported.
type Trend int

const (
	TrendUnknown Trend = iota
	TrendStable
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendStable:
		return "stable"
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "unknown"
	}
}

// ErrNoTrend is returned by ParseTrend when the API left the trend out.
var ErrNoTrend = errors.New("trend not reported")

// ParseTrend decodes the API's trend string. Only the exact lowercase values
// "up", "down" and "stable" are recognised; anything else, including an
// empty string, yields TrendUnknown and an error.
func ParseTrend(s string) (Trend, error) {
	switch s {
	case "stable":
		return TrendStable, nil
	case "up":
		return TrendUp, nil
	case "down":
		return TrendDown, nil
	case "":
		return TrendUnknown, ErrNoTrend
	default:
		return TrendUnknown, fmt.Errorf("unknown trend %q", s)
	}
}

// OutdoorReading is the outdoor module attached to a station.
type OutdoorReading struct {
	Temperature      float64
	TemperatureTrend Trend
	Humidity         int
	BatteryPercent   int
	MeasuredAt       time.Time
}

// Reading is the latest data of one weather station.
type Reading struct {
	Station          string
	Temperature      float64
	TemperatureTrend Trend
	Humidity         int
	CO2              int
	Noise            int
	Pressure         float64
	PressureTrend    Trend
	Outdoor          *OutdoorReading // nil when the station has no outdoor module
	MeasuredAt       time.Time
}

// Clone returns a deep copy of r. A nil Reading clones to nil.
func (r *Reading) Clone() *Reading {
	if r == nil {
		return nil
	}
	out := *r
	if r.Outdoor != nil {
		outdoor := *r.Outdoor
		out.Outdoor = &outdoor
	}
	return &out
}

// RoomReading is the latest data of one indoor air-quality monitor.
type RoomReading struct {
	Name        string
	Temperature float64
	Humidity    int
	CO2         int
	Noise       int
	HealthIndex int
	MeasuredAt  time.Time
}

// Update is the result of one poll. Rooms is nil when the room data could
// not be fetched this cycle.
type Update struct {
	Station *Reading
	Rooms   []RoomReading
}
