package state

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/homedash/internal/bluetooth"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/relay"
	"github.com/five82/homedash/internal/weather"
)

type rig struct {
	bt      *relay.Sender[bluetooth.ConnectionState]
	wx      *relay.Sender[weather.Update]
	dp      *relay.Sender[display.State]
	snaps   *relay.Receiver[Snapshot]
	redraws atomic.Int32
	agg     *Aggregator
}

func newRig(t *testing.T, log *zap.Logger) *rig {
	t.Helper()
	r := &rig{}
	var src Sources
	r.bt, src.Bluetooth = relay.New[bluetooth.ConnectionState](8)
	r.wx, src.Weather = relay.New[weather.Update](8)
	r.dp, src.Display = relay.New[display.State](8)
	out, snaps := relay.New[Snapshot](1)
	r.snaps = snaps
	r.agg = NewAggregator(src, out, func() { r.redraws.Add(1) }, log)
	return r
}

func (r *rig) closeSources() {
	r.bt.Close()
	r.wx.Close()
	r.dp.Close()
}

func runToCompletion(t *testing.T, agg *Aggregator) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- agg.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("aggregator did not stop")
	}
}

func TestAggregator_LatestWinsWithoutReader(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := newRig(t, zap.New(core))

	for i := uint16(1); i <= 5; i++ {
		r.dp.TrySend(display.State{Brightness: i, HasBrightness: true})
	}
	r.closeSources()
	runToCompletion(t, r.agg)

	latest, ok, open := r.snaps.Drain()
	if !ok || open {
		t.Fatalf("Drain() ok=%v open=%v, want a final snapshot and closure", ok, open)
	}
	if latest.Display == nil || latest.Display.Brightness != 5 {
		t.Fatalf("latest display = %+v, want brightness 5", latest.Display)
	}
	if logs.FilterMessage("presentation is lagging, replaced unread snapshot").Len() == 0 {
		t.Fatalf("expected superseded warnings")
	}
	if r.redraws.Load() < 6 {
		t.Fatalf("redraws = %d, want one per publish plus the final one", r.redraws.Load())
	}
}

func TestAggregator_PartialUpdatesKeepOtherFields(t *testing.T) {
	r := newRig(t, nil)

	r.bt.TrySend(bluetooth.ConnectionState{Devices: []bluetooth.DeviceStatus{{Name: "speaker", Connected: true}}})
	r.wx.TrySend(weather.Update{
		Station: &weather.Reading{Station: "Home", Temperature: 20},
		Rooms:   []weather.RoomReading{{Name: "Bedroom"}},
	})
	r.closeSources()
	runToCompletion(t, r.agg)

	latest, _, _ := r.snaps.Drain()
	if !latest.Bluetooth.Connected("speaker") {
		t.Fatalf("bluetooth = %+v", latest.Bluetooth)
	}
	if !latest.HasWeather() || latest.Weather.Station != "Home" || len(latest.Rooms) != 1 {
		t.Fatalf("weather = %+v rooms = %+v", latest.Weather, latest.Rooms)
	}
	if latest.Display != nil {
		t.Fatalf("display = %+v, want absent", latest.Display)
	}
	if latest.UpdatedAt.IsZero() {
		t.Fatalf("UpdatedAt not set")
	}
}

func TestAggregator_WeatherUpdateReplacesRooms(t *testing.T) {
	r := newRig(t, nil)

	r.wx.TrySend(weather.Update{Station: &weather.Reading{}, Rooms: []weather.RoomReading{{Name: "Bedroom"}}})
	r.wx.TrySend(weather.Update{Station: &weather.Reading{Station: "later"}})
	r.closeSources()
	runToCompletion(t, r.agg)

	latest, _, _ := r.snaps.Drain()
	if latest.Rooms != nil {
		t.Fatalf("rooms = %+v, want nil after an update without rooms", latest.Rooms)
	}
	if latest.Weather.Station != "later" {
		t.Fatalf("station = %q, want later", latest.Weather.Station)
	}
}

func TestAggregator_ClosedSourceDoesNotStopOthers(t *testing.T) {
	r := newRig(t, nil)
	done := make(chan error, 1)
	go func() { done <- r.agg.Run(context.Background()) }()

	r.wx.Close()
	r.dp.Close()
	r.bt.TrySend(bluetooth.ConnectionState{Devices: []bluetooth.DeviceStatus{{Name: "headphones", Connected: true}}})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-r.snaps.C():
			if snap.Bluetooth.Connected("headphones") {
				r.bt.Close()
				if err := <-done; err != nil {
					t.Fatalf("Run error = %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("bluetooth update not forwarded after other sources closed")
		}
	}
}

func TestAggregator_SourceCloseDoesNotRepublish(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := newRig(t, zap.New(core))
	r.closeSources()
	runToCompletion(t, r.agg)

	if got := r.redraws.Load(); got != 2 {
		t.Fatalf("redraws = %d, want the initial publish and the final one", got)
	}
	if n := logs.FilterMessage("presentation is lagging, replaced unread snapshot").Len(); n != 0 {
		t.Fatalf("lagging warnings = %d, want 0", n)
	}
	if n := logs.FilterMessage("all sources closed, stopping").Len(); n != 1 {
		t.Fatalf("all-sources-closed warnings = %d, want 1", n)
	}
}

func TestAggregator_PresentationHangUpClosesSources(t *testing.T) {
	r := newRig(t, nil)
	r.snaps.Close()
	runToCompletion(t, r.agg)

	if got := r.bt.TrySend(bluetooth.ConnectionState{}); got != relay.Closed {
		t.Fatalf("bluetooth send after shutdown = %v, want closed", got)
	}
	if got := r.wx.TrySend(weather.Update{}); got != relay.Closed {
		t.Fatalf("weather send after shutdown = %v, want closed", got)
	}
	if got := r.dp.TrySend(display.State{}); got != relay.Closed {
		t.Fatalf("display send after shutdown = %v, want closed", got)
	}
}

func TestAggregator_ContextCancelClosesOutput(t *testing.T) {
	r := newRig(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.agg.Run(ctx) }()

	<-r.snaps.C()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if _, _, open := r.snaps.Drain(); open {
		t.Fatalf("snapshot channel still open after shutdown")
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	snap := Snapshot{
		Bluetooth: bluetooth.ConnectionState{Devices: []bluetooth.DeviceStatus{{Name: "a", Connected: true}}},
		Weather:   &weather.Reading{Temperature: 1, Outdoor: &weather.OutdoorReading{Temperature: 2}},
		Rooms:     []weather.RoomReading{{Name: "r"}},
		Display:   &display.State{Brightness: 3},
	}
	c := snap.Clone()
	c.Bluetooth.Devices[0].Connected = false
	c.Weather.Outdoor.Temperature = 9
	c.Rooms[0].Name = "x"
	c.Display.Brightness = 9

	if !snap.Bluetooth.Devices[0].Connected || snap.Weather.Outdoor.Temperature != 2 || snap.Rooms[0].Name != "r" || snap.Display.Brightness != 3 {
		t.Fatalf("Clone shares memory with the original: %+v", snap)
	}
	if (Snapshot{}).Clone().Rooms != nil {
		t.Fatalf("Clone turned absent rooms into an empty slice")
	}
}
