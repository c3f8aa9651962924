package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/homedash/internal/bluetooth"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/relay"
	"github.com/five82/homedash/internal/weather"
)

// Sources are the per-watcher channels the Aggregator consumes. A nil
// receiver is treated as an already closed source.
type Sources struct {
	Bluetooth *relay.Receiver[bluetooth.ConnectionState]
	Weather   *relay.Receiver[weather.Update]
	Display   *relay.Receiver[display.State]
}

func (s Sources) closeAll() {
	if s.Bluetooth != nil {
		s.Bluetooth.Close()
	}
	if s.Weather != nil {
		s.Weather.Close()
	}
	if s.Display != nil {
		s.Display.Close()
	}
}

// Aggregator owns the Snapshot. It applies partial updates from the sources
// and publishes a copy to the presentation after every change.
type Aggregator struct {
	src    Sources
	out    *relay.Sender[Snapshot]
	redraw func()
	now    func() time.Time
	log    *zap.Logger
	snap   Snapshot
}

// NewAggregator wires an Aggregator. redraw is called after every publish and
// must not block.
func NewAggregator(src Sources, out *relay.Sender[Snapshot], redraw func(), log *zap.Logger) *Aggregator {
	if redraw == nil {
		redraw = func() {}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{src: src, out: out, redraw: redraw, now: time.Now, log: log}
}

// Run publishes the empty snapshot, then merges updates until ctx is done,
// the presentation hangs up, or every source has closed. On return the
// output is closed and the source receivers are hung up.
func (a *Aggregator) Run(ctx context.Context) error {
	defer func() {
		a.out.Close()
		a.redraw()
		a.src.closeAll()
	}()

	var (
		bt <-chan bluetooth.ConnectionState
		wx <-chan weather.Update
		dp <-chan display.State
	)
	if a.src.Bluetooth != nil {
		bt = a.src.Bluetooth.C()
	}
	if a.src.Weather != nil {
		wx = a.src.Weather.C()
	}
	if a.src.Display != nil {
		dp = a.src.Display.C()
	}

	if !a.publish() {
		return nil
	}
	for {
		if bt == nil && wx == nil && dp == nil {
			a.log.Warn("all sources closed, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-a.out.Done():
			a.log.Info("presentation closed, stopping")
			return nil
		case s, ok := <-bt:
			if !ok {
				a.log.Warn("bluetooth source closed")
				bt = nil
				continue
			}
			a.snap.Bluetooth = s
		case u, ok := <-wx:
			if !ok {
				a.log.Warn("weather source closed")
				wx = nil
				continue
			}
			a.snap.Weather = u.Station
			a.snap.Rooms = u.Rooms
		case d, ok := <-dp:
			if !ok {
				a.log.Warn("display source closed")
				dp = nil
				continue
			}
			a.snap.Display = &d
		}
		a.snap.UpdatedAt = a.now()
		if !a.publish() {
			return nil
		}
	}
}

// publish hands a copy of the snapshot to the presentation, replacing an
// unread one. It reports false once the presentation has hung up.
func (a *Aggregator) publish() bool {
	switch a.out.Overwrite(a.snap.Clone()) {
	case relay.Superseded:
		a.log.Warn("presentation is lagging, replaced unread snapshot")
	case relay.Closed:
		a.log.Info("presentation closed, stopping")
		return false
	}
	a.redraw()
	return true
}
