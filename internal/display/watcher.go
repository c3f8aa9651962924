package display

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/five82/homedash/internal/relay"
)

const defaultPollInterval = time.Second

// Options configure a Watcher.
type Options struct {
	Enumerate      Enumerator
	PreferredModel string
	Interval       time.Duration // zero uses one second
	Clock          clockwork.Clock
	Logger         *zap.Logger
}

// Watcher polls one monitor's VCP registers and emits State changes.
type Watcher struct {
	enumerate Enumerator
	preferred string
	interval  time.Duration
	clock     clockwork.Clock
	log       *zap.Logger
}

// NewWatcher builds a Watcher from opts.
func NewWatcher(opts Options) *Watcher {
	w := &Watcher{
		enumerate: opts.Enumerate,
		preferred: opts.PreferredModel,
		interval:  opts.Interval,
		clock:     opts.Clock,
		log:       opts.Logger,
	}
	if w.interval <= 0 {
		w.interval = defaultPollInterval
	}
	if w.clock == nil {
		w.clock = clockwork.NewRealClock()
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	return w
}

// Run selects a monitor and polls it until ctx is done or out is closed.
// Register access blocks, so Run pins itself to an OS thread.
func (w *Watcher) Run(ctx context.Context, out *relay.Sender[State], requests *relay.Receiver[Request]) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.enumerate == nil {
		return fmt.Errorf("display enumerator is nil")
	}
	monitors, err := w.enumerate()
	if err != nil {
		return fmt.Errorf("enumerate displays: %w", err)
	}
	monitor, err := Select(monitors, w.preferred)
	if err != nil {
		return err
	}
	for _, m := range monitors {
		if m != monitor {
			_ = m.Close()
		}
	}
	defer func() { _ = monitor.Close() }()

	w.log.Info("found display", zap.Stringer("display", monitor.Info()))

	var pending <-chan Request
	if requests != nil {
		pending = requests.C()
	}

	var last relay.LastValue[State]
	for {
		pending = w.applyRequests(monitor, pending)

		current := w.read(monitor)
		if last.Changed(current) {
			switch out.TrySend(current) {
			case relay.Sent:
				last.Store(current)
				w.log.Debug("display state changed", zap.Stringer("state", current))
			case relay.Full:
				w.log.Warn("display update dropped, aggregator is not consuming")
			case relay.Closed:
				w.log.Warn("display channel closed, stopping")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-out.Done():
			w.log.Warn("display channel closed, stopping")
			return nil
		case <-w.clock.After(w.interval):
		}
	}
}

// applyRequests performs every queued request. It returns nil once the
// request channel is closed.
func (w *Watcher) applyRequests(monitor Monitor, pending <-chan Request) <-chan Request {
	for pending != nil {
		select {
		case req, ok := <-pending:
			if !ok {
				return nil
			}
			w.apply(monitor, req)
		default:
			return pending
		}
	}
	return nil
}

func (w *Watcher) apply(monitor Monitor, req Request) {
	if req.SetBrightness {
		if err := monitor.SetVCP(VCPBrightness, req.Brightness); err != nil {
			w.log.Warn("set brightness failed", zap.Uint16("value", req.Brightness), zap.Error(err))
		}
	}
	if req.SetPreset {
		code, value, err := EncodePreset(req.Preset)
		if err == nil {
			err = monitor.SetVCP(code, value)
		}
		if err != nil {
			w.log.Warn("set preset failed", zap.Stringer("preset", req.Preset), zap.Error(err))
		}
	}
}

func (w *Watcher) read(monitor Monitor) State {
	var st State

	if v, _, err := monitor.GetVCP(VCPBrightness); err != nil {
		w.log.Warn("read brightness failed", zap.Error(err))
	} else {
		st.Brightness, st.HasBrightness = v, true
	}

	dc, _, err := monitor.GetVCP(VCPPresetDC)
	if err != nil {
		w.log.Warn("read preset register failed", zap.String("register", "0xDC"), zap.Error(err))
		return st
	}
	f0, _, err := monitor.GetVCP(VCPPresetF0)
	if err != nil {
		w.log.Warn("read preset register failed", zap.String("register", "0xF0"), zap.Error(err))
		return st
	}
	st.Preset, st.HasPreset = DecodePreset(dc, f0), true
	return st
}
