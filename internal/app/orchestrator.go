package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/homedash/internal/bluetooth"
	"github.com/five82/homedash/internal/command"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/relay"
	"github.com/five82/homedash/internal/state"
	"github.com/five82/homedash/internal/weather"
)

const (
	sourceCapacity   = 8
	commandCapacity  = 8
	snapshotCapacity = 1
	shutdownTimeout  = 5 * time.Second
)

// Task names used in logs.
const (
	taskBluetooth    = "bluetooth"
	taskWeather      = "weather"
	taskDisplay      = "display"
	taskCommands     = "commands"
	taskPresentation = "presentation"
)

// BluetoothWatcher is the part of *bluetooth.Watcher the orchestrator uses.
type BluetoothWatcher interface {
	Run(ctx context.Context, out *relay.Sender[bluetooth.ConnectionState]) error
	Execute(ctx context.Context, cmd command.Command)
	Close() error
}

type WeatherWatcher interface {
	Run(ctx context.Context, out *relay.Sender[weather.Update]) error
}

type DisplayWatcher interface {
	Run(ctx context.Context, out *relay.Sender[display.State], requests *relay.Receiver[display.Request]) error
}

var (
	_ BluetoothWatcher = (*bluetooth.Watcher)(nil)
	_ WeatherWatcher   = (*weather.Watcher)(nil)
	_ DisplayWatcher   = (*display.Watcher)(nil)
)

// Link is the presentation's end of the pipeline.
type Link struct {
	Snapshots *relay.Receiver[state.Snapshot]
	Commands  *relay.Sender[command.Command]
	// Redraw fires after every published snapshot and once more when the
	// snapshot channel closes.
	Redraw relay.Signal
}

// Presenter renders snapshots and produces commands until it returns.
type Presenter func(ctx context.Context, link Link) error

// Components are the watchers an Orchestrator runs. Weather and Display may
// be nil to leave that source out.
type Components struct {
	// Bluetooth initializes the Bluetooth watcher. It runs before any task
	// is started and its failure aborts startup.
	Bluetooth func(ctx context.Context) (BluetoothWatcher, error)
	Weather   WeatherWatcher
	Display   DisplayWatcher
	Logger    *zap.Logger
}

// Orchestrator wires watchers, the aggregator, the command loop and the
// presentation together and runs them.
type Orchestrator struct {
	c   Components
	log *zap.Logger
}

// NewOrchestrator builds an Orchestrator from c.
func NewOrchestrator(c Components) *Orchestrator {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{c: c, log: log}
}

// Run initializes Bluetooth, starts every task and runs the aggregator until
// it stops. Only a Bluetooth initialization failure or a presentation error
// is returned; watcher failures are logged and their source is dropped.
func (o *Orchestrator) Run(parent context.Context, present Presenter) error {
	if o.c.Bluetooth == nil {
		return fmt.Errorf("initialize bluetooth: no initializer")
	}
	bt, err := o.c.Bluetooth(parent)
	if err != nil {
		return fmt.Errorf("initialize bluetooth: %w", err)
	}
	defer func() {
		if err := bt.Close(); err != nil {
			o.log.Warn("close bluetooth session", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	btTx, btRx := relay.New[bluetooth.ConnectionState](sourceCapacity)
	wxTx, wxRx := relay.New[weather.Update](sourceCapacity)
	dpTx, dpRx := relay.New[display.State](sourceCapacity)
	reqTx, reqRx := relay.New[display.Request](commandCapacity)
	cmdTx, cmdRx := relay.New[command.Command](commandCapacity)
	snapTx, snapRx := relay.New[state.Snapshot](snapshotCapacity)
	redraw := relay.NewSignal()

	sup := newSupervisor(o.log)

	sup.Go(ctx, taskBluetooth, func(ctx context.Context) error {
		return bt.Run(ctx, btTx)
	}, btTx.Close)

	if o.c.Weather != nil {
		sup.Go(ctx, taskWeather, func(ctx context.Context) error {
			return o.c.Weather.Run(ctx, wxTx)
		}, wxTx.Close)
	} else {
		o.log.Info("weather source disabled")
		wxTx.Close()
	}

	if o.c.Display != nil {
		// The display watcher pins itself to an OS thread.
		sup.Go(ctx, taskDisplay, func(ctx context.Context) error {
			return o.c.Display.Run(ctx, dpTx, reqRx)
		}, dpTx.Close, reqRx.Close)
	} else {
		o.log.Info("display source disabled")
		dpTx.Close()
		reqRx.Close()
	}

	sup.Go(ctx, taskCommands, func(ctx context.Context) error {
		return routeCommands(ctx, cmdRx, bt, reqTx, o.log.Named("commands"))
	}, reqTx.Close, cmdRx.Close)

	sup.Go(ctx, taskPresentation, func(ctx context.Context) error {
		return present(ctx, Link{Snapshots: snapRx, Commands: cmdTx, Redraw: redraw})
	}, snapRx.Close, cmdTx.Close)

	agg := state.NewAggregator(state.Sources{
		Bluetooth: btRx,
		Weather:   wxRx,
		Display:   dpRx,
	}, snapTx, redraw.Notify, o.log.Named("aggregator"))
	aggErr := agg.Run(ctx)

	cancel()
	if !sup.Wait(shutdownTimeout) {
		o.log.Warn("tasks still running at shutdown", zap.Duration("timeout", shutdownTimeout))
	}
	if aggErr != nil {
		return fmt.Errorf("aggregator: %w", aggErr)
	}
	return sup.Err(taskPresentation)
}
