package app

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/homedash/internal/command"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/relay"
)

type recordingExecutor struct {
	got chan command.Command
}

func (r *recordingExecutor) Execute(_ context.Context, cmd command.Command) {
	r.got <- cmd
}

func TestRouteCommands_DispatchesByKind(t *testing.T) {
	cmdTx, cmdRx := relay.New[command.Command](4)
	reqTx, reqRx := relay.New[display.Request](4)
	bt := &recordingExecutor{got: make(chan command.Command, 4)}

	cmdTx.TrySend(command.ConnectDevice("speaker"))
	cmdTx.TrySend(command.Brightness(40))
	cmdTx.TrySend(command.Preset(display.PresetMovie))
	cmdTx.Close()

	if err := routeCommands(context.Background(), cmdRx, bt, reqTx, zap.NewNop()); err != nil {
		t.Fatalf("routeCommands error: %v", err)
	}

	select {
	case c := <-bt.got:
		if c.Kind != command.Connect || c.Device != "speaker" {
			t.Fatalf("executor got %v", c)
		}
	default:
		t.Fatalf("bluetooth command not executed")
	}

	first, second := <-reqRx.C(), <-reqRx.C()
	if !first.SetBrightness || first.Brightness != 40 {
		t.Fatalf("first request = %+v, want brightness 40", first)
	}
	if !second.SetPreset || second.Preset != display.PresetMovie {
		t.Fatalf("second request = %+v, want preset Movie", second)
	}
}

func TestRouteCommands_DisplayNotRunning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cmdTx, cmdRx := relay.New[command.Command](4)
	reqTx, reqRx := relay.New[display.Request](1)
	reqRx.Close()

	cmdTx.TrySend(command.Brightness(10))
	cmdTx.Close()

	if err := routeCommands(context.Background(), cmdRx, &recordingExecutor{got: make(chan command.Command, 1)}, reqTx, zap.New(core)); err != nil {
		t.Fatalf("routeCommands error: %v", err)
	}
	if n := logs.FilterMessage("display request dropped, display watcher is not running").Len(); n != 1 {
		t.Fatalf("dropped request warnings = %d, want 1", n)
	}
}

func TestRouteCommands_StopsOnContext(t *testing.T) {
	_, cmdRx := relay.New[command.Command](1)
	reqTx, _ := relay.New[display.Request](1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- routeCommands(ctx, cmdRx, &recordingExecutor{got: make(chan command.Command, 1)}, reqTx, zap.NewNop())
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("routeCommands error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("routeCommands did not stop on cancel")
	}
}
