package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/five82/homedash/internal/command"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/relay"
)

// CommandExecutor carries out Bluetooth commands.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd command.Command)
}

// routeCommands dispatches commands until the presentation closes the
// channel or ctx is done. Bluetooth commands run inline; display commands
// are queued for the display watcher.
func routeCommands(ctx context.Context, cmds *relay.Receiver[command.Command], bt CommandExecutor, displayReqs *relay.Sender[display.Request], log *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-cmds.C():
			if !ok {
				log.Info("command channel closed")
				return nil
			}
			log.Info("command received", zap.Stringer("command", cmd.ID), zap.Stringer("request", cmd))

			if cmd.Kind.Bluetooth() {
				bt.Execute(ctx, cmd)
				continue
			}
			req, ok := cmd.DisplayRequest()
			if !ok {
				log.Warn("unknown command kind", zap.Stringer("kind", cmd.Kind))
				continue
			}
			switch displayReqs.TrySend(req) {
			case relay.Full:
				log.Warn("display request dropped, display watcher is busy", zap.Stringer("command", cmd.ID))
			case relay.Closed:
				log.Warn("display request dropped, display watcher is not running", zap.Stringer("command", cmd.ID))
			}
		}
	}
}
