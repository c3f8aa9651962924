// Package command defines the requests the presentation layer sends back to
// the device watchers.
package command

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/five82/homedash/internal/display"
)

// Kind selects what a Command does.
type Kind int

const (
	Connect Kind = iota
	Disconnect
	SetBrightness
	SetPreset
)

func (k Kind) String() string {
	switch k {
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case SetBrightness:
		return "set-brightness"
	case SetPreset:
		return "set-preset"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Bluetooth reports whether the kind targets a Bluetooth device.
func (k Kind) Bluetooth() bool {
	return k == Connect || k == Disconnect
}

// Command is a single user request. Device is set for Bluetooth kinds,
// Brightness and Preset for display kinds. ID correlates log lines.
type Command struct {
	ID         uuid.UUID
	Kind       Kind
	Device     string
	Brightness uint16
	Preset     display.PresetMode
}

func (c Command) String() string {
	switch c.Kind {
	case Connect, Disconnect:
		return fmt.Sprintf("%s %s", c.Kind, c.Device)
	case SetBrightness:
		return fmt.Sprintf("%s %d", c.Kind, c.Brightness)
	case SetPreset:
		return fmt.Sprintf("%s %s", c.Kind, c.Preset)
	default:
		return c.Kind.String()
	}
}

// ConnectDevice asks for the named device to be connected.
func ConnectDevice(name string) Command {
	return Command{ID: uuid.New(), Kind: Connect, Device: name}
}

// DisconnectDevice asks for the named device to be disconnected.
func DisconnectDevice(name string) Command {
	return Command{ID: uuid.New(), Kind: Disconnect, Device: name}
}

// Toggle connects the device when it is disconnected and vice versa.
func Toggle(name string, connected bool) Command {
	if connected {
		return DisconnectDevice(name)
	}
	return ConnectDevice(name)
}

func Brightness(value uint16) Command {
	return Command{ID: uuid.New(), Kind: SetBrightness, Brightness: value}
}

func Preset(mode display.PresetMode) Command {
	return Command{ID: uuid.New(), Kind: SetPreset, Preset: mode}
}

// DisplayRequest converts a display command into the watcher's request.
// ok is false for Bluetooth kinds.
func (c Command) DisplayRequest() (req display.Request, ok bool) {
	switch c.Kind {
	case SetBrightness:
		return display.Request{Brightness: c.Brightness, SetBrightness: true}, true
	case SetPreset:
		return display.Request{Preset: c.Preset, SetPreset: true}, true
	default:
		return display.Request{}, false
	}
}
