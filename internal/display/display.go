package display

import (
	"errors"
	"fmt"
	"strings"
)

// VCP feature codes read by the watcher.
const (
	VCPBrightness byte = 0x10
	VCPPresetDC   byte = 0xDC
	VCPPresetF0   byte = 0xF0
)

// ErrNoDisplayFound is returned when enumeration yields no monitors.
var ErrNoDisplayFound = errors.New("no DDC/CI display found")

// PresetMode names a monitor picture mode.
type PresetMode int

const (
	PresetUnknown PresetMode = iota
	PresetStandard
	PresetComfort
	PresetMovie
	PresetGame
)

func (m PresetMode) String() string {
	switch m {
	case PresetStandard:
		return "Standard"
	case PresetComfort:
		return "Comfort"
	case PresetMovie:
		return "Movie"
	case PresetGame:
		return "Game"
	default:
		return "Unknown"
	}
}

// Presets lists the settable modes in display order.
var Presets = []PresetMode{PresetStandard, PresetComfort, PresetMovie, PresetGame}

// Preset is a decoded picture mode. DC and F0 keep the raw register values
// so unrecognized pairs can still be shown.
type Preset struct {
	Mode PresetMode
	DC   uint16
	F0   uint16
}

func (p Preset) String() string {
	if p.Mode == PresetUnknown {
		return fmt.Sprintf("Unknown{dc: %#x, f0: %#x}", p.DC, p.F0)
	}
	return p.Mode.String()
}

// DecodePreset maps the 0xDC/0xF0 register pair to a preset.
func DecodePreset(dc, f0 uint16) Preset {
	p := Preset{DC: dc, F0: f0}
	switch {
	case dc == 0 && f0 == 0:
		p.Mode = PresetStandard
	case dc == 0 && f0 == 0xC:
		p.Mode = PresetComfort
	case dc == 3 && f0 == 0:
		p.Mode = PresetMovie
	case dc == 5 && f0 == 0:
		p.Mode = PresetGame
	default:
		p.Mode = PresetUnknown
	}
	return p
}

// EncodePreset returns the register write that selects mode.
func EncodePreset(mode PresetMode) (code byte, value uint16, err error) {
	switch mode {
	case PresetStandard:
		return VCPPresetDC, 0, nil
	case PresetComfort:
		return VCPPresetF0, 0xC, nil
	case PresetMovie:
		return VCPPresetDC, 3, nil
	case PresetGame:
		return VCPPresetDC, 5, nil
	default:
		return 0, 0, fmt.Errorf("preset %s cannot be set", mode)
	}
}

// State is one observation of the monitor. Absent readings leave the Has
// flag false. State is comparable so change detection is plain equality.
type State struct {
	Brightness    uint16
	HasBrightness bool
	Preset        Preset
	HasPreset     bool
}

func (s State) String() string {
	var b strings.Builder
	if s.HasBrightness {
		fmt.Fprintf(&b, "brightness=%d", s.Brightness)
	} else {
		b.WriteString("brightness=?")
	}
	if s.HasPreset {
		fmt.Fprintf(&b, " preset=%s", s.Preset)
	} else {
		b.WriteString(" preset=?")
	}
	return b.String()
}

// Request asks the watcher to change monitor settings before its next read.
type Request struct {
	Brightness    uint16
	SetBrightness bool
	Preset        PresetMode
	SetPreset     bool
}

// Info describes an enumerated monitor.
type Info struct {
	ID           string
	Manufacturer string
	Model        string
}

func (i Info) String() string {
	s := "Id:" + i.ID
	if i.Manufacturer != "" {
		s += "  Manufacturer:" + i.Manufacturer
	}
	if i.Model != "" {
		s += "  Model:" + i.Model
	}
	return s
}

// Monitor is a handle to one display's control channel. Calls block.
type Monitor interface {
	Info() Info
	GetVCP(code byte) (current, max uint16, err error)
	SetVCP(code byte, value uint16) error
	Close() error
}

// Enumerator lists the monitors currently attached.
type Enumerator func() ([]Monitor, error)

// Select picks the monitor whose model matches preferred, falling back to
// the first one.
func Select(monitors []Monitor, preferred string) (Monitor, error) {
	if len(monitors) == 0 {
		return nil, ErrNoDisplayFound
	}
	preferred = strings.TrimSpace(preferred)
	if preferred != "" {
		for _, m := range monitors {
			if m.Info().Model == preferred {
				return m, nil
			}
		}
	}
	return monitors[0], nil
}
