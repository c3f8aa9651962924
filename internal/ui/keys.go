package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding

	// Bluetooth
	ToggleDevice key.Binding

	// Display
	BrightnessUp   key.Binding
	BrightnessDown key.Binding
	CyclePreset    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),

		ToggleDevice: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "Connect/disconnect device"),
		),

		BrightnessUp: key.NewBinding(
			key.WithKeys("+", "=", "up"),
			key.WithHelp("+", "Brightness up"),
		),
		BrightnessDown: key.NewBinding(
			key.WithKeys("-", "down"),
			key.WithHelp("-", "Brightness down"),
		),
		CyclePreset: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Next picture preset"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleDevice, k.BrightnessUp, k.BrightnessDown, k.CyclePreset, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleDevice},
		{k.BrightnessUp, k.BrightnessDown, k.CyclePreset},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
