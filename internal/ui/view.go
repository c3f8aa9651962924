package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/five82/homedash/internal/bluetooth"
	"github.com/five82/homedash/internal/display"
	"github.com/five82/homedash/internal/weather"
)

const panelWidth = 34

var healthLabels = []string{"healthy", "fine", "fair", "poor", "unhealthy"}

// renderMain renders the full dashboard.
func (m Model) renderMain() string {
	styles := m.theme.Styles()

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderBluetooth(styles),
		m.renderDisplay(styles),
	)
	middle := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderWeather(styles),
		m.renderRooms(styles),
	)

	sections := []string{m.renderHeader(styles), top, middle}
	if len(m.problems) > 0 {
		sections = append(sections, m.renderProblems(styles))
	}
	sections = append(sections, m.renderFooter(styles))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(styles Styles) string {
	parts := []string{styles.Logo.Render("homedash")}
	if m.hasSnapshot && !m.snapshot.UpdatedAt.IsZero() {
		parts = append(parts, styles.MutedText.Render("updated "+m.snapshot.UpdatedAt.Format("15:04:05")))
	} else {
		parts = append(parts, styles.WarningText.Render("waiting for data"))
	}
	parts = append(parts, styles.FaintText.Render(m.theme.Name))

	header := styles.Header
	if m.width > 0 {
		header = header.Width(m.width)
	}
	return header.Render(strings.Join(parts, "  "))
}

func (m Model) renderFooter(styles Styles) string {
	lines := []string{}
	if m.status != "" {
		lines = append(lines, styles.InfoText.Render(m.status))
	}
	lines = append(lines, m.help.View(m.keys))
	return styles.Footer.Render(strings.Join(lines, "\n"))
}

func (m Model) panel(styles Styles, title string, body []string) string {
	return m.panelSized(styles, title, body, panelWidth)
}

func (m Model) panelSized(styles Styles, title string, body []string, width int) string {
	content := styles.PanelTitle.Render(title) + "\n" + strings.Join(body, "\n")
	return styles.Panel.Width(width).Render(content)
}

func (m Model) renderBluetooth(styles Styles) string {
	devices := m.snapshot.Bluetooth.Devices
	if len(devices) == 0 {
		return m.panel(styles, "Bluetooth", []string{styles.FaintText.Render("no devices")})
	}
	body := make([]string, 0, len(devices))
	for i, d := range devices {
		body = append(body, deviceLine(styles, i, d))
	}
	return m.panel(styles, "Bluetooth", body)
}

func deviceLine(styles Styles, index int, d bluetooth.DeviceStatus) string {
	state := styles.MutedText.Render("disconnected")
	if d.Connected {
		state = styles.SuccessText.Render("connected")
	}
	prefix := "  "
	if index < 9 {
		prefix = fmt.Sprintf("%d ", index+1)
	}
	return styles.FaintText.Render(prefix) + styles.Text.Render(d.Name) + " " + state
}

func (m Model) renderDisplay(styles Styles) string {
	d := m.snapshot.Display
	if d == nil {
		return m.panel(styles, "Display", []string{styles.FaintText.Render("no reading")})
	}
	return m.panel(styles, "Display", []string{
		labelled(styles, "brightness", brightnessText(*d)),
		labelled(styles, "preset", presetText(*d)),
	})
}

func brightnessText(d display.State) string {
	if !d.HasBrightness {
		return "?"
	}
	return fmt.Sprintf("%d%%", d.Brightness)
}

func presetText(d display.State) string {
	if !d.HasPreset {
		return "?"
	}
	return d.Preset.String()
}

func (m Model) renderWeather(styles Styles) string {
	r := m.snapshot.Weather
	if r == nil {
		return m.panel(styles, "Weather", []string{styles.FaintText.Render("no reading")})
	}
	body := []string{
		labelled(styles, "indoor", formatTemp(r.Temperature, r.TemperatureTrend)),
		labelled(styles, "humidity", fmt.Sprintf("%d%%", r.Humidity)),
		labelled(styles, "co2", fmt.Sprintf("%d ppm", r.CO2)),
		labelled(styles, "pressure", strings.TrimSpace(fmt.Sprintf("%.1f mbar %s", r.Pressure, trendArrow(r.PressureTrend)))),
	}
	if o := r.Outdoor; o != nil {
		body = append(body,
			labelled(styles, "outdoor", formatTemp(o.Temperature, o.TemperatureTrend)),
			labelled(styles, "outdoor rh", fmt.Sprintf("%d%%", o.Humidity)),
		)
	}
	if !r.MeasuredAt.IsZero() {
		body = append(body, styles.FaintText.Render("measured "+r.MeasuredAt.Local().Format("15:04")))
	}
	return m.panel(styles, r.Station, body)
}

func (m Model) renderRooms(styles Styles) string {
	rooms := m.snapshot.Rooms
	if len(rooms) == 0 {
		return m.panel(styles, "Rooms", []string{styles.FaintText.Render("no reading")})
	}
	body := make([]string, 0, len(rooms))
	for _, room := range rooms {
		body = append(body, labelled(styles, room.Name,
			fmt.Sprintf("%s %d ppm %s", formatTemp(room.Temperature, weather.TrendUnknown), room.CO2, healthLabel(room.HealthIndex))))
	}
	return m.panel(styles, "Rooms", body)
}

func (m Model) renderProblems(styles Styles) string {
	body := make([]string, 0, len(m.problems))
	for _, e := range m.problems {
		style := styles.WarningText
		if e.Level >= zapcore.ErrorLevel {
			style = styles.DangerText
		}
		line := e.Message
		if e.Logger != "" {
			line = e.Logger + ": " + line
		}
		if e.Error != "" {
			line += " (" + e.Error + ")"
		}
		stamp := "--:--:--"
		if !e.Time.IsZero() {
			stamp = e.Time.Local().Format("15:04:05")
		}
		body = append(body, styles.FaintText.Render(stamp)+" "+style.Render(line))
	}
	// Spans both panel columns including their borders.
	return m.panelSized(styles, "Problems", body, 2*panelWidth+2)
}

func labelled(styles Styles, label, value string) string {
	return styles.MutedText.Render(fmt.Sprintf("%-11s", label)) + styles.Text.Render(value)
}

func formatTemp(celsius float64, trend weather.Trend) string {
	s := fmt.Sprintf("%.1f°C", celsius)
	if arrow := trendArrow(trend); arrow != "" {
		s += " " + arrow
	}
	return s
}

func trendArrow(t weather.Trend) string {
	switch t {
	case weather.TrendUp:
		return "↑"
	case weather.TrendDown:
		return "↓"
	case weather.TrendStable:
		return "→"
	default:
		return ""
	}
}

func healthLabel(idx int) string {
	if idx < 0 || idx >= len(healthLabels) {
		return ""
	}
	return healthLabels[idx]
}
