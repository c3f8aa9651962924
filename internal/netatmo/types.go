package netatmo

import "time"

// ModuleOutdoor is the module type of the outdoor temperature/humidity
// sensor attached to a weather station.
const ModuleOutdoor = "NAModule1"

// StationsResponse mirrors /api/getstationsdata.
type StationsResponse struct {
	Body struct {
		Devices []Station `json:"devices"`
	} `json:"body"`
	Status     string `json:"status"`
	TimeServer int64  `json:"time_server"`
}

// Station is a main indoor weather station with its modules.
type Station struct {
	ID            string         `json:"_id"`
	StationName   string         `json:"station_name"`
	ModuleName    string         `json:"module_name"`
	Type          string         `json:"type"`
	Reachable     bool           `json:"reachable"`
	DashboardData *DashboardData `json:"dashboard_data"`
	Modules       []Module       `json:"modules"`
}

// Module is a sensor paired with a station.
type Module struct {
	ID             string         `json:"_id"`
	Type           string         `json:"type"`
	ModuleName     string         `json:"module_name"`
	BatteryPercent int            `json:"battery_percent"`
	Reachable      bool           `json:"reachable"`
	DashboardData  *DashboardData `json:"dashboard_data"`
}

// Outdoor returns the station's outdoor module, or nil.
func (s Station) Outdoor() *Module {
	for i := range s.Modules {
		if s.Modules[i].Type == ModuleOutdoor {
			return &s.Modules[i]
		}
	}
	return nil
}

// DisplayName prefers the station name over the module name.
func (s Station) DisplayName() string {
	if s.StationName != "" {
		return s.StationName
	}
	return s.ModuleName
}

// DashboardData holds the latest measurements of a station, module or home
// coach. Fields the device does not measure are zero.
type DashboardData struct {
	TimeUTC       int64   `json:"time_utc"`
	Temperature   float64 `json:"Temperature"`
	Humidity      int     `json:"Humidity"`
	CO2           int     `json:"CO2"`
	Noise         int     `json:"Noise"`
	Pressure      float64 `json:"Pressure"`
	PressureTrend string  `json:"pressure_trend"`
	TempTrend     string  `json:"temp_trend"`
	HealthIdx     int     `json:"health_idx"`
}

// MeasuredAt converts TimeUTC to a time.Time. A missing timestamp yields
// the zero time.
func (d DashboardData) MeasuredAt() time.Time {
	if d.TimeUTC == 0 {
		return time.Time{}
	}
	return time.Unix(d.TimeUTC, 0).UTC()
}

// HomeCoachesResponse mirrors /api/gethomecoachsdata.
type HomeCoachesResponse struct {
	Body struct {
		Devices []HomeCoach `json:"devices"`
	} `json:"body"`
	Status     string `json:"status"`
	TimeServer int64  `json:"time_server"`
}

// HomeCoach is an indoor air-quality monitor placed in a room.
type HomeCoach struct {
	ID            string         `json:"_id"`
	StationName   string         `json:"station_name"`
	Name          string         `json:"name"`
	Reachable     bool           `json:"reachable"`
	DashboardData *DashboardData `json:"dashboard_data"`
}

// DisplayName prefers the user-given name.
func (h HomeCoach) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.StationName
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
