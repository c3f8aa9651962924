package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/five82/homedash/internal/netatmo"
	"github.com/five82/homedash/internal/relay"
)

const (
	defaultPollInterval   = time.Minute
	defaultAcquireTimeout = 30 * time.Second
)

// TokenSource obtains and renews API access tokens.
type TokenSource interface {
	Acquire(ctx context.Context) (netatmo.Token, error)
	Refresh(ctx context.Context, token netatmo.Token) (netatmo.Token, error)
}

// StationAPI fetches raw station and room data.
type StationAPI interface {
	FetchStations(ctx context.Context, accessToken string) (*netatmo.StationsResponse, error)
	FetchHomeCoaches(ctx context.Context, accessToken string) (*netatmo.HomeCoachesResponse, error)
}

var (
	_ TokenSource = (*netatmo.TokenSource)(nil)
	_ StationAPI  = (*netatmo.Client)(nil)
)

// Options configure a Watcher.
type Options struct {
	Tokens TokenSource
	API    StationAPI
	// Station selects a station by name; empty takes the first one.
	Station string
	// Rooms restricts room readings to these names; empty reports all.
	Rooms          []string
	Interval       time.Duration
	AcquireTimeout time.Duration
	Clock          clockwork.Clock
	Logger         *zap.Logger
}

// Watcher polls the weather API and emits an Update per successful cycle.
type Watcher struct {
	tokens         TokenSource
	api            StationAPI
	station        string
	rooms          map[string]bool
	interval       time.Duration
	acquireTimeout time.Duration
	clock          clockwork.Clock
	log            *zap.Logger
}

// NewWatcher builds a Watcher from opts.
func NewWatcher(opts Options) *Watcher {
	w := &Watcher{
		tokens:         opts.Tokens,
		api:            opts.API,
		station:        opts.Station,
		interval:       opts.Interval,
		acquireTimeout: opts.AcquireTimeout,
		clock:          opts.Clock,
		log:            opts.Logger,
	}
	if len(opts.Rooms) > 0 {
		w.rooms = make(map[string]bool, len(opts.Rooms))
		for _, name := range opts.Rooms {
			w.rooms[name] = true
		}
	}
	if w.interval <= 0 {
		w.interval = defaultPollInterval
	}
	if w.acquireTimeout <= 0 {
		w.acquireTimeout = defaultAcquireTimeout
	}
	if w.clock == nil {
		w.clock = clockwork.NewRealClock()
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	return w
}

// Run acquires a token and polls until ctx is done or out is closed. It
// returns an error only when the first token cannot be obtained.
func (w *Watcher) Run(ctx context.Context, out *relay.Sender[Update]) error {
	acquireCtx, cancel := context.WithTimeout(ctx, w.acquireTimeout)
	token, err := w.tokens.Acquire(acquireCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("acquire netatmo token: %w", err)
	}
	w.log.Info("netatmo token acquired", zap.Time("expiry", token.Expiry))

	for {
		if update, ok := w.cycle(ctx, &token); ok {
			switch out.TrySend(update) {
			case relay.Full:
				w.log.Warn("weather update dropped, aggregator is not consuming")
			case relay.Closed:
				w.log.Warn("weather channel closed, stopping")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-out.Done():
			w.log.Warn("weather channel closed, stopping")
			return nil
		case <-w.clock.After(w.interval):
		}
	}
}

// cycle refreshes the token if needed and fetches one Update. ok is false
// when nothing should be published.
func (w *Watcher) cycle(ctx context.Context, token *netatmo.Token) (Update, bool) {
	if token.Expired(w.clock.Now()) {
		w.log.Info("access token expired, refreshing")
		fresh, err := w.tokens.Refresh(ctx, *token)
		if err != nil {
			w.log.Warn("token refresh failed, skipping cycle", zap.Error(err))
			return Update{}, false
		}
		*token = fresh
	}

	stations, err := w.api.FetchStations(ctx, token.AccessToken)
	if err != nil {
		w.log.Warn("fetch station data failed", zap.Error(err))
		return Update{}, false
	}
	reading, err := w.stationReading(stations)
	if err != nil {
		w.log.Warn("station data unusable", zap.Error(err))
		return Update{}, false
	}

	update := Update{Station: reading}
	coaches, err := w.api.FetchHomeCoaches(ctx, token.AccessToken)
	if err != nil {
		w.log.Warn("fetch room data failed", zap.Error(err))
	} else {
		update.Rooms = w.roomReadings(coaches)
	}
	return update, true
}

func (w *Watcher) stationReading(resp *netatmo.StationsResponse) (*Reading, error) {
	var station *netatmo.Station
	for i := range resp.Body.Devices {
		d := &resp.Body.Devices[i]
		if w.station == "" || d.DisplayName() == w.station {
			station = d
			break
		}
	}
	if station == nil {
		if w.station == "" {
			return nil, fmt.Errorf("account has no weather station")
		}
		return nil, fmt.Errorf("station %q not found", w.station)
	}
	data := station.DashboardData
	if data == nil {
		return nil, fmt.Errorf("station %q reported no data (reachable=%t)", station.DisplayName(), station.Reachable)
	}

	r := &Reading{
		Station:          station.DisplayName(),
		Temperature:      data.Temperature,
		TemperatureTrend: w.trend("temp_trend", data.TempTrend),
		Humidity:         data.Humidity,
		CO2:              data.CO2,
		Noise:            data.Noise,
		Pressure:         data.Pressure,
		PressureTrend:    w.trend("pressure_trend", data.PressureTrend),
		MeasuredAt:       data.MeasuredAt(),
	}
	if m := station.Outdoor(); m != nil && m.DashboardData != nil {
		r.Outdoor = &OutdoorReading{
			Temperature:      m.DashboardData.Temperature,
			TemperatureTrend: w.trend("outdoor temp_trend", m.DashboardData.TempTrend),
			Humidity:         m.DashboardData.Humidity,
			BatteryPercent:   m.BatteryPercent,
			MeasuredAt:       m.DashboardData.MeasuredAt(),
		}
	}
	return r, nil
}

func (w *Watcher) roomReadings(resp *netatmo.HomeCoachesResponse) []RoomReading {
	rooms := make([]RoomReading, 0, len(resp.Body.Devices))
	for _, c := range resp.Body.Devices {
		name := c.DisplayName()
		if w.rooms != nil && !w.rooms[name] {
			continue
		}
		if c.DashboardData == nil {
			w.log.Debug("room reported no data", zap.String("room", name))
			continue
		}
		d := c.DashboardData
		rooms = append(rooms, RoomReading{
			Name:        name,
			Temperature: d.Temperature,
			Humidity:    d.Humidity,
			CO2:         d.CO2,
			Noise:       d.Noise,
			HealthIndex: d.HealthIdx,
			MeasuredAt:  d.MeasuredAt(),
		})
	}
	return rooms
}

func (w *Watcher) trend(field, raw string) Trend {
	t, err := ParseTrend(raw)
	switch {
	case errors.Is(err, ErrNoTrend):
		w.log.Debug("trend not reported", zap.String("field", field))
	case err != nil:
		w.log.Warn("unparsable trend", zap.String("field", field), zap.Error(err))
	}
	return t
}
