// Package metrics reports engine counters to InfluxDB. Reporting is optional;
// when disabled or unreachable every write is a no-op so the gameplay path
// never depends on it.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Bucket is the single bucket the engine writes to.
const Bucket = "emitsound_metrics"

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPI
	IsValid bool
	Logger  zerolog.Logger
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		IsValid: false,
		Logger:  log,
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(5000),
	)

	running, err := m.Client.Ping(context.Background())
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Msg("InfluxDB unreachable, metrics disabled")
		return nil
	}

	m.Writer = m.Client.WriteAPI(viper.GetString("influx.org"), viper.GetString("influx.bucket"))

	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Msg("Error sending data to InfluxDB")
		}
	}()

	m.IsValid = true
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

// WriteStatus writes one engine status point. Silently ignored while the
// client is not valid.
func (m *Manager) WriteStatus(fields map[string]any) {
	if !m.IsValid || m.Writer == nil {
		return
	}

	point := influxdb2_write.NewPointWithMeasurement("engine_status")
	for name, value := range fields {
		point.AddField(name, value)
	}
	point.SetTime(time.Now())

	m.Writer.WritePoint(point)
}

// Close flushes pending writes and shuts the client down.
func (m *Manager) Close() {
	if m.Client == nil {
		return
	}
	if m.Writer != nil {
		m.Writer.Flush()
	}
	m.Client.Close()
	m.IsValid = false
}
